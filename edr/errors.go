package edr

import "errors"

// Error taxonomy for malformed EDR input. Each is a sentinel that callers
// can match with errors.Is; Decode/ReadUnits wrap these with context naming
// the last successfully decoded frame where applicable. Genuine end-of-buffer
// before the first numeric read of a frame header is not an error at all —
// it is reported as io.EOF and treated by the frame loop as a clean stop.
var (
	// ErrBadFileMagic: the name-table magic is neither positive (legacy
	// v1) nor -55555, or is positive but larger than the number of names
	// the rest of the buffer could hold.
	ErrBadFileMagic = errors.New("edr: Energy names magic number mismatch, this is not a GROMACS edr file")

	// ErrBadFrameMagic: a modern frame header did not start with the
	// frame magic -7777777 where one was expected.
	ErrBadFrameMagic = errors.New("edr: Energy header magic number mismatch, this is not a GROMACS edr file")

	// ErrUnsupportedVersion: a file or frame version field exceeds
	// ENXVersion.
	ErrUnsupportedVersion = errors.New("edr: file version newer than this implementation supports")

	// ErrUnexpectedFirstReal: a non-legacy file's first_real was greater
	// than -1e-10, i.e. it looked like a legacy timestamp in a file that
	// cannot be legacy.
	ErrUnexpectedFirstReal = errors.New("edr: unexpected first real value in frame header")

	// ErrOldStyleInNewFile: a version >= 4 frame declared a nonzero
	// ndisre, which only legacy-style (< 4) frames may do.
	ErrOldStyleInNewFile = errors.New("edr: distance restraint blocks in old style in new style file")

	// ErrBadLegacyHeader: a v1 frame reported an implausible time or a
	// negative step.
	ErrBadLegacyHeader = errors.New("edr: edr file with negative step number or unreasonable time (and without version number)")

	// ErrCorruptFrame: the frame sanity predicate failed.
	ErrCorruptFrame = errors.New("edr: Something went wrong")

	// ErrUnknownBlockType: a sub-block declared an element type code
	// outside {0..5}.
	ErrUnknownBlockType = errors.New("edr: Reading unknown block data type: this file is corrupted or from the future")
)
