// Package edr decodes GROMACS energy trajectory files (.edr): a binary,
// XDR-encoded time series of molecular-dynamics scalar observables.
//
// The format is documented piecemeal across five on-disk revisions
// (versions 1 through 5) in GROMACS's own src/gromacs/fileio/enxio.c; this
// package follows that history closely enough to read anything GROMACS
// 5.1 and later can write, plus the pre-magic "legacy" v1 layout.
package edr

// ENXVersion is the highest file/frame version this package understands.
// Matches GROMACS's own ENX_VERSION constant.
const ENXVersion = 5

// blockType enumerates the EDR on-disk element types for sub-block
// payloads. There is deliberately no "real" entry: on disk, values are
// always written as one of these concrete types, never as a
// precision-ambiguous "native real".
type blockType int32

const (
	blockTypeInt32 blockType = iota
	blockTypeFloat32
	blockTypeFloat64
	blockTypeInt64
	blockTypeChar
	blockTypeString
)

// Well-known block IDs. Only enxDISRE is ever synthesized by this decoder
// (for the implicit legacy distance-restraint block); the others are
// recognized on disk but never interpreted beyond structural decode.
const (
	enxOR = iota
	enxORI
	enxORT
	enxDISRE
	enxDHCOLL
	enxDHHIST
	enxDH
)

// TermName is an energy term's name and its physical unit. Unit defaults
// to "kJ/mol" for version-1 files, which predate unit recording.
type TermName struct {
	Name string
	Unit string
}

// SubBlock is a typed, homogeneous array decoded from a frame's block
// tree. Exactly one of the typed slices is populated, selected by Type.
type SubBlock struct {
	Type   blockType
	Length int32

	Int32s   []int32
	Float32s []float32
	Float64s []float64
	Int64s   []int64
	Chars    []int32
	Strings  []string
}

// Block is a tagged container of sub-blocks: one semantic payload (an
// orientation-restraint record, a BAR histogram, ...) per frame.
type Block struct {
	ID   int32
	Subs []SubBlock
}

// energy is the raw (e, eav, esum) triple read per term per frame. Only E
// is exported to callers; Eav/Esum feed the legacy-sums converter alone.
type energy struct {
	e    float64
	eav  float64
	esum float64
}

// frame is one decoded time-stamped record.
type frame struct {
	version int32
	t       float64
	step    int64
	nsum    int32
	nsteps  int64
	dt      float64
	nre     int32
	eSize   int32

	energies []energy
	blocks   []Block
}

// sane reports whether a frame is plausible: it must have a non-negative
// step and either carry energy terms or at least one non-empty block.
func (f *frame) sane() bool {
	if f.step < 0 {
		return false
	}
	if f.nre > 0 {
		return true
	}
	for _, b := range f.blocks {
		if len(b.Subs) > 0 {
			return true
		}
	}
	return false
}

// prevEnergy is the per-term running (esum, eav) pair the legacy-sums
// converter carries from one v1 frame to the next.
type prevEnergy struct {
	esum float64
	eav  float64
}

// legacyState is the per-file mutable record the legacy-sums converter
// needs across consecutive frames of a single v1 file. It is passed
// explicitly through the frame loop, never held globally.
type legacyState struct {
	haveFirst  bool
	firstStep  int64
	stepPrev   int64
	nsumPrev   int32
	prevEnergy []prevEnergy
}
