package edr

import (
	"fmt"

	"github.com/mdanalysis/go-edr/edr/internal/xdrcursor"
)

// nameTable is everything decoded once, up front, before the frame loop:
// the file's version, whether it predates the file magic, and its
// (name, unit) pairs.
type nameTable struct {
	fileVersion int32
	legacy      bool
	names       []TermName
}

// readNames decodes the EDR prologue: either a legacy positive-nre magic,
// or -55555 followed by a version and nre, then nre (name[, unit]) entries.
// A positive magic too large for the remaining bytes to hold that many
// names is rejected as ErrBadFileMagic.
func readNames(c *xdrcursor.Cursor) (*nameTable, string, error) {
	magic, err := c.ReadI32()
	if err != nil {
		return nil, "", err
	}

	nt := &nameTable{}
	var nre int32
	if magic > 0 {
		// Each legacy name entry takes at least its 4-byte length prefix.
		if int64(magic) > int64(c.Len()/4) {
			return nil, "", ErrBadFileMagic
		}
		nt.fileVersion = 1
		nt.legacy = true
		nre = magic
	} else {
		if magic != -55555 {
			return nil, "", ErrBadFileMagic
		}
		version, err := c.ReadI32()
		if err != nil {
			return nil, "", err
		}
		if version > ENXVersion {
			return nil, "", fmt.Errorf("%w: file version %d, implementation version %d", ErrUnsupportedVersion, version, ENXVersion)
		}
		nt.fileVersion = version
		n, err := c.ReadI32()
		if err != nil {
			return nil, "", err
		}
		nre = n
	}

	var warning string
	if nt.fileVersion != ENXVersion {
		warning = fmt.Sprintf("Note: enx file_version %d, implementation version %d", nt.fileVersion, ENXVersion)
	}

	nt.names = make([]TermName, nre)
	for i := int32(0); i < nre; i++ {
		name, err := c.ReadString()
		if err != nil {
			return nil, "", err
		}
		unit := "kJ/mol"
		if nt.fileVersion >= 2 {
			unit, err = c.ReadString()
			if err != nil {
				return nil, "", err
			}
		}
		nt.names[i] = TermName{Name: name, Unit: unit}
	}

	return nt, warning, nil
}
