package edr

import (
	"fmt"
	"io"

	"github.com/mdanalysis/go-edr/edr/internal/xdrcursor"
)

const (
	frameMagic           int32   = -7777777
	firstRealLegacyBound float64 = -1e-10
)

func nativeRealType(double bool) blockType {
	if double {
		return blockTypeFloat64
	}
	return blockTypeFloat32
}

// readFrameHeader decodes one frame's header. Returning io.EOF signals a
// clean end of stream at a frame boundary; any other error is fatal and
// should be wrapped by the caller with the last successfully decoded
// frame's index and time.
func readFrameHeader(c *xdrcursor.Cursor, nt *nameTable, ls *legacyState) (_ *frame, err error) {
	probePrecision(c, nt.legacy, int32(len(nt.names)))

	firstReal, err := c.ReadReal()
	if err != nil {
		// Nothing read yet this header: genuine end of stream.
		return nil, io.EOF
	}
	// Past the first read, running out of bytes is a truncated header.
	defer func() {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
	}()

	fr := &frame{}

	if firstReal > firstRealLegacyBound {
		if nt.fileVersion != 1 {
			return nil, ErrUnexpectedFirstReal
		}
		fr.version = 1
		fr.t = firstReal
		step32, err := c.ReadI32()
		if err != nil {
			return nil, err
		}
		fr.step = int64(step32)
	} else {
		magic, err := c.ReadI32()
		if err != nil {
			return nil, err
		}
		if magic != frameMagic {
			return nil, ErrBadFrameMagic
		}
		version, err := c.ReadI32()
		if err != nil {
			return nil, err
		}
		if version > ENXVersion {
			return nil, fmt.Errorf("%w: frame version %d, implementation version %d", ErrUnsupportedVersion, version, ENXVersion)
		}
		fr.version = version

		if fr.t, err = c.ReadF64(); err != nil {
			return nil, err
		}
		if fr.step, err = c.ReadI64(); err != nil {
			return nil, err
		}
		nsum, err := c.ReadI32()
		if err != nil {
			return nil, err
		}
		fr.nsum = nsum

		if version >= 3 {
			if fr.nsteps, err = c.ReadI64(); err != nil {
				return nil, err
			}
		} else {
			fr.nsteps = int64(fr.nsum)
			if fr.nsteps < 1 {
				fr.nsteps = 1
			}
		}

		if version >= 5 {
			if fr.dt, err = c.ReadF64(); err != nil {
				return nil, err
			}
		}
	}

	nre, err := c.ReadI32()
	if err != nil {
		return nil, err
	}
	fr.nre = nre

	var ndisre int32
	if fr.version < 4 {
		if ndisre, err = c.ReadI32(); err != nil {
			return nil, err
		}
	} else {
		if _, err = c.ReadI32(); err != nil { // reserved
			return nil, err
		}
	}

	nblock, err := c.ReadI32()
	if err != nil {
		return nil, err
	}
	if nblock < 0 {
		return nil, fmt.Errorf("edr: negative block count %d", nblock)
	}

	if ndisre != 0 {
		if fr.version >= 4 {
			return nil, ErrOldStyleInNewFile
		}
		nblock++
	}

	if fr.version == 1 && (fr.t < 0 || fr.t > 1e20 || fr.step < 0) {
		return nil, ErrBadLegacyHeader
	}

	blocks := make([]Block, 0, nblock)
	startb := 0
	if ndisre > 0 {
		rt := nativeRealType(c.Double)
		blocks = append(blocks, Block{
			ID: enxDISRE,
			Subs: []SubBlock{
				{Type: rt, Length: ndisre},
				{Type: rt, Length: ndisre},
			},
		})
		startb = 1
	}

	for b := startb; b < int(nblock); b++ {
		if fr.version < 4 {
			nr, err := c.ReadI32()
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, Block{
				ID:   int32(b - startb),
				Subs: []SubBlock{{Type: nativeRealType(c.Double), Length: nr}},
			})
			continue
		}

		id, err := c.ReadI32()
		if err != nil {
			return nil, err
		}
		nsub, err := c.ReadI32()
		if err != nil {
			return nil, err
		}
		subs := make([]SubBlock, nsub)
		for s := 0; s < int(nsub); s++ {
			typ, err := c.ReadI32()
			if err != nil {
				return nil, err
			}
			nr, err := c.ReadI32()
			if err != nil {
				return nil, err
			}
			subs[s] = SubBlock{Type: blockType(typ), Length: nr}
		}
		blocks = append(blocks, Block{ID: id, Subs: subs})
	}
	fr.blocks = blocks

	if fr.eSize, err = c.ReadI32(); err != nil {
		return nil, err
	}
	if _, err = c.ReadI32(); err != nil { // reserved
		return nil, err
	}
	if _, err = c.ReadI32(); err != nil { // reserved
		return nil, err
	}

	if nt.legacy {
		if !ls.haveFirst {
			ls.firstStep = fr.step
			ls.stepPrev = fr.step
			ls.nsumPrev = 0
			ls.haveFirst = true
		}
		fr.nsum = int32(fr.step - ls.firstStep + 1)
		fr.nsteps = fr.step - ls.stepPrev
		fr.dt = 0
	}

	return fr, nil
}

// readFramePayload decodes one frame's energy records and block payloads,
// applying the legacy-sums converter first when the file was opened as a
// v1 (magic > 0) file.
func readFramePayload(c *xdrcursor.Cursor, fr *frame, nt *nameTable, ls *legacyState) error {
	if !fr.sane() {
		return ErrCorruptFrame
	}

	fr.energies = make([]energy, fr.nre)
	for i := int32(0); i < fr.nre; i++ {
		e, err := c.ReadReal()
		if err != nil {
			return err
		}
		en := energy{e: e}
		if fr.version == 1 || fr.nsum > 0 {
			if en.eav, err = c.ReadReal(); err != nil {
				return err
			}
			if en.esum, err = c.ReadReal(); err != nil {
				return err
			}
			if fr.version == 1 {
				if _, err = c.ReadReal(); err != nil { // unused legacy real
					return err
				}
			}
		}
		fr.energies[i] = en
	}

	if nt.legacy {
		applyLegacySums(fr, ls)
	}

	for bi := range fr.blocks {
		block := &fr.blocks[bi]
		for si := range block.Subs {
			sub := &block.Subs[si]
			n := int(sub.Length)
			switch sub.Type {
			case blockTypeInt32:
				vals := make([]int32, n)
				for i := 0; i < n; i++ {
					v, err := c.ReadI32()
					if err != nil {
						return err
					}
					vals[i] = v
				}
				sub.Int32s = vals
			case blockTypeFloat32:
				vals := make([]float32, n)
				for i := 0; i < n; i++ {
					v, err := c.ReadF32()
					if err != nil {
						return err
					}
					vals[i] = v
				}
				sub.Float32s = vals
			case blockTypeFloat64:
				vals := make([]float64, n)
				for i := 0; i < n; i++ {
					v, err := c.ReadF64()
					if err != nil {
						return err
					}
					vals[i] = v
				}
				sub.Float64s = vals
			case blockTypeInt64:
				vals := make([]int64, n)
				for i := 0; i < n; i++ {
					v, err := c.ReadI64()
					if err != nil {
						return err
					}
					vals[i] = v
				}
				sub.Int64s = vals
			case blockTypeChar:
				vals := make([]int32, n)
				for i := 0; i < n; i++ {
					v, err := c.ReadI32()
					if err != nil {
						return err
					}
					vals[i] = v
				}
				sub.Chars = vals
			case blockTypeString:
				vals := make([]string, n)
				for i := 0; i < n; i++ {
					v, err := c.ReadString()
					if err != nil {
						return err
					}
					vals[i] = v
				}
				sub.Strings = vals
			default:
				return ErrUnknownBlockType
			}
		}
	}

	return nil
}
