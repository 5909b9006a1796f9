package edr

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mdanalysis/go-edr/edr/internal/xdrcursor"
)

// DecodeOptions configures Decode and DecodeFile. The zero value is valid
// and decodes with no progress reporting.
type DecodeOptions struct {
	// ProgressFunc, if set, is called once per decoded frame (including
	// frames skipped from the Result because they carry no energy
	// terms). This is the hook the cmd/* front ends use to drive a
	// terminal progress bar or periodic log line; the edr package itself
	// never touches a terminal.
	ProgressFunc func(frameIndex int, t float64)
}

// Result is the tabular decode of one EDR file.
type Result struct {
	// ColumnNames[0] is always "Time"; the rest are the name-table
	// entries in file order.
	ColumnNames []string
	// Rows holds one []float64 per frame that carried at least one
	// energy term, in file order. Rows[i][0] == Times[i].
	Rows [][]float64
	// Times holds the same timestamps as Rows[i][0], broken out for
	// convenience.
	Times []float64
	// Units maps every column name (including "Time") to its unit.
	Units map[string]string
	// Warnings holds advisory messages, e.g. a version mismatch notice.
	// These are not errors.
	Warnings []string
}

// Decode reads an entire EDR stream and returns its tabular contents. The
// whole buffer is read into memory up front; there is no incremental I/O
// once decoding starts.
func Decode(r io.Reader, opts DecodeOptions) (*Result, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decodeBuffer(buf, opts)
}

// DecodeFile opens path and decodes it. See Decode.
func DecodeFile(path string, opts DecodeOptions) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, opts)
}

// ReadUnits reads only the EDR name table and returns its unit dictionary,
// without iterating frames.
func ReadUnits(r io.Reader) (map[string]string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := xdrcursor.New(buf)
	nt, _, err := readNames(c)
	if err != nil {
		return nil, err
	}
	return unitsOf(nt.names), nil
}

// ReadUnitsFile opens path and reads only its name table. See ReadUnits.
func ReadUnitsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadUnits(f)
}

func decodeBuffer(buf []byte, opts DecodeOptions) (*Result, error) {
	c := xdrcursor.New(buf)

	nt, warning, err := readNames(c)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ColumnNames: columnNames(nt.names),
		Units:       unitsOf(nt.names),
	}
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	var ls *legacyState
	if nt.legacy {
		ls = &legacyState{prevEnergy: make([]prevEnergy, len(nt.names))}
	}

	frameIndex := 0
	lastT := 0.0
	for {
		fr, err := readFrameHeader(c, nt, ls)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("Failed reading header: last energy frame read %d time %.3f: %w", frameIndex-1, lastT, err)
		}

		if err := readFramePayload(c, fr, nt, ls); err != nil {
			return nil, fmt.Errorf("Failed reading frame %d payload at time %.3f: %w", frameIndex, fr.t, err)
		}

		if fr.nre > 0 {
			row := make([]float64, 0, fr.nre+1)
			row = append(row, fr.t)
			for _, e := range fr.energies {
				row = append(row, e.e)
			}
			result.Rows = append(result.Rows, row)
			result.Times = append(result.Times, fr.t)
		}

		lastT = fr.t
		frameIndex++
		if opts.ProgressFunc != nil {
			opts.ProgressFunc(frameIndex, fr.t)
		}
	}

	return result, nil
}

func columnNames(names []TermName) []string {
	cols := make([]string, 0, len(names)+1)
	cols = append(cols, "Time")
	for _, n := range names {
		cols = append(cols, n.Name)
	}
	return cols
}

func unitsOf(names []TermName) map[string]string {
	units := make(map[string]string, len(names)+1)
	units["Time"] = "ps"
	for _, n := range names {
		units[n.Name] = n.Unit
	}
	return units
}
