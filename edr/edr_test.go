package edr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mdanalysis/go-edr/edr/internal/xdrcursor"
)

// edrBuilder assembles a minimal, well-formed EDR byte stream for tests.
// It is deliberately simple: it only emits what the test scenarios below
// require, not a general-purpose encoder.
type edrBuilder struct {
	buf    bytes.Buffer
	double bool
}

func newEDRBuilder() *edrBuilder { return &edrBuilder{} }

func (b *edrBuilder) i32(v int32) *edrBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *edrBuilder) i64(v int64) *edrBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *edrBuilder) f32(v float32) *edrBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *edrBuilder) f64(v float64) *edrBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *edrBuilder) real(v float64) *edrBuilder {
	if b.double {
		return b.f64(v)
	}
	return b.f32(float32(v))
}

func (b *edrBuilder) str(s string) *edrBuilder {
	b.i32(int32(len(s)))
	b.buf.WriteString(s)
	pad := (4 - len(s)%4) % 4
	for i := 0; i < pad; i++ {
		b.buf.WriteByte(0)
	}
	return b
}

// nameTable writes a -55555 prologue of the given version with the given
// term names/units.
func (b *edrBuilder) nameTable(version int32, names []TermName) *edrBuilder {
	b.i32(-55555)
	b.i32(version)
	b.i32(int32(len(names)))
	for _, n := range names {
		b.str(n.Name)
		if version >= 2 {
			b.str(n.Unit)
		}
	}
	return b
}

// modernFrame writes a version>=2 style frame with no blocks.
func (b *edrBuilder) modernFrame(version int32, t float64, step int64, dt float64, values []float64) *edrBuilder {
	b.real(-12345.0) // sentinel first_real
	b.i32(frameMagic)
	b.i32(version)
	b.f64(t)
	b.i64(step)
	b.i32(0) // nsum
	if version >= 3 {
		b.i64(1) // nsteps
	}
	if version >= 5 {
		b.f64(dt)
	}
	b.i32(int32(len(values))) // nre
	b.i32(0)                  // reserved (>= v4)
	b.i32(0)                  // nblock
	b.i32(0)                  // e_size
	b.i32(0)
	b.i32(0)
	for _, v := range values {
		b.real(v)
	}
	return b
}

func (b *edrBuilder) bytes() []byte { return b.buf.Bytes() }

func TestScenarioV5SinglePrecisionThreeFrames(t *testing.T) {
	names := []TermName{{Name: "DUMMY1", Unit: "UNIT1"}, {Name: "DUMMY2", Unit: "UNIT2"}}
	b := newEDRBuilder()
	b.nameTable(5, names)
	for _, step := range []int64{0, 1, 2} {
		t0 := float64(step) * 0.5
		b.modernFrame(5, t0, step, 0.5, []float64{
			float64(step*100 + 0),
			float64(step*100 + 1),
		})
	}

	res, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	wantCols := []string{"Time", "DUMMY1", "DUMMY2"}
	if !equalStrings(res.ColumnNames, wantCols) {
		t.Fatalf("ColumnNames = %v, want %v", res.ColumnNames, wantCols)
	}

	wantTimes := []float64{0.0, 0.5, 1.0}
	if !equalFloats(res.Times, wantTimes) {
		t.Fatalf("Times = %v, want %v", res.Times, wantTimes)
	}

	wantDummy1 := []float64{0, 100, 200}
	wantDummy2 := []float64{1, 101, 201}
	for i, row := range res.Rows {
		if row[0] != wantTimes[i] {
			t.Errorf("row[%d][0] = %v, want %v", i, row[0], wantTimes[i])
		}
		if row[1] != wantDummy1[i] {
			t.Errorf("row[%d][1] = %v, want %v", i, row[1], wantDummy1[i])
		}
		if row[2] != wantDummy2[i] {
			t.Errorf("row[%d][2] = %v, want %v", i, row[2], wantDummy2[i])
		}
		if len(row) != 3 {
			t.Errorf("len(row[%d]) = %d, want 3", i, len(row))
		}
	}

	if res.Units["Time"] != "ps" {
		t.Errorf(`Units["Time"] = %q, want "ps"`, res.Units["Time"])
	}
	if res.Units["DUMMY1"] != "UNIT1" || res.Units["DUMMY2"] != "UNIT2" {
		t.Errorf("Units = %v", res.Units)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none for a version-5 file", res.Warnings)
	}
}

func TestScenarioUnknownBlockType(t *testing.T) {
	names := []TermName{{Name: "DUMMY1", Unit: "UNIT1"}}
	b := newEDRBuilder()
	b.nameTable(5, names)

	b.real(-12345.0)
	b.i32(frameMagic)
	b.i32(5)
	b.f64(0)
	b.i64(0)
	b.i32(0) // nsum
	b.i64(1) // nsteps
	b.f64(0) // dt
	b.i32(1) // nre
	b.i32(0) // reserved
	b.i32(1) // nblock
	b.i32(7) // block id
	b.i32(1) // nsub
	b.i32(1000000000)
	b.i32(0) // sub length 0
	b.i32(0) // e_size
	b.i32(0)
	b.i32(0)
	b.real(42)

	_, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{})
	if !errors.Is(err, ErrUnknownBlockType) {
		t.Fatalf("err = %v, want ErrUnknownBlockType", err)
	}
	if !strings.Contains(err.Error(), "Reading unknown block data type: this file is corrupted or from the future") {
		t.Fatalf("err message %q missing expected text", err.Error())
	}
}

func TestScenarioBadFileMagic(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(0x12345678))

	_, err := ReadUnits(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrBadFileMagic) {
		t.Fatalf("err = %v, want ErrBadFileMagic", err)
	}
	if !strings.Contains(err.Error(), "Energy names magic number mismatch") {
		t.Fatalf("err message %q missing expected text", err.Error())
	}
}

func TestScenarioFrameVersionTooNew(t *testing.T) {
	names := []TermName{{Name: "DUMMY1", Unit: "UNIT1"}}
	b := newEDRBuilder()
	b.nameTable(4, names)

	b.real(-12345.0)
	b.i32(frameMagic)
	b.i32(1000000000) // bogus frame version

	_, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
	if !strings.Contains(err.Error(), "Failed reading header") {
		t.Fatalf("err message %q missing 'Failed reading header'", err.Error())
	}
}

func TestScenarioV1MissingSums(t *testing.T) {
	names := []TermName{{Name: "DUMMY1"}, {Name: "DUMMY2"}}
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(len(names))) // legacy magic = nre
	for _, n := range names {
		writeStr(&buf, n.Name)
	}

	for _, step := range []int32{0, 1, 2} {
		binary.Write(&buf, binary.BigEndian, float32(step)) // t (single precision v1)
		binary.Write(&buf, binary.BigEndian, step)           // step
		binary.Write(&buf, binary.BigEndian, int32(len(names)))
		binary.Write(&buf, binary.BigEndian, int32(0)) // ndisre
		binary.Write(&buf, binary.BigEndian, int32(0)) // nblock
		binary.Write(&buf, binary.BigEndian, int32(0)) // e_size
		binary.Write(&buf, binary.BigEndian, int32(0))
		binary.Write(&buf, binary.BigEndian, int32(0))
		for i := range names {
			binary.Write(&buf, binary.BigEndian, float32(step*100+int32(i)))
			binary.Write(&buf, binary.BigEndian, float32(0)) // eav
			binary.Write(&buf, binary.BigEndian, float32(0)) // esum == 0 always
			binary.Write(&buf, binary.BigEndian, float32(0)) // unused legacy real
		}
	}

	res, err := Decode(bytes.NewReader(buf.Bytes()), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(res.Rows))
	}
	if res.Rows[1][1] != 100 || res.Rows[1][2] != 101 {
		t.Fatalf("Rows[1] = %v", res.Rows[1])
	}
}

func TestScenarioCorruptFrameNegativeStep(t *testing.T) {
	names := []TermName{{Name: "DUMMY1"}}
	b := newEDRBuilder()
	b.nameTable(5, names)

	b.real(-12345.0)
	b.i32(frameMagic)
	b.i32(5)
	b.f64(0)
	b.i64(-1) // step < 0
	b.i32(0)  // nsum
	b.i64(1)  // nsteps
	b.f64(0)  // dt
	b.i32(1)  // nre
	b.i32(0)
	b.i32(0) // nblock
	b.i32(0) // e_size
	b.i32(0)
	b.i32(0)
	b.real(1.0)

	_, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{})
	if !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("err = %v, want ErrCorruptFrame", err)
	}
	if !strings.Contains(err.Error(), "Something went wrong") {
		t.Fatalf("err message %q missing expected text", err.Error())
	}
}

func TestVersionWarningEmittedOnce(t *testing.T) {
	names := []TermName{{Name: "DUMMY1", Unit: "UNIT1"}}
	b := newEDRBuilder()
	b.nameTable(3, names)
	b.modernFrame(3, 0, 0, 0, []float64{1})

	res, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(res.Warnings))
	}
	if !strings.Contains(res.Warnings[0], "file_version 3") {
		t.Fatalf("warning %q missing version 3", res.Warnings[0])
	}
}

func TestDecodeAndReadUnitsAgree(t *testing.T) {
	names := []TermName{{Name: "Potential", Unit: "kJ/mol"}, {Name: "Temperature", Unit: "K"}}
	b := newEDRBuilder()
	b.nameTable(5, names)
	b.modernFrame(5, 0, 0, 0, []float64{1, 2})

	res, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	units, err := ReadUnits(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("ReadUnits: %v", err)
	}
	if len(units) != len(res.ColumnNames) {
		t.Fatalf("len(units) = %d, len(ColumnNames) = %d", len(units), len(res.ColumnNames))
	}
	for _, col := range res.ColumnNames {
		if _, ok := units[col]; !ok {
			t.Errorf("units missing column %q", col)
		}
	}
}

func TestProgressFuncCalledPerFrame(t *testing.T) {
	names := []TermName{{Name: "DUMMY1"}}
	b := newEDRBuilder()
	b.nameTable(5, names)
	b.modernFrame(5, 0, 0, 0, []float64{1})
	b.modernFrame(5, 1, 1, 0, []float64{2})

	var calls []int
	_, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{
		ProgressFunc: func(frameIndex int, t float64) { calls = append(calls, frameIndex) },
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("progress calls = %v, want 2 calls", calls)
	}
}

func TestStringReadAdvancesByLengthPlusPadding(t *testing.T) {
	for _, s := range []string{"", "a", "ab", "abc", "abcd", "abcde"} {
		var buf bytes.Buffer
		writeStr(&buf, s)
		c := xdrcursor.New(buf.Bytes())
		got, err := c.ReadString()
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Fatalf("ReadString(%q) = %q", s, got)
		}
		pad := (4 - len(s)%4) % 4
		want := 4 + len(s) + pad
		if c.Position() != want {
			t.Fatalf("cursor advanced %d bytes for %q, want %d", c.Position(), s, want)
		}
	}
}

func TestPrecisionProbeModernFiles(t *testing.T) {
	for _, double := range []bool{false, true} {
		b := newEDRBuilder()
		b.double = double
		names := []TermName{{Name: "X"}}
		b.nameTable(5, names)
		b.modernFrame(5, 1.5, 3, 0.1, []float64{9})

		res, err := Decode(bytes.NewReader(b.bytes()), DecodeOptions{})
		if err != nil {
			t.Fatalf("double=%v Decode: %v", double, err)
		}
		if res.Times[0] != 1.5 {
			t.Fatalf("double=%v Times[0] = %v, want 1.5", double, res.Times[0])
		}
	}
}

func TestPrecisionProbeLegacyFiles(t *testing.T) {
	for _, double := range []bool{false, true} {
		var buf bytes.Buffer
		names := []TermName{{Name: "X"}}
		binary.Write(&buf, binary.BigEndian, int32(len(names)))
		for _, n := range names {
			writeStr(&buf, n.Name)
		}

		writeReal := func(v float64) {
			if double {
				binary.Write(&buf, binary.BigEndian, v)
			} else {
				binary.Write(&buf, binary.BigEndian, float32(v))
			}
		}

		writeReal(2.0) // t
		binary.Write(&buf, binary.BigEndian, int32(7))           // step
		binary.Write(&buf, binary.BigEndian, int32(len(names)))  // nre (repeated)
		binary.Write(&buf, binary.BigEndian, int32(0))           // ndisre
		binary.Write(&buf, binary.BigEndian, int32(0))           // nblock
		binary.Write(&buf, binary.BigEndian, int32(0))           // e_size
		binary.Write(&buf, binary.BigEndian, int32(0))
		binary.Write(&buf, binary.BigEndian, int32(0))
		writeReal(42) // e
		writeReal(0)  // eav
		writeReal(0)  // esum
		writeReal(0)  // unused

		res, err := Decode(bytes.NewReader(buf.Bytes()), DecodeOptions{})
		if err != nil {
			t.Fatalf("double=%v Decode: %v", double, err)
		}
		if len(res.Rows) != 1 || res.Rows[0][1] != 42 {
			t.Fatalf("double=%v Rows = %v", double, res.Rows)
		}
	}
}

func writeStr(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, int32(len(s)))
	buf.WriteString(s)
	pad := (4 - len(s)%4) % 4
	for i := 0; i < pad; i++ {
		buf.WriteByte(0)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}
