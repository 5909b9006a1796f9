package edr

import "github.com/mdanalysis/go-edr/edr/internal/xdrcursor"

// probePrecision peeks ahead from the cursor's current position (which
// must be the start of a frame header) and sets c.Double, then restores
// the cursor to where it started. This must run before the first numeric
// read of every frame header.
//
// For version >= 2 files the first header field is a real sentinel
// (negative, by convention -12345.0): in single precision it is 4 bytes
// wide, so the frame magic -7777777 appears at offset +4; in double
// precision it is 8 bytes wide and the value at +4 is unrelated garbage.
// For version 1 files there is no sentinel or magic, but each header
// repeats nre; its position relative to the start of the header differs
// by exactly 4 bytes between the two precisions, so matching the known
// nre at the double-assuming offset confirms double precision.
func probePrecision(c *xdrcursor.Cursor, legacy bool, nre int32) {
	base := c.Position()
	defer c.Seek(base)

	if legacy {
		c.Seek(base + 12)
		v, err := c.ReadI32()
		c.Double = err == nil && v == nre
		return
	}

	c.Seek(base + 4)
	magic, err := c.ReadI32()
	c.Double = err == nil && magic != -7777777
}
