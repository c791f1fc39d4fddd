/*
   CPCFdc - Amstrad CPC floppy disk controller emulator
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of CPCFdc.

   CPCFdc is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   CPCFdc is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with CPCFdc. If not, see <http://www.gnu.org/licenses/>.
*/

package fdc

import (
	"fmt"
	"io"
)

// ReadDataDebug returns the byte the next read of the data register would
// yield, without consuming it.
func (c *Controller) ReadDataDebug() byte {
	c.updateDrives()
	if c.readDirection && c.remaining > 0 {
		return c.buf[c.total-c.remaining]
	}
	return 0xFF
}

/*
	DebugRead reads internal controller state. Only the lowest 5 bits of addr
	are decoded:

		0x00		phase
		0x01		command code
		0x02		motor on
		0x03		selected side
		0x04/0x05	transfer position, low/high
		0x06/0x07	transfer length, low/high
		0x18-0x1B	ST3 of drives 0 to 3
		0x1C-0x1F	present cylinder of drives 0 to 3

	Anything else reads as 0xFF.
*/
func (c *Controller) DebugRead(addr uint16) byte {

	c.updateDrives()
	pos := c.total - c.remaining

	switch a := addr & 0x1F; {
	case a == 0x00:
		return byte(c.phase)
	case a == 0x01:
		return c.code
	case a == 0x02:
		if c.motorOn {
			return 1
		}
		return 0
	case a == 0x03:
		return byte(c.side)
	case a == 0x04:
		return byte(pos)
	case a == 0x05:
		return byte(pos >> 8)
	case a == 0x06:
		return byte(c.total)
	case a == 0x07:
		return byte(c.total >> 8)
	case 0x18 <= a && a <= 0x1B:
		return c.st3(int(a & 0x03))
	case 0x1C <= a:
		return c.presentCylinder[a&0x03]
	}

	return 0xFF
}

// Emit writes a summary of the controller state to w.
func (c *Controller) Emit(w io.Writer) {
	fmt.Fprintf(w, "phase:    %s\n", c.phase)
	fmt.Fprintf(w, "command:  %s (%02X)\n", CommandName(c.code), c.code)
	fmt.Fprintf(w, "unit:     %d, side %d\n", c.unit, c.side)
	fmt.Fprintf(w, "transfer: %d of %d\n", c.total-c.remaining, c.total)
	fmt.Fprintf(w, "motor:    %v, speed %d\n", c.motorOn, c.motorSpeed)
	for ix := 0; ix < DriveCount; ix++ {
		fmt.Fprintf(w, "drive %d:  ready %v, cylinder %d, angle %d, ST3 %02X\n",
			ix, c.ready[ix], c.presentCylinder[ix], c.angle[ix], c.st3(ix))
	}
}
