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
)

// command codes, low 5 bits of the first command byte
const (
	CmdReadTrack        = 0x02
	CmdSpecify          = 0x03
	CmdSenseDriveState  = 0x04
	CmdWriteData        = 0x05
	CmdReadData         = 0x06
	CmdRecalibrate      = 0x07
	CmdSenseInterrupt   = 0x08
	CmdWriteDeletedData = 0x09
	CmdReadID           = 0x0A
	CmdReadDeletedData  = 0x0C
	CmdFormatTrack      = 0x0D
	CmdSeek             = 0x0F
	CmdScanEqual        = 0x11
	CmdScanLowOrEqual   = 0x19
	CmdScanHighOrEqual  = 0x1D
)

// flags in the high bits of the first command byte
const (
	FlagMultiTrack = 0x80
	FlagMFM        = 0x40
	FlagSkip       = 0x20
)

// opcode describes a command the controller accepts
type opcode struct {
	name      string
	forbidden byte
	params    int
	build     func(code byte) command
}

/*
	opcodes is the command table, keyed by the low 5 bits of the command byte.
	A command byte with any of the forbidden bits set, or with a key not in
	this table, is an invalid command.
*/
var opcodes = map[byte]opcode{
	CmdReadTrack: {"READ TRACK", 0x80, 8,
		func(c byte) command { return &readTrack{code: c} }},
	CmdSpecify: {"SPECIFY", 0xE0, 2,
		func(c byte) command { return &specify{code: c} }},
	CmdSenseDriveState: {"SENSE DRIVE STATE", 0xE0, 1,
		func(c byte) command { return &senseDrive{code: c} }},
	CmdWriteData: {"WRITE DATA", 0x20, 8,
		func(c byte) command { return &transfer{code: c} }},
	CmdReadData: {"READ DATA", 0x00, 8,
		func(c byte) command { return &transfer{code: c} }},
	CmdRecalibrate: {"RECALIBRATE", 0xE0, 1,
		func(c byte) command { return &recalibrate{code: c} }},
	CmdSenseInterrupt: {"SENSE INTERRUPT STATUS", 0xE0, 0,
		func(c byte) command { return &senseInterrupt{code: c} }},
	CmdWriteDeletedData: {"WRITE DELETED DATA", 0x20, 8,
		func(c byte) command { return &transfer{code: c} }},
	CmdReadID: {"READ ID", 0xA0, 1,
		func(c byte) command { return &readID{code: c} }},
	CmdReadDeletedData: {"READ DELETED DATA", 0x00, 8,
		func(c byte) command { return &transfer{code: c} }},
	CmdFormatTrack: {"FORMAT TRACK", 0xA0, 5,
		func(c byte) command { return &format{code: c} }},
	CmdSeek: {"SEEK", 0xE0, 2,
		func(c byte) command { return &seek{code: c} }},
	CmdScanEqual: {"SCAN EQUAL", 0x00, 8,
		func(c byte) command { return &transfer{code: c} }},
	CmdScanLowOrEqual: {"SCAN LOW OR EQUAL", 0x00, 8,
		func(c byte) command { return &transfer{code: c} }},
	CmdScanHighOrEqual: {"SCAN HIGH OR EQUAL", 0x00, 8,
		func(c byte) command { return &transfer{code: c} }},
}

// CommandName returns the name of command byte code.
func CommandName(code byte) string {
	if op, ok := opcodes[code&0x1F]; ok {
		return op.name
	}
	return fmt.Sprintf("INVALID %02X", code)
}

/*
	command is a command in progress. Its parameters are assembled byte by byte
	as they are written to the data register. What a parameter byte means
	depends on its position and on the command, so each command keeps only the
	fields it needs.
*/
type command interface {
	Code() byte
	setParam(ix int, n byte)
}

// selector is implemented by commands that address a drive
type selector interface {
	selection() (unit, side int)
}

// unitSelect is the first parameter byte of most commands
type unitSelect struct {
	unit int
	side int
}

//
func (u *unitSelect) set(n byte) {
	u.unit = int(n & 0x03)
	u.side = int(n&0x04) >> 2
}

//
func (u *unitSelect) selection() (int, int) {
	return u.unit, u.side
}

// chrn is a logical sector address given as command parameters
type chrn struct {
	c, h, r, n byte
}

// -

// specify sets step rate and head load/unload times, in 2ms units
type specify struct {
	code       byte
	stepRate   int
	headUnload int
	headLoad   int
}

//
func (s *specify) Code() byte { return s.code }

//
func (s *specify) setParam(ix int, n byte) {
	switch ix {
	case 0:
		s.stepRate = 16 - int(n>>4)
		if s.headUnload = int(n&0x0F) << 4; s.headUnload == 0 {
			s.headUnload = 0xFF
		}
	case 1:
		// DMA bit is ignored
		if s.headLoad = int(n & 0xFE); s.headLoad == 0 {
			s.headLoad = 0xFF
		}
	}
}

// -

//
type senseDrive struct {
	unitSelect
	code byte
}

//
func (s *senseDrive) Code() byte { return s.code }

//
func (s *senseDrive) setParam(ix int, n byte) {
	if ix == 0 {
		s.set(n)
	}
}

// -

//
type recalibrate struct {
	unitSelect
	code byte
}

//
func (r *recalibrate) Code() byte { return r.code }

//
func (r *recalibrate) setParam(ix int, n byte) {
	if ix == 0 {
		r.set(n)
	}
}

// -

//
type seek struct {
	unitSelect
	code     byte
	cylinder byte
}

//
func (s *seek) Code() byte { return s.code }

//
func (s *seek) setParam(ix int, n byte) {
	switch ix {
	case 0:
		s.set(n)
	case 1:
		s.cylinder = n
	}
}

// -

//
type senseInterrupt struct {
	code byte
}

//
func (s *senseInterrupt) Code() byte { return s.code }

//
func (s *senseInterrupt) setParam(ix int, n byte) {}

// -

//
type readID struct {
	unitSelect
	code byte
}

//
func (r *readID) Code() byte { return r.code }

//
func (r *readID) setParam(ix int, n byte) {
	if ix == 0 {
		r.set(n)
	}
}

// -

// format carries FORMAT TRACK parameters; the C, H, R, N of each sector are
// written during execution phase
type format struct {
	unitSelect
	code    byte
	n       byte
	sectors byte
	gap     byte
	filler  byte
}

//
func (f *format) Code() byte { return f.code }

//
func (f *format) setParam(ix int, n byte) {
	switch ix {
	case 0:
		f.set(n)
	case 1:
		f.n = n
	case 2:
		f.sectors = n
	case 3:
		f.gap = n
	case 4:
		f.filler = n
	}
}

// -

/*
	transfer carries the parameters of the sector read, write, and scan
	commands. For scans, dtl holds the sector number increment STP.
*/
type transfer struct {
	unitSelect
	chrn
	code byte
	eot  byte
	gap  byte
	dtl  byte
}

//
func (t *transfer) Code() byte { return t.code }

//
func (t *transfer) setParam(ix int, n byte) {
	switch ix {
	case 0:
		t.set(n)
	case 1:
		t.c = n
	case 2:
		t.h = n
	case 3:
		t.r = n
	case 4:
		t.n = n
	case 5:
		t.eot = n
	case 6:
		t.gap = n
	case 7:
		t.dtl = n
	}
}

//
func (t *transfer) kind() byte {
	return t.code & 0x1F
}

//
func (t *transfer) isWrite() bool {
	k := t.kind()
	return k == CmdWriteData || k == CmdWriteDeletedData
}

//
func (t *transfer) isScan() bool {
	k := t.kind()
	return k == CmdScanEqual || k == CmdScanLowOrEqual || k == CmdScanHighOrEqual
}

//
func (t *transfer) deleted() bool {
	k := t.kind()
	return k == CmdReadDeletedData || k == CmdWriteDeletedData
}

//
func (t *transfer) multiTrack() bool {
	return t.code&FlagMultiTrack != 0
}

//
func (t *transfer) skip() bool {
	return t.code&FlagSkip != 0
}

// -

// readTrack differs from transfer in parameter 5, which is a sector count
type readTrack struct {
	unitSelect
	chrn
	code    byte
	sectors byte
	gap     byte
	dtl     byte
}

//
func (r *readTrack) Code() byte { return r.code }

//
func (r *readTrack) setParam(ix int, n byte) {
	switch ix {
	case 0:
		r.set(n)
	case 1:
		r.c = n
	case 2:
		r.h = n
	case 3:
		r.r = n
	case 4:
		r.n = n
	case 5:
		r.sectors = n
	case 6:
		r.gap = n
	case 7:
		r.dtl = n
	}
}
