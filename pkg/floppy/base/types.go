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

package base

import (
	"fmt"
)

// one revolution at 300 RPM and 250 kbps MFM, in bytes
const TrackLength = 6250

// largest sector data buffer, size code 7
const MaxSectorSize = 0x4000

// nominal sector size used by standard format images is capped at this value
const MaxStandardSectorSize = 0x1800

// hardware meaningful bits of stored status registers
const (
	MaskStatus1 = 0xA5
	MaskStatus2 = 0x61
)

// status register 1 bits
const (
	ST1MissingAddressMark = 0x01
	ST1NotWritable        = 0x02
	ST1NoData             = 0x04
	ST1Overrun            = 0x10
	ST1DataError          = 0x20
	ST1EndOfCylinder      = 0x80
)

// status register 2 bits
const (
	ST2MissingDataMark  = 0x01
	ST2BadCylinder      = 0x02
	ST2ScanNotSatisfied = 0x04
	ST2ScanEqualHit     = 0x08
	ST2WrongCylinder    = 0x10
	ST2DataError        = 0x20
	ST2ControlMark      = 0x40
)

// status register 0 bits
const (
	ST0NotReady          = 0x08
	ST0EquipmentCheck    = 0x10
	ST0SeekEnd           = 0x20
	ST0AbnormalTerminate = 0x40
	ST0InvalidCommand    = 0x80
)

// defaults for synthesized tracks
const (
	DefaultGap         = 0x4E
	DefaultRawGap      = 0x52
	DefaultFiller      = 0xE5
	RawSectorSize      = 512
	RawSectorSizeCode  = 2
	MaxSectorsPerTrack = 29
	MaxCylinders       = 240
	MaxSides           = 2
	MaxHeadPosition    = 83
)

// SectorSize returns the nominal size in bytes for sector size code n.
func SectorSize(n byte) int {
	return 0x80 << (n & 0x07)
}

// Error is the closed set of failures sector level operations can produce.
type Error int

const (
	ErrUnknown Error = iota + 1
	ErrInvalidCommand
	ErrNoDisk
	ErrNotReady
	ErrWriteProtected
	ErrInvalidTrack
	ErrInvalidSide
	ErrBadCylinder
	ErrWrongCylinder
	ErrSectorNotFound
	ErrDeletedSector
	ErrEndOfCylinder
	ErrReadFailed
	ErrWriteFailed
)

var errorNames = map[Error]string{
	ErrUnknown:        "unknown error",
	ErrInvalidCommand: "invalid command",
	ErrNoDisk:         "no disk",
	ErrNotReady:       "drive not ready",
	ErrWriteProtected: "disk is write protected",
	ErrInvalidTrack:   "invalid track",
	ErrInvalidSide:    "invalid side",
	ErrBadCylinder:    "bad cylinder",
	ErrWrongCylinder:  "wrong cylinder",
	ErrSectorNotFound: "sector not found",
	ErrDeletedSector:  "deleted sector",
	ErrEndOfCylinder:  "end of cylinder",
	ErrReadFailed:     "read failed",
	ErrWriteFailed:    "write failed",
}

//
func (e Error) Error() string {
	if n, ok := errorNames[e]; ok {
		return n
	}
	return fmt.Sprintf("disk error %d", int(e))
}

/*
	StatusBits returns the bits the error sets in status registers 0 through 2.
	For ST0 this only covers the interrupt code and the not ready bit, unit and
	head need to be filled in by the caller.
*/
func (e Error) StatusBits() (st0, st1, st2 byte) {

	switch e {

	case ErrInvalidCommand:
		return ST0InvalidCommand, 0, 0

	case ErrNoDisk, ErrNotReady, ErrInvalidSide:
		return ST0AbnormalTerminate | ST0NotReady, 0, 0

	case ErrWriteProtected:
		return ST0AbnormalTerminate, ST1NotWritable, 0

	case ErrInvalidTrack:
		return ST0AbnormalTerminate, ST1MissingAddressMark, 0

	case ErrBadCylinder:
		return ST0AbnormalTerminate, ST1NoData, ST2BadCylinder

	case ErrWrongCylinder:
		return ST0AbnormalTerminate, ST1NoData, ST2WrongCylinder

	case ErrSectorNotFound:
		return ST0AbnormalTerminate, ST1NoData, 0

	case ErrDeletedSector:
		return ST0AbnormalTerminate, 0, ST2ControlMark

	case ErrEndOfCylinder:
		return ST0AbnormalTerminate, ST1EndOfCylinder, 0

	case ErrReadFailed:
		return ST0AbnormalTerminate, ST1DataError, ST2DataError

	case ErrWriteFailed:
		return ST0AbnormalTerminate, ST1Overrun, 0
	}

	return ST0AbnormalTerminate, 0, 0
}

// ErrorOf returns the disk error kind of err, ErrUnknown if err is some other
// kind of error, or 0 if err is nil.
func ErrorOf(err error) Error {
	if err == nil {
		return 0
	}
	if e, ok := err.(Error); ok {
		return e
	}
	return ErrUnknown
}

// Status carries status registers 1 and 2 in and out of sector operations.
type Status struct {
	ST1 byte
	ST2 byte
}

// Merge places the masked stored status bits of a sector into s, leaving all
// other bits untouched.
func (s *Status) Merge(st1, st2 byte) {
	s.ST1 = (s.ST1 &^ MaskStatus1) | (st1 & MaskStatus1)
	s.ST2 = (s.ST2 &^ MaskStatus2) | (st2 & MaskStatus2)
}

//
func (s *Status) IsDeleted() bool {
	return s.ST2&ST2ControlMark != 0
}

// SectorID is the logical address of a sector together with its stored status
type SectorID struct {
	Cylinder byte
	Head     byte
	Sector   byte
	SizeCode byte
	ST1      byte
	ST2      byte
}

// NotFoundID is reported for sectors that do not exist
var NotFoundID = SectorID{ST1: ST1NoData | ST1MissingAddressMark}

//
func (id SectorID) String() string {
	return fmt.Sprintf("C=%02X H=%02X R=%02X N=%02X ST1=%02X ST2=%02X",
		id.Cylinder, id.Head, id.Sector, id.SizeCode, id.ST1, id.ST2)
}

//
func (id SectorID) Size() int {
	return SectorSize(id.SizeCode)
}

// Matches checks whether this ID has the given C, H, R, N.
func (id SectorID) Matches(c, h, r, n byte) bool {
	return id.Cylinder == c && id.Head == h && id.Sector == r && id.SizeCode == n
}
