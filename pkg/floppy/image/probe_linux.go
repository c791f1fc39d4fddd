//go:build linux
// +build linux

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

package image

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// floppy_struct from linux/fd.h
type floppyParams struct {
	size    uint32
	sect    uint32
	head    uint32
	track   uint32
	stretch uint32
	gap     uint8
	rate    uint8
	spec1   uint8
	fmtGap  uint8
	name    uintptr
}

const (
	iocRead    = 2
	iocDirBits = 30
	iocSizeBit = 16
	iocTypeBit = 8
	floppyType = 2
	fdGetPrm   = 0x04
)

// ioR computes an _IOR request number
func ioR(typ, nr, size uintptr) uintptr {
	return iocRead<<iocDirBits | size<<iocSizeBit | typ<<iocTypeBit | nr
}

var fdGetPrmRequest = ioR(floppyType, fdGetPrm, unsafe.Sizeof(floppyParams{}))

/*
	probeDevice queries the floppy parameters of fileName via the FDGETPRM
	ioctl. Files for which the ioctl fails are no floppy devices.
*/
func probeDevice(fileName string) (*Geometry, error) {

	fi, err := os.Stat(fileName)
	if err != nil || fi.Mode()&os.ModeDevice == 0 {
		return nil, ErrNotFloppy
	}

	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(ErrOpenImage, err.Error())
	}
	defer f.Close()

	var p floppyParams
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), fdGetPrmRequest,
		uintptr(unsafe.Pointer(&p)))
	if errno != 0 {
		return nil, ErrNotFloppy
	}

	if p.track < 1 || p.track > 254 || p.head < 1 || p.head > 2 ||
		p.sect < 1 || p.sect > 240 || p.size != p.track*p.head*p.sect {
		return nil, errors.Wrapf(ErrInvalidGeometry,
			"%d tracks, %d heads, %d sectors, size %d",
			p.track, p.head, p.sect, p.size)
	}

	return &Geometry{
		Cylinders:       int(p.track),
		Sides:           int(p.head),
		SectorsPerTrack: int(p.sect),
		WriteProtected:  unix.Access(fileName, unix.W_OK) != nil,
	}, nil
}
