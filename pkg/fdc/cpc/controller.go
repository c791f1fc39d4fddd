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


package cpc

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/fdc"
	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
	"github.com/xelalexv/cpcfdc/pkg/floppy/drive"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image"
)

/*
	Controller is the floppy disk controller of an Amstrad CPC, with four
	drives attached. Drive operations of the controller are routed to the
	drive with the unit number of the command in progress, on the cylinder
	its head is currently at.
*/
type Controller struct {
	*fdc.Controller
	drives [fdc.DriveCount]*drive.Drive
}

// New creates a CPC controller with four empty drives.
func New(opts ...fdc.Option) *Controller {
	var drives [fdc.DriveCount]*drive.Drive
	for ix := range drives {
		drives[ix] = drive.New(ix)
	}
	return NewWithDrives(drives, opts...)
}

// NewWithDrives creates a CPC controller with the given drives attached.
func NewWithDrives(drives [fdc.DriveCount]*drive.Drive,
	opts ...fdc.Option) *Controller {
	c := &Controller{drives: drives}
	c.Controller = fdc.New(c, opts...)
	return c
}

// Drive returns drive n.
func (c *Controller) Drive(n int) *drive.Drive {
	return c.drives[n&0x03]
}

// SetProbe sets the floppy device probe of all drives.
func (c *Controller) SetProbe(p image.Probe) {
	for _, d := range c.drives {
		d.SetProbe(p)
	}
}

/*
	OpenDiskImage inserts disk image or floppy device fileName into drive n,
	replacing any disk present. An empty file name ejects the disk. The disk
	starts out at a random rotation angle.
*/
func (c *Controller) OpenDiskImage(n int, fileName string) error {
	d := c.drives[n&0x03]
	err := d.Open(fileName)
	c.inserted(n, d)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"drive": n & 0x03,
		"file":  fileName,
	}).Info("disk inserted")
	return nil
}

// OpenDiskStore inserts a disk image held in store into drive n.
func (c *Controller) OpenDiskStore(n int, store image.Store, size int64,
	writable bool) error {
	d := c.drives[n&0x03]
	err := d.OpenStore(store, size, writable)
	c.inserted(n, d)
	return err
}

// CloseDisk ejects the disk from drive n.
func (c *Controller) CloseDisk(n int) error {
	return c.OpenDiskImage(n, "")
}

//
func (c *Controller) inserted(n int, d *drive.Drive) {
	c.SetRotationAngle(n, d.Intn(100))
	c.UpdateDriveReady()
}

// Emit writes controller and drive state to w.
func (c *Controller) Emit(w io.Writer) {
	c.Controller.Emit(w)
	for ix, d := range c.drives {
		name := "<empty>"
		if x := d.Index(); x != nil {
			name = fmt.Sprintf("%s (%s, %d x %d)",
				x.Name(), x.Format(), x.Cylinders(), x.Sides())
		}
		fmt.Fprintf(w, "disk %d:   %s, head at %d\n", ix, name, d.Cylinder())
	}
}

// - fdc.DriveSet

//
func (c *Controller) HaveDisk(unit int) bool {
	return c.drives[unit&0x03].HaveDisk()
}

//
func (c *Controller) IsTrack0(unit int) bool {
	return c.drives[unit&0x03].IsTrack0()
}

//
func (c *Controller) IsWriteProtected(unit int) bool {
	return c.drives[unit&0x03].IsWriteProtected()
}

//
func (c *Controller) Sides(unit int) int {
	return c.drives[unit&0x03].Sides()
}

//
func (c *Controller) TrackSectors(unit, side int) int {
	d := c.drives[unit&0x03]
	return d.SectorCount(d.Cylinder(), side)
}

//
func (c *Controller) SectorID(unit, side, s int) base.SectorID {
	d := c.drives[unit&0x03]
	return d.SectorID(d.Cylinder(), side, s)
}

//
func (c *Controller) PhysicalSector(unit, side, n, div int) int {
	d := c.drives[unit&0x03]
	return d.PhysicalSector(d.Cylinder(), side, n, div)
}

//
func (c *Controller) PhysicalSectorPos(unit, side, s, div int) int {
	d := c.drives[unit&0x03]
	return d.PhysicalSectorPos(d.Cylinder(), side, s, div)
}

//
func (c *Controller) ReadSector(unit, side, s int, buf []byte,
	st *base.Status) error {
	return c.drives[unit&0x03].ReadSector(side, s, buf, st)
}

//
func (c *Controller) WriteSector(unit, side, s int, buf []byte,
	st *base.Status) error {
	return c.drives[unit&0x03].WriteSector(side, s, buf, st)
}

//
func (c *Controller) StepIn(unit, n int) {
	c.drives[unit&0x03].StepIn(n)
}

//
func (c *Controller) StepOut(unit, n int) {
	c.drives[unit&0x03].StepOut(n)
}
