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

package drive

import (
	"math/rand"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image"
)

var instances uint64

/*
	Drive is a virtual floppy drive. It holds the disk that is currently
	inserted, if any, and the position of its head. Each drive has its own
	random source, used for selecting the data returned by weak sectors.
*/
type Drive struct {
	id       int
	index    *image.Index
	cylinder int
	probe    image.Probe
	rnd      *rand.Rand
}

// New creates a drive with a random source seeded from wall clock and
// instance count.
func New(id int) *Drive {
	n := atomic.AddUint64(&instances, 1)
	seed := time.Now().UnixNano() ^ int64(n*0x9E3779B97F4A7C15)
	return NewWithSource(id, rand.NewSource(seed))
}

// NewWithSource creates a drive that uses src for weak sector selection.
func NewWithSource(id int, src rand.Source) *Drive {
	return &Drive{id: id, rnd: rand.New(src), probe: image.SystemProbe}
}

// SetProbe sets the probe used for detecting raw floppy devices when opening
// a disk. With a nil probe, everything is treated as an image file.
func (d *Drive) SetProbe(p image.Probe) {
	d.probe = p
}

//
func (d *Drive) ID() int {
	return d.id
}

/*
	Open inserts the disk image or floppy device fileName into the drive. Any
	disk currently in the drive is removed first. An empty file name only
	removes the disk. If opening fails, the drive is left empty.
*/
func (d *Drive) Open(fileName string) error {

	d.Close()

	if fileName == "" {
		return nil
	}

	x, err := image.Open(fileName, d.probe)
	if err != nil {
		log.WithFields(log.Fields{
			"drive": d.id,
			"file":  fileName,
		}).Debugf("cannot open disk: %v", err)
		return err
	}

	d.index = x
	return nil
}

// OpenStore inserts a disk image held in store.
func (d *Drive) OpenStore(store image.Store, size int64, writable bool) error {
	d.Close()
	x, err := image.OpenStore(store, size, writable)
	if err != nil {
		return err
	}
	d.index = x
	return nil
}

// Close removes the disk from the drive.
func (d *Drive) Close() error {
	if d.index == nil {
		return nil
	}
	err := d.index.Close()
	d.index = nil
	if err != nil {
		log.WithField("drive", d.id).Warnf("error closing disk: %v", err)
	}
	return err
}

//
func (d *Drive) Index() *image.Index {
	return d.index
}

//
func (d *Drive) HaveDisk() bool {
	return d.index != nil
}

// Sides returns the number of sides of the disk, 0 if there is none.
func (d *Drive) Sides() int {
	if d.index == nil {
		return 0
	}
	return d.index.Sides()
}

//
func (d *Drive) Cylinder() int {
	return d.cylinder
}

//
func (d *Drive) IsTrack0() bool {
	return d.cylinder == 0
}

// IsWriteProtected also reports true when there is no disk in the drive.
func (d *Drive) IsWriteProtected() bool {
	return d.index == nil || d.index.IsWriteProtected()
}

// SectorCount returns the number of sectors on cylinder c, side h.
func (d *Drive) SectorCount(c, h int) int {
	if d.index == nil {
		return 0
	}
	return d.index.SectorCount(c, h)
}

/*
	SectorID returns the ID of physical sector s on cylinder c, side h. For a
	sector that does not exist, the returned ID has all address fields zeroed
	and its status indicates a missing sector.
*/
func (d *Drive) SectorID(c, h, s int) base.SectorID {
	if d.index == nil {
		return base.NotFoundID
	}
	rec, err := d.index.Sector(c, h, s)
	if err != nil {
		return base.NotFoundID
	}
	return rec.ID
}

//
func (d *Drive) PhysicalSector(c, h, n, div int) int {
	if d.index == nil {
		return -1
	}
	return d.index.PhysicalSector(c, h, n, div)
}

//
func (d *Drive) PhysicalSectorPos(c, h, s, div int) int {
	if d.index == nil {
		return -1
	}
	return d.index.PhysicalSectorPos(c, h, s, div)
}

//
func (d *Drive) checkAccess(h int) error {
	if d.index == nil {
		return base.ErrNoDisk
	}
	if h < 0 || h >= d.index.Sides() {
		return base.ErrInvalidSide
	}
	return nil
}

// ReadSector reads physical sector s from side h of the cylinder the head is
// currently positioned at.
func (d *Drive) ReadSector(h, s int, buf []byte, st *base.Status) error {
	if err := d.checkAccess(h); err != nil {
		return err
	}
	return d.index.ReadSector(d.cylinder, h, s, buf, st, d.rnd)
}

// WriteSector writes physical sector s on side h of the cylinder the head is
// currently positioned at.
func (d *Drive) WriteSector(h, s int, buf []byte, st *base.Status) error {
	if err := d.checkAccess(h); err != nil {
		return err
	}
	return d.index.WriteSector(d.cylinder, h, s, buf, st, d.rnd)
}

// StepIn moves the head n cylinders towards the center of the disk, negative
// n moves outwards.
func (d *Drive) StepIn(n int) {
	d.cylinder += n
	if d.cylinder < 0 {
		d.cylinder = 0
	} else if d.cylinder > base.MaxHeadPosition {
		d.cylinder = base.MaxHeadPosition
	}
}

// StepOut moves the head n cylinders towards track 0.
func (d *Drive) StepOut(n int) {
	d.StepIn(-n)
}

// Intn draws from the drive's random source.
func (d *Drive) Intn(n int) int {
	return d.rnd.Intn(n)
}
