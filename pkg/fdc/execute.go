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
	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
)

// execution is the state of a command in execution phase
type execution struct {
	// logical ID of sector in progress
	id base.SectorID
	// physical sector in progress
	sector int
	// nominal size of sector in progress
	size int
	// sectors done by READ TRACK
	count int
	// when set, command terminates with this once the current sector is done
	pending error
	// scan conditions, all true until a byte violates them
	equal       bool
	lowOrEqual  bool
	highOrEqual bool
}

// checkReady checks whether the selected drive can be accessed
func (c *Controller) checkReady() error {
	if !c.drives.HaveDisk(c.unit) {
		return base.ErrNoDisk
	}
	if !c.ready[c.unit] {
		return base.ErrNotReady
	}
	if c.side >= c.drives.Sides(c.unit) {
		return base.ErrInvalidSide
	}
	return nil
}

// transferSize returns the number of bytes transferred per sector for size
// code n; for n = 0, data length dtl applies
func transferSize(n, dtl byte) int {
	if n == 0 {
		if dtl == 0 || dtl > 0x80 {
			return 0x80
		}
		return int(dtl)
	}
	if n > 7 {
		n = 7
	}
	return base.SectorSize(n)
}

// rotateBehind moves the rotation angle of the current unit just past the ID
// address mark of the sector following physical sector s
func (c *Controller) rotateBehind(s, count int) {
	if pos := c.drives.PhysicalSectorPos(c.unit, c.side, (s+1)%count,
		angleUnits); pos >= 0 {
		c.angle[c.unit] = (pos + 1) % angleUnits
	}
}

/*
	locate searches one revolution of the current track for a sector with the
	given ID, starting at the current rotation angle. If it is not there, the
	error tells whether sectors of some other cylinder were seen.
*/
func (c *Controller) locate(id base.SectorID) (int, error) {

	count := c.drives.TrackSectors(c.unit, c.side)
	if count == 0 {
		return -1, base.ErrInvalidTrack
	}

	start := c.drives.PhysicalSector(c.unit, c.side, c.angle[c.unit], angleUnits)
	if start < 0 {
		start = 0
	}

	bad := false
	wrong := false

	for ix := 0; ix < count; ix++ {
		s := (start + ix) % count
		sid := c.drives.SectorID(c.unit, c.side, s)
		if sid.Matches(id.Cylinder, id.Head, id.Sector, id.SizeCode) {
			c.rotateBehind(s, count)
			return s, nil
		}
		if sid.Cylinder != id.Cylinder {
			if sid.Cylinder == 0xFF {
				bad = true
			} else {
				wrong = true
			}
		}
	}

	switch {
	case bad:
		return -1, base.ErrBadCylinder
	case wrong:
		return -1, base.ErrWrongCylinder
	}
	return -1, base.ErrSectorNotFound
}

// accumulate adds the status bits of a sector to the command's status,
// except for the control mark, which is decided per command
func (c *Controller) accumulate(st base.Status) {
	c.status.ST1 |= st.ST1
	c.status.ST2 |= st.ST2 &^ base.ST2ControlMark
}

// storedError returns the error to terminate with after transferring a
// sector with stored status st
func storedError(st base.Status) error {
	if st.ST1&base.ST1DataError != 0 || st.ST2&base.ST2DataError != 0 {
		return base.ErrReadFailed
	}
	if st.ST1&(base.ST1NoData|base.ST1MissingAddressMark) != 0 ||
		st.ST2&base.ST2MissingDataMark != 0 {
		return base.ErrSectorNotFound
	}
	return nil
}

// -

//
func (c *Controller) startTransfer(cmd *transfer) {

	c.xfer = execution{
		id: base.SectorID{
			Cylinder: cmd.c,
			Head:     cmd.h,
			Sector:   cmd.r,
			SizeCode: cmd.n,
		},
	}
	c.result = c.xfer.id

	if err := c.checkReady(); err != nil {
		c.startResult(err)
		return
	}
	if cmd.isWrite() && c.drives.IsWriteProtected(c.unit) {
		c.startResult(base.ErrWriteProtected)
		return
	}

	c.nextSector(cmd)
}

/*
	nextSector locates the sector with the ID in progress and sets up the data
	transfer for it. Reads fetch the sector data into the buffer right away,
	writes wait for the buffer to be filled.
*/
func (c *Controller) nextSector(cmd *transfer) {

	for {
		c.result = c.xfer.id

		s, err := c.locate(c.xfer.id)
		if err != nil {
			c.startResult(err)
			return
		}

		c.xfer.sector = s
		c.xfer.size = transferSize(cmd.n, cmd.dtl)
		c.xfer.equal = true
		c.xfer.lowOrEqual = true
		c.xfer.highOrEqual = true

		if cmd.isWrite() {
			c.startExecution(false)
			return
		}

		var st base.Status
		if err := c.drives.ReadSector(c.unit, c.side, s, c.buf[:], &st); err != nil {
			c.startResult(err)
			return
		}
		c.accumulate(st)

		if st.IsDeleted() != cmd.deleted() {
			if cmd.skip() {
				if !c.advance(cmd) {
					return
				}
				continue
			}
			c.xfer.pending = base.ErrDeletedSector
		}
		if err := storedError(st); err != nil {
			c.xfer.pending = err
		}

		c.startExecution(!cmd.isScan())
		return
	}
}

//
func (c *Controller) startExecution(read bool) {
	c.phase = ExecutionPhase
	c.readDirection = read
	c.total = c.xfer.size
	c.remaining = c.xfer.size
}

// storeData handles a byte written during execution phase
func (c *Controller) storeData(pos int, n byte) {

	cmd, ok := c.cmd.(*transfer)
	if !ok || !cmd.isScan() {
		c.buf[pos] = n
		return
	}

	d := c.buf[pos]
	if d == 0xFF || n == 0xFF {
		return
	}
	if d != n {
		c.xfer.equal = false
	}
	if d > n {
		c.xfer.lowOrEqual = false
	}
	if d < n {
		c.xfer.highOrEqual = false
	}
}

// sectorDone is called when all bytes of a sector have been transferred
func (c *Controller) sectorDone() {
	switch cmd := c.cmd.(type) {
	case *transfer:
		c.transferDone(cmd)
	case *readTrack:
		c.readTrackDone(cmd)
	case *format:
		c.formatDone(cmd)
	default:
		c.toIdle()
	}
}

//
func (c *Controller) transferDone(cmd *transfer) {

	if cmd.isWrite() {
		size := base.SectorSize(cmd.n)
		for ix := c.xfer.size; ix < size; ix++ {
			c.buf[ix] = 0
		}
		var st base.Status
		if cmd.deleted() {
			st.ST2 = base.ST2ControlMark
		}
		err := c.drives.WriteSector(c.unit, c.side, c.xfer.sector,
			c.buf[:size], &st)
		c.accumulate(st)
		if err != nil {
			c.startResult(err)
			return
		}
	}

	if cmd.isScan() {
		c.scanDone(cmd)
		return
	}

	if c.xfer.pending != nil {
		c.startResult(c.xfer.pending)
		return
	}

	if c.advance(cmd) {
		c.nextSector(cmd)
	}
}

/*
	advance moves on to the next sector of a multi sector transfer. When the
	last sector has been done, the command terminates. Without a terminal count
	signal, as on the CPC, this is always an end of cylinder condition.
*/
func (c *Controller) advance(cmd *transfer) bool {

	id := &c.xfer.id

	if id.Sector != cmd.eot {
		id.Sector++
		return true
	}

	if cmd.multiTrack() && c.side == 0 && c.drives.Sides(c.unit) > 1 {
		c.side = 1
		id.Head ^= 1
		id.Sector = 1
		return true
	}

	c.result = *id
	c.result.Cylinder++
	c.result.Sector = 1
	if cmd.multiTrack() {
		c.result.Head ^= 1
	}
	c.startResult(base.ErrEndOfCylinder)
	return false
}

// scanDone checks the scan condition for the sector just compared
func (c *Controller) scanDone(cmd *transfer) {

	var satisfied bool
	switch cmd.kind() {
	case CmdScanEqual:
		satisfied = c.xfer.equal
	case CmdScanLowOrEqual:
		satisfied = c.xfer.lowOrEqual
	case CmdScanHighOrEqual:
		satisfied = c.xfer.highOrEqual
	}

	if satisfied {
		if c.xfer.equal {
			c.status.ST2 |= base.ST2ScanEqualHit
		}
		c.startResult(c.xfer.pending)
		return
	}

	if c.xfer.pending != nil {
		c.startResult(c.xfer.pending)
		return
	}

	step := cmd.dtl
	if step == 0 {
		step = 1
	}
	if int(c.xfer.id.Sector)+int(step) > int(cmd.eot) {
		c.status.ST2 |= base.ST2ScanNotSatisfied
		c.startResult(nil)
		return
	}

	c.xfer.id.Sector += step
	c.nextSector(cmd)
}

// -

/*
	startReadTrack reads sectors in physical order, starting with the first
	one after the index hole. IDs are compared against the command's, but a
	mismatch only sets no data in ST1.
*/
func (c *Controller) startReadTrack(cmd *readTrack) {

	c.xfer = execution{
		id: base.SectorID{
			Cylinder: cmd.c,
			Head:     cmd.h,
			Sector:   cmd.r,
			SizeCode: cmd.n,
		},
	}
	c.result = c.xfer.id

	if err := c.checkReady(); err != nil {
		c.startResult(err)
		return
	}
	if c.drives.TrackSectors(c.unit, c.side) == 0 {
		c.startResult(base.ErrInvalidTrack)
		return
	}

	c.readTrackSector(cmd)
}

//
func (c *Controller) readTrackSector(cmd *readTrack) {

	count := c.drives.TrackSectors(c.unit, c.side)
	s := c.xfer.count % count

	sid := c.drives.SectorID(c.unit, c.side, s)
	if !sid.Matches(c.xfer.id.Cylinder, c.xfer.id.Head, c.xfer.id.Sector,
		c.xfer.id.SizeCode) {
		c.status.ST1 |= base.ST1NoData
	}

	var st base.Status
	if err := c.drives.ReadSector(c.unit, c.side, s, c.buf[:], &st); err != nil {
		c.startResult(err)
		return
	}
	c.accumulate(st)

	c.rotateBehind(s, count)
	c.xfer.sector = s
	c.xfer.size = transferSize(cmd.n, cmd.dtl)
	c.result = c.xfer.id
	c.startExecution(true)
}

//
func (c *Controller) readTrackDone(cmd *readTrack) {

	c.xfer.count++
	if c.xfer.count >= int(cmd.sectors) {
		c.result = c.xfer.id
		c.result.Cylinder++
		c.result.Sector = 1
		c.startResult(base.ErrEndOfCylinder)
		return
	}

	c.xfer.id.Sector++
	c.readTrackSector(cmd)
}

// -

// readSectorID returns the ID of the next sector passing under the head
func (c *Controller) readSectorID() {

	c.xfer = execution{}
	c.result = base.SectorID{}

	if err := c.checkReady(); err != nil {
		c.startResult(err)
		return
	}

	count := c.drives.TrackSectors(c.unit, c.side)
	if count == 0 {
		c.startResult(base.ErrInvalidTrack)
		return
	}

	s := c.drives.PhysicalSector(c.unit, c.side, c.angle[c.unit], angleUnits)
	if s < 0 {
		s = 0
	}

	sid := c.drives.SectorID(c.unit, c.side, s)
	c.rotateBehind(s, count)
	c.result = sid
	c.startResult(nil)
}

// -

/*
	startFormat collects the IDs of the sectors to format. The track layout of
	a disk image can not be changed, so formatting requires the new layout to
	match the existing one in sector count and sizes. The data of all sectors
	is then overwritten with the filler byte.
*/
func (c *Controller) startFormat(cmd *format) {

	c.xfer = execution{}
	c.result = base.SectorID{SizeCode: cmd.n}

	if err := c.checkReady(); err != nil {
		c.startResult(err)
		return
	}
	if c.drives.IsWriteProtected(c.unit) {
		c.startResult(base.ErrWriteProtected)
		return
	}

	c.xfer.size = 4 * int(cmd.sectors)
	if c.xfer.size == 0 {
		c.startResult(nil)
		return
	}
	c.startExecution(false)
}

//
func (c *Controller) formatDone(cmd *format) {

	n := int(cmd.sectors)
	last := 4 * (n - 1)
	c.result = base.SectorID{
		Cylinder: c.buf[last],
		Head:     c.buf[last+1],
		Sector:   c.buf[last+2],
		SizeCode: c.buf[last+3],
	}

	if n > c.drives.TrackSectors(c.unit, c.side) {
		c.startResult(base.ErrWriteFailed)
		return
	}
	for s := 0; s < n; s++ {
		if c.buf[4*s+3] != cmd.n ||
			c.drives.SectorID(c.unit, c.side, s).SizeCode != cmd.n {
			c.startResult(base.ErrWriteFailed)
			return
		}
	}

	size := base.SectorSize(cmd.n)
	for s := 0; s < n; s++ {
		for ix := 0; ix < size; ix++ {
			c.buf[ix] = cmd.filler
		}
		var st base.Status
		if err := c.drives.WriteSector(c.unit, c.side, s, c.buf[:size],
			&st); err != nil {
			c.startResult(err)
			return
		}
	}

	c.startResult(nil)
}
