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
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
)

// DriveCount is the number of drives a controller can address
const DriveCount = 4

/*
	DriveSet is the set of drives attached to a controller. Drives are
	addressed by unit number 0 through 3, sides by physical head number. All
	cylinder related queries refer to the cylinder the drive's head is
	currently positioned at.
*/
type DriveSet interface {
	HaveDisk(unit int) bool
	IsTrack0(unit int) bool
	IsWriteProtected(unit int) bool
	Sides(unit int) int
	// number of physical sectors on the current cylinder
	TrackSectors(unit, side int) int
	// NOTE: sectors are numbered from 0 in physical order
	SectorID(unit, side, s int) base.SectorID
	PhysicalSector(unit, side, n, d int) int
	PhysicalSectorPos(unit, side, s, d int) int
	ReadSector(unit, side, s int, buf []byte, st *base.Status) error
	// NOTE: bit 6 of st.ST2 is input, set for writing a deleted sector
	WriteSector(unit, side, s int, buf []byte, st *base.Status) error
	StepIn(unit, n int)
	StepOut(unit, n int)
}

// Phase of the controller
type Phase int

const (
	Idle Phase = iota
	CommandPhase
	ExecutionPhase
	ResultPhase
)

//
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case CommandPhase:
		return "command"
	case ExecutionPhase:
		return "execution"
	case ResultPhase:
		return "result"
	}
	return "<unknown>"
}

// default step rate after reset, in 2ms units
const defaultStepRate = 6

// Option configures a controller
type Option func(*Controller)

// WithStepRate sets the step rate in 2ms units the controller uses after
// reset, until changed with SPECIFY. 0 makes seeks complete instantly.
func WithStepRate(rate int) Option {
	return func(c *Controller) {
		c.defaultStepRate = rate
	}
}

/*
	Controller is a NEC765 floppy disk controller. It is driven through its
	register interface, i.e. by reading the main status register, and reading
	and writing the data register. Time advances with calls to Tick, elapsed
	time is accounted for on each register access.

	Controller is not safe for concurrent use.
*/
type Controller struct {
	drives DriveSet

	cmd   command
	code  byte
	unit  int
	side  int
	phase Phase

	readDirection bool
	buf           [base.MaxSectorSize]byte
	total         int
	remaining     int

	xfer   execution
	status base.Status
	result base.SectorID

	motorOn       bool
	motorChanging bool
	motorSpeed    int
	timeCounter   uint32
	lastUpdate    uint32

	defaultStepRate int
	stepRate        int
	headUnloadTime  int
	headLoadTime    int

	presentCylinder [DriveCount]byte
	newCylinder     [DriveCount]byte
	recalibrate     [DriveCount]int
	seekTimer       [DriveCount]int
	ready           [DriveCount]bool
	interrupt       [DriveCount]byte
	angle           [DriveCount]int
}

// New creates a controller for the given drives.
func New(drives DriveSet, opts ...Option) *Controller {
	c := &Controller{drives: drives, defaultStepRate: defaultStepRate}
	for _, o := range opts {
		o(c)
	}
	c.reset()
	return c
}

/*
	Reset returns the controller to idle state. Any command in progress is
	abandoned. If the motor is on, it is switched off and starts spinning down.
*/
func (c *Controller) Reset() {
	c.updateDrives()
	c.reset()
}

//
func (c *Controller) reset() {

	c.cmd = nil
	c.code = 0
	c.unit = 0
	c.side = 0
	c.toIdle()
	c.xfer = execution{}
	c.status = base.Status{}

	if c.motorOn {
		c.motorOn = false
		c.motorChanging = true
	}

	c.stepRate = c.defaultStepRate
	c.headUnloadTime = 16
	c.headLoadTime = 2

	for ix := 0; ix < DriveCount; ix++ {
		c.newCylinder[ix] = c.presentCylinder[ix]
		c.recalibrate[ix] = 0
		c.seekTimer[ix] = 0
		c.interrupt[ix] = 0
	}
}

//
func (c *Controller) toIdle() {
	c.phase = Idle
	c.readDirection = false
	c.total = 0
	c.remaining = 0
}

//
func (c *Controller) Phase() Phase {
	return c.phase
}

// ReadMainStatus returns the main status register.
func (c *Controller) ReadMainStatus() byte {

	c.updateDrives()

	// data register is always ready
	ret := byte(0x80)
	if c.phase != Idle {
		ret |= 0x10
	}
	if c.phase == ExecutionPhase {
		ret |= 0x20
	}
	if c.readDirection {
		ret |= 0x40
	}

	for ix := 0; ix < DriveCount; ix++ {
		if c.seeking(ix) {
			ret |= 0x01 << ix
		}
	}

	return ret
}

/*
	ReadData reads the data register. Outside of a transfer towards the CPU,
	this yields 0xFF.
*/
func (c *Controller) ReadData() byte {

	c.updateDrives()

	if !c.readDirection {
		return 0xFF
	}

	ret := byte(0xFF)
	if c.remaining > 0 {
		ret = c.buf[c.total-c.remaining]
		c.remaining--
	}

	if c.remaining == 0 {
		if c.phase == ExecutionPhase {
			c.sectorDone()
		} else {
			c.toIdle()
		}
	}

	log.Tracef("FDC read %02X", ret)
	return ret
}

/*
	WriteData writes n to the data register. In idle phase, this starts a new
	command. Writes while the controller expects to be read from are ignored.
*/
func (c *Controller) WriteData(n byte) {

	c.updateDrives()
	log.Tracef("FDC write %02X", n)

	if c.readDirection {
		return
	}

	switch c.phase {

	case Idle:
		c.startCommand(n)

	case CommandPhase:
		if c.remaining > 0 {
			ix := c.total - c.remaining
			c.cmd.setParam(ix, n)
			if sel, ok := c.cmd.(selector); ok && ix == 0 {
				c.unit, c.side = sel.selection()
			}
			c.remaining--
		}
		if c.remaining == 0 {
			c.process()
		}

	case ExecutionPhase:
		if c.remaining > 0 {
			c.storeData(c.total-c.remaining, n)
			c.remaining--
		}
		if c.remaining == 0 {
			c.sectorDone()
		}
	}
}

//
func (c *Controller) startCommand(n byte) {

	c.code = n
	c.phase = CommandPhase

	op, ok := opcodes[n&0x1F]
	if !ok || n&op.forbidden != 0 {
		log.WithField("command", n).Debug("invalid FDC command")
		c.cmd = nil
		c.startResult(base.ErrInvalidCommand)
		return
	}

	log.WithFields(log.Fields{
		"command": op.name,
		"code":    n,
	}).Debug("FDC command")

	c.cmd = op.build(n)
	c.total = op.params
	c.remaining = op.params

	if op.params == 0 {
		c.process()
	}
}

// process executes a command once all its parameters have arrived
func (c *Controller) process() {

	c.status = base.Status{}

	switch cmd := c.cmd.(type) {

	case *specify:
		c.stepRate = cmd.stepRate
		c.headUnloadTime = cmd.headUnload
		c.headLoadTime = cmd.headLoad
		c.toIdle()

	case *senseDrive:
		c.startResult(nil)

	case *senseInterrupt:
		c.startResult(nil)

	case *recalibrate:
		u := cmd.unit
		c.presentCylinder[u] = 0
		c.newCylinder[u] = 0
		if !c.ready[u] {
			c.seekComplete(u, true, true)
		} else if c.drives.IsTrack0(u) {
			c.seekComplete(u, true, false)
		} else {
			c.recalibrate[u] = recalibrateSteps
			c.seekTimer[u] = c.stepRate
		}
		c.toIdle()

	case *seek:
		u := cmd.unit
		c.newCylinder[u] = cmd.cylinder
		c.recalibrate[u] = 0
		if !c.ready[u] {
			c.seekComplete(u, false, true)
		} else if c.newCylinder[u] == c.presentCylinder[u] {
			c.seekComplete(u, false, false)
		} else {
			c.seekTimer[u] = c.stepRate
		}
		c.toIdle()

	case *transfer:
		c.startTransfer(cmd)

	case *readTrack:
		c.startReadTrack(cmd)

	case *readID:
		c.readSectorID()

	case *format:
		c.startFormat(cmd)

	default:
		c.startResult(base.ErrInvalidCommand)
	}
}

/*
	startResult ends the current command with err and enters result phase, if
	the command has any result bytes. Otherwise, the controller becomes idle.
*/
func (c *Controller) startResult(err error) {

	kind := base.ErrorOf(err)
	n := 0

	if kind == base.ErrInvalidCommand {
		c.buf[0] = base.ST0InvalidCommand
		n = 1

	} else {
		switch c.cmd.(type) {
		case *senseDrive:
			c.buf[0] = c.st3(c.unit)
			n = 1
		case *senseInterrupt:
			n = c.senseInterrupt()
		case *transfer, *readTrack, *readID, *format:
			n = c.statusResult(kind)
		}
	}

	if err != nil {
		log.WithFields(log.Fields{
			"command": CommandName(c.code),
			"unit":    c.unit,
		}).Debugf("FDC command terminated: %v", err)
	}

	c.total = n
	c.remaining = n
	if n > 0 {
		c.phase = ResultPhase
		c.readDirection = true
	} else {
		c.toIdle()
	}
}

// st3 returns status register 3 for unit
func (c *Controller) st3(unit int) byte {
	ret := byte(unit) | byte(c.side)<<2
	if c.drives.IsTrack0(unit) {
		ret |= 0x10
	}
	if c.ready[unit] {
		ret |= 0x20
	}
	if c.drives.IsWriteProtected(unit) {
		ret |= 0x40
	}
	return ret
}

// statusResult places ST0, ST1, ST2, C, H, R, N into the buffer
func (c *Controller) statusResult(kind base.Error) int {

	st0 := byte(c.unit) | byte(c.side)<<2
	st1 := c.status.ST1
	st2 := c.status.ST2

	if kind != 0 {
		s0, s1, s2 := kind.StatusBits()
		st0 |= s0
		st1 |= s1
		st2 |= s2
	}

	c.buf[0] = st0
	c.buf[1] = st1
	c.buf[2] = st2
	c.buf[3] = c.result.Cylinder
	c.buf[4] = c.result.Head
	c.buf[5] = c.result.Sector
	c.buf[6] = c.result.SizeCode

	return 7
}

// senseInterrupt places the result of SENSE INTERRUPT STATUS into the buffer
func (c *Controller) senseInterrupt() int {

	st0 := byte(base.ST0InvalidCommand)

	for ix := 0; ix < DriveCount; ix++ {
		is := c.interrupt[ix]
		if is == 0 {
			continue
		}
		if is&0x20 != 0 {
			st0 = byte(ix) | is&0x3C
			// not ready or equipment check terminate abnormally
			if is&(base.ST0NotReady|base.ST0EquipmentCheck) != 0 {
				st0 |= base.ST0AbnormalTerminate
			}
			c.interrupt[ix] = is & 0xC0
		} else {
			c.interrupt[ix] = 0
			st0 = byte(ix) | 0xC0
			if !c.ready[ix] {
				st0 |= base.ST0NotReady
			}
		}
		break
	}

	c.buf[0] = st0
	if st0 == base.ST0InvalidCommand {
		return 1
	}
	c.buf[1] = c.presentCylinder[st0&0x03]
	return 2
}
