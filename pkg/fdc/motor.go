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

// motor speed at which drives become ready, and full speed
const (
	readySpeed = 100
	fullSpeed  = 102
)

// number of steps after which RECALIBRATE gives up
const recalibrateSteps = 77

// angle units per revolution
const angleUnits = 100

/*
	Tick advances time by one unit of 2ms. It should be called at a rate of
	500Hz. The return value is the activity LED state: onValue shifted left by
	8 times the selected unit number while a command is in progress, 0
	otherwise.
*/
func (c *Controller) Tick(onValue byte) uint32 {
	c.timeCounter++
	return c.LEDState(onValue)
}

// LEDState returns the activity LED state, see Tick.
func (c *Controller) LEDState(onValue byte) uint32 {
	if c.phase != Idle {
		return uint32(onValue) << (uint(c.unit) << 3)
	}
	return 0
}

// SetMotor switches the drive motor on or off.
func (c *Controller) SetMotor(on bool) {
	if on != c.motorOn {
		c.updateDrives()
		c.motorOn = on
		c.motorChanging = true
	}
}

//
func (c *Controller) MotorOn() bool {
	return c.motorOn
}

// MotorSpeed returns the motor speed from 0 to 102, with drives ready from
// 100 on.
func (c *Controller) MotorSpeed() int {
	return c.motorSpeed
}

// RotationAngle returns the rotation angle of the disk in drive unit, from 0
// to 99.
func (c *Controller) RotationAngle(unit int) int {
	return c.angle[unit&0x03]
}

//
func (c *Controller) SetRotationAngle(unit, angle int) {
	c.angle[unit&0x03] = ((angle % angleUnits) + angleUnits) % angleUnits
}

//
func (c *Controller) IsReady(unit int) bool {
	return c.ready[unit&0x03]
}

//
func (c *Controller) PresentCylinder(unit int) int {
	return int(c.presentCylinder[unit&0x03])
}

//
func (c *Controller) seeking(unit int) bool {
	return c.newCylinder[unit] != c.presentCylinder[unit] ||
		c.recalibrate[unit] != 0
}

/*
	UpdateDriveReady recomputes the ready state of all drives. A drive is ready
	while the motor runs at speed and a disk is inserted. Each change raises an
	interrupt, and aborts a seek in progress on that drive.
*/
func (c *Controller) UpdateDriveReady() {
	for ix := 0; ix < DriveCount; ix++ {
		ready := c.motorSpeed >= readySpeed && c.drives.HaveDisk(ix)
		if ready == c.ready[ix] {
			continue
		}
		c.ready[ix] = ready
		c.interrupt[ix] |= 0xC0
		if c.seeking(ix) {
			c.seekComplete(ix, c.recalibrate[ix] != 0, true)
		}
	}
}

// seekComplete ends a seek or recalibrate on unit and raises an interrupt
func (c *Controller) seekComplete(unit int, isRecalibrate, notReady bool) {

	unit &= 0x03
	c.newCylinder[unit] = c.presentCylinder[unit]
	c.recalibrate[unit] = 0
	c.seekTimer[unit] = 0

	is := c.interrupt[unit]&0xC0 | 0x20 | byte(c.side)<<2
	if isRecalibrate && !notReady && !c.drives.IsTrack0(unit) {
		is |= 0x10
	}
	if notReady {
		is |= 0x08
	}
	c.interrupt[unit] = is
}

/*
	updateDrives accounts for the time elapsed since the last call. It ramps
	motor speed up or down, rotates the disks, and steps heads of drives that
	are seeking. While the motor changes speed, disks rotate at half the
	distance of the remaining ramp, approximating the average angular
	velocity during the ramp.
*/
func (c *Controller) updateDrives() {

	dTime := int64(c.timeCounter - c.lastUpdate)
	c.lastUpdate = c.timeCounter
	if dTime < 1 {
		return
	}

	var change int64
	if c.motorOn {
		change = dTime
	}

	if c.motorChanging {
		speed := int64(c.motorSpeed)
		if c.motorOn {
			if speed+dTime >= fullSpeed {
				change -= (fullSpeed - speed) >> 1
				c.motorSpeed = fullSpeed
				c.motorChanging = false
			} else {
				change -= dTime >> 1
				c.motorSpeed += int(dTime)
			}
		} else {
			if dTime >= speed {
				change += speed >> 1
				c.motorSpeed = 0
				c.motorChanging = false
			} else {
				change += dTime >> 1
				c.motorSpeed -= int(dTime)
			}
		}
		c.UpdateDriveReady()
	}

	for ix := 0; ix < DriveCount; ix++ {
		c.angle[ix] = int((int64(c.angle[ix]) + change) % angleUnits)
		if c.recalibrate[ix] > 0 {
			c.stepRecalibrate(ix, dTime)
		} else if c.newCylinder[ix] != c.presentCylinder[ix] {
			c.stepSeek(ix, dTime)
		}
	}
}

// steps returns the number of steps due within dTime, and updates the seek
// timer of unit to the time left until the next step
func (c *Controller) steps(unit int, dTime int64) int {
	timer := int64(c.seekTimer[unit])
	if dTime < timer {
		c.seekTimer[unit] -= int(dTime)
		return 0
	}
	rate := int64(c.stepRate)
	elapsed := dTime - timer
	c.seekTimer[unit] = int(rate - elapsed%rate)
	return int(elapsed/rate) + 1
}

//
func (c *Controller) stepRecalibrate(unit int, dTime int64) {

	c.presentCylinder[unit] = 0
	c.newCylinder[unit] = 0

	if c.stepRate < 1 {
		c.drives.StepOut(unit, c.recalibrate[unit])
		c.seekComplete(unit, true, false)
		return
	}

	n := c.steps(unit, dTime)
	if n == 0 {
		return
	}
	if n > c.recalibrate[unit] {
		n = c.recalibrate[unit]
	}

	c.drives.StepOut(unit, n)
	c.recalibrate[unit] -= n
	if c.recalibrate[unit] < 1 || c.drives.IsTrack0(unit) {
		c.seekComplete(unit, true, false)
	}
}

//
func (c *Controller) stepSeek(unit int, dTime int64) {

	distance := int(c.newCylinder[unit]) - int(c.presentCylinder[unit])

	if c.stepRate < 1 {
		c.drives.StepIn(unit, distance)
		c.presentCylinder[unit] = c.newCylinder[unit]
		c.seekComplete(unit, false, false)
		return
	}

	n := c.steps(unit, dTime)
	if n == 0 {
		return
	}

	if n >= abs(distance) {
		n = distance
	} else if distance < 0 {
		n = -n
	}

	c.drives.StepIn(unit, n)
	c.presentCylinder[unit] = byte(int(c.presentCylinder[unit]) + n)
	if c.presentCylinder[unit] == c.newCylinder[unit] {
		c.seekComplete(unit, false, false)
	}
}

//
func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
