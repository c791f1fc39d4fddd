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
	"testing"

	"github.com/xelalexv/cpcfdc/pkg/floppy/image/imagetest"
)

//
func TestMotorSpinUp(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})

	r.SetMotor(true)
	r.tick(readySpeed - 1)
	if r.MotorSpeed() != readySpeed-1 || r.IsReady(0) {
		t.Errorf("drive ready too early: speed %d", r.MotorSpeed())
	}
	expectResult(t, "spinning up", r.run(t, CmdSenseInterrupt), 0x80)

	r.tick(1)
	if !r.IsReady(0) {
		t.Errorf("drive not ready at speed %d", r.MotorSpeed())
	}
	if r.IsReady(1) {
		t.Errorf("empty drive ready")
	}

	r.tick(10)
	if r.MotorSpeed() != fullSpeed {
		t.Errorf("want full speed, got %d", r.MotorSpeed())
	}
	expectResult(t, "ready", r.run(t, CmdSenseInterrupt), 0xC0, 0x00)
	expectResult(t, "no more", r.run(t, CmdSenseInterrupt), 0x80)
}

//
func TestMotorSpinDown(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})
	r.spinUp(t)

	r.SetMotor(false)
	r.tick(2)
	if !r.IsReady(0) {
		t.Errorf("drive not ready right after motor off")
	}
	r.tick(1)
	if r.IsReady(0) {
		t.Errorf("drive still ready at speed %d", r.MotorSpeed())
	}
	r.tick(fullSpeed)
	if r.MotorSpeed() != 0 {
		t.Errorf("motor still turning: %d", r.MotorSpeed())
	}
	expectResult(t, "not ready", r.run(t, CmdSenseInterrupt), 0xC8, 0x00)
}

//
func TestRotation(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})

	r.SetRotationAngle(0, 10)
	r.tick(5)
	if a := r.RotationAngle(0); a != 10 {
		t.Errorf("disk rotates with motor off: %d", a)
	}

	r.spinUp(t)
	r.SetRotationAngle(0, 95)
	r.tick(7)
	if a := r.RotationAngle(0); a != 2 {
		t.Errorf("want angle 2, got %d", a)
	}

	r.SetRotationAngle(1, -1)
	if a := r.RotationAngle(1); a != 99 {
		t.Errorf("want angle 99, got %d", a)
	}
}

//
func TestSeekInstant(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})
	r.spinUp(t)

	r.send(CmdSeek, 0x00, 0x0A)
	if msr := r.ReadMainStatus(); msr != 0x81 {
		t.Errorf("want drive 0 seeking, got main status %02X", msr)
	}

	r.tick(1)
	if msr := r.ReadMainStatus(); msr != 0x80 {
		t.Errorf("want seek done, got main status %02X", msr)
	}
	expectResult(t, "seek", r.run(t, CmdSenseInterrupt), 0x20, 0x0A)

	if c := r.drives[0].Cylinder(); c != 10 {
		t.Errorf("want head at cylinder 10, got %d", c)
	}

	r.send(readData(10, 0, 0xC1, 2, 0xC1)...)
	if got := r.read(t, 512); got[0] != imagetest.Pattern(10, 0, 0xC1, 0) {
		t.Errorf("read from wrong cylinder")
	}
	expectResult(t, "read", r.result(t), 0x40, 0x80, 0x00, 0x0B, 0x00, 0x01, 0x02)
}

//
func TestSeekTiming(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()}, WithStepRate(defaultStepRate))
	r.spinUp(t)

	r.send(CmdSeek, 0x00, 0x03)
	for ix := 0; ix < 17; ix++ {
		r.tick(1)
	}
	if p := r.PresentCylinder(0); p != 2 {
		t.Errorf("want cylinder 2 after 17 ticks, got %d", p)
	}
	if r.ReadMainStatus()&0x01 == 0 {
		t.Errorf("seek done too early")
	}
	expectResult(t, "seeking", r.run(t, CmdSenseInterrupt), 0x80)

	r.tick(1)
	if p := r.PresentCylinder(0); p != 3 {
		t.Errorf("want cylinder 3 after 18 ticks, got %d", p)
	}
	expectResult(t, "seek", r.run(t, CmdSenseInterrupt), 0x20, 0x03)

	// seeking back in one go
	r.send(CmdSeek, 0x00, 0x01)
	r.tick(12)
	expectResult(t, "seek back", r.run(t, CmdSenseInterrupt), 0x20, 0x01)
	if c := r.drives[0].Cylinder(); c != 1 {
		t.Errorf("want head at cylinder 1, got %d", c)
	}
}

//
func TestSeekSpecifiedRate(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})
	r.spinUp(t)

	// step rate 16 - 0x0C = 4
	r.send(CmdSpecify, 0xC1, 0x03)
	r.send(CmdSeek, 0x00, 0x02)
	r.tick(7)
	if p := r.PresentCylinder(0); p != 1 {
		t.Errorf("want cylinder 1 after 7 ticks, got %d", p)
	}
	r.tick(1)
	if p := r.PresentCylinder(0); p != 2 {
		t.Errorf("want cylinder 2 after 8 ticks, got %d", p)
	}
}

//
func TestSeekSameCylinder(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})
	r.spinUp(t)

	r.send(CmdSeek, 0x04, 0x00)
	expectResult(t, "seek", r.run(t, CmdSenseInterrupt), 0x24, 0x00)
}

//
func TestSeekNotReady(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})

	r.send(CmdSeek, 0x00, 0x05)
	expectResult(t, "seek", r.run(t, CmdSenseInterrupt), 0x68, 0x00)
	if c := r.drives[0].Cylinder(); c != 0 {
		t.Errorf("head moved on drive that is not ready")
	}
}

//
func TestSeekAbortedByDiskRemoval(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()}, WithStepRate(defaultStepRate))
	r.spinUp(t)

	r.send(CmdSeek, 0x00, 0x14)
	r.tick(12)

	r.drives[0].Close()
	r.UpdateDriveReady()

	if r.ReadMainStatus()&0x01 != 0 {
		t.Errorf("still seeking after disk removal")
	}
	expectResult(t, "aborted", r.run(t, CmdSenseInterrupt), 0x68, 0x02)
	expectResult(t, "not ready", r.run(t, CmdSenseInterrupt), 0xC8, 0x02)
	expectResult(t, "no more", r.run(t, CmdSenseInterrupt), 0x80)
}

//
func TestRecalibrate(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})
	r.spinUp(t)

	r.send(CmdSeek, 0x00, 0x0A)
	r.tick(1)
	r.drainInterrupts(t)

	r.send(CmdRecalibrate, 0x00)
	if r.ReadMainStatus()&0x01 == 0 {
		t.Errorf("drive 0 not recalibrating")
	}
	r.tick(1)
	expectResult(t, "recalibrate", r.run(t, CmdSenseInterrupt), 0x20, 0x00)
	if c := r.drives[0].Cylinder(); c != 0 {
		t.Errorf("want head at cylinder 0, got %d", c)
	}
}

//
func TestRecalibrateTiming(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()}, WithStepRate(defaultStepRate))
	r.spinUp(t)

	r.send(CmdSeek, 0x00, 0x0A)
	r.tick(100)
	r.drainInterrupts(t)

	r.send(CmdRecalibrate, 0x00)
	r.tick(59)
	if c := r.drives[0].Cylinder(); c != 1 {
		t.Errorf("want head at cylinder 1, got %d", c)
	}
	r.tick(1)
	expectResult(t, "recalibrate", r.run(t, CmdSenseInterrupt), 0x20, 0x00)
}

//
func TestRecalibrateGivesUp(t *testing.T) {

	r := newRig(t, []*imagetest.Disk{dataDisk()})
	r.spinUp(t)

	r.send(CmdSeek, 0x00, 80)
	r.tick(1)
	r.drainInterrupts(t)

	r.send(CmdRecalibrate, 0x00)
	r.tick(1)
	expectResult(t, "recalibrate", r.run(t, CmdSenseInterrupt), 0x70, 0x00)
	if c := r.drives[0].Cylinder(); c != 80-recalibrateSteps {
		t.Errorf("want head at cylinder %d, got %d", 80-recalibrateSteps, c)
	}
}

//
func TestRecalibrateNotReady(t *testing.T) {
	r := newRig(t, []*imagetest.Disk{dataDisk()})
	r.SetMotor(true)
	r.tick(fullSpeed)
	r.drainInterrupts(t)
	r.send(CmdRecalibrate, 0x01)
	expectResult(t, "recalibrate", r.run(t, CmdSenseInterrupt), 0x69, 0x00)
}
