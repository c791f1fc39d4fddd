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
	"math/rand"
	"testing"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
	"github.com/xelalexv/cpcfdc/pkg/floppy/drive"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image/imagetest"
)

// testDrives attaches plain drives to a controller under test
type testDrives [DriveCount]*drive.Drive

func (d *testDrives) HaveDisk(u int) bool         { return d[u].HaveDisk() }
func (d *testDrives) IsTrack0(u int) bool         { return d[u].IsTrack0() }
func (d *testDrives) IsWriteProtected(u int) bool { return d[u].IsWriteProtected() }
func (d *testDrives) Sides(u int) int             { return d[u].Sides() }
func (d *testDrives) StepIn(u, n int)             { d[u].StepIn(n) }
func (d *testDrives) StepOut(u, n int)            { d[u].StepOut(n) }

func (d *testDrives) TrackSectors(u, side int) int {
	return d[u].SectorCount(d[u].Cylinder(), side)
}

func (d *testDrives) SectorID(u, side, s int) base.SectorID {
	return d[u].SectorID(d[u].Cylinder(), side, s)
}

func (d *testDrives) PhysicalSector(u, side, n, div int) int {
	return d[u].PhysicalSector(d[u].Cylinder(), side, n, div)
}

func (d *testDrives) PhysicalSectorPos(u, side, s, div int) int {
	return d[u].PhysicalSectorPos(d[u].Cylinder(), side, s, div)
}

func (d *testDrives) ReadSector(u, side, s int, buf []byte, st *base.Status) error {
	return d[u].ReadSector(side, s, buf, st)
}

func (d *testDrives) WriteSector(u, side, s int, buf []byte, st *base.Status) error {
	return d[u].WriteSector(side, s, buf, st)
}

// rig is a controller with drives, and the in-memory stores of the disks
// inserted into them
type rig struct {
	*Controller
	drives *testDrives
	stores [DriveCount]*imagetest.MemStore
}

/*
	newRig creates a controller with four drives. Disks are inserted into the
	drives in the order given, nil leaving a drive empty. Seeks complete
	instantly unless other options say otherwise.
*/
func newRig(t *testing.T, disks []*imagetest.Disk, opts ...Option) *rig {
	t.Helper()
	r := &rig{drives: &testDrives{}}
	for ix := range r.drives {
		r.drives[ix] = drive.NewWithSource(ix, rand.NewSource(int64(ix)))
		if ix < len(disks) && disks[ix] != nil {
			r.insert(t, ix, disks[ix], true)
		}
	}
	r.Controller = New(r.drives, append([]Option{WithStepRate(0)}, opts...)...)
	return r
}

//
func (r *rig) insert(t *testing.T, unit int, d *imagetest.Disk, writable bool) {
	t.Helper()
	data := d.Bytes()
	r.stores[unit] = imagetest.NewMemStore(data)
	if err := r.drives[unit].OpenStore(r.stores[unit], int64(len(data)),
		writable); err != nil {
		t.Fatalf("cannot insert disk into drive %d: %v", unit, err)
	}
}

// tick advances time by n units, and lets the controller catch up
func (r *rig) tick(n int) {
	for ; n > 0; n-- {
		r.Tick(0)
	}
	r.ReadMainStatus()
}

// spinUp switches the motor on, waits for full speed, and clears the
// resulting ready change interrupts
func (r *rig) spinUp(t *testing.T) {
	t.Helper()
	r.SetMotor(true)
	r.tick(fullSpeed)
	if r.MotorSpeed() != fullSpeed {
		t.Fatalf("motor not at full speed: %d", r.MotorSpeed())
	}
	r.drainInterrupts(t)
}

//
func (r *rig) drainInterrupts(t *testing.T) {
	t.Helper()
	for ix := 0; ix <= DriveCount; ix++ {
		if res := r.run(t, CmdSenseInterrupt); res[0] == base.ST0InvalidCommand {
			return
		}
	}
	t.Fatalf("interrupts do not clear")
}

// send writes a command and its parameters to the data register
func (r *rig) send(cmd ...byte) {
	for _, b := range cmd {
		r.WriteData(b)
	}
}

// result reads all bytes of the result phase
func (r *rig) result(t *testing.T) []byte {
	t.Helper()
	var ret []byte
	for r.Phase() == ResultPhase {
		if len(ret) > 7 {
			t.Fatalf("result phase does not end")
		}
		ret = append(ret, r.ReadData())
	}
	return ret
}

// run sends a command that has no execution phase, and returns its result
func (r *rig) run(t *testing.T, cmd ...byte) []byte {
	t.Helper()
	r.send(cmd...)
	return r.result(t)
}

// read reads n bytes in execution phase
func (r *rig) read(t *testing.T, n int) []byte {
	t.Helper()
	ret := make([]byte, 0, n)
	for ix := 0; ix < n; ix++ {
		if r.Phase() != ExecutionPhase {
			t.Fatalf("execution phase ended after %d bytes", ix)
		}
		ret = append(ret, r.ReadData())
	}
	return ret
}

// write writes data in execution phase
func (r *rig) write(t *testing.T, data []byte) {
	t.Helper()
	for ix, b := range data {
		if r.Phase() != ExecutionPhase {
			t.Fatalf("execution phase ended after %d bytes", ix)
		}
		r.WriteData(b)
	}
}

// sector returns the content of physical sector s on side h of the cylinder
// the head of unit is at
func (r *rig) sector(t *testing.T, unit, h, s int) ([]byte, base.Status) {
	t.Helper()
	var st base.Status
	buf := make([]byte, base.MaxSectorSize)
	if err := r.drives[unit].ReadSector(h, s, buf, &st); err != nil {
		t.Fatalf("cannot read sector %d: %v", s, err)
	}
	n := base.SectorSize(r.drives[unit].SectorID(r.drives[unit].Cylinder(),
		h, s).SizeCode)
	return buf[:n], st
}

// pattern returns the initial content of a sector built by imagetest
func pattern(c, h, r byte, size int) []byte {
	ret := make([]byte, size)
	for ix := range ret {
		ret[ix] = imagetest.Pattern(c, h, r, ix)
	}
	return ret
}

//
func expectResult(t *testing.T, what string, got []byte, want ...byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: want result % X, got % X", what, want, got)
		return
	}
	for ix := range want {
		if got[ix] != want[ix] {
			t.Errorf("%s: want result % X, got % X", what, want, got)
			return
		}
	}
}

// dataDisk is a single sided 40 track disk in CPC data format
func dataDisk() *imagetest.Disk {
	return imagetest.Uniform(false, 40, 1, 9, 2, 0xC1)
}
