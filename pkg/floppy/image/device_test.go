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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
)

//
func rawDevice(t *testing.T, cyls, sides, spt int) (string, []byte) {
	t.Helper()
	data := make([]byte, cyls*sides*spt*base.RawSectorSize)
	for ix := range data {
		data[ix] = byte(ix / base.RawSectorSize)
	}
	path := filepath.Join(t.TempDir(), "fd0")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path, data
}

//
func TestOpenDevice(t *testing.T) {

	path, data := rawDevice(t, 2, 2, 9)

	x, err := OpenDevice(path, &Geometry{Cylinders: 2, Sides: 2,
		SectorsPerTrack: 9})
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()

	if x.Format() != Device || x.IsWriteProtected() || x.SectorTotal() != 36 {
		t.Fatalf("unexpected device index: %s, protected %v, %d sectors",
			x.Format(), x.IsWriteProtected(), x.SectorTotal())
	}

	tr := x.Track(1, 1)
	if tr.Gap != base.DefaultRawGap || tr.Filler != base.DefaultFiller ||
		tr.TableOffset != 0 {
		t.Errorf("unexpected track record %+v", *tr)
	}

	rec, _ := x.Sector(1, 1, 3)
	want := base.SectorID{Cylinder: 1, Head: 1, Sector: 4, SizeCode: 2}
	if rec.ID != want || rec.Offset != int64((3*9+3)*512) {
		t.Errorf("want %s @ %d, got %s @ %d", want, (3*9+3)*512,
			rec.ID, rec.Offset)
	}

	buf := make([]byte, 512)
	var st base.Status
	if err := x.ReadSector(1, 1, 3, buf, &st, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, data[rec.Offset:rec.Offset+512]) {
		t.Errorf("device data differs")
	}

	// raw devices have no place to store a deleted mark
	st = base.Status{ST2: base.ST2ControlMark}
	if err := x.WriteSector(1, 1, 3, buf, &st, nil); err != base.ErrWriteFailed {
		t.Errorf("want write failed, got %v", err)
	}
}

//
func TestOpenDeviceReadOnly(t *testing.T) {
	path, _ := rawDevice(t, 1, 1, 9)
	x, err := OpenDevice(path, &Geometry{Cylinders: 1, Sides: 1,
		SectorsPerTrack: 9, WriteProtected: true})
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()
	var st base.Status
	if err := x.WriteSector(0, 0, 0, make([]byte, 512), &st, nil); err != base.ErrWriteProtected {
		t.Errorf("want write protected, got %v", err)
	}
}

//
func TestOpenDeviceInvalidGeometry(t *testing.T) {

	path, _ := rawDevice(t, 1, 1, 9)

	for _, geo := range []Geometry{
		{Cylinders: 0, Sides: 1, SectorsPerTrack: 9},
		{Cylinders: 241, Sides: 1, SectorsPerTrack: 9},
		{Cylinders: 40, Sides: 3, SectorsPerTrack: 9},
		{Cylinders: 40, Sides: 1, SectorsPerTrack: 0},
		{Cylinders: 40, Sides: 1, SectorsPerTrack: 30},
	} {
		g := geo
		if _, err := OpenDevice(path, &g); !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("%+v: want invalid geometry, got %v", geo, err)
		}
	}
}

//
func TestOpenViaProbe(t *testing.T) {

	path, _ := rawDevice(t, 40, 1, 9)

	floppy := ProbeFunc(func(string) (*Geometry, error) {
		return &Geometry{Cylinders: 40, Sides: 1, SectorsPerTrack: 9}, nil
	})
	x, err := Open(path, floppy)
	if err != nil {
		t.Fatal(err)
	}
	if x.Format() != Device || x.SectorTotal() != 360 {
		t.Errorf("device not opened as such")
	}
	x.Close()

	broken := ProbeFunc(func(string) (*Geometry, error) {
		return nil, errors.Wrap(ErrInvalidGeometry, "test")
	})
	if _, err := Open(path, broken); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("want invalid geometry, got %v", err)
	}

	// not a floppy and not an image either
	notFloppy := ProbeFunc(func(string) (*Geometry, error) {
		return nil, ErrNotFloppy
	})
	if _, err := Open(path, notFloppy); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("want unknown format, got %v", err)
	}
}
