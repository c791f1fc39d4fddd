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
	"testing"

	"github.com/pkg/errors"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image/imagetest"
)

//
func openBytes(t *testing.T, data []byte, writable bool) (*Index,
	*imagetest.MemStore, error) {
	t.Helper()
	store := imagetest.NewMemStore(data)
	x, err := OpenStore(store, int64(len(data)), writable)
	return x, store, err
}

//
func mustOpen(t *testing.T, d *imagetest.Disk) (*Index, *imagetest.MemStore) {
	t.Helper()
	x, store, err := openBytes(t, d.Bytes(), true)
	if err != nil {
		t.Fatalf("cannot open image: %v", err)
	}
	return x, store
}

//
func TestOpenCounts(t *testing.T) {

	tests := []struct {
		name     string
		extended bool
		cyls     int
		sides    int
		spt      int
		n        byte
	}{
		{"standard data format", false, 40, 1, 9, 2},
		{"standard double sided", false, 80, 2, 9, 2},
		{"standard large sectors", false, 2, 1, 3, 6},
		{"extended data format", true, 40, 1, 9, 2},
		{"extended double sided", true, 42, 2, 10, 2},
		{"extended single sector", true, 1, 1, 1, 0},
		{"standard maximum cylinders", false, 240, 1, 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			d := imagetest.Uniform(tc.extended, tc.cyls, tc.sides, tc.spt,
				tc.n, 0xC1)
			x, _ := mustOpen(t, d)
			defer x.Close()

			if x.Cylinders() != tc.cyls || x.Sides() != tc.sides {
				t.Fatalf("geometry: want %d/%d, got %d/%d",
					tc.cyls, tc.sides, x.Cylinders(), x.Sides())
			}
			if x.TrackCount() != tc.cyls*tc.sides {
				t.Errorf("track count: want %d, got %d",
					tc.cyls*tc.sides, x.TrackCount())
			}
			if x.SectorTotal() != tc.cyls*tc.sides*tc.spt {
				t.Errorf("sector total: want %d, got %d",
					tc.cyls*tc.sides*tc.spt, x.SectorTotal())
			}

			for c := 0; c < tc.cyls; c++ {
				for h := 0; h < tc.sides; h++ {
					if n := x.SectorCount(c, h); n != tc.spt {
						t.Fatalf("track %d/%d: want %d sectors, got %d",
							c, h, tc.spt, n)
					}
					rec, err := x.Sector(c, h, tc.spt-1)
					if err != nil {
						t.Fatalf("track %d/%d: %v", c, h, err)
					}
					want := base.SectorID{Cylinder: byte(c), Head: byte(h),
						Sector: 0xC1 + byte(tc.spt-1), SizeCode: tc.n}
					if rec.ID != want {
						t.Fatalf("track %d/%d: want %s, got %s",
							c, h, want, rec.ID)
					}
				}
			}

			if x.SectorCount(tc.cyls, 0) != 0 || x.SectorCount(0, tc.sides) != 0 {
				t.Errorf("sectors reported outside of disk")
			}
		})
	}
}

//
func TestOpenFormat(t *testing.T) {
	x, _ := mustOpen(t, imagetest.Uniform(false, 1, 1, 1, 2, 1))
	if x.Format() != Standard {
		t.Errorf("want standard format, got %s", x.Format())
	}
	x, _ = mustOpen(t, imagetest.Uniform(true, 1, 1, 1, 2, 1))
	if x.Format() != Extended {
		t.Errorf("want extended format, got %s", x.Format())
	}
}

//
func TestOpenInvalidGeometry(t *testing.T) {

	tests := []struct {
		name  string
		cyls  byte
		sides byte
	}{
		{"no cylinders", 0, 1},
		{"too many cylinders", 241, 1},
		{"no sides", 40, 0},
		{"three sides", 40, 3},
	}

	for _, extended := range []bool{false, true} {
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				data := imagetest.Uniform(extended, 1, 1, 1, 2, 1).Bytes()
				data[48] = tc.cyls
				data[49] = tc.sides
				_, store, err := openBytes(t, data, true)
				if !errors.Is(err, ErrInvalidHeader) {
					t.Errorf("want invalid header, got %v", err)
				}
				if !store.Closed {
					t.Errorf("store not closed after failed open")
				}
			})
		}
	}
}

//
func TestOpenErrors(t *testing.T) {

	truncate := func(d *imagetest.Disk, n int) []byte {
		data := d.Bytes()
		return data[:len(data)-n]
	}

	pad := func(data []byte) []byte {
		return append(data, make([]byte, 1024)...)
	}

	unknown := imagetest.Uniform(false, 1, 1, 1, 2, 1)
	unknown.Magic = []byte("NOTADISK")

	shortTrack := imagetest.Uniform(false, 1, 1, 1, 2, 1)
	shortTrack.TrackSize = 128

	crowdedTrack := imagetest.Uniform(false, 1, 1, 2, 2, 1)
	crowdedTrack.TrackSize = 768

	tooManyStandard := imagetest.Uniform(false, 1, 1, 30, 0, 1)
	tooManyExtended := imagetest.Uniform(true, 1, 1, 30, 0, 1)

	sizeCode := imagetest.Uniform(true, 1, 1, 2, 2, 1)
	sizeCode.Track(0, 0).Sectors[1].N = 3

	sizeCodeStandard := imagetest.Uniform(false, 1, 1, 2, 2, 1)
	sizeCodeStandard.Track(0, 0).Sectors[1].N = 3

	dataSize := imagetest.Uniform(true, 1, 1, 2, 2, 1)
	dataSize.Track(0, 0).Sectors[0].Size = 0x300

	badMagic := imagetest.Uniform(true, 2, 1, 1, 2, 1).Bytes()
	copy(badMagic[256+768:], "Trash-Info")

	endOfTrack := imagetest.Uniform(true, 1, 1, 2, 2, 1).Bytes()
	endOfTrack[52] = 4

	tooManyTracks := imagetest.Uniform(true, 103, 2, 0, 2, 1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too small", make([]byte, 511), ErrInvalidImage},
		{"unknown format", unknown.Bytes(), ErrUnknownFormat},
		{"standard truncated", truncate(imagetest.Uniform(false, 2, 1, 9, 2, 1), 1), ErrUnexpectedEOF},
		{"extended truncated", truncate(imagetest.Uniform(true, 2, 1, 9, 2, 1), 1), ErrUnexpectedEOF},
		{"track size too small", pad(shortTrack.Bytes()), ErrInvalidHeader},
		{"track too crowded", crowdedTrack.Bytes(), ErrInvalidTrackHeader},
		{"too many sectors standard", tooManyStandard.Bytes(), ErrInvalidTrackHeader},
		{"too many sectors extended", tooManyExtended.Bytes(), ErrInvalidTrackHeader},
		{"sector size code too large", sizeCode.Bytes(), ErrInvalidSectorHeader},
		{"sector size code too large standard", sizeCodeStandard.Bytes(), ErrInvalidSectorHeader},
		{"bad data size", dataSize.Bytes(), ErrInvalidSectorHeader},
		{"bad track magic", badMagic, ErrInvalidTrackHeader},
		{"end of track data", endOfTrack, ErrEndOfTrackData},
		{"too many tracks", pad(tooManyTracks.Bytes()), ErrInvalidHeader},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, store, err := openBytes(t, tc.data, true)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if x != nil {
				t.Errorf("index returned despite error")
			}
			if !store.Closed {
				t.Errorf("store not closed after failed open")
			}
		})
	}
}

//
func TestExtendedUnformattedTrack(t *testing.T) {

	d := imagetest.Uniform(true, 3, 1, 9, 2, 1)
	d.Track(1, 0).Unformatted = true

	x, _ := mustOpen(t, d)

	if n := x.SectorCount(1, 0); n != 0 {
		t.Fatalf("unformatted track: want 0 sectors, got %d", n)
	}
	tr := x.Track(1, 0)
	if tr.Gap != base.DefaultGap || tr.Filler != base.DefaultFiller ||
		tr.TableOffset != 0 {
		t.Errorf("unformatted track: unexpected record %+v", *tr)
	}

	// track after the gap must still be found at the right place
	rec, err := x.Sector(2, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID.Cylinder != 2 || rec.Offset != 256+(256+9*512)+256 {
		t.Errorf("sector after unformatted track: got %s @ %d",
			rec.ID, rec.Offset)
	}
}

//
func TestStoredStatusMasked(t *testing.T) {

	d := imagetest.Uniform(true, 1, 1, 1, 2, 1)
	d.Track(0, 0).Sectors[0].ST1 = 0xFF
	d.Track(0, 0).Sectors[0].ST2 = 0xFF

	x, _ := mustOpen(t, d)
	rec, _ := x.Sector(0, 0, 0)
	if rec.ID.ST1 != base.MaskStatus1 || rec.ID.ST2 != base.MaskStatus2 {
		t.Errorf("want %02X/%02X, got %02X/%02X", base.MaskStatus1,
			base.MaskStatus2, rec.ID.ST1, rec.ID.ST2)
	}
}

//
func TestCloseClearsIndex(t *testing.T) {

	x, store := mustOpen(t, imagetest.Uniform(false, 2, 1, 9, 2, 1))

	if err := x.Close(); err != nil {
		t.Fatal(err)
	}
	if !store.Closed {
		t.Errorf("store not closed")
	}
	if x.TrackCount() != 0 || x.SectorTotal() != 0 || x.SectorCount(0, 0) != 0 {
		t.Errorf("index not cleared")
	}

	var st base.Status
	buf := make([]byte, 512)
	if err := x.ReadSector(0, 0, 0, buf, &st, nil); err != base.ErrNoDisk {
		t.Errorf("read after close: want no disk, got %v", err)
	}
	if err := x.WriteSector(0, 0, 0, buf, &st, nil); err != base.ErrNoDisk {
		t.Errorf("write after close: want no disk, got %v", err)
	}
}

//
func TestOpenFile(t *testing.T) {

	path := imagetest.Uniform(false, 40, 1, 9, 2, 0xC1).WriteFile(t, "disk.dsk")

	notFloppy := ProbeFunc(func(string) (*Geometry, error) {
		return nil, ErrNotFloppy
	})

	x, err := Open(path, notFloppy)
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()

	if x.Name() != path || x.IsWriteProtected() || x.SectorTotal() != 360 {
		t.Errorf("unexpected index: %s, protected %v, %d sectors",
			x.Name(), x.IsWriteProtected(), x.SectorTotal())
	}
}

//
func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/does/not/exist.dsk", nil); !errors.Is(err, ErrOpenImage) {
		t.Errorf("want open error, got %v", err)
	}
}
