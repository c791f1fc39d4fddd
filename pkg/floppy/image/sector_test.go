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
	"math/rand"
	"testing"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image/imagetest"
)

//
func fill(size int, v byte) []byte {
	return bytes.Repeat([]byte{v}, size)
}

//
func TestWriteReadRoundTrip(t *testing.T) {

	for _, extended := range []bool{false, true} {

		x, _ := mustOpen(t, imagetest.Uniform(extended, 2, 2, 9, 2, 0xC1))
		rnd := rand.New(rand.NewSource(1))

		want := make([]byte, 512)
		for ix := range want {
			want[ix] = byte(ix * 13)
		}

		var st base.Status
		if err := x.WriteSector(1, 1, 4, want, &st, rnd); err != nil {
			t.Fatalf("write: %v", err)
		}

		got := make([]byte, 512)
		if err := x.ReadSector(1, 1, 4, got, &st, rnd); err != nil {
			t.Fatalf("read: %v", err)
		}
		if !bytes.Equal(want, got) {
			t.Errorf("extended %v: data read back differs", extended)
		}

		// neighbours untouched
		if err := x.ReadSector(1, 1, 5, got, &st, rnd); err != nil {
			t.Fatalf("read: %v", err)
		}
		if got[0] != imagetest.Pattern(1, 1, 0xC6, 0) {
			t.Errorf("extended %v: neighbouring sector changed", extended)
		}
	}
}

//
func TestReadShortSector(t *testing.T) {

	d := imagetest.Uniform(true, 1, 1, 2, 2, 1)
	d.Track(0, 0).Sectors[0].Size = 128

	x, _ := mustOpen(t, d)
	rec, _ := x.Sector(0, 0, 0)
	if rec.DataSize != 128 || rec.Nominal() != 512 {
		t.Fatalf("unexpected sector sizes %d/%d", rec.DataSize, rec.Nominal())
	}

	buf := make([]byte, 512)
	var st base.Status
	if err := x.ReadSector(0, 0, 0, buf, &st, nil); err != nil {
		t.Fatal(err)
	}

	for ix := 0; ix < 128; ix++ {
		if buf[ix] != imagetest.Pattern(0, 0, 1, ix) {
			t.Fatalf("byte %d: unexpected data %02X", ix, buf[ix])
		}
	}
	for ix := 128; ix < 512; ix++ {
		if buf[ix] != buf[ix-128] {
			t.Fatalf("byte %d: padding %02X differs from %02X",
				ix, buf[ix], buf[ix-128])
		}
	}

	// following sector starts right after the short one
	next, _ := x.Sector(0, 0, 1)
	if next.Offset != rec.Offset+128 {
		t.Errorf("next sector at %d, want %d", next.Offset, rec.Offset+128)
	}
}

//
func TestWriteShortSector(t *testing.T) {

	d := imagetest.Uniform(true, 1, 1, 2, 2, 1)
	d.Track(0, 0).Sectors[0].Size = 128

	x, _ := mustOpen(t, d)
	var st base.Status

	if err := x.WriteSector(0, 0, 0, fill(512, 0x77), &st, nil); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 512)
	if err := x.ReadSector(0, 0, 1, buf, &st, nil); err != nil {
		t.Fatal(err)
	}
	if buf[0] != imagetest.Pattern(0, 0, 2, 0) {
		t.Errorf("write to short sector spilled into next sector")
	}
}

//
func weakDisk() *imagetest.Disk {
	d := imagetest.Uniform(true, 1, 1, 1, 2, 1)
	s := &d.Track(0, 0).Sectors[0]
	s.Size = 3 * 512
	s.Data = append(append(fill(512, 0x10), fill(512, 0x20)...),
		fill(512, 0x30)...)
	return d
}

//
func TestReadWeakSector(t *testing.T) {

	x, _ := mustOpen(t, weakDisk())
	rnd := rand.New(rand.NewSource(42))

	rec, _ := x.Sector(0, 0, 0)
	if !rec.IsWeak() {
		t.Fatalf("sector not weak")
	}

	seen := map[byte]bool{}
	buf := make([]byte, 512)
	var st base.Status

	for ix := 0; ix < 64; ix++ {
		if err := x.ReadSector(0, 0, 0, buf, &st, rnd); err != nil {
			t.Fatal(err)
		}
		switch buf[0] {
		case 0x10, 0x20, 0x30:
		default:
			t.Fatalf("read does not start at a replica: %02X", buf[0])
		}
		if !bytes.Equal(buf, fill(512, buf[0])) {
			t.Fatalf("read spans replicas")
		}
		seen[buf[0]] = true
	}

	if len(seen) < 2 {
		t.Errorf("weak sector always returned the same data")
	}
}

//
func TestWriteWeakSector(t *testing.T) {

	x, store := mustOpen(t, weakDisk())
	rnd := rand.New(rand.NewSource(7))
	rec, _ := x.Sector(0, 0, 0)

	var st base.Status
	if err := x.WriteSector(0, 0, 0, fill(512, 0xAA), &st, rnd); err != base.ErrWriteFailed {
		t.Fatalf("want write failed, got %v", err)
	}

	written := 0
	for r := 0; r < 3; r++ {
		off := int(rec.Offset) + r*512
		if bytes.Equal(store.Data[off:off+512], fill(512, 0xAA)) {
			written++
		}
	}
	if written != 1 {
		t.Errorf("want exactly one replica written, got %d", written)
	}
}

//
func TestStatusMerge(t *testing.T) {

	d := imagetest.Uniform(true, 1, 1, 1, 2, 1)
	d.Track(0, 0).Sectors[0].ST1 = base.ST1DataError
	d.Track(0, 0).Sectors[0].ST2 = base.ST2DataError

	x, _ := mustOpen(t, d)

	st := base.Status{ST1: base.ST1NotWritable, ST2: base.ST2ScanNotSatisfied}
	if err := x.ReadSector(0, 0, 0, make([]byte, 512), &st, nil); err != nil {
		t.Fatal(err)
	}
	if st.ST1 != base.ST1NotWritable|base.ST1DataError ||
		st.ST2 != base.ST2ScanNotSatisfied|base.ST2DataError {
		t.Errorf("unexpected status %02X/%02X", st.ST1, st.ST2)
	}
}

//
func TestDeletedMarkPatched(t *testing.T) {

	x, store := mustOpen(t, imagetest.Uniform(true, 1, 1, 2, 2, 1))
	buf := fill(512, 0x11)

	st := base.Status{ST2: base.ST2ControlMark}
	if err := x.WriteSector(0, 0, 1, buf, &st, nil); err != nil {
		t.Fatal(err)
	}
	if !st.IsDeleted() {
		t.Errorf("status does not report deleted sector")
	}

	tr := x.Track(0, 0)
	pos := tr.TableOffset + 8 + 5
	if store.Data[pos] != base.ST2ControlMark {
		t.Fatalf("descriptor not patched: %02X", store.Data[pos])
	}

	reopened, _, err := openBytes(t, store.Data, true)
	if err != nil {
		t.Fatal(err)
	}
	if rec, _ := reopened.Sector(0, 0, 1); rec.ID.ST2 != base.ST2ControlMark {
		t.Errorf("deleted mark not persisted: %s", rec.ID)
	}

	st = base.Status{}
	if err := x.WriteSector(0, 0, 1, buf, &st, nil); err != nil {
		t.Fatal(err)
	}
	if st.IsDeleted() || store.Data[pos] != 0 {
		t.Errorf("deleted mark not cleared")
	}
}

//
func TestWriteErrors(t *testing.T) {

	x, _, err := openBytes(t, imagetest.Uniform(false, 1, 1, 9, 2, 1).Bytes(), false)
	if err != nil {
		t.Fatal(err)
	}

	var st base.Status
	buf := make([]byte, 512)

	if err := x.WriteSector(0, 0, 0, buf, &st, nil); err != base.ErrWriteProtected {
		t.Errorf("want write protected, got %v", err)
	}

	x, _ = mustOpen(t, imagetest.Uniform(false, 1, 1, 9, 2, 1))
	if err := x.WriteSector(0, 0, 9, buf, &st, nil); err != base.ErrSectorNotFound {
		t.Errorf("want sector not found, got %v", err)
	}
	if err := x.ReadSector(0, 1, 0, buf, &st, nil); err != base.ErrSectorNotFound {
		t.Errorf("want sector not found, got %v", err)
	}
	if err := x.ReadSector(0, 0, 0, buf[:100], &st, nil); err != base.ErrReadFailed {
		t.Errorf("want read failed for short buffer, got %v", err)
	}
}
