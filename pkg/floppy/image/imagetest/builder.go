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

/*
	Package imagetest builds CPC disk images in memory, for use in tests of
	packages working with disk images.
*/
package imagetest

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	StandardMagic = "MV - CPCEMU Disk-File\r\nDisk-Info\r\n"
	ExtendedMagic = "EXTENDED CPC DSK File\r\nDisk-Info\r\n"
	TrackMagic    = "Track-Info\r\n"
)

// Sector describes one sector of a disk to build
type Sector struct {
	C, H, R, N byte
	ST1, ST2   byte
	// size of data stored in the image, 0 for nominal size; only honored for
	// extended images
	Size int
	// sector data; if shorter than the stored size, the rest is filled with a
	// pattern derived from the sector ID
	Data []byte
}

//
func (s *Sector) nominal() int {
	return 0x80 << (s.N & 0x07)
}

//
func (s *Sector) stored(extended bool) int {
	if extended && s.Size > 0 {
		return s.Size
	}
	ret := s.nominal()
	if !extended && ret > 0x1800 {
		ret = 0x1800
	}
	return ret
}

// Pattern returns the default content byte at position ix of a sector
func Pattern(c, h, r byte, ix int) byte {
	return byte(int(c)*31 + int(h)*17 + int(r)*7 + ix)
}

//
func (s *Sector) bytes(extended bool) []byte {
	ret := make([]byte, s.stored(extended))
	n := copy(ret, s.Data)
	for ix := n; ix < len(ret); ix++ {
		ret[ix] = Pattern(s.C, s.H, s.R, ix)
	}
	return ret
}

// Track describes one track of a disk to build
type Track struct {
	SizeCode    byte
	Gap         byte
	Filler      byte
	Sectors     []Sector
	Unformatted bool
}

/*
	Disk describes a disk image to build. Tracks are ordered by cylinder, then
	side. Header fields can be overridden to produce broken images.
*/
type Disk struct {
	Extended  bool
	Cylinders int
	Sides     int
	Tracks    []Track
	// if not 0, overrides track size of standard images
	TrackSize int
	// if not nil, replaces the magic of the disk header
	Magic []byte
}

// Uniform returns a disk where every track has spt sectors of size code n,
// numbered from first.
func Uniform(extended bool, cyls, sides, spt int, n, first byte) *Disk {
	d := &Disk{Extended: extended, Cylinders: cyls, Sides: sides}
	for c := 0; c < cyls; c++ {
		for h := 0; h < sides; h++ {
			t := Track{SizeCode: n, Gap: 0x52, Filler: 0xE5}
			for s := 0; s < spt; s++ {
				t.Sectors = append(t.Sectors, Sector{
					C: byte(c), H: byte(h), R: first + byte(s), N: n})
			}
			d.Tracks = append(d.Tracks, t)
		}
	}
	return d
}

// Track returns the track at cylinder c, side h.
func (d *Disk) Track(c, h int) *Track {
	return &d.Tracks[c*d.Sides+h]
}

//
func (d *Disk) trackSize(t *Track) int {
	if t.Unformatted && d.Extended {
		return 0
	}
	size := 256
	for ix := range t.Sectors {
		if d.Extended {
			size += t.Sectors[ix].stored(true)
		} else {
			n := 0x80 << (t.SizeCode & 0x07)
			if n > 0x1800 {
				n = 0x1800
			}
			size += n
		}
	}
	return (size + 255) &^ 255
}

// Bytes renders the disk image.
func (d *Disk) Bytes() []byte {

	hd := make([]byte, 256)
	if d.Extended {
		copy(hd, ExtendedMagic)
	} else {
		copy(hd, StandardMagic)
	}
	if d.Magic != nil {
		copy(hd, d.Magic)
	}
	copy(hd[34:], "imagetest")
	hd[48] = byte(d.Cylinders)
	hd[49] = byte(d.Sides)

	standardSize := d.TrackSize
	if !d.Extended && standardSize == 0 {
		for ix := range d.Tracks {
			if s := d.trackSize(&d.Tracks[ix]); s > standardSize {
				standardSize = s
			}
		}
	}
	if !d.Extended {
		hd[50] = byte(standardSize)
		hd[51] = byte(standardSize >> 8)
	}

	ret := hd
	for ix := range d.Tracks {
		t := &d.Tracks[ix]
		size := standardSize
		if d.Extended {
			size = d.trackSize(t)
			if 52+ix < len(hd) {
				ret[52+ix] = byte(size >> 8)
			}
			if size == 0 {
				continue
			}
		}
		ret = append(ret, d.renderTrack(ix, t, size)...)
	}

	return ret
}

//
func (d *Disk) renderTrack(ix int, t *Track, size int) []byte {

	buf := make([]byte, size)
	copy(buf, TrackMagic)
	buf[16] = byte(ix / d.Sides)
	buf[17] = byte(ix % d.Sides)
	buf[20] = t.SizeCode
	buf[21] = byte(len(t.Sectors))
	buf[22] = t.Gap
	buf[23] = t.Filler

	pos := 256
	for s := range t.Sectors {
		sec := &t.Sectors[s]
		desc := 24 + 8*s
		if desc+8 <= 256 && desc+8 <= len(buf) {
			buf[desc] = sec.C
			buf[desc+1] = sec.H
			buf[desc+2] = sec.R
			buf[desc+3] = sec.N
			buf[desc+4] = sec.ST1
			buf[desc+5] = sec.ST2
			if d.Extended {
				stored := sec.stored(true)
				buf[desc+6] = byte(stored)
				buf[desc+7] = byte(stored >> 8)
			}
		}
		data := sec.bytes(d.Extended)
		if pos < len(buf) {
			copy(buf[pos:], data)
		}
		if d.Extended {
			pos += len(data)
		} else {
			n := 0x80 << (t.SizeCode & 0x07)
			if n > 0x1800 {
				n = 0x1800
			}
			pos += n
		}
	}

	return buf
}

// WriteFile writes the disk image into a temporary directory of the test and
// returns its path.
func (d *Disk) WriteFile(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, d.Bytes(), 0644); err != nil {
		t.Fatalf("cannot write disk image: %v", err)
	}
	return path
}
