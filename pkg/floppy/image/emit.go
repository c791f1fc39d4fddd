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
	"fmt"
	"io"
	"strings"
)

// List writes a summary of the disk's geometry to w.
func (x *Index) List(w io.Writer) {

	fmt.Fprintf(w, "\n%s\n\n", x.name)
	fmt.Fprintf(w, "format:      %s\n", x.format)
	if creator := strings.TrimRight(x.creator, "\x00 "); creator != "" {
		fmt.Fprintf(w, "creator:     %s\n", creator)
	}
	fmt.Fprintf(w, "cylinders:   %d\n", x.cylinders)
	fmt.Fprintf(w, "sides:       %d\n", x.sides)
	fmt.Fprintf(w, "sectors:     %d\n", len(x.sectors))

	weak := 0
	unformatted := 0
	for ix := range x.tracks {
		t := &x.tracks[ix]
		if t.count == 0 {
			unformatted++
		}
		for _, s := range x.sectors[t.first : t.first+t.count] {
			if s.IsWeak() {
				weak++
			}
		}
	}

	fmt.Fprintf(w, "unformatted: %d tracks\n", unformatted)
	fmt.Fprintf(w, "weak:        %d sectors\n", weak)
	fmt.Fprintf(w, "protected:   %v\n\n", x.writeProtected)
}

// Emit writes the sector table of each track to w.
func (x *Index) Emit(w io.Writer) {
	for c := 0; c < x.cylinders; c++ {
		for h := 0; h < x.sides; h++ {
			t := x.Track(c, h)
			fmt.Fprintf(w, "track %3d side %d: %2d sectors, gap %02X, filler %02X\n",
				c, h, t.count, t.Gap, t.Filler)
			for s, rec := range x.Sectors(c, h) {
				weak := ""
				if rec.IsWeak() {
					weak = fmt.Sprintf(" weak x%d", rec.DataSize/rec.Nominal())
				}
				fmt.Fprintf(w, "  %2d  %s  %5d bytes @ %08X%s\n",
					s, rec.ID, rec.DataSize, rec.Offset, weak)
			}
		}
	}
}
