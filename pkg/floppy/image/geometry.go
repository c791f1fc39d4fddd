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
	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
)

// bytes a sector occupies on a track besides its data and gap 3: ID address
// mark, ID, CRC, gap 2, sync, data address mark, data CRC, sync
const sectorOverhead = 4 + 4 + 2 + 22 + 12 + 4 + 2 + 12

//
func sectorCost(s *SectorRecord, gap byte) int64 {
	return int64(sectorOverhead + s.Nominal() + int(gap))
}

/*
	positions returns the byte position of each sector's ID address mark on
	track t. One revolution is always base.TrackLength bytes, so on tracks that
	hold more than that, the last sectors lie at or past one revolution.
*/
func (x *Index) positions(t *TrackRecord) []int64 {
	pos := make([]int64, t.count)
	var p int64
	for s := 0; s < t.count; s++ {
		pos[s] = p
		p += sectorCost(&x.sectors[t.first+s], t.Gap)
	}
	return pos
}

/*
	PhysicalSector returns the index of the physical sector on cylinder c, side
	h whose ID address mark is the last one at or before rotational position
	n/d of a revolution, 0 being the ID address mark of the first sector. It
	returns -1 if there are no sectors or the parameters are invalid.
*/
func (x *Index) PhysicalSector(c, h, n, d int) int {

	if d <= 0 || n < 0 {
		return -1
	}

	t := x.Track(c, h)
	if t == nil || t.count == 0 {
		return -1
	}

	pos := x.positions(t)
	target := int64(n%d) * base.TrackLength / int64(d)

	ret := 0
	for s, p := range pos {
		if p > target {
			break
		}
		ret = s
	}
	return ret
}

// PhysicalSectorPos returns the rotational position of the ID address mark of
// physical sector s on cylinder c, side h, scaled to d units per revolution,
// or -1 if the sector does not exist or d is invalid. Sectors past the end of
// a revolution yield positions of d or more.
func (x *Index) PhysicalSectorPos(c, h, s, d int) int {

	if d <= 0 {
		return -1
	}

	t := x.Track(c, h)
	if t == nil || s < 0 || s >= t.count {
		return -1
	}

	return int(x.positions(t)[s] * int64(d) / base.TrackLength)
}
