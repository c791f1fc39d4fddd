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
	"github.com/pkg/errors"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
	"github.com/xelalexv/cpcfdc/pkg/floppy/raw"
)

//
func standardSectorSize(code byte) int {
	ret := base.SectorSize(code)
	if ret > base.MaxStandardSectorSize {
		ret = base.MaxStandardSectorSize
	}
	return ret
}

/*
	parseStandard builds the index for a standard format image. All tracks have
	the same size given in the disk header, and sector data is laid out at
	nominal sector size of the track.
*/
func (x *Index) parseStandard(hd *raw.Block, size int64) error {

	nTracks := x.cylinders * x.sides
	trackSize := hd.GetInt("trackSize")

	if trackSize < headerSize {
		return errors.Wrapf(ErrInvalidHeader, "track size %d", trackSize)
	}
	if int64(nTracks)*int64(trackSize)+headerSize > size {
		return ErrUnexpectedEOF
	}

	x.tracks = make([]TrackRecord, nTracks)
	total := 0

	// first pass: track headers, to get the total number of sectors
	for ix := range x.tracks {

		pos := int64(ix)*int64(trackSize) + headerSize
		th, err := x.readTrackHeader(pos)
		if err != nil {
			return err
		}

		code := th.GetByte("sizeCode") & 0x07
		sectorSize := standardSectorSize(code)
		n := int(th.GetByte("sectors"))

		if n > base.MaxSectorsPerTrack || n*sectorSize+headerSize > trackSize {
			return errors.Wrapf(ErrInvalidTrackHeader,
				"track %d: %d sectors of %d bytes", ix, n, sectorSize)
		}

		x.tracks[ix] = TrackRecord{
			count:       n,
			Gap:         th.GetByte("gap"),
			Filler:      th.GetByte("filler"),
			SizeCode:    code,
			TableOffset: pos + descriptorOffset,
		}
		total += n
	}

	x.sectors = make([]SectorRecord, 0, total)

	// second pass: sector descriptors
	for ix := range x.tracks {

		pos := int64(ix)*int64(trackSize) + headerSize
		th, err := x.readTrackHeader(pos)
		if err != nil {
			return err
		}

		t := &x.tracks[ix]
		if int(th.GetByte("sectors")) != t.count {
			return errors.Wrapf(ErrInvalidTrackHeader,
				"track %d changed while reading", ix)
		}

		sectorSize := standardSectorSize(t.SizeCode)
		t.first = len(x.sectors)
		data := pos + headerSize

		for s := 0; s < t.count; s++ {
			d := th.Entry("table", descriptorSize, s, sectorDescriptorIndex)
			n := d.GetByte("n")
			if n > t.SizeCode {
				return errors.Wrapf(ErrInvalidSectorHeader,
					"track %d, sector %d: size code %d", ix, s, n)
			}
			x.sectors = append(x.sectors, SectorRecord{
				Offset:   data,
				DataSize: standardSectorSize(n),
				ID:       sectorID(d),
			})
			data += int64(sectorSize)
		}
	}

	return nil
}

//
func sectorID(d *raw.Block) base.SectorID {
	return base.SectorID{
		Cylinder: d.GetByte("c"),
		Head:     d.GetByte("h"),
		Sector:   d.GetByte("r"),
		SizeCode: d.GetByte("n"),
		ST1:      d.GetByte("st1") & base.MaskStatus1,
		ST2:      d.GetByte("st2") & base.MaskStatus2,
	}
}
