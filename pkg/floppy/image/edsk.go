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

// smallest data size accepted for a sector that is shorter than nominal but
// not an even fraction of it
const minOddSectorSize = 0x1000

// validExtendedDataSize checks the stored data size of an extended format
// sector against the sector's nominal size.
func validExtendedDataSize(dataSize, nominal int) bool {
	switch {
	case dataSize < 1:
		return false
	case dataSize%nominal == 0:
		return true
	case nominal%dataSize == 0:
		return true
	}
	return minOddSectorSize <= dataSize && dataSize < nominal
}

/*
	parseExtended builds the index for an extended format image. Each track
	declares its own size in the disk header, 0 denoting an unformatted track
	that has no data in the image. Sector data is packed back to back, each
	sector taking up its declared data size.
*/
func (x *Index) parseExtended(hd *raw.Block, size int64) error {

	nTracks := x.cylinders * x.sides
	if nTracks > maxExtendedTracks {
		return errors.Wrapf(ErrInvalidHeader, "%d tracks", nTracks)
	}

	sizes := hd.GetSlice("trackSizes")
	required := int64(headerSize)
	for ix := 0; ix < nTracks; ix++ {
		required += int64(sizes[ix]) << 8
	}
	if required > size {
		return ErrUnexpectedEOF
	}

	x.tracks = make([]TrackRecord, nTracks)
	total := 0

	pos := int64(headerSize)
	for ix := range x.tracks {

		if sizes[ix] == 0 {
			x.tracks[ix] = TrackRecord{
				Gap:    base.DefaultGap,
				Filler: base.DefaultFiller,
			}
			continue
		}

		th, err := x.readTrackHeader(pos)
		if err != nil {
			return err
		}

		code := th.GetByte("sizeCode")
		n := int(th.GetByte("sectors"))
		if code > 7 || n > base.MaxSectorsPerTrack {
			return errors.Wrapf(ErrInvalidTrackHeader,
				"track %d: size code %d, %d sectors", ix, code, n)
		}

		x.tracks[ix] = TrackRecord{
			count:       n,
			Gap:         th.GetByte("gap"),
			Filler:      th.GetByte("filler"),
			SizeCode:    code,
			TableOffset: pos + descriptorOffset,
		}
		total += n
		pos += int64(sizes[ix]) << 8
	}

	x.sectors = make([]SectorRecord, 0, total)

	pos = headerSize
	for ix := range x.tracks {

		t := &x.tracks[ix]
		t.first = len(x.sectors)
		if sizes[ix] == 0 {
			continue
		}

		th, err := x.readTrackHeader(pos)
		if err != nil {
			return err
		}

		next := pos + int64(sizes[ix])<<8
		data := pos + headerSize

		for s := 0; s < t.count; s++ {

			d := th.Entry("table", descriptorSize, s, sectorDescriptorIndex)
			n := d.GetByte("n")
			if n > t.SizeCode {
				return errors.Wrapf(ErrInvalidSectorHeader,
					"track %d, sector %d: size code %d", ix, s, n)
			}

			dataSize := d.GetInt("length")
			if !validExtendedDataSize(dataSize, base.SectorSize(n)) {
				return errors.Wrapf(ErrInvalidSectorHeader,
					"track %d, sector %d: data size %d", ix, s, dataSize)
			}

			x.sectors = append(x.sectors, SectorRecord{
				Offset:   data,
				DataSize: dataSize,
				ID:       sectorID(d),
			})

			data += int64(dataSize)
			if data > next {
				return errors.Wrapf(ErrEndOfTrackData, "track %d", ix)
			}
		}

		pos = next
	}

	return nil
}
