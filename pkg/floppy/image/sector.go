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
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
)

// offset of the ST2 byte within a sector descriptor
const descriptorST2 = 5

// replica picks the stored copy of a weak sector to access. For all other
// sectors, it's the sector's offset.
func replica(rec *SectorRecord, rnd *rand.Rand) int64 {
	if !rec.IsWeak() {
		return rec.Offset
	}
	nominal := rec.Nominal()
	return rec.Offset + int64(nominal*rnd.Intn(rec.DataSize/nominal))
}

/*
	ReadSector reads physical sector s of cylinder c, side h into buf, which
	needs to hold at least the sector's nominal size. The sector's stored
	status bits are merged into st. For weak sectors, one of the stored copies
	is chosen at random using rnd. Sectors stored shorter than their nominal
	size are padded by repeating their data.
*/
func (x *Index) ReadSector(c, h, s int, buf []byte, st *base.Status,
	rnd *rand.Rand) error {

	if x.store == nil {
		return base.ErrNoDisk
	}

	rec, err := x.Sector(c, h, s)
	if err != nil {
		return err
	}
	st.Merge(rec.ID.ST1, rec.ID.ST2)

	nominal := rec.Nominal()
	if len(buf) < nominal {
		return base.ErrReadFailed
	}

	size := nominal
	if rec.DataSize < nominal {
		size = rec.DataSize
	}

	if _, err := x.store.ReadAt(buf[:size], replica(rec, rnd)); err != nil {
		log.WithFields(log.Fields{
			"sector": rec.ID.String(),
			"offset": rec.Offset,
		}).Debugf("reading sector failed: %v", err)
		return base.ErrReadFailed
	}

	for ix := size; ix < nominal; ix++ {
		buf[ix] = buf[ix-size]
	}

	return nil
}

/*
	WriteSector writes buf to physical sector s of cylinder c, side h. Bit 6 of
	st.ST2 selects whether the sector is to be marked as deleted. If this
	differs from what is stored, the sector descriptor is updated, provided the
	backing store has one. On return, st carries the sector's stored status
	bits. Writes to weak sectors always report a failure.
*/
func (x *Index) WriteSector(c, h, s int, buf []byte, st *base.Status,
	rnd *rand.Rand) error {

	if x.store == nil {
		return base.ErrNoDisk
	}
	if x.writeProtected {
		return base.ErrWriteProtected
	}

	t := x.Track(c, h)
	rec, err := x.Sector(c, h, s)
	if err != nil {
		return err
	}

	nominal := rec.Nominal()
	if len(buf) < nominal {
		return base.ErrWriteFailed
	}

	size := nominal
	if rec.DataSize < nominal {
		size = rec.DataSize
	}

	deleted := st.ST2 & base.ST2ControlMark
	toggle := deleted != rec.ID.ST2&base.ST2ControlMark

	var ret error

	if _, err := x.store.WriteAt(buf[:size], replica(rec, rnd)); err != nil {
		log.WithFields(log.Fields{
			"sector": rec.ID.String(),
			"offset": rec.Offset,
		}).Debugf("writing sector failed: %v", err)
		ret = base.ErrWriteFailed

	} else if rec.IsWeak() {
		ret = base.ErrWriteFailed
	}

	if toggle {
		if t.TableOffset == 0 {
			ret = base.ErrWriteFailed
		} else if err := x.patchST2(t, s, deleted); err != nil {
			log.WithField("sector", rec.ID.String()).Debugf(
				"updating sector status failed: %v", err)
			ret = base.ErrWriteFailed
		}
	}

	st.Merge(rec.ID.ST1, rec.ID.ST2)
	return ret
}

// patchST2 sets the deleted bit of the stored ST2 of sector s on track t to
// deleted, both in the index and in the backing store.
func (x *Index) patchST2(t *TrackRecord, s int, deleted byte) error {

	pos := t.TableOffset + int64(descriptorSize*s+descriptorST2)
	b := make([]byte, 1)
	if _, err := x.store.ReadAt(b, pos); err != nil {
		return err
	}

	b[0] = (b[0] &^ base.ST2ControlMark) | deleted
	if _, err := x.store.WriteAt(b, pos); err != nil {
		return err
	}

	rec := &x.sectors[t.first+s]
	rec.ID.ST2 = (rec.ID.ST2 &^ base.ST2ControlMark) | deleted
	return nil
}
