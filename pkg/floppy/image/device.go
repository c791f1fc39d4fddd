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
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
)

// ErrNotFloppy is returned by a probe for anything that is not a floppy
// device. Opening then continues with image file handling.
var ErrNotFloppy = errors.New("not a floppy device")

// Geometry is the layout of a raw floppy device as reported by a probe
type Geometry struct {
	Cylinders       int
	Sides           int
	SectorsPerTrack int
	WriteProtected  bool
}

//
func (g *Geometry) validate() error {
	if g.Cylinders < 1 || g.Cylinders > base.MaxCylinders ||
		g.Sides < 1 || g.Sides > base.MaxSides ||
		g.SectorsPerTrack < 1 || g.SectorsPerTrack > base.MaxSectorsPerTrack {
		return errors.Wrapf(ErrInvalidGeometry, "%d cylinders, %d sides, "+
			"%d sectors per track", g.Cylinders, g.Sides, g.SectorsPerTrack)
	}
	return nil
}

// Probe checks whether a file is a raw floppy device and if so, reports its
// geometry. Anything that is not a floppy device yields ErrNotFloppy, a
// floppy with unusable geometry ErrInvalidGeometry.
type Probe interface {
	Probe(fileName string) (*Geometry, error)
}

// ProbeFunc adapts a function to the Probe interface
type ProbeFunc func(fileName string) (*Geometry, error)

//
func (p ProbeFunc) Probe(fileName string) (*Geometry, error) {
	return p(fileName)
}

// SystemProbe detects floppy devices of the host system
var SystemProbe Probe = ProbeFunc(probeDevice)

/*
	OpenDevice opens raw floppy device fileName with the given geometry. The
	resulting index describes a uniform disk: each track holds geo's number of
	512 byte sectors, numbered from 1.
*/
func OpenDevice(fileName string, geo *Geometry) (*Index, error) {

	if err := geo.validate(); err != nil {
		return nil, err
	}

	writable := !geo.WriteProtected
	var f *os.File
	var err error

	if writable {
		f, err = os.OpenFile(fileName, os.O_RDWR, 0)
	}
	if !writable || err != nil {
		if f, err = os.Open(fileName); err != nil {
			return nil, errors.Wrap(ErrOpenImage, err.Error())
		}
		writable = false
	}

	x := &Index{
		name:           fileName,
		format:         Device,
		store:          f,
		cylinders:      geo.Cylinders,
		sides:          geo.Sides,
		writeProtected: !writable,
	}
	x.buildUniform(geo.SectorsPerTrack)

	if writable && !x.probeWritable() {
		log.WithField("device", fileName).Debug(
			"floppy device is write protected")
		x.writeProtected = true
	}

	log.WithFields(log.Fields{
		"device":    fileName,
		"cylinders": x.cylinders,
		"sides":     x.sides,
		"sectors":   geo.SectorsPerTrack,
		"readonly":  x.writeProtected,
	}).Debug("floppy device opened")

	return x, nil
}

// buildUniform synthesizes the track and sector tables of a raw device
func (x *Index) buildUniform(spt int) {

	nTracks := x.cylinders * x.sides
	x.tracks = make([]TrackRecord, nTracks)
	x.sectors = make([]SectorRecord, 0, nTracks*spt)

	for ix := range x.tracks {
		x.tracks[ix] = TrackRecord{
			first:    len(x.sectors),
			count:    spt,
			Gap:      base.DefaultRawGap,
			Filler:   base.DefaultFiller,
			SizeCode: base.RawSectorSizeCode,
		}
		c := ix / x.sides
		h := ix % x.sides
		for s := 0; s < spt; s++ {
			x.sectors = append(x.sectors, SectorRecord{
				Offset:   int64(ix*spt+s) * base.RawSectorSize,
				DataSize: base.RawSectorSize,
				ID: base.SectorID{
					Cylinder: byte(c),
					Head:     byte(h),
					Sector:   byte(s + 1),
					SizeCode: base.RawSectorSizeCode,
				},
			})
		}
	}
}

// probeWritable reads the last sector of the device and writes it back
// unchanged. Any failure means the disk can not be written.
func (x *Index) probeWritable() bool {
	if len(x.sectors) == 0 {
		return false
	}
	last := x.sectors[len(x.sectors)-1]
	buf := make([]byte, last.DataSize)
	if _, err := x.store.ReadAt(buf, last.Offset); err != nil {
		return false
	}
	_, err := x.store.WriteAt(buf, last.Offset)
	return err == nil
}
