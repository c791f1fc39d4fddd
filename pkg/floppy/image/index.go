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
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/floppy/base"
	"github.com/xelalexv/cpcfdc/pkg/floppy/raw"
)

// format errors; all of them are fatal for an open attempt
var (
	ErrOpenImage           = errors.New("error opening CPC disk image file")
	ErrReadImage           = errors.New("error reading CPC disk image file")
	ErrInvalidImage        = errors.New("invalid CPC disk image file")
	ErrUnknownFormat       = errors.New("unknown CPC disk image file format")
	ErrInvalidHeader       = errors.New("invalid CPC disk image file header")
	ErrUnexpectedEOF       = errors.New("unexpected end of CPC disk image file")
	ErrInvalidTrackHeader  = errors.New("invalid track header in CPC disk image file")
	ErrInvalidSectorHeader = errors.New("invalid sector header in CPC disk image file")
	ErrEndOfTrackData      = errors.New("unexpected end of track data in CPC disk image file")
	ErrInvalidGeometry     = errors.New("invalid or inconsistent floppy disk geometry")
)

const (
	headerSize        = 256
	minImageSize      = 512
	descriptorOffset  = 24
	descriptorSize    = 8
	maxExtendedTracks = 204
)

var (
	standardMagic = "MV - CPCEMU Disk-File\r\nDisk-Info\r\n"
	extendedMagic = "EXTENDED CPC DSK File\r\nDisk-Info\r\n"
	trackMagic    = "Track-Info\r\n"
)

//
var diskHeaderIndex = raw.Index{
	"magic":      {0, 8},
	"creator":    {34, 14},
	"cylinders":  {48, 1},
	"sides":      {49, 1},
	"trackSize":  {50, 2},
	"trackSizes": {52, maxExtendedTracks},
}

//
var trackHeaderIndex = raw.Index{
	"magic":    {0, 12},
	"track":    {16, 1},
	"side":     {17, 1},
	"sizeCode": {20, 1},
	"sectors":  {21, 1},
	"gap":      {22, 1},
	"filler":   {23, 1},
	"table":    {descriptorOffset, headerSize - descriptorOffset},
}

//
var sectorDescriptorIndex = raw.Index{
	"c":      {0, 1},
	"h":      {1, 1},
	"r":      {2, 1},
	"n":      {3, 1},
	"st1":    {4, 1},
	"st2":    {5, 1},
	"length": {6, 2},
}

// Format is the kind of backing store an index was built from
type Format int

const (
	Standard Format = iota
	Extended
	Device
)

//
func (f Format) String() string {
	switch f {
	case Standard:
		return "standard"
	case Extended:
		return "extended"
	case Device:
		return "device"
	default:
		return "<unknown>"
	}
}

// Store is the backing store of a disk, usually an image file or a floppy
// device
type Store interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// SectorRecord describes one physical sector
type SectorRecord struct {
	// position of sector data in backing store
	Offset int64
	// size of sector data in backing store; exceeds nominal size for weak
	// sectors
	DataSize int
	//
	ID base.SectorID
}

// Nominal returns the nominal sector size derived from the size code.
func (s *SectorRecord) Nominal() int {
	return base.SectorSize(s.ID.SizeCode)
}

//
func (s *SectorRecord) IsWeak() bool {
	return s.DataSize > s.Nominal()
}

// TrackRecord describes one physical track, its sectors are a range within
// the sector arena of the index
type TrackRecord struct {
	first    int
	count    int
	Gap      byte
	Filler   byte
	SizeCode byte
	// position of the sector descriptor table in backing store, 0 if there is
	// none
	TableOffset int64
}

//
func (t *TrackRecord) SectorCount() int {
	return t.count
}

/*
	Index is the in-memory track and sector table of a disk. All sector records
	live in one arena, each track refers to a contiguous range of it.
*/
type Index struct {
	name           string
	format         Format
	store          Store
	cylinders      int
	sides          int
	writeProtected bool
	creator        string
	//
	tracks  []TrackRecord
	sectors []SectorRecord
}

/*
	Open opens the disk image or floppy device fileName. Floppy devices are
	detected with probe, which may be nil for image files only. Any error leaves
	nothing open.
*/
func Open(fileName string, probe Probe) (*Index, error) {

	if probe != nil {
		geo, err := probe.Probe(fileName)
		if err == nil {
			return OpenDevice(fileName, geo)
		}
		if errors.Cause(err) != ErrNotFloppy {
			return nil, err
		}
	}

	writable := true
	f, err := os.OpenFile(fileName, os.O_RDWR, 0)
	if err != nil {
		if f, err = os.Open(fileName); err != nil {
			return nil, errors.Wrap(ErrOpenImage, err.Error())
		}
		writable = false
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(ErrOpenImage, err.Error())
	}

	x, err := OpenStore(f, fi.Size(), writable)
	if err != nil {
		return nil, err
	}
	x.name = fileName
	return x, nil
}

/*
	OpenStore builds an index from an image held in store, which is size bytes
	long. Ownership of store passes to the index, it is closed when the index
	is closed or opening fails.
*/
func OpenStore(store Store, size int64, writable bool) (*Index, error) {

	x := &Index{store: store, writeProtected: !writable}

	if err := x.parse(size); err != nil {
		x.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"format":    x.format,
		"cylinders": x.cylinders,
		"sides":     x.sides,
		"sectors":   len(x.sectors),
		"readonly":  x.writeProtected,
	}).Debug("disk image opened")

	return x, nil
}

//
func (x *Index) parse(size int64) error {

	if size < minImageSize {
		return ErrInvalidImage
	}

	hd, err := x.readHeader(0)
	if err != nil {
		return err
	}

	if hd.HasPrefix("magic", standardMagic[:8]) {
		x.format = Standard
	} else if hd.HasPrefix("magic", extendedMagic[:8]) {
		x.format = Extended
	} else {
		return ErrUnknownFormat
	}

	x.creator = string(hd.GetSlice("creator"))
	x.cylinders = int(hd.GetByte("cylinders"))
	x.sides = int(hd.GetByte("sides"))

	if x.cylinders < 1 || x.cylinders > base.MaxCylinders ||
		x.sides < 1 || x.sides > base.MaxSides {
		return errors.Wrapf(ErrInvalidHeader,
			"%d cylinders, %d sides", x.cylinders, x.sides)
	}

	if x.format == Standard {
		return x.parseStandard(hd, size)
	}
	return x.parseExtended(hd, size)
}

//
func (x *Index) readHeader(pos int64) (*raw.Block, error) {
	buf := make([]byte, headerSize)
	if _, err := x.store.ReadAt(buf, pos); err != nil {
		return nil, errors.Wrapf(ErrReadImage, "at %d: %v", pos, err)
	}
	return raw.NewBlock(diskHeaderIndex, buf), nil
}

//
func (x *Index) readTrackHeader(pos int64) (*raw.Block, error) {
	buf := make([]byte, headerSize)
	if _, err := x.store.ReadAt(buf, pos); err != nil {
		return nil, errors.Wrapf(ErrReadImage, "at %d: %v", pos, err)
	}
	ret := raw.NewBlock(trackHeaderIndex, buf)
	if !ret.HasPrefix("magic", trackMagic) {
		return nil, errors.Wrapf(ErrInvalidTrackHeader, "no track magic at %d", pos)
	}
	return ret, nil
}

// Close releases the backing store. The index is empty afterwards.
func (x *Index) Close() error {
	var err error
	if x.store != nil {
		err = x.store.Close()
		x.store = nil
	}
	x.tracks = nil
	x.sectors = nil
	x.cylinders = 0
	x.sides = 0
	x.writeProtected = true
	return err
}

//
func (x *Index) Name() string {
	return x.name
}

//
func (x *Index) Format() Format {
	return x.format
}

//
func (x *Index) Creator() string {
	return x.creator
}

//
func (x *Index) Cylinders() int {
	return x.cylinders
}

//
func (x *Index) Sides() int {
	return x.sides
}

//
func (x *Index) IsWriteProtected() bool {
	return x.writeProtected
}

//
func (x *Index) TrackCount() int {
	return len(x.tracks)
}

//
func (x *Index) SectorTotal() int {
	return len(x.sectors)
}

// Track returns the track at cylinder c on side h, or nil.
func (x *Index) Track(c, h int) *TrackRecord {
	if c < 0 || c >= x.cylinders || h < 0 || h >= x.sides {
		return nil
	}
	ix := c*x.sides + h
	if ix >= len(x.tracks) {
		return nil
	}
	return &x.tracks[ix]
}

// SectorCount returns the number of sectors on cylinder c, side h.
func (x *Index) SectorCount(c, h int) int {
	if t := x.Track(c, h); t != nil {
		return t.count
	}
	return 0
}

// Sector returns physical sector s (0-based) on cylinder c, side h.
func (x *Index) Sector(c, h, s int) (*SectorRecord, error) {
	t := x.Track(c, h)
	if t == nil || s < 0 || s >= t.count {
		return nil, base.ErrSectorNotFound
	}
	return &x.sectors[t.first+s], nil
}

// Sectors returns the sector records of cylinder c, side h. The returned
// slice shares the arena and must not be modified.
func (x *Index) Sectors(c, h int) []SectorRecord {
	if t := x.Track(c, h); t != nil {
		return x.sectors[t.first : t.first+t.count]
	}
	return nil
}
