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


package workspace

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

//
const StateVersion = 1

const FlagWriteProtected = 0x01

const stateFile = "state"

// folder within a drive's folder holding the image
const imageDir = "disk"

// layout of the state file: version, flags, checksum of disk image as
// inserted, name of disk image
const (
	ixVersion = 0
	ixFlags   = 1
	ixSum     = 2
	ixName    = ixSum + sha256.Size
)

// DefaultDir is the workspace folder used when none is configured
const DefaultDir = "~/.cpcfdc"

/*
	Workspace keeps working copies of the disk images inserted into the
	drives. The controller writes to these copies directly. Each drive has its
	own folder, holding the image in a sub folder and a state file that records
	the image's
	original name and checksum, so that modifications can be detected and
	disks can be re-inserted after a restart.
*/
type Workspace struct {
	dir string
}

// Disk describes the working copy of a disk image
type Disk struct {
	Name           string
	Path           string
	WriteProtected bool
	sum            []byte
}

// New creates a workspace in dir. A leading ~ in dir is replaced with the
// user's home directory.
func New(dir string) (*Workspace, error) {

	if dir == "" {
		dir = DefaultDir
	}

	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, dir[1:])
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create workspace: %v", err)
	}

	log.WithField("dir", dir).Debug("workspace ready")
	return &Workspace{dir: dir}, nil
}

//
func (w *Workspace) Dir() string {
	return w.dir
}

//
func (w *Workspace) driveDir(drive int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%d", drive))
}

//
func (w *Workspace) imagePath(drive int, name string) string {
	return filepath.Join(w.driveDir(drive), imageDir, name)
}

// Store creates a working copy for drive from the image read from in, and
// replaces whatever working copy the drive had.
func (w *Workspace) Store(drive int, name string, in io.Reader,
	writeProtected bool) (*Disk, error) {

	if err := os.RemoveAll(w.driveDir(drive)); err != nil {
		return nil, err
	}

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		name = "disk.dsk"
	}
	file := w.imagePath(drive, name)

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, err
	}

	sum, err := writeAtomic(file, func(out io.Writer) error {
		_, err := io.Copy(out, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	ret := &Disk{
		Name:           name,
		Path:           file,
		WriteProtected: writeProtected,
		sum:            sum,
	}

	if err := w.writeState(drive, ret); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"drive": drive,
		"file":  file,
	}).Debug("working copy stored")

	return ret, nil
}

// Load returns the working copy of drive, or nil if there is none.
func (w *Workspace) Load(drive int) (*Disk, error) {

	data, err := os.ReadFile(filepath.Join(w.driveDir(drive), stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if len(data) <= ixName {
		return nil, fmt.Errorf("state of drive %d is corrupted", drive)
	}

	if data[ixVersion] != StateVersion {
		return nil, fmt.Errorf(
			"incompatible state version, want %d, got %d",
			StateVersion, data[ixVersion])
	}

	name := string(data[ixName:])
	ret := &Disk{
		Name:           name,
		Path:           w.imagePath(drive, name),
		WriteProtected: data[ixFlags]&FlagWriteProtected != 0,
		sum:            data[ixSum:ixName],
	}

	if _, err := os.Stat(ret.Path); err != nil {
		return nil, err
	}

	return ret, nil
}

// Remove deletes the working copy of drive.
func (w *Workspace) Remove(drive int) error {
	dir := w.driveDir(drive)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	log.Infof("removed working copy of drive %d", drive)
	return nil
}

// IsModified checks whether the working copy differs from the image as
// originally stored.
func (w *Workspace) IsModified(d *Disk) (bool, error) {
	sum, err := checksum(d.Path)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(sum, d.sum), nil
}

// Accept makes the current content of the working copy the new reference
// for modification checks.
func (w *Workspace) Accept(drive int, d *Disk) error {
	sum, err := checksum(d.Path)
	if err != nil {
		return err
	}
	d.sum = sum
	return w.writeState(drive, d)
}

//
func (w *Workspace) writeState(drive int, d *Disk) error {

	state := make([]byte, ixName, ixName+len(d.Name))
	state[ixVersion] = StateVersion
	if d.WriteProtected {
		state[ixFlags] |= FlagWriteProtected
	}
	copy(state[ixSum:], d.sum)
	state = append(state, d.Name...)

	_, err := writeAtomic(filepath.Join(w.driveDir(drive), stateFile),
		func(out io.Writer) error {
			_, err := out.Write(state)
			return err
		})
	return err
}

// writeAtomic writes file via a temporary file that is renamed when complete,
// and returns the checksum of what was written
func writeAtomic(file string, write func(io.Writer) error) ([]byte, error) {

	tmp := fmt.Sprintf("%s_", file)

	fd, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	hash := sha256.New()
	out := bufio.NewWriter(io.MultiWriter(fd, hash))

	if err := write(out); err != nil {
		fd.Close()
		return nil, err
	}
	if err := out.Flush(); err != nil {
		fd.Close()
		return nil, err
	}
	if err := fd.Sync(); err != nil {
		fd.Close()
		return nil, err
	}
	if err := fd.Close(); err != nil {
		return nil, err
	}

	if err := os.Rename(tmp, file); err != nil {
		return nil, err
	}

	return hash.Sum(nil), nil
}

//
func checksum(file string) ([]byte, error) {
	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, bufio.NewReader(fd)); err != nil {
		return nil, err
	}
	return hash.Sum(nil), nil
}
