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


package control

import (
	"fmt"

	"github.com/xelalexv/cpcfdc/pkg/daemon"
)

//
type Status struct {
	Client string   `json:"client"`
	Drives []string `json:"drives"`
}

//
func (s *Status) Add(d string) {
	s.Drives = append(s.Drives, d)
}

//
func (s *Status) String() string {
	client := s.Client
	if client == "" {
		client = "<not connected>"
	}
	ret := fmt.Sprintf("\nclient: %s\n", client)
	for ix, d := range s.Drives {
		ret = fmt.Sprintf("%s%d: %s\n", ret, ix, d)
	}
	return ret
}

//
type Disk struct {
	Name           string `json:"name"`
	Status         string `json:"status"`
	Format         string `json:"format"`
	Cylinders      int    `json:"cylinders"`
	Sides          int    `json:"sides"`
	Cylinder       int    `json:"cylinder"`
	WriteProtected bool   `json:"writeProtected"`
	Modified       bool   `json:"modified"`
}

//
func newDisk(info *daemon.DiskInfo) *Disk {
	return &Disk{
		Name:           info.Name,
		Status:         info.Status,
		Format:         info.Format,
		Cylinders:      info.Cylinders,
		Sides:          info.Sides,
		Cylinder:       info.Cylinder,
		WriteProtected: info.WriteProtected,
		Modified:       info.Modified,
	}
}

//
func (d *Disk) String() string {

	if d.Status != daemon.StatusIdle && d.Status != daemon.StatusDevice {
		return fmt.Sprintf("<%s>", d.Status)
	}

	name := d.Name
	if name == "" {
		name = "<no name>"
	}

	write := 'w'
	if d.WriteProtected {
		write = 'r'
	}

	mod := ' '
	if d.Modified {
		mod = '*'
	}

	return fmt.Sprintf("%-24s%-9s%2dx%d %c%c", name, d.Format, d.Cylinders,
		d.Sides, write, mod)
}

//
type Change struct {
	Drives []*Disk `json:"drives,omitempty"`
	Client string  `json:"client"`
}

//
func diskListsEqual(a, b []*Disk) bool {
	if len(a) != len(b) {
		return false
	}
	for ix := range a {
		if *a[ix] != *b[ix] {
			return false
		}
	}
	return true
}
