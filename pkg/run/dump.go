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


package run

import (
	"fmt"
	"io"

	"github.com/xelalexv/cpcfdc/pkg/floppy/image"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		`dump [-d|--drive {drive}] [-i|--input {file}] [-s|--summary]
     [-a|--address {address}] [-p|--port {port}]`,
		"show disk geometry from file or daemon",
		`
Use the dump command to show the sector tables of a disk image, either from a file
or from one of the daemon's drives. With the summary flag, only a summary of the
disk's geometry is shown.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.File, "input", "i", "", nil,
		"disk image file or floppy device", false)
	d.AddSetting(&d.Drive, "drive", "d", "", 0, "drive number (0-3)", false)
	d.AddSetting(&d.Summary, "summary", "s", "", false, "show summary only", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Drive   int
	File    string
	Summary bool
}

//
func (d *Dump) Run() error {
	d.ParseSettings()
	return d.dump()
}

//
func (d *Dump) dump() error {

	if d.File != "" {
		x, err := image.Open(d.File, image.SystemProbe)
		if err != nil {
			return err
		}
		defer x.Close()

		if d.Summary {
			x.List(d.out)
		} else {
			x.Emit(d.out)
		}

	} else {
		if err := validateDrive(d.Drive); err != nil {
			return err
		}

		info := "dump"
		if d.Summary {
			info = "list"
		}

		resp, err := d.apiCall("GET",
			fmt.Sprintf("/drive/%d/%s", d.Drive, info), false, nil)
		if err != nil {
			return err
		}
		defer resp.Close()

		if _, err := io.Copy(d.out, resp); err != nil {
			return err
		}
	}

	fmt.Fprintln(d.out)
	return nil
}
