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
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/xelalexv/cpcfdc/pkg/repo"
)

//
func NewLoad() *Load {

	l := &Load{}
	l.Runner = *NewRunner(
		`load [-d|--drive {drive}] -i|--input {file|repo://{ref}} [-r|--readonly]
     [-f|--force] [-a|--address {address}] [-p|--port {port}]`,
		"insert disk image into daemon",
		"\nUse the load command to insert a disk image into one of the daemon's drives.",
		"", `- Disk images can be standard or extended CPC disk images. With a reference of
  the form repo://{path}, the image is taken from the daemon's repository.

`+runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.File, "input", "i", "", nil,
		"disk image file or repository reference", true)
	l.AddSetting(&l.Drive, "drive", "d", "", 0, "drive number (0-3)", false)
	l.AddSetting(&l.ReadOnly, "readonly", "r", "", false,
		"insert write protected", false)
	l.AddSetting(&l.Force, "force", "f", "", false,
		"force replacing modified disk in daemon", false)

	return l
}

//
type Load struct {
	//
	Runner
	//
	Drive    int
	File     string
	ReadOnly bool
	Force    bool
}

//
func (l *Load) Run() error {
	l.ParseSettings()
	return l.load()
}

//
func (l *Load) load() error {

	if err := validateDrive(l.Drive); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("readonly", fmt.Sprint(l.ReadOnly))
	query.Set("force", fmt.Sprint(l.Force))

	var body io.Reader

	if repo.IsReference(l.File) {
		query.Set("ref", l.File)

	} else {
		f, err := os.Open(l.File)
		if err != nil {
			return err
		}
		defer f.Close()
		body = bufio.NewReader(f)
		query.Set("name", filepath.Base(l.File))
	}

	return l.apiMessage("PUT",
		fmt.Sprintf("/drive/%d?%s", l.Drive, query.Encode()), body)
}
