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
	"strconv"
)

//
func NewUnload() *Unload {

	u := &Unload{}
	u.Runner = *NewRunner(
		"unload [-d|--drive {drive}] [-f|--force] [-a|--address {address}] [-p|--port {port}]",
		"eject disk from daemon",
		`
Use the unload command to eject the disk from one of the daemon's drives. A
modified disk is only ejected when forced, save it first to keep the changes.`,
		"", runnerHelpEpilogue, u.Run)

	u.AddBaseSettings()
	u.AddSetting(&u.Drive, "drive", "d", "", 0, "drive number (0-3)", false)
	u.AddSetting(&u.Force, "force", "f", "", false,
		"force ejecting modified disk from daemon", false)

	return u
}

//
type Unload struct {
	//
	Runner
	//
	Drive int
	Force bool
}

//
func (u *Unload) Run() error {
	u.ParseSettings()
	return u.unload()
}

//
func (u *Unload) unload() error {
	if err := validateDrive(u.Drive); err != nil {
		return err
	}
	return u.apiMessage("GET", fmt.Sprintf("/drive/%d/unload?force=%s",
		u.Drive, strconv.FormatBool(u.Force)), nil)
}
