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

//
func NewInfo() *Info {

	i := &Info{}
	i.Runner = *NewRunner(
		"info [-a|--address {address}] [-p|--port {port}]",
		"show controller state",
		`
Use the info command to show the state of the daemon's floppy disk controller,
i.e. its phase, last command, motor, and the disks and head positions of all
drives.`,
		"", runnerHelpEpilogue, i.Run)

	i.AddBaseSettings()
	return i
}

//
type Info struct {
	Runner
}

//
func (i *Info) Run() error {
	i.ParseSettings()
	return i.apiMessage("GET", "/fdc", nil)
}
