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
func NewReset() *Reset {

	r := &Reset{}
	r.Runner = *NewRunner(
		`reset [-a|--address {address}] [-p|--port {port}] [-y|--yes]`,
		"reset the floppy disk controller",
		`
Use the reset command to reset the daemon's floppy disk controller. Any command in
progress is abandoned, and the motor is switched off. This may lead to data loss
if a write operation is in progress!`,
		"", runnerHelpEpilogue, r.Run)

	r.AddBaseSettings()
	r.AddSetting(&r.Yes, "yes", "y", "", false, "skip confirmation", false)

	return r
}

//
type Reset struct {
	Runner
	//
	Yes bool
}

//
func (r *Reset) Run() error {
	r.ParseSettings()
	if !r.Yes && !GetUserConfirmation("Reset controller?") {
		return nil
	}
	return r.apiMessage("PUT", "/reset", nil)
}
