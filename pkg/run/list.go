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
func NewList() *List {

	l := &List{}
	l.Runner = *NewRunner(
		"ls [-r|--repo] [-a|--address {address}] [-p|--port {port}]",
		"get drive list from daemon",
		`
Use the ls command to get a drive list from the daemon. With the repo flag, the
disk images available in the daemon's repository are listed instead.`,
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Repo, "repo", "r", "", false,
		"list repository instead of drives", false)

	return l
}

//
type List struct {
	Runner
	//
	Repo bool
}

//
func (l *List) Run() error {
	l.ParseSettings()
	return l.list()
}

//
func (l *List) list() error {
	path := "/list"
	if l.Repo {
		path = "/repo"
	}
	if err := l.apiMessage("GET", path, nil); err != nil {
		return err
	}
	_, err := l.out.Write([]byte("\n"))
	return err
}
