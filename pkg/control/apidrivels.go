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
	"bytes"
	"io"
	"net/http"
)

//
func (a *api) dump(w http.ResponseWriter, req *http.Request) {
	a.driveInfo(w, req, a.daemon.DumpDisk)
}

//
func (a *api) driveList(w http.ResponseWriter, req *http.Request) {
	a.driveInfo(w, req, a.daemon.ListDisk)
}

//
func (a *api) driveInfo(w http.ResponseWriter, req *http.Request,
	info func(drive int, w io.Writer) error) {

	drive := getDrive(w, req)
	if drive == -1 {
		return
	}

	var out bytes.Buffer
	if err := info(drive, &out); err != nil {
		handleError(err, statusFor(err), w)
		return
	}

	sendStreamReply(&out, http.StatusOK, w)
}
