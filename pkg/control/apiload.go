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
	"io"
	"net/http"

	"github.com/xelalexv/cpcfdc/pkg/repo"
)

//
func (a *api) load(w http.ResponseWriter, req *http.Request) {

	drive := getDrive(w, req)
	if drive == -1 {
		return
	}

	name, err := getArg(req, "name")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	var in io.Reader

	if ref, err := getRef(req); ref != "" {
		var rc io.ReadCloser
		if err == nil {
			rc, err = repo.Resolve(ref, a.repository)
		}
		if err != nil {
			handleError(err, http.StatusNotAcceptable, w)
			return
		}
		in = rc
		defer rc.Close()
		if name == "" {
			name = repo.Name(ref)
		}

	} else {
		in = io.LimitReader(req.Body, maxImageSize)
	}

	if name == "" {
		name = fmt.Sprintf("drive%d.dsk", drive)
	}

	err = a.daemon.InsertDisk(drive, name, in, isFlagSet(req, "readonly"),
		isFlagSet(req, "force"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			err = fmt.Errorf("cannot insert disk: %v", err)
			status = http.StatusUnprocessableEntity
		}
		handleError(err, status, w)
		return
	}

	if handleError(req.Body.Close(), http.StatusInternalServerError, w) {
		return
	}

	sendReply([]byte(
		fmt.Sprintf("inserted %s into drive %d", name, drive)), http.StatusOK, w)
}
