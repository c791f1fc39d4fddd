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
	"net/http"
)

//
func (a *api) fdcState(w http.ResponseWriter, req *http.Request) {
	var out bytes.Buffer
	if err := a.daemon.Emit(&out); err != nil {
		handleError(err, statusFor(err), w)
		return
	}
	sendStreamReply(&out, http.StatusOK, w)
}

//
func (a *api) reset(w http.ResponseWriter, req *http.Request) {
	if err := a.daemon.Reset(); err != nil {
		handleError(err, statusFor(err), w)
		return
	}
	sendReply([]byte("controller reset"), http.StatusOK, w)
}
