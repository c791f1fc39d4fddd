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
	"net/http"
	"strings"

	"github.com/xelalexv/cpcfdc/pkg/daemon"
	"github.com/xelalexv/cpcfdc/pkg/repo"
)

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {

	stat := &Status{Client: a.daemon.Client()}
	for drive := 0; drive < daemon.DriveCount; drive++ {
		stat.Add(a.daemon.GetDisk(drive).Status)
	}

	if wantsJSON(req) {
		sendJSONReply(stat, http.StatusOK, w)
	} else {
		sendReply([]byte(stat.String()), http.StatusOK, w)
	}
}

//
func (a *api) list(w http.ResponseWriter, req *http.Request) {

	list := a.getDisks()

	if wantsJSON(req) {
		sendJSONReply(list, http.StatusOK, w)

	} else {
		strList := "\nDRIVE DISK                    FORMAT   GEOM  STATE"
		for ix, d := range list {
			strList += fmt.Sprintf("\n  %d   %s", ix, d.String())
		}
		sendReply([]byte(strList), http.StatusOK, w)
	}
}

//
func (a *api) getDisks() []*Disk {
	ret := make([]*Disk, daemon.DriveCount)
	for drive := range ret {
		ret[drive] = newDisk(a.daemon.GetDisk(drive))
	}
	return ret
}

//
func (a *api) repoList(w http.ResponseWriter, req *http.Request) {

	refs, err := repo.List(a.repository)
	if handleError(err, http.StatusNotAcceptable, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(refs, http.StatusOK, w)
		return
	}

	ret := ""
	for _, r := range refs {
		ret += r + "\n"
	}
	sendStreamReply(strings.NewReader(ret), http.StatusOK, w)
}
