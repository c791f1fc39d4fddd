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
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

//
func (a *api) watch(w http.ResponseWriter, req *http.Request) {

	timeout, err := strconv.Atoi(req.URL.Query().Get("timeout"))
	if err != nil || timeout < 0 || 1800 < timeout {
		timeout = 600
	}

	log.Infof("starting watch for %s, timeout %d", req.RemoteAddr, timeout)
	update := make(chan *Change, 1)

	select {
	case a.longPollQueue <- update:
	case <-time.After(time.Duration(timeout) * time.Second):
		log.Infof("closing watch for %s after timeout", req.RemoteAddr)
		sendReply([]byte{}, http.StatusRequestTimeout, w)
		return
	}

	log.Infof("sending daemon change to %s", req.RemoteAddr)
	sendJSONReply(<-update, http.StatusOK, w)
}

//
func (a *api) watchDaemon() {

	log.Info("start watching for daemon changes")

	var last watchState

	for {
		select {
		case <-a.stop:
			log.Info("stopped watching for daemon changes")
			return
		case <-time.After(a.pollInterval):
		}

		change := last.update(a.getDisks(), a.daemon.Client())
		if change == nil {
			continue
		}

		log.Debug("daemon changes")

	Loop:
		for {
			select {
			case cl := <-a.longPollQueue:
				log.Debug("notifying long poll client")
				cl <- change
			default:
				log.Debug("all long poll clients notified")
				break Loop
			}
		}
	}
}

// watchState is what watchers were last told about
type watchState struct {
	drives []*Disk
	client string
}

// update records drives and client, and returns the change to report, or nil
// if nothing changed. Client is always included, drives only when changed.
func (s *watchState) update(drives []*Disk, client string) *Change {

	changed := false
	ret := &Change{Client: client}

	if !diskListsEqual(drives, s.drives) {
		ret.Drives = drives
		s.drives = drives
		changed = true
	}

	if client != s.client {
		s.client = client
		changed = true
	}

	if !changed {
		return nil
	}
	return ret
}
