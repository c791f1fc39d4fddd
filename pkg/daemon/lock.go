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


package daemon

import (
	"context"
)

// lock guards the controller between the serial loop and control requests
type lock struct {
	ch chan struct{}
}

//
func newLock() *lock {
	return &lock{ch: make(chan struct{}, 1)}
}

//
func (l *lock) acquire() {
	l.ch <- struct{}{}
}

// acquireContext tries to acquire the lock until ctx is done.
func (l *lock) acquireContext(ctx context.Context) bool {
	select {
	case l.ch <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

//
func (l *lock) release() {
	select {
	case <-l.ch:
	default:
	}
}
