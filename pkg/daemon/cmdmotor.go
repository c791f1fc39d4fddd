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
	log "github.com/sirupsen/logrus"
)

//
func (c *command) motor(d *Daemon) error {
	on := c.arg(0) != 0
	action := "stopped"
	if on {
		action = "started"
	}
	log.WithField("action", action).Debug("MOTOR")
	d.fdc.SetMotor(on)
	return nil
}

// tick advances controller time by the number of ticks given in arguments 0
// and 1, 0 meaning one tick. The LED state after the last tick is sent back
// in little endian order.
func (c *command) tick(d *Daemon) error {

	n := c.word()
	if n == 0 {
		n = 1
	}

	var led uint32
	for ; n > 0; n-- {
		led = d.fdc.Tick(c.arg(2))
	}

	return d.conduit.send([]byte{
		byte(led), byte(led >> 8), byte(led >> 16), byte(led >> 24)})
}
