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
func (c *command) status(d *Daemon) error {
	msr := d.fdc.ReadMainStatus()
	log.WithField("msr", msr).Trace("STATUS")
	return d.conduit.send([]byte{msr})
}

//
func (c *command) read(d *Daemon) error {
	data := make([]byte, c.count())
	for ix := range data {
		data[ix] = d.fdc.ReadData()
	}
	log.WithField("count", len(data)).Tracef("READ % x", data)
	return d.conduit.send(data)
}

//
func (c *command) write(d *Daemon) error {
	data := make([]byte, c.count())
	if err := d.conduit.receive(data); err != nil {
		return err
	}
	log.WithField("count", len(data)).Tracef("WRITE % x", data)
	for _, b := range data {
		d.fdc.WriteData(b)
	}
	return nil
}

//
func (c *command) peek(d *Daemon) error {
	return d.conduit.send([]byte{d.fdc.ReadDataDebug()})
}

//
func (c *command) debugRead(d *Daemon) error {
	return d.conduit.send([]byte{d.fdc.DebugRead(uint16(c.word()))})
}
