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
	"bytes"
	"fmt"

	log "github.com/sirupsen/logrus"
)

//
const CmdHello = 'h'     // hello (send/receive to/from adapter)
const CmdPing = 'P'      // ping/pong (send/receive to/from adapter)
const CmdStatus = 's'    // read main status register
const CmdRead = 'r'      // read data register
const CmdWrite = 'w'     // write data register
const CmdPeek = 'e'      // read data register without side effects
const CmdDebug = 'd'     // read debug register
const CmdMotor = 'm'     // switch motor
const CmdTick = 't'      // advance controller time
const CmdReset = 'x'     // reset controller
const CmdLog = 'l'       // log message from adapter
const CmdTimeStart = 'u' // start stop watch
const CmdTimeEnd = 'q'   // stop stop watch

var ping = []byte("Ping")
var pong = []byte("Pong")

//
func newCommand(data []byte) *command {
	return &command{data: data}
}

// command is a frame of four bytes, the command code followed by three
// arguments
type command struct {
	data []byte
}

//
func (c *command) dispatch(d *Daemon) error {

	switch c.cmd() {

	case CmdHello:
		d.setSynced(false)
		return nil

	case CmdPing:
		if bytes.Equal(c.data, ping) {
			log.Debug("ping from adapter")
			return d.conduit.send(pong)
		}
		return nil

	case CmdStatus:
		return c.status(d)

	case CmdRead:
		return c.read(d)

	case CmdWrite:
		return c.write(d)

	case CmdPeek:
		return c.peek(d)

	case CmdDebug:
		return c.debugRead(d)

	case CmdMotor:
		return c.motor(d)

	case CmdTick:
		return c.tick(d)

	case CmdReset:
		log.Info("controller reset by adapter")
		d.fdc.Reset()
		return nil

	case CmdLog:
		return c.message(d)

	case CmdTimeStart:
		return c.timer(true, d)

	case CmdTimeEnd:
		return c.timer(false, d)
	}

	return fmt.Errorf("unknown command: %v", c.data)
}

//
func (c *command) cmd() byte {
	return c.data[0]
}

//
func (c *command) arg(ix int) byte {
	if 0 <= ix && ix < len(c.data)-1 {
		return c.data[ix+1]
	}
	return 0
}

// word returns the 16 bit little endian value of arguments 0 and 1
func (c *command) word() int {
	return int(c.arg(0)) | int(c.arg(1))<<8
}

// count returns the byte count in argument 0; 0 stands for 1
func (c *command) count() int {
	if n := int(c.arg(0)); n > 0 {
		return n
	}
	return 1
}
