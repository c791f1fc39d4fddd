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
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

//
const commandLength = 4

//
var helloDaemon = []byte("hlod")
var helloClient = []byte("hloc")

// a hello is considered live when it arrives at least this long after the
// previous command
var helloSettle = 500 * time.Millisecond

//
type conduit struct {
	port io.ReadWriteCloser
}

//
func newConduit(port io.ReadWriteCloser) *conduit {
	return &conduit{port: port}
}

//
func openPort(p string) (io.ReadWriteCloser, error) {
	return serial.Open(serial.OpenOptions{
		PortName:        p,
		BaudRate:        1000000,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
}

//
func (c *conduit) close() error {
	return c.port.Close()
}

//
func (c *conduit) syncOnHello() error {

	log.Info("syncing with adapter")
	hello := make([]byte, commandLength)

	for !bytes.Equal(hello, helloClient) {
		shiftLeft(hello)
		if err := c.receive(hello[len(hello)-1:]); err != nil {
			return err
		}
	}

	var cmd *command
	var err error

	for { // find last live hello from adapter
		start := time.Now()
		if cmd, err = c.receiveCommand(); err != nil {
			return err
		}
		if cmd.cmd() == CmdHello && time.Since(start) >= helloSettle {
			break
		}
		log.Debugf("discarding command: %v", cmd.data)
	}

	if err := c.send(helloDaemon); err != nil {
		return fmt.Errorf("error sending daemon hello: %v", err)
	}

	log.Info("synced with adapter")
	return nil
}

//
func (c *conduit) receive(data []byte) error {
	_, err := io.ReadFull(c.port, data)
	return err
}

//
func (c *conduit) send(data []byte) error {
	_, err := c.port.Write(data)
	return err
}

//
func (c *conduit) receiveCommand() (*command, error) {
	data := make([]byte, commandLength)
	if err := c.receive(data); err != nil {
		return nil, err
	}
	return newCommand(data), nil
}

//
func shiftLeft(buf []byte) {
	if len(buf) > 1 {
		for ix := 0; ix < len(buf)-1; ix++ {
			buf[ix] = buf[ix+1]
		}
	}
}
