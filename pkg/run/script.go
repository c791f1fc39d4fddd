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


package run

import (
	"fmt"
	"os"

	"github.com/xelalexv/cpcfdc/pkg/fdc"
	"github.com/xelalexv/cpcfdc/pkg/fdc/cpc"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image"
	"github.com/xelalexv/cpcfdc/pkg/script"
)

//
func NewScript() *Script {

	s := &Script{}
	s.Runner = *NewRunner(
		`script [-s|--script {file}] [--disk0 {disk}] [--disk1 {disk}] [--disk2 {disk}]
       [--disk3 {disk}] [--step-rate {rate}]`,
		"run Lua script against a local controller",
		`
Use the script command to drive a floppy disk controller of its own with a Lua
script, without a daemon. Disks can be inserted with the drive flags, or from
within the script. Without a script file, statements are read from the console.`,
		"", `- Available functions:

  fdc_status()              main status register
  fdc_read()                read data register
  fdc_write(b, ...)         write data register
  fdc_peek()                next data byte, without reading it
  fdc_debug(addr)           debug register
  fdc_command(b, ...)       write command, return result bytes as table
  fdc_tick([n], [on])       advance time, return LED state
  fdc_motor(on)             switch motor
  fdc_reset()               reset controller
  disk_open(drive, file)    insert disk image or floppy device
  disk_close(drive)         eject disk
  AND, OR, XOR, SHL, SHR    bit operations

`+runnerHelpEpilogue, s.Run)

	s.AddSetting(&s.File, "script", "s", "", nil, "Lua script file", false)
	for ix := range s.Disks {
		s.AddSetting(&s.Disks[ix], fmt.Sprintf("disk%d", ix), "", "", nil,
			fmt.Sprintf("disk for drive %d", ix), false)
	}
	s.AddSetting(&s.StepRate, "step-rate", "", "", 0,
		"step rate after reset in 2ms units, 0 for instant seeks", false)

	return s
}

//
type Script struct {
	//
	Runner
	//
	File     string
	Disks    [fdc.DriveCount]string
	StepRate int
}

//
func (s *Script) Run() error {
	s.ParseSettings()
	return s.run()
}

//
func (s *Script) run() error {

	c := cpc.New(fdc.WithStepRate(s.StepRate))
	c.SetProbe(image.SystemProbe)

	for ix, d := range s.Disks {
		if d != "" {
			if err := c.OpenDiskImage(ix, d); err != nil {
				return err
			}
		}
	}

	e := script.New(c, s.out)
	defer e.Close()

	if s.File != "" {
		return e.RunFile(s.File)
	}
	return e.REPL(os.Stdin, s.out)
}
