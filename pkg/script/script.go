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


package script

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/xelalexv/cpcfdc/pkg/fdc"
	"github.com/xelalexv/cpcfdc/pkg/fdc/cpc"
)

// longest run of result bytes fdc_command collects
const maxResultBytes = 16

/*
	Engine runs Lua scripts against a CPC floppy disk controller. Scripts drive
	the controller through its register interface, the same way the CPU of the
	CPC does, and can insert and eject disks.

	Engine is not safe for concurrent use.
*/
type Engine struct {
	state *lua.LState
	fdc   *cpc.Controller
	out   io.Writer
}

// New creates a scripting engine for controller c. Output of print goes to
// out.
func New(c *cpc.Controller, out io.Writer) *Engine {

	e := &Engine{
		state: lua.NewState(),
		fdc:   c,
		out:   out,
	}

	for name, fn := range map[string]lua.LGFunction{
		"print":       e.print,
		"fdc_status":  e.status,
		"fdc_read":    e.read,
		"fdc_write":   e.write,
		"fdc_peek":    e.peek,
		"fdc_debug":   e.debug,
		"fdc_tick":    e.tick,
		"fdc_motor":   e.motor,
		"fdc_reset":   e.reset,
		"fdc_command": e.command,
		"disk_open":   e.diskOpen,
		"disk_close":  e.diskClose,
		"AND":         bitOp(func(a, b uint32) uint32 { return a & b }),
		"OR":          bitOp(func(a, b uint32) uint32 { return a | b }),
		"XOR":         bitOp(func(a, b uint32) uint32 { return a ^ b }),
		"SHL":         bitOp(func(a, b uint32) uint32 { return a << (b & 31) }),
		"SHR":         bitOp(func(a, b uint32) uint32 { return a >> (b & 31) }),
	} {
		e.state.SetGlobal(name, e.state.NewFunction(fn))
	}

	return e
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.state.Close()
}

// RunFile runs the Lua script in file.
func (e *Engine) RunFile(file string) error {
	log.WithField("file", file).Debug("running script")
	return e.state.DoFile(file)
}

// RunString runs the Lua code in code.
func (e *Engine) RunString(code string) error {
	return e.state.DoString(code)
}

//
func (e *Engine) print(L *lua.LState) int {
	var parts []string
	for ix := 1; ix <= L.GetTop(); ix++ {
		parts = append(parts, L.ToStringMeta(L.Get(ix)).String())
	}
	fmt.Fprintln(e.out, strings.Join(parts, "\t"))
	return 0
}

//
func (e *Engine) status(L *lua.LState) int {
	L.Push(lua.LNumber(e.fdc.ReadMainStatus()))
	return 1
}

//
func (e *Engine) read(L *lua.LState) int {
	L.Push(lua.LNumber(e.fdc.ReadData()))
	return 1
}

//
func (e *Engine) write(L *lua.LState) int {
	for ix := 1; ix <= L.GetTop(); ix++ {
		e.fdc.WriteData(byte(L.CheckInt(ix)))
	}
	return 0
}

//
func (e *Engine) peek(L *lua.LState) int {
	L.Push(lua.LNumber(e.fdc.ReadDataDebug()))
	return 1
}

//
func (e *Engine) debug(L *lua.LState) int {
	L.Push(lua.LNumber(e.fdc.DebugRead(uint16(L.CheckInt(1)))))
	return 1
}

// fdc_tick([count], [on value]) advances time by count ticks, and returns the
// LED state after the last one.
func (e *Engine) tick(L *lua.LState) int {
	n := L.OptInt(1, 1)
	on := byte(L.OptInt(2, 0xFF))
	var led uint32
	for ; n > 0; n-- {
		led = e.fdc.Tick(on)
	}
	L.Push(lua.LNumber(led))
	return 1
}

//
func (e *Engine) motor(L *lua.LState) int {
	e.fdc.SetMotor(L.ToBool(1))
	return 0
}

//
func (e *Engine) reset(L *lua.LState) int {
	e.fdc.Reset()
	return 0
}

/*
	fdc_command(code, params...) writes a command and its parameters to the
	data register. If the command ends up in result phase, the result bytes are
	read and returned as a table, otherwise the table is empty.
*/
func (e *Engine) command(L *lua.LState) int {

	for ix := 1; ix <= L.GetTop(); ix++ {
		e.fdc.WriteData(byte(L.CheckInt(ix)))
	}

	ret := L.NewTable()
	for n := 0; e.fdc.Phase() == fdc.ResultPhase && n < maxResultBytes; n++ {
		ret.Append(lua.LNumber(e.fdc.ReadData()))
	}

	L.Push(ret)
	return 1
}

// disk_open(drive, file) inserts a disk, and returns true or nil plus an
// error message.
func (e *Engine) diskOpen(L *lua.LState) int {
	drive := L.CheckInt(1)
	file := L.CheckString(2)
	if err := e.fdc.OpenDiskImage(drive, file); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

//
func (e *Engine) diskClose(L *lua.LState) int {
	e.fdc.CloseDisk(L.CheckInt(1))
	return 0
}

//
func bitOp(op func(a, b uint32) uint32) lua.LGFunction {
	return func(L *lua.LState) int {
		a := uint32(L.CheckInt64(1))
		b := uint32(L.CheckInt64(2))
		L.Push(lua.LNumber(op(a, b)))
		return 1
	}
}
