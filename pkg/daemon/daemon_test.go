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
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/xelalexv/cpcfdc/pkg/fdc"
	"github.com/xelalexv/cpcfdc/pkg/fdc/cpc"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image/imagetest"
	"github.com/xelalexv/cpcfdc/pkg/workspace"
)

// link is the adapter side of a daemon serving over an in-memory pipe
type link struct {
	t      *testing.T
	daemon *Daemon
	conn   net.Conn
	done   chan error
}

//
func newLink(t *testing.T, ws *workspace.Workspace) *link {

	t.Helper()
	helloSettle = 0

	daemonSide, adapterSide := net.Pipe()
	d := NewDaemon("pipe", ws, fdc.WithStepRate(0))
	d.openPort = func(string) (io.ReadWriteCloser, error) {
		return daemonSide, nil
	}

	l := &link{t: t, daemon: d, conn: adapterSide, done: make(chan error, 1)}
	go func() { l.done <- d.Serve() }()

	l.send([]byte("xxhl"))
	l.send(helloClient)
	l.send(helloClient)
	if hello := l.receive(4); !bytes.Equal(hello, helloDaemon) {
		t.Fatalf("want daemon hello, got %q", hello)
	}

	t.Cleanup(l.stop)
	return l
}

//
func (l *link) send(data []byte) {
	l.t.Helper()
	l.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := l.conn.Write(data); err != nil {
		l.t.Fatalf("cannot send: %v", err)
	}
}

//
func (l *link) receive(n int) []byte {
	l.t.Helper()
	buf := make([]byte, n)
	l.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(l.conn, buf); err != nil {
		l.t.Fatalf("cannot receive: %v", err)
	}
	return buf
}

//
func (l *link) command(cmd byte, args ...byte) {
	l.t.Helper()
	frame := []byte{cmd, 0, 0, 0}
	copy(frame[1:], args)
	l.send(frame)
}

//
func (l *link) msr() byte {
	l.t.Helper()
	l.command(CmdStatus)
	return l.receive(1)[0]
}

//
func (l *link) stop() {
	l.daemon.Stop()
	l.conn.Close()
	select {
	case err := <-l.done:
		if err != nil {
			l.t.Errorf("daemon ended with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		l.t.Errorf("daemon does not stop")
	}
}

//
func TestPing(t *testing.T) {
	l := newLink(t, nil)
	l.send(ping)
	if got := l.receive(4); !bytes.Equal(got, pong) {
		t.Errorf("want pong, got %q", got)
	}
	if !l.daemon.IsSynced() || l.daemon.Client() != "cpc" {
		t.Errorf("daemon not synced")
	}
}

//
func TestRegisterTraffic(t *testing.T) {

	l := newLink(t, nil)

	if msr := l.msr(); msr != 0x80 {
		t.Fatalf("want idle main status 0x80, got %02X", msr)
	}

	// SPECIFY
	l.command(CmdWrite, 3)
	l.send([]byte{fdc.CmdSpecify, 0xA1, 0x03})
	if msr := l.msr(); msr != 0x80 {
		t.Errorf("want idle after SPECIFY, got %02X", msr)
	}

	// SENSE DRIVE STATE on empty drive 0
	l.command(CmdWrite, 2)
	l.send([]byte{fdc.CmdSenseDriveState, 0x00})
	if msr := l.msr(); msr != 0xD0 {
		t.Errorf("want result phase status 0xD0, got %02X", msr)
	}

	l.command(CmdPeek)
	peeked := l.receive(1)[0]

	l.command(CmdRead, 1)
	if st3 := l.receive(1)[0]; st3 != 0x50 || st3 != peeked {
		t.Errorf("want ST3 0x50 (peeked %02X), got %02X", peeked, st3)
	}

	if msr := l.msr(); msr != 0x80 {
		t.Errorf("want idle after result, got %02X", msr)
	}

	// debug register 1 holds the last command
	l.command(CmdDebug, 1, 0)
	if cmd := l.receive(1)[0]; cmd != fdc.CmdSenseDriveState {
		t.Errorf("want last command %02X, got %02X",
			fdc.CmdSenseDriveState, cmd)
	}
}

//
func TestInvalidCommandOverLink(t *testing.T) {

	l := newLink(t, nil)

	l.command(CmdWrite, 1)
	l.send([]byte{0x00})
	l.command(CmdRead, 1)
	if got := l.receive(1)[0]; got != 0x80 {
		t.Errorf("want ST0 0x80, got %02X", got)
	}
}

//
func TestMotorAndTick(t *testing.T) {

	l := newLink(t, nil)

	l.command(CmdMotor, 1)
	l.command(CmdTick, 0x10, 0x00, 0xFF)
	l.receive(4)

	l.command(CmdDebug, 2, 0)
	if motor := l.receive(1)[0]; motor != 1 {
		t.Errorf("motor not on")
	}

	l.command(CmdReset)
	if msr := l.msr(); msr != 0x80 {
		t.Errorf("want idle after reset, got %02X", msr)
	}

	var on bool
	l.daemon.Do(func(c *cpc.Controller) error {
		on = c.MotorOn()
		return nil
	})
	if on {
		t.Errorf("motor still on after reset")
	}
}

//
func TestUnknownCommandResyncs(t *testing.T) {

	l := newLink(t, nil)
	l.command('#')

	l.send(helloClient)
	l.send(helloClient)
	if hello := l.receive(4); !bytes.Equal(hello, helloDaemon) {
		t.Fatalf("want daemon hello, got %q", hello)
	}
}

//
func TestDiskLifecycle(t *testing.T) {

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	d := NewDaemon("none", ws, fdc.WithStepRate(0))
	data := imagetest.Uniform(false, 40, 1, 9, 2, 0xC1).Bytes()

	if err := d.SaveDisk(1, io.Discard); !errors.Is(err, ErrNoDisk) {
		t.Errorf("want no disk error, got %v", err)
	}

	if err := d.InsertDisk(1, "game.dsk", bytes.NewReader(data),
		false, false); err != nil {
		t.Fatal(err)
	}

	info := d.GetDisk(1)
	if info.Status != StatusIdle || info.Name != "game.dsk" ||
		info.Format != "standard" || info.Cylinders != 40 || info.Sides != 1 ||
		info.WriteProtected || info.Modified {
		t.Errorf("unexpected disk info: %+v", info)
	}

	if empty := d.GetDisk(2); empty.Status != StatusEmpty {
		t.Errorf("want empty drive 2, got %s", empty.Status)
	}

	// modify the working copy behind the controller's back
	disk := d.disks[1]
	f, err := os.OpenFile(disk.Path, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteAt([]byte{0xAA}, int64(len(data)-1))
	f.Close()

	if !d.GetDisk(1).Modified {
		t.Errorf("disk not modified")
	}

	if err := d.EjectDisk(1, false); !errors.Is(err, ErrDiskModified) {
		t.Errorf("want modified error, got %v", err)
	}

	var out bytes.Buffer
	if err := d.SaveDisk(1, &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != len(data) || out.Bytes()[len(data)-1] != 0xAA {
		t.Errorf("saved disk differs from working copy")
	}
	if d.GetDisk(1).Modified {
		t.Errorf("disk still modified after save")
	}

	var listing bytes.Buffer
	if err := d.ListDisk(1, &listing); err != nil || listing.Len() == 0 {
		t.Errorf("no listing: %v", err)
	}
	if err := d.DumpDisk(3, &listing); !errors.Is(err, ErrNoDisk) {
		t.Errorf("want no disk error, got %v", err)
	}

	if err := d.EjectDisk(1, false); err != nil {
		t.Fatal(err)
	}
	if d.GetDisk(1).Status != StatusEmpty {
		t.Errorf("disk not ejected")
	}
	if disk, _ := ws.Load(1); disk != nil {
		t.Errorf("working copy not removed")
	}
}

//
func TestWriteProtectedDisk(t *testing.T) {

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	d := NewDaemon("none", ws)
	data := imagetest.Uniform(true, 40, 2, 9, 2, 0xC1).Bytes()

	if err := d.InsertDisk(0, "side.dsk", bytes.NewReader(data),
		true, false); err != nil {
		t.Fatal(err)
	}

	info := d.GetDisk(0)
	if !info.WriteProtected || info.Format != "extended" || info.Sides != 2 {
		t.Errorf("unexpected disk info: %+v", info)
	}
}

//
func TestInsertInvalidImage(t *testing.T) {

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	d := NewDaemon("none", ws)
	if err := d.InsertDisk(0, "junk.dsk", bytes.NewReader(make([]byte, 1024)),
		false, false); err == nil {
		t.Fatal("invalid image accepted")
	}

	if d.GetDisk(0).Status != StatusEmpty {
		t.Errorf("drive not empty")
	}
	if disk, _ := ws.Load(0); disk != nil {
		t.Errorf("working copy of invalid image kept")
	}
}

//
func TestRestore(t *testing.T) {

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	data := imagetest.Uniform(false, 40, 1, 9, 2, 0xC1).Bytes()
	if _, err := ws.Store(3, "kept.dsk", bytes.NewReader(data), false); err != nil {
		t.Fatal(err)
	}

	d := NewDaemon("none", ws)
	d.restore()

	if info := d.GetDisk(3); info.Status != StatusIdle || info.Name != "kept.dsk" {
		t.Errorf("disk not restored: %+v", info)
	}
}

//
func TestBusy(t *testing.T) {

	d := NewDaemon("none", nil)
	d.lock.acquire()
	defer d.lock.release()

	if err := d.Reset(); !errors.Is(err, ErrDriveBusy) {
		t.Errorf("want busy error, got %v", err)
	}
	if info := d.GetDisk(0); info.Status != StatusBusy {
		t.Errorf("want busy drive, got %s", info.Status)
	}
}
