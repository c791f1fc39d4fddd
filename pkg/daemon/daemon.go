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
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/fdc"
	"github.com/xelalexv/cpcfdc/pkg/fdc/cpc"
	"github.com/xelalexv/cpcfdc/pkg/floppy/image"
	"github.com/xelalexv/cpcfdc/pkg/workspace"
)

//
const DriveCount = fdc.DriveCount

// drive states
const (
	StatusEmpty  = "empty"
	StatusIdle   = "idle"
	StatusBusy   = "busy"
	StatusDevice = "device"
)

var (
	ErrDriveBusy    = errors.New("drive busy")
	ErrDiskModified = errors.New("disk is modified")
	ErrNoDisk       = errors.New("no disk")
	ErrNoWorkspace  = errors.New("disk is not in workspace")
)

// lock timeout for requests coming in via the control API
const lockTimeout = time.Second

// the daemon that manages communication with the CPU emulator or hardware
// adapter, and owns the floppy disk controller
type Daemon struct {
	//
	fdc   *cpc.Controller
	lock  *lock
	disks [DriveCount]*workspace.Disk
	//
	workspace *workspace.Workspace
	conduit   *conduit
	port      string
	openPort  func(string) (io.ReadWriteCloser, error)
	synced    atomic.Value
	stopped   int32
	mutex     sync.Mutex
	//
	debugStart time.Time
}

//
func NewDaemon(port string, ws *workspace.Workspace,
	opts ...fdc.Option) *Daemon {
	d := &Daemon{
		fdc:       cpc.New(opts...),
		lock:      newLock(),
		workspace: ws,
		port:      port,
		openPort:  openPort,
	}
	d.fdc.SetProbe(image.SystemProbe)
	d.setSynced(false)
	return d
}

//
func (d *Daemon) Serve() error {
	d.restore()
	return d.listen()
}

// Stop closes the serial port and ends serving.
func (d *Daemon) Stop() error {
	atomic.StoreInt32(&d.stopped, 1)
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.conduit != nil {
		return d.conduit.close()
	}
	return nil
}

//
func (d *Daemon) isStopped() bool {
	return atomic.LoadInt32(&d.stopped) == 1
}

//
func (d *Daemon) listen() error {

	if err := d.ResetConduit(); err != nil {
		return err
	}

	var cmd *command
	var err error

	for ; !d.isStopped(); cmd = nil {

		if d.IsSynced() {
			if cmd, err = d.conduit.receiveCommand(); err != nil {
				log.Errorf("error receiving command: %v", err)
				d.setSynced(false)
			}

		} else {
			if err = d.conduit.syncOnHello(); err != nil {
				log.Errorf("error syncing with adapter: %v", err)
			} else {
				d.setSynced(true)
			}
		}

		if d.isStopped() {
			break
		}

		if err != nil {
			if err := d.ResetConduit(); err != nil {
				return err
			}

		} else if cmd != nil {
			if err = d.dispatch(cmd); err != nil {
				log.Errorf("error dispatching command: %v", err)
				d.setSynced(false)
			}
		}
	}

	log.Info("daemon stopped")
	return nil
}

//
func (d *Daemon) dispatch(cmd *command) error {
	d.lock.acquire()
	defer d.lock.release()
	return cmd.dispatch(d)
}

//
func (d *Daemon) ResetConduit() error {

	d.setSynced(false)

	d.mutex.Lock()
	if d.conduit != nil {
		log.Infof("closing port %s", d.port)
		if err := d.conduit.close(); err != nil {
			log.Errorf("error closing port: %v", err)
		}
		d.conduit = nil
	}
	d.mutex.Unlock()

	maxBackoff := 15 * time.Second

	for backoff := time.Second; !d.isStopped(); {
		log.Infof("opening port %s", d.port)
		if port, err := d.openPort(d.port); err != nil {
			log.Errorf("cannot open serial port: %v", err)
			if backoff < maxBackoff {
				backoff *= 2
			}
			time.Sleep(backoff)
		} else {
			d.mutex.Lock()
			d.conduit = newConduit(port)
			d.mutex.Unlock()
			return nil
		}
	}

	return nil
}

//
func (d *Daemon) IsSynced() bool {
	return d.synced.Load().(bool)
}

//
func (d *Daemon) setSynced(s bool) {
	d.synced.Store(s)
}

// Client returns the kind of host the daemon is talking to, or an empty
// string if not synced.
func (d *Daemon) Client() string {
	if d.IsSynced() {
		return "cpc"
	}
	return ""
}

// restore re-inserts the disks found in the workspace
func (d *Daemon) restore() {

	if d.workspace == nil {
		return
	}

	for drive := 0; drive < DriveCount; drive++ {
		disk, err := d.workspace.Load(drive)
		if err != nil {
			log.Errorf("cannot restore drive %d: %v", drive, err)
			continue
		}
		if disk == nil {
			continue
		}
		d.lock.acquire()
		if err := d.openDisk(drive, disk); err != nil {
			log.Errorf("cannot restore drive %d: %v", drive, err)
		} else {
			log.WithFields(log.Fields{
				"drive": drive,
				"disk":  disk.Name,
			}).Info("disk restored")
		}
		d.lock.release()
	}
}

// Do runs f with exclusive access to the controller.
func (d *Daemon) Do(f func(c *cpc.Controller) error) error {
	if !d.lockTimeout() {
		return ErrDriveBusy
	}
	defer d.lock.release()
	return f(d.fdc)
}

//
func (d *Daemon) lockTimeout() bool {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	return d.lock.acquireContext(ctx)
}

/*
	InsertDisk stores the disk image read from in as the working copy of drive,
	and inserts it. If the drive holds a modified disk, it is only replaced
	when force is set.
*/
func (d *Daemon) InsertDisk(drive int, name string, in io.Reader,
	writeProtected, force bool) error {

	if d.workspace == nil {
		return ErrNoWorkspace
	}

	if !d.lockTimeout() {
		return ErrDriveBusy
	}
	defer d.lock.release()

	if err := d.checkModified(drive, force); err != nil {
		return err
	}

	d.fdc.CloseDisk(drive)
	d.disks[drive] = nil

	disk, err := d.workspace.Store(drive, name, in, writeProtected)
	if err != nil {
		return fmt.Errorf("cannot store disk image: %v", err)
	}

	if err := d.openDisk(drive, disk); err != nil {
		d.workspace.Remove(drive)
		return err
	}

	return nil
}

// InsertDevice inserts a floppy device, or a disk image that is used in
// place instead of a working copy.
func (d *Daemon) InsertDevice(drive int, fileName string, force bool) error {

	if !d.lockTimeout() {
		return ErrDriveBusy
	}
	defer d.lock.release()

	if err := d.checkModified(drive, force); err != nil {
		return err
	}

	d.disks[drive] = nil
	if d.workspace != nil {
		if err := d.workspace.Remove(drive); err != nil {
			log.Warnf("cannot remove working copy of drive %d: %v", drive, err)
		}
	}

	return d.fdc.OpenDiskImage(drive, fileName)
}

//
func (d *Daemon) openDisk(drive int, disk *workspace.Disk) error {

	if !disk.WriteProtected {
		if err := d.fdc.OpenDiskImage(drive, disk.Path); err != nil {
			return err
		}

	} else {
		f, err := os.Open(disk.Path)
		if err != nil {
			return err
		}
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return err
		}
		if err := d.fdc.OpenDiskStore(drive, f, fi.Size(), false); err != nil {
			return err
		}
	}

	d.disks[drive] = disk
	return nil
}

// EjectDisk removes the disk from drive. A modified disk is only ejected
// when force is set.
func (d *Daemon) EjectDisk(drive int, force bool) error {

	if !d.lockTimeout() {
		return ErrDriveBusy
	}
	defer d.lock.release()

	if err := d.checkModified(drive, force); err != nil {
		return err
	}

	if err := d.fdc.CloseDisk(drive); err != nil {
		return err
	}

	d.disks[drive] = nil
	if d.workspace != nil {
		return d.workspace.Remove(drive)
	}
	return nil
}

// SaveDisk writes the working copy of the disk in drive to out. The disk is
// no longer considered modified afterwards.
func (d *Daemon) SaveDisk(drive int, out io.Writer) error {

	if !d.lockTimeout() {
		return ErrDriveBusy
	}
	defer d.lock.release()

	disk := d.disks[drive]
	if disk == nil {
		if d.fdc.Drive(drive).HaveDisk() {
			return ErrNoWorkspace
		}
		return ErrNoDisk
	}

	f, err := os.Open(disk.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(out, f); err != nil {
		return err
	}

	return d.workspace.Accept(drive, disk)
}

//
func (d *Daemon) checkModified(drive int, force bool) error {
	if force {
		return nil
	}
	if mod, err := d.isModified(drive); err != nil {
		return err
	} else if mod {
		return fmt.Errorf("drive %d: %w", drive, ErrDiskModified)
	}
	return nil
}

//
func (d *Daemon) isModified(drive int) (bool, error) {
	if disk := d.disks[drive]; disk != nil && d.workspace != nil {
		return d.workspace.IsModified(disk)
	}
	return false, nil
}

// DiskInfo describes the disk in a drive
type DiskInfo struct {
	Drive          int
	Status         string
	Name           string
	Format         string
	Cylinders      int
	Sides          int
	Cylinder       int
	WriteProtected bool
	Modified       bool
}

// GetDisk returns information about the disk in drive.
func (d *Daemon) GetDisk(drive int) *DiskInfo {

	ret := &DiskInfo{Drive: drive, Status: StatusBusy}

	if !d.lockTimeout() {
		return ret
	}
	defer d.lock.release()

	dr := d.fdc.Drive(drive)
	ret.Cylinder = dr.Cylinder()

	x := dr.Index()
	if x == nil {
		ret.Status = StatusEmpty
		return ret
	}

	ret.Status = StatusIdle
	ret.Name = x.Name()
	ret.Format = x.Format().String()
	ret.Cylinders = x.Cylinders()
	ret.Sides = x.Sides()
	ret.WriteProtected = x.IsWriteProtected()

	if disk := d.disks[drive]; disk != nil {
		ret.Name = disk.Name
		if mod, err := d.isModified(drive); err != nil {
			log.Warnf("cannot check disk in drive %d: %v", drive, err)
		} else {
			ret.Modified = mod
		}
	} else if x.Format() == image.Device {
		ret.Status = StatusDevice
	}

	return ret
}

// ListDisk writes a summary of the disk in drive to w.
func (d *Daemon) ListDisk(drive int, w io.Writer) error {
	return d.withIndex(drive, func(x *image.Index) { x.List(w) })
}

// DumpDisk writes the sector tables of the disk in drive to w.
func (d *Daemon) DumpDisk(drive int, w io.Writer) error {
	return d.withIndex(drive, func(x *image.Index) { x.Emit(w) })
}

//
func (d *Daemon) withIndex(drive int, f func(x *image.Index)) error {
	return d.Do(func(c *cpc.Controller) error {
		x := c.Drive(drive).Index()
		if x == nil {
			return ErrNoDisk
		}
		f(x)
		return nil
	})
}

// Emit writes the controller state to w.
func (d *Daemon) Emit(w io.Writer) error {
	return d.Do(func(c *cpc.Controller) error {
		c.Emit(w)
		return nil
	})
}

// Reset resets the controller.
func (d *Daemon) Reset() error {
	return d.Do(func(c *cpc.Controller) error {
		log.Info("resetting controller")
		c.Reset()
		return nil
	})
}
