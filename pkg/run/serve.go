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
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/control"
	"github.com/xelalexv/cpcfdc/pkg/daemon"
	"github.com/xelalexv/cpcfdc/pkg/fdc"
	"github.com/xelalexv/cpcfdc/pkg/workspace"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve -d|--device {device} [-a|--address {address}] [-r|--repo {repo base folder}]
      [-w|--workspace {folder}] [-s|--step-rate {rate}]`,
		"daemon & API server command",
		`Use the serve command for running the controller daemon and API server. The
daemon talks to the CPU emulator or hardware adapter via the given serial device.
Disks inserted via the API are kept as working copies in the workspace folder, and
are inserted again when the daemon restarts.`,
		"", `- Logging can be configured with these environment variables:

  LOG_FORMAT		set to 'json' for JSON logging
  LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
  LOG_METHODS		set to non-empty for including methods in log
  LOG_LEVEL		panic, fatal, error, warn, info, debug, trace

`+runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Device, "device", "d", "FDCCTL_DEVICE", nil,
		"serial port device for adapter", true)
	s.AddSetting(&s.Repository, "repo", "r", "FDCCTL_REPO", nil,
		`disk image repo base folder; when omitted, inserting
disk images from daemon host's file system is prohibited`, false)
	s.AddSetting(&s.Workspace, "workspace", "w", "FDCCTL_WORKSPACE",
		workspace.DefaultDir, "folder for working copies of disk images", false)
	s.AddSetting(&s.StepRate, "step-rate", "s", "", 6,
		"step rate after reset in 2ms units, 0 for instant seeks", false)

	return s
}

//
type Serve struct {
	//
	Runner
	//
	Device     string
	Repository string
	Workspace  string
	StepRate   int
}

//
func (s *Serve) Run() error {

	s.ParseSettings()

	ws, err := workspace.New(s.Workspace)
	if err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	wg.Add(2)

	d := daemon.NewDaemon(s.Device, ws, fdc.WithStepRate(s.StepRate))
	go func() {
		defer wg.Done()
		if err := d.Serve(); err != nil {
			log.Errorf("daemon closed with error: %v", err)
		}
	}()

	api := control.NewAPIServer(s.Address, s.Repository, d)
	go func() {
		defer wg.Done()
		if err := api.Serve(); err != nil {
			log.Errorf("API server closed with error: %v", err)
		} else {
			log.Info("API server stopped")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sigCount := 0
	done := make(chan bool)

	for {

		select {

		case sig := <-sigs: // interrupt signal
			log.WithField("signal", sig).Info("signal received")
			sigCount++

			switch sigCount {

			case 1:
				go func() {
					log.Info("shutting down, hit Ctrl-C twice to force exit...")
					api.Stop()
					d.Stop()
					wg.Wait()
					log.Info("CPCFdc stopped")
					done <- true
				}()

			case 2:
				log.Warn("shutdown in progress, hit Ctrl-C again to force exit")

			default:
				log.Warn("forcing daemon to stop immediately")
				os.Exit(1)
			}

		case <-done: // shutdown sequence complete
			return nil
		}
	}
}
