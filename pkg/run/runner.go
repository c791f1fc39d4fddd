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
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"

	"github.com/xelalexv/cpcfdc/pkg/control"
	"github.com/xelalexv/cpcfdc/pkg/daemon"
)

//
const runnerHelpPrologue = ""
const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable.
`

/*
	NewRunner creates a base runner for commands to use. The parameters are
	passed to the base command wrapped by this runner.
*/
func NewRunner(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(
			use, short, long, helpPrologue, helpEpilogue, exec),
		client: http.DefaultClient,
		out:    os.Stdout,
	}
}

//
type Runner struct {
	//
	Command
	//
	Address string
	Port    int
	//
	client *http.Client
	out    io.Writer
}

//
func (r *Runner) AddBaseSettings() {
	// must be called from the top level command type, not from NewRunner, so
	// that settings get bound to the right fields
	r.AddSetting(&r.Address, "address", "a", "FDCCTL_ADDRESS", "127.0.0.1",
		"address of daemon's API server", false)
	r.AddSetting(&r.Port, "port", "p", "FDCCTL_PORT", control.DefaultPort,
		"port of daemon's API server", false)
}

//
func (r *Runner) baseURL() string {
	if strings.HasPrefix(r.Address, "http://") ||
		strings.HasPrefix(r.Address, "https://") {
		return fmt.Sprintf("%s:%d", r.Address, r.Port)
	}
	return fmt.Sprintf("http://%s:%d", r.Address, r.Port)
}

// apiCall sends a request to the API server. Replies with a status other than
// 2xx are turned into an error carrying the reply's message.
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	req, err := http.NewRequest(method, r.baseURL()+path, body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("Accept", "application/json")
	} else {
		req.Header.Add("Content-Type", "text/plain")
		req.Header.Add("Accept", "text/plain")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := ioutil.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s (%d)",
			strings.TrimSpace(string(msg)), resp.StatusCode)
	}

	return resp.Body, nil
}

// apiMessage sends a request to the API server and prints its reply.
func (r *Runner) apiMessage(method, path string, body io.Reader) error {

	resp, err := r.apiCall(method, path, false, body)
	if err != nil {
		return err
	}
	defer resp.Close()

	msg, err := ioutil.ReadAll(resp)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%s", msg)
	return nil
}

//
func validateDrive(d int) error {
	if d < 0 || d >= daemon.DriveCount {
		return fmt.Errorf(
			"invalid drive number: %d; valid numbers are 0 through %d",
			d, daemon.DriveCount-1)
	}
	return nil
}
