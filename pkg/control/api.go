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


package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/cpcfdc/pkg/daemon"
)

//
const DefaultPort = 8765

// largest disk image accepted for upload
const maxImageSize = 4 * 1048576

//
type APIServer interface {
	Serve() error
	Stop() error
}

//
func NewAPIServer(addr, repository string, d *daemon.Daemon) APIServer {
	return newAPI(addr, repository, d)
}

// NewHandler returns the API's request handler, for serving it with a server
// other than the API server's own.
func NewHandler(repository string, d *daemon.Daemon) http.Handler {
	return newAPI("", repository, d).router()
}

//
func newAPI(addr, repository string, d *daemon.Daemon) *api {
	return &api{
		address:       addr,
		repository:    repository,
		daemon:        d,
		longPollQueue: make(chan chan *Change),
		stop:          make(chan struct{}),
		pollInterval:  2 * time.Second,
	}
}

//
type api struct {
	address    string
	repository string
	daemon     *daemon.Daemon
	server     *http.Server
	//
	longPollQueue chan chan *Change
	stop          chan struct{}
	pollInterval  time.Duration
}

//
func (a *api) Serve() error {

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:%d", a.address, DefaultPort)
	}

	log.Infof("CPCFdc API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: a.router()}

	go a.watchDaemon()

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *api) router() *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "status", "GET", "/status", a.status)
	addRoute(router, "watch", "GET", "/watch", a.watch)
	addRoute(router, "ls", "GET", "/list", a.list)
	addRoute(router, "repo", "GET", "/repo", a.repoList)
	addRoute(router, "load", "PUT", "/drive/{drive:[0-3]}", a.load)
	addRoute(router, "unload", "GET", "/drive/{drive:[0-3]}/unload", a.unload)
	addRoute(router, "save", "GET", "/drive/{drive:[0-3]}", a.save)
	addRoute(router, "dump", "GET", "/drive/{drive:[0-3]}/dump", a.dump)
	addRoute(router, "drivels", "GET", "/drive/{drive:[0-3]}/list", a.driveList)
	addRoute(router, "fdc", "GET", "/fdc", a.fdcState)
	addRoute(router, "reset", "PUT", "/reset", a.reset)

	return router
}

//
func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		close(a.stop)
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

//
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

//
func getDrive(w http.ResponseWriter, req *http.Request) int {
	vars := mux.Vars(req)
	drive, err := strconv.Atoi(vars["drive"])
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return -1
	}
	return drive
}

//
func isFlagSet(req *http.Request, flag string) bool {
	arg, _ := getArg(req, flag)
	return arg == "true"
}

//
func getArg(req *http.Request, arg string) (string, error) {
	ret := req.URL.Query().Get(arg)
	if ret != "" {
		return url.QueryUnescape(ret)
	}
	return ret, nil
}

//
func getRef(req *http.Request) (string, error) {
	return getArg(req, "ref")
}

//
func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

// statusFor maps daemon errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, daemon.ErrDriveBusy):
		return http.StatusLocked
	case errors.Is(err, daemon.ErrDiskModified):
		return http.StatusConflict
	case errors.Is(err, daemon.ErrNoDisk), errors.Is(err, daemon.ErrNoWorkspace):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing error: %v", err)
	}
}

//
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}
