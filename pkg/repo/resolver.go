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


package repo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

//
const PrefixRepoRef = "repo://"

// file extensions of disk images kept in a repository
var imageExtensions = map[string]bool{".dsk": true, ".edsk": true}

//
func newFileSource(file string) (*fileSource, error) {
	if f, err := os.Open(file); err != nil {
		return nil, err
	} else {
		return &fileSource{file: f, reader: bufio.NewReader(f)}, nil
	}
}

//
type fileSource struct {
	file   *os.File
	reader io.Reader
}

//
func (fs *fileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *fileSource) Close() error {
	return fs.file.Close()
}

// Resolve opens the disk image referenced by ref in repository repo.
func Resolve(ref, repo string) (io.ReadCloser, error) {

	log.WithFields(log.Fields{
		"reference":  ref,
		"repository": repo,
	}).Debug("resolving ref")

	if !IsReference(ref) {
		return nil, fmt.Errorf("not a repository reference: %s", ref)
	}

	if repo == "" {
		return nil, fmt.Errorf("disk image repository is not enabled")
	}

	file, err := path(ref, repo)
	if err != nil {
		return nil, err
	}
	return newFileSource(file)
}

//
func path(ref, repo string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(ref[len(PrefixRepoRef):]))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid repository reference: %s", ref)
	}
	return filepath.Join(repo, rel), nil
}

//
func IsReference(r string) bool {
	return strings.HasPrefix(r, PrefixRepoRef)
}

// Name returns the file name of the disk image referenced by ref.
func Name(ref string) string {
	return filepath.Base(strings.TrimPrefix(ref, PrefixRepoRef))
}

// List returns references to all disk images in repository repo.
func List(repo string) ([]string, error) {

	if repo == "" {
		return nil, fmt.Errorf("disk image repository is not enabled")
	}

	var ret []string

	err := filepath.Walk(repo, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() ||
			!imageExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		rel, err := filepath.Rel(repo, p)
		if err != nil {
			return err
		}
		ret = append(ret, PrefixRepoRef+filepath.ToSlash(rel))
		return nil
	})

	sort.Strings(ret)
	return ret, err
}
