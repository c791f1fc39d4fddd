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
	"io"
	"os"
	"path/filepath"
	"testing"
)

//
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "games"), 0755)
	for _, f := range []string{"games/elite.dsk", "utils.DSK", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

//
func TestResolve(t *testing.T) {

	dir := setupRepo(t)

	r, err := Resolve("repo://games/elite.dsk", dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil || string(data) != "games/elite.dsk" {
		t.Errorf("unexpected content %q: %v", data, err)
	}
}

//
func TestResolveErrors(t *testing.T) {

	dir := setupRepo(t)

	tests := []struct {
		ref  string
		repo string
	}{
		{"repo://games/elite.dsk", ""},
		{"games/elite.dsk", dir},
		{"repo://../elite.dsk", dir},
		{"repo://games/../../elite.dsk", dir},
		{"repo://", dir},
		{"repo://missing.dsk", dir},
	}

	for _, tc := range tests {
		if r, err := Resolve(tc.ref, tc.repo); err == nil {
			r.Close()
			t.Errorf("%s in '%s': want error", tc.ref, tc.repo)
		}
	}
}

//
func TestList(t *testing.T) {

	dir := setupRepo(t)

	refs, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"repo://games/elite.dsk", "repo://utils.DSK"}
	if len(refs) != len(want) {
		t.Fatalf("want %v, got %v", want, refs)
	}
	for ix := range want {
		if refs[ix] != want[ix] {
			t.Errorf("want %s, got %s", want[ix], refs[ix])
		}
	}

	if _, err := List(""); err == nil {
		t.Errorf("listing disabled repository succeeds")
	}
}

//
func TestName(t *testing.T) {
	if n := Name("repo://games/elite.dsk"); n != "elite.dsk" {
		t.Errorf("want elite.dsk, got %s", n)
	}
	if !IsReference("repo://a.dsk") || IsReference("/tmp/a.dsk") {
		t.Errorf("reference detection broken")
	}
}
