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

package imagetest

import (
	"errors"
	"io"
)

// MemStore is a disk image backing store held in memory
type MemStore struct {
	Data     []byte
	Closed   bool
	ReadOnly bool
}

//
func NewMemStore(data []byte) *MemStore {
	return &MemStore{Data: data}
}

//
func (m *MemStore) ReadAt(p []byte, off int64) (int, error) {
	if m.Closed {
		return 0, errors.New("store closed")
	}
	if off < 0 || off >= int64(len(m.Data)) {
		return 0, io.EOF
	}
	n := copy(p, m.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

//
func (m *MemStore) WriteAt(p []byte, off int64) (int, error) {
	if m.Closed {
		return 0, errors.New("store closed")
	}
	if m.ReadOnly {
		return 0, errors.New("store is read-only")
	}
	if off < 0 || off+int64(len(p)) > int64(len(m.Data)) {
		return 0, io.ErrShortWrite
	}
	return copy(m.Data[off:], p), nil
}

//
func (m *MemStore) Close() error {
	m.Closed = true
	return nil
}
