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

package raw

import (
	"bytes"
)

// Index maps field names to {offset, length} pairs within a block
type Index map[string][2]int

//
func NewBlock(index Index, data []byte) *Block {
	return &Block{index: index, Data: data}
}

/*
	Block gives keyed access to the fields of a fixed layout binary header, such
	as the 256 byte disk and track headers of a CPC disk image, or the 8 byte
	sector descriptors contained in a track header. Out of range fields read as
	zero values.
*/
type Block struct {
	index Index
	Data  []byte
}

//
func (b *Block) GetByte(key string) byte {
	if ix, ok := b.index[key]; ok {
		if 0 <= ix[0] && ix[0] < len(b.Data) && ix[1] == 1 {
			return b.Data[ix[0]]
		}
	}
	return 0
}

//
func (b *Block) SetByte(key string, v byte) bool {
	if ix, ok := b.index[key]; ok {
		if 0 <= ix[0] && ix[0] < len(b.Data) && ix[1] == 1 {
			b.Data[ix[0]] = v
			return true
		}
	}
	return false
}

//
func (b *Block) GetSlice(key string) []byte {
	if ix, ok := b.index[key]; ok {
		start := ix[0]
		end := start + ix[1]
		if 0 <= start && end <= len(b.Data) {
			return b.Data[start:end]
		}
	}
	return []byte{}
}

// GetInt returns a two byte field as little endian integer, or -1 if the
// field is not present.
func (b *Block) GetInt(key string) int {
	bytes := b.GetSlice(key)
	if len(bytes) != 2 {
		return -1
	}
	return int(bytes[0]) | (int(bytes[1]) << 8)
}

//
func (b *Block) GetString(key string) string {
	return string(b.GetSlice(key))
}

// HasPrefix checks whether field key starts with prefix.
func (b *Block) HasPrefix(key, prefix string) bool {
	return bytes.HasPrefix(b.GetSlice(key), []byte(prefix))
}

// Offset returns the offset of field key within the block, or -1.
func (b *Block) Offset(key string) int {
	if ix, ok := b.index[key]; ok {
		return ix[0]
	}
	return -1
}

/*
	Entry returns a block over the ix-th element of an array of fixed size
	entries. The array starts at the offset of field key, and each entry is
	stride bytes long. The returned block shares data with this block and uses
	the given index for its fields. If the entry lies outside of this block,
	the returned block is empty.
*/
func (b *Block) Entry(key string, stride, ix int, index Index) *Block {
	start := b.Offset(key) + stride*ix
	end := start + stride
	if start < 0 || ix < 0 || end > len(b.Data) {
		return NewBlock(index, []byte{})
	}
	return NewBlock(index, b.Data[start:end])
}
