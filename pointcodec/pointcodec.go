// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package pointcodec implements the self-describing binary encoding
// chunkio and hierarchy use to serialize chunks and the count/digest
// hierarchy snapshot: a symbol table of field labels interned once per
// blob, followed by one or more tagged datums referencing those labels
// by integer id rather than repeating the string. It covers only the
// handful of datum kinds the cache actually stores -- unsigned and
// signed integers, floats, timestamps, blobs, structs, and lists --
// not a general-purpose serialization format.
package pointcodec

import (
	"encoding/binary"
	"errors"
)

var errMalformedVarint = errors.New("pointcodec: malformed varint")

// Buffer accumulates the encoded bytes of a symbol table followed by
// the datums written against it, mirroring the single growing byte
// slice a Symtab and its Structs are marshaled into.
type Buffer struct {
	data []byte
}

// Bytes returns the buffer's accumulated contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) writeByte(c byte) {
	b.data = append(b.data, c)
}

func (b *Buffer) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	b.data = append(b.data, tmp[:n]...)
}

func (b *Buffer) writeFixed64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func readUvarint(buf []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, nil, errMalformedVarint
	}
	return v, buf[n:], nil
}
