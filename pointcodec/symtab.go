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

package pointcodec

import "fmt"

// Symtab interns struct field labels to small integer ids so repeated
// labels (every point in a chunk repeats "x", "y", "z", ...) cost one
// varint on the wire instead of the string itself. The zero value is
// an empty table ready for use by NewStruct.
type Symtab struct {
	bySym map[string]uint32
	names []string
}

// intern returns label's id, assigning the next id if label has not
// been seen before.
func (st *Symtab) intern(label string) uint32 {
	if st.bySym == nil {
		st.bySym = make(map[string]uint32)
	}
	if id, ok := st.bySym[label]; ok {
		return id
	}
	id := uint32(len(st.names))
	st.names = append(st.names, label)
	st.bySym[label] = id
	return id
}

func (st *Symtab) resolve(id uint32) (string, bool) {
	if int(id) >= len(st.names) {
		return "", false
	}
	return st.names[id], true
}

// Marshal writes the symbol table to buf. prefinal mirrors the
// convention chunkio and hierarchy share of writing the whole table
// once, up front, before any datum that references it -- there is no
// provision in this format for amending a table after datums have
// been written against it, so prefinal is always true in practice.
func (st *Symtab) Marshal(buf *Buffer, prefinal bool) {
	buf.writeUvarint(uint64(len(st.names)))
	for _, name := range st.names {
		buf.writeUvarint(uint64(len(name)))
		buf.data = append(buf.data, name...)
	}
}

// Unmarshal decodes a symbol table from the front of buf and returns
// the remaining bytes, the datums that follow it.
func (st *Symtab) Unmarshal(buf []byte) ([]byte, error) {
	n, rest, err := readUvarint(buf)
	if err != nil {
		return nil, fmt.Errorf("pointcodec: reading symbol count: %w", err)
	}
	st.names = make([]string, 0, n)
	st.bySym = make(map[string]uint32, n)
	for i := uint64(0); i < n; i++ {
		l, r2, err := readUvarint(rest)
		if err != nil {
			return nil, fmt.Errorf("pointcodec: reading symbol %d length: %w", i, err)
		}
		if uint64(len(r2)) < l {
			return nil, fmt.Errorf("pointcodec: truncated symbol table at entry %d", i)
		}
		name := string(r2[:l])
		rest = r2[l:]
		st.names = append(st.names, name)
		st.bySym[name] = uint32(i)
	}
	return rest, nil
}
