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

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lasforge/pcindex/date"
)

type kind uint8

const (
	kindAbsent kind = iota
	kindUint
	kindInt
	kindFloat
	kindTimestamp
	kindBlob
	kindStruct
	kindList
)

// Datum is a single tagged value: a scalar, or a Struct/List wrapping
// more datums. The zero Datum is "absent", the value every Field
// accessor returns for a struct with no field by that name, so a
// chained Datum.Field("missing").Float() fails its ok return rather
// than panicking.
type Datum struct {
	kind kind
	n    uint64 // uint / zigzag int / float64 bits / zigzag unix nanos
	blob []byte
	s    Struct
	l    List
}

// Field is one label/value pair of a Struct.
type Field struct {
	Label string
	Value Datum
}

// Uint returns a Datum holding an unsigned integer.
func Uint(v uint64) Datum { return Datum{kind: kindUint, n: v} }

// Int returns a Datum holding a signed integer.
func Int(v int64) Datum { return Datum{kind: kindInt, n: zigzagEncode(v)} }

// Float returns a Datum holding a float64.
func Float(v float64) Datum { return Datum{kind: kindFloat, n: math.Float64bits(v)} }

// Timestamp returns a Datum holding t, encoded as Unix nanoseconds.
func Timestamp(t date.Time) Datum {
	return Datum{kind: kindTimestamp, n: zigzagEncode(t.UnixNano())}
}

// Blob returns a Datum holding a raw byte string. b is retained, not
// copied.
func Blob(b []byte) Datum { return Datum{kind: kindBlob, blob: b} }

// Uint reports the value of d if it holds an unsigned integer.
func (d Datum) Uint() (uint64, bool) {
	if d.kind != kindUint {
		return 0, false
	}
	return d.n, true
}

// Int reports the value of d if it holds a signed integer.
func (d Datum) Int() (int64, bool) {
	if d.kind != kindInt {
		return 0, false
	}
	return zigzagDecode(d.n), true
}

// Float reports the value of d if it holds a float64.
func (d Datum) Float() (float64, bool) {
	if d.kind != kindFloat {
		return 0, false
	}
	return math.Float64frombits(d.n), true
}

// Timestamp reports the value of d if it holds a timestamp.
func (d Datum) Timestamp() (date.Time, bool) {
	if d.kind != kindTimestamp {
		return date.Time{}, false
	}
	return date.Unix(0, zigzagDecode(d.n)), true
}

// Blob reports the value of d if it holds a blob.
func (d Datum) Blob() ([]byte, bool) {
	if d.kind != kindBlob {
		return nil, false
	}
	return d.blob, true
}

// Struct reports the value of d if it holds a struct.
func (d Datum) Struct() (Struct, bool) {
	if d.kind != kindStruct {
		return Struct{}, false
	}
	return d.s, true
}

// List reports the value of d if it holds a list.
func (d Datum) List() (List, bool) {
	if d.kind != kindList {
		return List{}, false
	}
	return d.l, true
}

// Field looks up name among d's fields if d holds a struct, returning
// the absent Datum if d is not a struct or has no such field.
func (d Datum) Field(name string) Datum {
	if d.kind != kindStruct {
		return Datum{}
	}
	for _, f := range d.s.fields {
		if f.Label == name {
			return f.Value
		}
	}
	return Datum{}
}

func (d Datum) encode(buf *Buffer, st *Symtab) {
	buf.writeByte(byte(d.kind))
	switch d.kind {
	case kindUint, kindInt, kindTimestamp:
		buf.writeUvarint(d.n)
	case kindFloat:
		buf.writeFixed64(d.n)
	case kindBlob:
		buf.writeUvarint(uint64(len(d.blob)))
		buf.data = append(buf.data, d.blob...)
	case kindStruct:
		d.s.encodeFields(buf, st)
	case kindList:
		d.l.encode(buf, st)
	default:
		panic(fmt.Sprintf("pointcodec: encoding absent or unknown-kind datum %d", d.kind))
	}
}

// Struct is an ordered set of labeled fields, built against a Symtab
// so its labels are interned once and referenced by id thereafter.
type Struct struct {
	fields []Field
}

// NewStruct returns a Struct over fields, interning every label in st.
func NewStruct(st *Symtab, fields []Field) Struct {
	for i := range fields {
		st.intern(fields[i].Label)
	}
	return Struct{fields: fields}
}

// Datum wraps s as a Datum.
func (s Struct) Datum() Datum { return Datum{kind: kindStruct, s: s} }

// Encode appends s's wire encoding to buf, kind tag included, so that
// ReadDatum can decode it as a top-level datum. Every label in s must
// already have been interned in st, which NewStruct guarantees.
func (s Struct) Encode(buf *Buffer, st *Symtab) {
	buf.writeByte(byte(kindStruct))
	s.encodeFields(buf, st)
}

// encodeFields appends the field count and fields of s, without the
// kind tag.
func (s Struct) encodeFields(buf *Buffer, st *Symtab) {
	buf.writeUvarint(uint64(len(s.fields)))
	for _, f := range s.fields {
		id, ok := st.bySym[f.Label]
		if !ok {
			id = st.intern(f.Label)
		}
		buf.writeUvarint(uint64(id))
		f.Value.encode(buf, st)
	}
}

// List is an ordered sequence of datums.
type List struct {
	items []Datum
}

// NewList returns a List over items. st is accepted for symmetry with
// NewStruct (a list's items may themselves be structs referencing st)
// but a bare list carries no labels of its own to intern.
func NewList(st *Symtab, items []Datum) List {
	return List{items: items}
}

// Datum wraps l as a Datum.
func (l List) Datum() Datum { return Datum{kind: kindList, l: l} }

// Each calls fn for every item in l in order, stopping early if fn
// returns false.
func (l List) Each(fn func(Datum) bool) {
	for _, d := range l.items {
		if !fn(d) {
			return
		}
	}
}

func (l List) encode(buf *Buffer, st *Symtab) {
	buf.writeUvarint(uint64(len(l.items)))
	for _, d := range l.items {
		d.encode(buf, st)
	}
}

// ReadDatum decodes a single datum from the front of buf, resolving
// any struct field labels against st, and returns the remaining
// bytes.
func ReadDatum(st *Symtab, buf []byte) (Datum, []byte, error) {
	if len(buf) == 0 {
		return Datum{}, nil, fmt.Errorf("pointcodec: empty buffer")
	}
	k := kind(buf[0])
	rest := buf[1:]
	switch k {
	case kindUint:
		v, r, err := readUvarint(rest)
		if err != nil {
			return Datum{}, nil, fmt.Errorf("pointcodec: reading uint: %w", err)
		}
		return Datum{kind: kindUint, n: v}, r, nil
	case kindInt:
		v, r, err := readUvarint(rest)
		if err != nil {
			return Datum{}, nil, fmt.Errorf("pointcodec: reading int: %w", err)
		}
		return Datum{kind: kindInt, n: v}, r, nil
	case kindTimestamp:
		v, r, err := readUvarint(rest)
		if err != nil {
			return Datum{}, nil, fmt.Errorf("pointcodec: reading timestamp: %w", err)
		}
		return Datum{kind: kindTimestamp, n: v}, r, nil
	case kindFloat:
		if len(rest) < 8 {
			return Datum{}, nil, fmt.Errorf("pointcodec: truncated float")
		}
		return Datum{kind: kindFloat, n: binary.LittleEndian.Uint64(rest[:8])}, rest[8:], nil
	case kindBlob:
		l, r, err := readUvarint(rest)
		if err != nil {
			return Datum{}, nil, fmt.Errorf("pointcodec: reading blob length: %w", err)
		}
		if uint64(len(r)) < l {
			return Datum{}, nil, fmt.Errorf("pointcodec: truncated blob")
		}
		return Datum{kind: kindBlob, blob: r[:l]}, r[l:], nil
	case kindStruct:
		n, r, err := readUvarint(rest)
		if err != nil {
			return Datum{}, nil, fmt.Errorf("pointcodec: reading field count: %w", err)
		}
		fields := make([]Field, 0, n)
		for i := uint64(0); i < n; i++ {
			id, r2, err := readUvarint(r)
			if err != nil {
				return Datum{}, nil, fmt.Errorf("pointcodec: reading field %d label id: %w", i, err)
			}
			label, ok := st.resolve(uint32(id))
			if !ok {
				return Datum{}, nil, fmt.Errorf("pointcodec: unknown symbol id %d", id)
			}
			val, r3, err := ReadDatum(st, r2)
			if err != nil {
				return Datum{}, nil, fmt.Errorf("pointcodec: reading field %q: %w", label, err)
			}
			fields = append(fields, Field{Label: label, Value: val})
			r = r3
		}
		return Struct{fields: fields}.Datum(), r, nil
	case kindList:
		n, r, err := readUvarint(rest)
		if err != nil {
			return Datum{}, nil, fmt.Errorf("pointcodec: reading item count: %w", err)
		}
		items := make([]Datum, 0, n)
		for i := uint64(0); i < n; i++ {
			val, r2, err := ReadDatum(st, r)
			if err != nil {
				return Datum{}, nil, fmt.Errorf("pointcodec: reading item %d: %w", i, err)
			}
			items = append(items, val)
			r = r2
		}
		return List{items: items}.Datum(), r, nil
	default:
		return Datum{}, nil, fmt.Errorf("pointcodec: unrecognized tag %d", k)
	}
}

func zigzagEncode(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }
func zigzagDecode(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }
