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
	"testing"

	"github.com/lasforge/pcindex/date"
)

func TestScalarRoundTrip(t *testing.T) {
	var st Symtab
	root := NewStruct(&st, []Field{
		{Label: "u", Value: Uint(42)},
		{Label: "i", Value: Int(-7)},
		{Label: "f", Value: Float(3.5)},
		{Label: "t", Value: Timestamp(date.Date(2026, 1, 2, 3, 4, 5, 6))},
		{Label: "b", Value: Blob([]byte("hello"))},
	})

	var buf Buffer
	st.Marshal(&buf, true)
	root.Encode(&buf, &st)

	var rst Symtab
	rest, err := rst.Unmarshal(buf.Bytes())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	d, _, err := ReadDatum(&rst, rest)
	if err != nil {
		t.Fatalf("ReadDatum: %v", err)
	}

	if v, ok := d.Field("u").Uint(); !ok || v != 42 {
		t.Fatalf("u = %v, %v", v, ok)
	}
	if v, ok := d.Field("i").Int(); !ok || v != -7 {
		t.Fatalf("i = %v, %v", v, ok)
	}
	if v, ok := d.Field("f").Float(); !ok || v != 3.5 {
		t.Fatalf("f = %v, %v", v, ok)
	}
	if v, ok := d.Field("t").Timestamp(); !ok || !v.Equal(date.Date(2026, 1, 2, 3, 4, 5, 6)) {
		t.Fatalf("t = %v, %v", v, ok)
	}
	if v, ok := d.Field("b").Blob(); !ok || string(v) != "hello" {
		t.Fatalf("b = %v, %v", v, ok)
	}
	if _, ok := d.Field("missing").Uint(); ok {
		t.Fatal("expected missing field to report absent")
	}
}

func TestNestedListRoundTrip(t *testing.T) {
	var st Symtab
	items := []Datum{
		NewStruct(&st, []Field{{Label: "x", Value: Float(1)}}).Datum(),
		NewStruct(&st, []Field{{Label: "x", Value: Float(2)}}).Datum(),
	}
	root := NewStruct(&st, []Field{
		{Label: "items", Value: NewList(&st, items).Datum()},
	})

	var buf Buffer
	st.Marshal(&buf, true)
	root.Encode(&buf, &st)

	var rst Symtab
	rest, err := rst.Unmarshal(buf.Bytes())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	d, _, err := ReadDatum(&rst, rest)
	if err != nil {
		t.Fatalf("ReadDatum: %v", err)
	}
	l, ok := d.Field("items").List()
	if !ok {
		t.Fatal("expected items field to be a list")
	}
	var got []float64
	l.Each(func(item Datum) bool {
		v, _ := item.Field("x").Float()
		got = append(got, v)
		return true
	})
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected items: %v", got)
	}
}

func TestMultipleStructsShareSymtab(t *testing.T) {
	var st Symtab
	a := NewStruct(&st, []Field{{Label: "depth", Value: Uint(1)}, {Label: "count", Value: Int(5)}})
	b := NewStruct(&st, []Field{{Label: "depth", Value: Uint(2)}, {Label: "count", Value: Int(9)}})

	var buf Buffer
	st.Marshal(&buf, true)
	a.Encode(&buf, &st)
	b.Encode(&buf, &st)

	var rst Symtab
	rest, err := rst.Unmarshal(buf.Bytes())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	da, rest, err := ReadDatum(&rst, rest)
	if err != nil {
		t.Fatalf("ReadDatum a: %v", err)
	}
	db, _, err := ReadDatum(&rst, rest)
	if err != nil {
		t.Fatalf("ReadDatum b: %v", err)
	}
	if v, _ := da.Field("depth").Uint(); v != 1 {
		t.Fatalf("a.depth = %d", v)
	}
	if v, _ := db.Field("count").Int(); v != 9 {
		t.Fatalf("b.count = %d", v)
	}
}
