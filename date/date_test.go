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

package date

import (
	"math/rand"
	"testing"
	"time"
)

func TestNormalization(t *testing.T) {
	rng := func(min, max int) int {
		return min + rand.Intn(max-min)
	}
	for i := 0; i < 100000; i++ {
		y, mo, d := rng(1000, 3000), rng(-100, 100), rng(-500, 500)
		h, mi, s := rng(-100, 100), rng(-1000, 1000), rng(-1000, 1000)
		ns := rng(-1e15, 1e15)
		got := Date(y, mo, d, h, mi, s, ns)
		want := time.Date(y, time.Month(mo), d, h, mi, s, ns, time.UTC)
		for _, err := range check(got, want) {
			t.Errorf("case %d: %s: %s != %s", i, err, got, want)
			t.Error("input:", y, mo, d, h, mi, s, ns)
		}
	}
}

func TestUnixRoundTrip(t *testing.T) {
	cases := []struct{ sec, ns int64 }{
		{0, 0},
		{1, 0},
		{1700000000, 123456789},
		{-1000, 0},
	}
	for _, c := range cases {
		got := Unix(c.sec, c.ns)
		want := time.Unix(c.sec, c.ns).UTC()
		for _, err := range check(got, want) {
			t.Errorf("sec=%d ns=%d: %s: got %s, want %s", c.sec, c.ns, err, got, want)
		}
		if got.UnixNano() != want.UnixNano() {
			t.Errorf("sec=%d ns=%d: UnixNano round trip: got %d, want %d", c.sec, c.ns, got.UnixNano(), want.UnixNano())
		}
	}
}

func TestOrdering(t *testing.T) {
	a := Date(2026, 1, 1, 0, 0, 0, 0)
	b := Date(2026, 1, 1, 0, 0, 0, 1)
	if !a.Before(b) || b.Before(a) {
		t.Fatal("expected a before b")
	}
	if !b.After(a) || a.After(b) {
		t.Fatal("expected b after a")
	}
	if a.Equal(b) {
		t.Fatal("a and b should not be equal")
	}
	if !a.Equal(a) {
		t.Fatal("a should equal itself")
	}
}

func BenchmarkString(b *testing.B) {
	t := Date(2021, 4, 7, 12, 0, 0, 123456789)
	for i := 0; i < b.N; i++ {
		t.String()
	}
}

func check(got Time, want time.Time) (e []string) {
	if !got.toStd().Equal(want) {
		e = append(e, "as times")
	}
	want = want.UTC()
	y1, mo1, d1 := got.Year(), got.Month(), got.Day()
	y2, mo2, d2 := want.Year(), want.Month(), want.Day()
	if y1 != y2 || mo1 != int(mo2) || d1 != d2 {
		e = append(e, "date parts")
	}
	h1, mi1, s1, ns1 := got.Hour(), got.Minute(), got.Second(), got.Nanosecond()
	h2, mi2, s2, ns2 := want.Hour(), want.Minute(), want.Second(), want.Nanosecond()
	if h1 != h2 || mi1 != mi2 || s1 != s2 || ns1 != ns2 {
		e = append(e, "time parts")
	}
	return e
}
