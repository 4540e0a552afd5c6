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

package chunkio

import (
	"context"
	"testing"

	"github.com/lasforge/pcindex/date"
	"github.com/lasforge/pcindex/endpoint"
	"github.com/lasforge/pcindex/octkey"
)

func testVoxel(x, y, z float64) octkey.Voxel {
	return octkey.Voxel{
		Position:  [3]float64{x, y, z},
		Intensity: 100,
		Class:     2,
		Captured:  date.Date(2026, 1, 1, 0, 0, 0, 0),
	}
}

// testKey is a root key wide enough to contain every point the tests
// below insert.
var testKey = octkey.Root([3]float64{0, 0, 0}, 1<<20)

// TestInsertOnlyFalseOnOverflow resolves the "why can Chunk.Insert
// return false" open question: capacity is the only rejection path.
func TestInsertOnlyFalseOnOverflow(t *testing.T) {
	c := New(2)
	if !c.Insert(testVoxel(0, 0, 0), testKey) {
		t.Fatal("first insert into an empty chunk should succeed")
	}
	if !c.Insert(testVoxel(1, 1, 1), testKey) {
		t.Fatal("second insert within capacity should succeed")
	}
	if c.Insert(testVoxel(2, 2, 2), testKey) {
		t.Fatal("insert beyond MaxPoints should return false")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 resident points, got %d", c.Len())
	}
}

func TestBoundsAndTimeRange(t *testing.T) {
	c := New(10)
	c.Insert(testVoxel(-1, 2, 0.5), testKey)
	v2 := testVoxel(3, -4, 1)
	v2.Captured = date.Date(2026, 6, 1, 0, 0, 0, 0)
	c.Insert(v2, testKey)

	min, max, ok := c.Bounds()
	if !ok {
		t.Fatal("expected bounds to be set")
	}
	if min != [3]float64{-1, -4, 0.5} || max != [3]float64{3, 2, 1} {
		t.Fatalf("unexpected bounds: min=%v max=%v", min, max)
	}
	tmin, tmax, ok := c.TimeRange()
	if !ok {
		t.Fatal("expected time range to be set")
	}
	if !tmin.Equal(date.Date(2026, 1, 1, 0, 0, 0, 0)) || !tmax.Equal(v2.Captured) {
		t.Fatalf("unexpected time range: min=%v max=%v", tmin, tmax)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out, err := endpoint.NewDirEndpoint(dir + "/out")
	if err != nil {
		t.Fatal(err)
	}
	tmp, err := endpoint.NewDirEndpoint(dir + "/tmp")
	if err != nil {
		t.Fatal(err)
	}

	c := New(100)
	for i := 0; i < 10; i++ {
		c.Insert(testVoxel(float64(i), float64(i)*2, float64(i)*3), testKey)
	}
	key := octkey.Dxyz{Depth: 3, X: 1, Y: -2, Z: 5}

	ctx := context.Background()
	np, digest, err := c.Save(ctx, out, tmp, key)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if np != 10 {
		t.Fatalf("expected 10 points saved, got %d", np)
	}
	if digest == ([32]byte{}) {
		t.Fatal("expected a nonzero content digest")
	}

	loaded, err := Load(ctx, out, tmp, key, np, 100)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 10 {
		t.Fatalf("expected 10 points loaded, got %d", loaded.Len())
	}
	for i, v := range loaded.Points {
		want := testVoxel(float64(i), float64(i)*2, float64(i)*3)
		if v.Position != want.Position || v.Intensity != want.Intensity || v.Class != want.Class {
			t.Fatalf("point %d mismatch: got %+v want %+v", i, v, want)
		}
	}

	if _, err := tmp.Open(ctx, stagingName(key)); err == nil {
		t.Fatal("expected staging file to be removed after commit")
	}
}

func TestSaveRefusesEmptyChunk(t *testing.T) {
	dir := t.TempDir()
	out, _ := endpoint.NewDirEndpoint(dir + "/out")
	tmp, _ := endpoint.NewDirEndpoint(dir + "/tmp")
	c := New(10)
	if _, _, err := c.Save(context.Background(), out, tmp, octkey.Dxyz{}); err == nil {
		t.Fatal("expected Save on an empty chunk to fail")
	}
}

func TestRemoteNameSpreadsSiblingKeys(t *testing.T) {
	a := RemoteName(octkey.Dxyz{Depth: 4, X: 0, Y: 0, Z: 0})
	b := RemoteName(octkey.Dxyz{Depth: 4, X: 0, Y: 0, Z: 1})
	if a == b {
		t.Fatal("expected distinct remote names for distinct keys")
	}
}
