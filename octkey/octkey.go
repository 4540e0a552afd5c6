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

// Package octkey provides the geometric descent primitives used to
// navigate the octree that the chunk cache is built on: chunk
// identifiers, the point payload inserted into chunks, and the
// child-direction function that drives descent.
package octkey

import "github.com/lasforge/pcindex/date"

// Dxyz identifies a chunk within the octree: its depth plus an integer
// position that is unique among chunks at that depth. Dxyz is comparable
// and totally ordered by Less, lexicographically on (Depth, X, Y, Z) --
// the ordering the owned set relies on for deepest-first eviction.
type Dxyz struct {
	Depth uint8
	X, Y, Z int32
}

// Less reports whether d sorts before o under the total order the owned
// set uses: lexicographic comparison of (Depth, X, Y, Z).
func (d Dxyz) Less(o Dxyz) bool {
	if d.Depth != o.Depth {
		return d.Depth < o.Depth
	}
	if d.X != o.X {
		return d.X < o.X
	}
	if d.Y != o.Y {
		return d.Y < o.Y
	}
	return d.Z < o.Z
}

// Voxel is a single point being inserted into the tree, plus the
// per-point payload a point-cloud ingester carries. Position is the
// point's coordinates in the same space as a chunk's bounds.
type Voxel struct {
	Position    [3]float64
	Intensity   uint16
	Class       uint8
	Captured    date.Time
}

// Key is a ChunkKey under construction: a Dxyz plus the spatial bounds
// needed to compute child directions as insertion descends the tree.
type Key struct {
	Dxyz
	Center [3]float64
	Half   float64 // half-extent of the cube centered at Center
}

// Root returns the Key for the root of a tree spanning a cube of the
// given center and half-extent.
func Root(center [3]float64, half float64) Key {
	return Key{Dxyz: Dxyz{Depth: 0}, Center: center, Half: half}
}

// Contains reports whether point falls within the cube k bounds. A
// point exactly on a face is considered contained, matching the
// lower-half tie-break Direction uses for descent.
func (k Key) Contains(point [3]float64) bool {
	for i := 0; i < 3; i++ {
		if point[i] < k.Center[i]-k.Half || point[i] > k.Center[i]+k.Half {
			return false
		}
	}
	return true
}

// Direction returns the child octant (0-7) that point falls into
// relative to mid, the parent's bounds midpoint. Bit 0 is the X half,
// bit 1 is Y, bit 2 is Z; a coordinate exactly equal to the midpoint is
// treated as belonging to the lower half on that axis, a deliberate,
// consistent tie-break.
func Direction(mid, point [3]float64) int {
	dir := 0
	if point[0] > mid[0] {
		dir |= 1
	}
	if point[1] > mid[1] {
		dir |= 2
	}
	if point[2] > mid[2] {
		dir |= 4
	}
	return dir
}

// Child returns the Key of the child chunk in direction dir (as
// returned by Direction), descending one depth level and halving the
// bounds.
func (k Key) Child(dir int) Key {
	half := k.Half / 2
	center := k.Center
	if dir&1 != 0 {
		center[0] += half
	} else {
		center[0] -= half
	}
	if dir&2 != 0 {
		center[1] += half
	} else {
		center[1] -= half
	}
	if dir&4 != 0 {
		center[2] += half
	} else {
		center[2] -= half
	}
	return Key{
		Dxyz:   Dxyz{Depth: k.Depth + 1, X: child1(k.X, dir&1), Y: child1(k.Y, (dir>>1)&1), Z: child1(k.Z, (dir>>2)&1)},
		Center: center,
		Half:   half,
	}
}

// child1 computes the child integer coordinate along one axis: each
// depth level doubles the coordinate space and adds the direction bit.
func child1(parent int32, bit int) int32 {
	return parent*2 + int32(bit)
}

// Advance descends key by one step toward point and returns the Key of
// the child chunk insert should retry against.
func Advance(k Key, point [3]float64) Key {
	dir := Direction(k.Center, point)
	return k.Child(dir)
}
