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

// Package chunkio implements the Chunk leaf container: a bounded
// in-memory point buffer that can save itself to, and reanimate itself
// from, a pair of blob endpoints.
package chunkio

import (
	"github.com/lasforge/pcindex/date"
	"github.com/lasforge/pcindex/octkey"
)

// Chunk is a leaf-level container of points, bounded by MaxPoints. It
// is the payload a cache entry holds while resident.
type Chunk struct {
	MaxPoints int
	Points    []octkey.Voxel

	haveBounds bool
	min, max   [3]float64
	minTime    date.Time
	maxTime    date.Time
}

// New returns an empty Chunk accepting at most maxPoints insertions.
func New(maxPoints int) *Chunk {
	return &Chunk{MaxPoints: maxPoints}
}

// Insert appends v to the chunk if there is room, returning false if
// and only if the chunk is already at MaxPoints -- the only rejection
// path Insert has. k is the caller's current descent key for this
// chunk; Insert uses its bounds only to assert that the caller is
// offering a point this chunk actually owns, catching a broken descent
// in the cache rather than silently accepting a misplaced point.
func (c *Chunk) Insert(v octkey.Voxel, k octkey.Key) bool {
	if !k.Contains(v.Position) {
		panic("chunkio: insert offered a point outside the chunk's bounds")
	}
	if len(c.Points) >= c.MaxPoints {
		return false
	}
	c.Points = append(c.Points, v)
	c.extend(v)
	return true
}

func (c *Chunk) extend(v octkey.Voxel) {
	if !c.haveBounds {
		c.min, c.max = v.Position, v.Position
		c.minTime, c.maxTime = v.Captured, v.Captured
		c.haveBounds = true
		return
	}
	for i := 0; i < 3; i++ {
		if v.Position[i] < c.min[i] {
			c.min[i] = v.Position[i]
		}
		if v.Position[i] > c.max[i] {
			c.max[i] = v.Position[i]
		}
	}
	if v.Captured.Before(c.minTime) {
		c.minTime = v.Captured
	}
	if v.Captured.After(c.maxTime) {
		c.maxTime = v.Captured
	}
}

// Len returns the number of resident points.
func (c *Chunk) Len() int { return len(c.Points) }

// Bounds returns the chunk's incrementally-maintained bounding box and
// reports whether it has ever held a point.
func (c *Chunk) Bounds() (min, max [3]float64, ok bool) {
	return c.min, c.max, c.haveBounds
}

// TimeRange returns the incrementally-maintained range of Captured
// timestamps among the chunk's points.
func (c *Chunk) TimeRange() (min, max date.Time, ok bool) {
	return c.minTime, c.maxTime, c.haveBounds
}
