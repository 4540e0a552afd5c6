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

package cache

// pos is the within-depth position key a slice maps from. Depth is
// implicit in which slice holds the entry.
type pos struct {
	X, Y, Z int32
}

// slice is the mapping position -> reffedChunk for one octree depth.
// lock guards the map's structure (insert/lookup/erase); it does not
// guard the reffedChunk values it holds, each of which has its own
// spin per the slice -> chunk lock order.
type slice struct {
	lock spinlock
	m    map[pos]*reffedChunk
}

func newSlice() *slice {
	return &slice{m: make(map[pos]*reffedChunk)}
}

func (s *slice) lookup(p pos) (*reffedChunk, bool) {
	r, ok := s.m[p]
	return r, ok
}

func (s *slice) emplace(p pos) *reffedChunk {
	r := newReffedChunk()
	s.m[p] = r
	return r
}

func (s *slice) erase(p pos) {
	delete(s.m, p)
}

func (s *slice) len() int {
	return len(s.m)
}
