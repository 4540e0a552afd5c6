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

import "github.com/lasforge/pcindex/octkey"

// ownedSet is the ordered set of Dxyz whose reffed chunks have
// refCount == 0 but still hold a resident: the eviction pool. present
// gives O(1) membership tests for addRef's reclaim path; a binary
// max-heap over (depth, x, y, z) gives O(log n) extraction of the
// deepest-first eviction candidate for maybePurge. The heap is kept
// unexported and specialized to Dxyz rather than built on a generic
// collection: this set is the only ordered collection in the cache,
// so a shared generic heap package would carry indirection with
// nothing else in the tree to amortize it over.
type ownedSet struct {
	lock    spinlock
	heap    []octkey.Dxyz
	present map[octkey.Dxyz]struct{}
}

func newOwnedSet() *ownedSet {
	return &ownedSet{present: make(map[octkey.Dxyz]struct{})}
}

func (o *ownedSet) len() int {
	return len(o.heap)
}

func (o *ownedSet) has(k octkey.Dxyz) bool {
	_, ok := o.present[k]
	return ok
}

// above reports whether the element at index i sorts strictly after
// the element at index j under Dxyz.Less, making i the correct parent
// of j in the max-heap.
func (o *ownedSet) above(i, j int) bool {
	return o.heap[j].Less(o.heap[i])
}

func (o *ownedSet) swap(i, j int) {
	o.heap[i], o.heap[j] = o.heap[j], o.heap[i]
}

func (o *ownedSet) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !o.above(i, p) {
			break
		}
		o.swap(i, p)
		i = p
	}
}

func (o *ownedSet) siftDown(i int) {
	n := len(o.heap)
	for {
		left := i*2 + 1
		if left >= n {
			break
		}
		c := left
		if right := left + 1; right < n && o.above(right, left) {
			c = right
		}
		if !o.above(c, i) {
			break
		}
		o.swap(i, c)
		i = c
	}
}

func (o *ownedSet) add(k octkey.Dxyz) {
	if o.has(k) {
		return
	}
	o.heap = append(o.heap, k)
	o.present[k] = struct{}{}
	o.siftUp(len(o.heap) - 1)
}

// popMax removes and returns the deepest-first (maximum) element.
// Precondition: len() > 0.
func (o *ownedSet) popMax() octkey.Dxyz {
	k := o.heap[0]
	last := len(o.heap) - 1
	o.heap[0] = o.heap[last]
	o.heap = o.heap[:last]
	if len(o.heap) > 0 {
		o.siftDown(0)
	}
	delete(o.present, k)
	return k
}

// remove deletes k from the set if present, used by addRef's reclaim
// path. The owned set is expected to stay small (bounded by the
// configured cache size), so a linear scan to locate k's heap index is
// cheap relative to the I/O this set exists to defer; this avoids
// carrying a second index-tracking structure solely for this rare path.
func (o *ownedSet) remove(k octkey.Dxyz) bool {
	if !o.has(k) {
		return false
	}
	for i, e := range o.heap {
		if e == k {
			last := len(o.heap) - 1
			o.heap[i] = o.heap[last]
			o.heap = o.heap[:last]
			if i < len(o.heap) {
				o.siftDown(i)
				o.siftUp(i)
			}
			break
		}
	}
	delete(o.present, k)
	return true
}
