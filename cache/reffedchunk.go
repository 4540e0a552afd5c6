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

import (
	"github.com/lasforge/pcindex/chunkio"
)

// reffedChunk is the cache's atomic unit: a reference count guarding
// an optional resident chunk. resident is absent between
// serialization's reset and erasure, and before a chunk's first
// reanimation or first use.
//
// Every field is guarded by spin; callers outside this file must hold
// spin for the duration of any field access.
type reffedChunk struct {
	spin     spinlock
	refCount uint64
	resident *chunkio.Chunk
}

func newReffedChunk() *reffedChunk {
	return &reffedChunk{}
}

// add increments refCount. Caller holds spin.
func (r *reffedChunk) add() {
	r.refCount++
}

// del decrements refCount and reports whether it is still nonzero.
// Caller holds spin.
func (r *reffedChunk) del() bool {
	r.refCount--
	return r.refCount > 0
}

// count observes refCount. Caller holds spin.
func (r *reffedChunk) count() uint64 {
	return r.refCount
}

// exists reports whether a resident is materialized. Caller holds spin.
func (r *reffedChunk) exists() bool {
	return r.resident != nil
}

// assign materializes an empty resident ready for reanimation or fresh
// use. Precondition: resident is absent. Caller holds spin.
func (r *reffedChunk) assign(maxPoints int) {
	r.resident = chunkio.New(maxPoints)
}

// reset drops the resident. Precondition: refCount == 0 and resident
// present. Caller holds spin.
func (r *reffedChunk) reset() {
	r.resident = nil
}

// chunk borrows the resident. Caller holds spin, or holds a ref
// registered in a pruner (which makes the pointer valid to dereference
// without the spin, per the pruner's borrow contract).
func (r *reffedChunk) chunk() *chunkio.Chunk {
	return r.resident
}
