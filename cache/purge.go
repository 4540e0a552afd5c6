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
	"context"

	"github.com/lasforge/pcindex/octkey"
)

// MaybePurge reduces the owned set to at most maxCacheSize elements,
// deepest-first, dispatching one maybeSerialize job per evicted chunk
// onto the I/O pool. Call with maxCacheSize == 0 at shutdown.
func (c *ChunkCache) MaybePurge(maxCacheSize int) {
	for {
		c.owned.lock.Lock()
		if c.owned.len() <= maxCacheSize {
			c.owned.lock.Unlock()
			return
		}
		k := c.owned.popMax()
		c.owned.lock.Unlock()

		s := c.sliceFor(k.Depth)
		p := pos{X: k.X, Y: k.Y, Z: k.Z}

		s.lock.Lock()
		rc, ok := s.lookup(p)
		if !ok {
			// Already erased by a prior serialize/erase cycle.
			s.lock.Unlock()
			continue
		}
		rc.spin.Lock()
		reclaimed := rc.del()
		rc.spin.Unlock()
		s.lock.Unlock()

		if reclaimed {
			// Another thread reclaimed this chunk via addRef already.
			continue
		}

		dxyz := k
		c.pool.Dispatch(func() error {
			return c.maybeSerialize(dxyz)
		})
	}
}

// maybeSerialize performs the blocking write of the chunk identified
// by k, then transitions it toward erasure. Called only from the I/O
// pool.
func (c *ChunkCache) maybeSerialize(k octkey.Dxyz) error {
	s := c.sliceFor(k.Depth)
	p := pos{X: k.X, Y: k.Y, Z: k.Z}

	s.lock.Lock()
	rc, ok := s.lookup(p)
	if !ok {
		s.lock.Unlock()
		return nil // re-queued duplicate; already erased
	}
	rc.spin.Lock()
	if rc.count() > 0 {
		// Reclaimed by another thread.
		rc.spin.Unlock()
		s.lock.Unlock()
		return nil
	}
	if !rc.exists() {
		// A prior serialization already ran and is mid-erase.
		rc.spin.Unlock()
		s.lock.Unlock()
		return nil
	}
	// Release the slice lock but keep the chunk lock across the
	// blocking save: other chunks in this slice must stay reachable
	// while we write, but concurrent touchers of this exact chunk
	// must wait for us.
	s.lock.Unlock()

	c.info.addWritten()
	np, digest, err := rc.chunk().Save(context.Background(), c.out, c.tmp, k)
	if err != nil {
		rc.spin.Unlock()
		return err
	}
	if np <= 0 {
		rc.spin.Unlock()
		panic("cache: saved chunk reported zero points")
	}
	if err := c.hierarchy.Set(k, np, digest); err != nil {
		rc.spin.Unlock()
		return err
	}
	rc.reset()
	rc.spin.Unlock()

	return c.maybeErase(k)
}

// maybeErase erases the slot for k if it is still unreferenced and
// has no resident. Called only after maybeSerialize's save completes.
func (c *ChunkCache) maybeErase(k octkey.Dxyz) error {
	s := c.sliceFor(k.Depth)
	p := pos{X: k.X, Y: k.Y, Z: k.Z}

	s.lock.Lock()
	rc, ok := s.lookup(p)
	if !ok {
		s.lock.Unlock()
		return nil
	}
	rc.spin.Lock()
	if rc.count() > 0 || rc.exists() {
		rc.spin.Unlock()
		s.lock.Unlock()
		return nil
	}
	s.erase(p)
	c.info.addAlive(-1)
	// The lock we hold lives inside the value we just unlinked from
	// the slice; forget it instead of unlocking, since nothing may
	// touch rc again.
	rc.spin.forget()
	s.lock.Unlock()
	return nil
}
