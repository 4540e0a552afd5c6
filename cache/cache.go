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

// Package cache implements the concurrent, reference-counted,
// write-behind chunk cache at the core of the octree ingestion
// pipeline: ingestion threads insert points, which descend the tree
// and land in per-depth chunks that are reanimated from and
// write-behind to a pair of blob endpoints as the owned set of cold
// chunks exceeds its configured capacity.
package cache

import (
	"context"
	"fmt"

	"github.com/lasforge/pcindex/chunkio"
	"github.com/lasforge/pcindex/endpoint"
	"github.com/lasforge/pcindex/hierarchy"
	"github.com/lasforge/pcindex/iopool"
	"github.com/lasforge/pcindex/octkey"
)

// ChunkCache is the cache itself: one slice per octree depth, an
// owned set of evictable chunks shared across all depths, and the
// process-wide info counters.
type ChunkCache struct {
	hierarchy hierarchy.Hierarchy
	pool      *iopool.Pool
	out, tmp  endpoint.Endpoint
	maxPoints int
	maxDepth  uint8

	slices []*slice
	owned  *ownedSet
	info   info
}

// New constructs a ChunkCache rooted at depth 0 through maxDepth
// inclusive. maxPoints bounds how many points a single chunk's
// resident accepts before insert must descend a level.
func New(h hierarchy.Hierarchy, pool *iopool.Pool, out, tmp endpoint.Endpoint, maxDepth uint8, maxPoints int) *ChunkCache {
	slices := make([]*slice, int(maxDepth)+1)
	for i := range slices {
		slices[i] = newSlice()
	}
	return &ChunkCache{
		hierarchy: h,
		pool:      pool,
		out:       out,
		tmp:       tmp,
		maxPoints: maxPoints,
		maxDepth:  maxDepth,
		slices:    slices,
		owned:     newOwnedSet(),
	}
}

func (c *ChunkCache) sliceFor(depth uint8) *slice {
	return c.slices[depth]
}

// Insert descends the tree from root, acquiring refs on the path via
// pruner, until some chunk accepts v. Thread-safe for concurrent
// callers with independent pruners.
func (c *ChunkCache) Insert(ctx context.Context, v octkey.Voxel, root octkey.Key, pr *Pruner) error {
	key := root
	for {
		ch, ok := pr.get(key.Dxyz)
		if !ok {
			var err error
			ch, err = c.addRef(ctx, key.Dxyz, pr)
			if err != nil {
				return err
			}
		}
		if ch.Insert(v, key) {
			return nil
		}
		if key.Depth >= c.maxDepth {
			return fmt.Errorf("cache: point exceeds configured max depth %d", c.maxDepth)
		}
		key = octkey.Advance(key, v.Position)
	}
}

// addRef returns a reference to the resident chunk for k, having added
// exactly one ref on the reffed chunk and registered the resident
// pointer in pr. It follows the slice -> chunk -> owned lock order
// exactly, with the one documented departure in the reclaim step
// below.
func (c *ChunkCache) addRef(ctx context.Context, k octkey.Dxyz, pr *Pruner) (*chunkio.Chunk, error) {
	s := c.sliceFor(k.Depth)
	p := pos{X: k.X, Y: k.Y, Z: k.Z}

	s.lock.Lock()
	rc, found := s.lookup(p)
	if found {
		return c.addRefFound(ctx, s, p, k, rc, pr)
	}
	return c.addRefEmplace(ctx, s, p, k, pr)
}

// addRefFound handles the case where a slot already exists for k.
// s.lock is held on entry.
func (c *ChunkCache) addRefFound(ctx context.Context, s *slice, p pos, k octkey.Dxyz, rc *reffedChunk, pr *Pruner) (*chunkio.Chunk, error) {
	rc.spin.Lock()
	rc.add()
	s.lock.Unlock()

	if !rc.exists() {
		rc.assign(c.maxPoints)
		c.info.addRead()
		pr.register(k, rc.chunk())

		np, ok := c.hierarchy.Count(k)
		if !ok || np <= 0 {
			rc.spin.Unlock()
			panic("cache: reanimating a chunk with no remote content")
		}
		if err := rc.chunk().LoadInto(ctx, c.out, c.tmp, k, np); err != nil {
			rc.spin.Unlock()
			return nil, err
		}
	} else {
		pr.register(k, rc.chunk())
	}
	ch := rc.chunk()
	rc.spin.Unlock()

	// Reclaim from the owned set if present: this is the one place
	// owned is taken without slice or chunk held, then chunk is
	// retaken -- the documented departure from slice->chunk->owned.
	c.owned.lock.Lock()
	if c.owned.has(k) {
		rc.spin.Lock()
		if rc.count() <= 1 {
			rc.spin.Unlock()
			c.owned.lock.Unlock()
			panic("cache: reclaimed chunk expected refCount > 1")
		}
		rc.del()
		rc.spin.Unlock()
		c.owned.remove(k)
	}
	c.owned.lock.Unlock()

	return ch, nil
}

// addRefEmplace handles the case where no slot exists yet for k.
// s.lock is held on entry.
func (c *ChunkCache) addRefEmplace(ctx context.Context, s *slice, p pos, k octkey.Dxyz, pr *Pruner) (*chunkio.Chunk, error) {
	rc := s.emplace(p)
	c.info.addAlive(1)

	rc.spin.Lock()
	rc.add()
	rc.assign(c.maxPoints)
	pr.register(k, rc.chunk())
	s.lock.Unlock()

	var err error
	if np, ok := c.hierarchy.Count(k); ok && np > 0 {
		c.info.addRead()
		err = rc.chunk().LoadInto(ctx, c.out, c.tmp, k, np)
	}
	ch := rc.chunk()
	rc.spin.Unlock()
	return ch, err
}

// LatchInfo atomically snapshots the alive/read/written counters and
// zeros the per-epoch read/written fields.
func (c *ChunkCache) LatchInfo() Info {
	return c.info.latch()
}

// Close runs a final MaybePurge(0) to drain every resident chunk to
// storage, then joins the I/O pool. Post-condition: every slice is
// empty and LatchInfo().Alive == 0.
func (c *ChunkCache) Close() error {
	c.MaybePurge(0)
	c.pool.Join()
	return nil
}
