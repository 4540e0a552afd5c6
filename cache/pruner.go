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
	"github.com/lasforge/pcindex/octkey"
)

// Pruner is a per-thread-per-work-batch fast path from chunk key to a
// borrowed resident pointer. Every pointer it holds corresponds to a
// ref its owning goroutine holds on the underlying reffedChunk; on
// Close it releases every ref it is holding, one prune call per
// depth.
type Pruner struct {
	cache   *ChunkCache
	byDepth map[uint8]map[pos]*chunkio.Chunk
}

// NewPruner returns a Pruner bound to c. It must be closed by the same
// goroutine that uses it once its work batch ends.
func (c *ChunkCache) NewPruner() *Pruner {
	return &Pruner{cache: c, byDepth: make(map[uint8]map[pos]*chunkio.Chunk)}
}

func (pr *Pruner) get(k octkey.Dxyz) (*chunkio.Chunk, bool) {
	m, ok := pr.byDepth[k.Depth]
	if !ok {
		return nil, false
	}
	ch, ok := m[pos{X: k.X, Y: k.Y, Z: k.Z}]
	return ch, ok
}

func (pr *Pruner) register(k octkey.Dxyz, ch *chunkio.Chunk) {
	m, ok := pr.byDepth[k.Depth]
	if !ok {
		m = make(map[pos]*chunkio.Chunk)
		pr.byDepth[k.Depth] = m
	}
	m[pos{X: k.X, Y: k.Y, Z: k.Z}] = ch
}

// Close releases every ref this pruner holds, one prune(depth, stale)
// call per depth it touched, and leaves the pruner empty and ready
// for reuse on a fresh work batch.
func (pr *Pruner) Close() {
	for depth, m := range pr.byDepth {
		pr.cache.prune(depth, m)
		delete(pr.byDepth, depth)
	}
}
