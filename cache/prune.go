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

// prune releases one ref per entry of stale, all pinned at depth. A
// ref that drops to zero is not freed immediately: the owned set takes
// over ownership instead, so the chunk stays reanimatable without I/O
// if another thread reclaims it shortly after.
func (c *ChunkCache) prune(depth uint8, stale map[pos]*chunkio.Chunk) {
	s := c.sliceFor(depth)

	s.lock.Lock()
	for p := range stale {
		rc, ok := s.lookup(p)
		if !ok {
			panic("cache: prune on a slot that no longer exists")
		}
		rc.spin.Lock()
		if rc.del() {
			rc.spin.Unlock()
			continue
		}
		// Last ref: hand ownership to the owned set.
		rc.add()
		rc.spin.Unlock()
		s.lock.Unlock()

		k := octkey.Dxyz{Depth: depth, X: p.X, Y: p.Y, Z: p.Z}
		c.owned.lock.Lock()
		c.owned.add(k)
		c.owned.lock.Unlock()

		s.lock.Lock()
	}
	s.lock.Unlock()
}
