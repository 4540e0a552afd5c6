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

// Package hierarchy provides the persistent mapping from chunk
// identifier to remote point count that the cache consults on
// reanimation and updates on save.
package hierarchy

import "github.com/lasforge/pcindex/octkey"

// Hierarchy is a persistent Dxyz -> point count mapping indicating
// whether a chunk already has remote content. Implementations must be
// internally thread-safe with at-least atomic per-key updates: Count is
// read concurrently with reanimation, Set is called from the
// serialization path under the chunk's lock but with no coordination
// against other chunks' Set calls.
type Hierarchy interface {
	// Count reports the persisted point count for k, and whether k has
	// ever been saved at all.
	Count(k octkey.Dxyz) (np int64, ok bool)
	// Set records that k now has np persisted points with the given
	// content digest. np must be nonzero.
	Set(k octkey.Dxyz, np int64, digest [32]byte) error
	// Close flushes any buffered state and releases resources.
	Close() error
}
