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

// Package endpoint provides the opaque blob I/O targets the chunk cache
// reads from and writes to: the "out" endpoint (the durable remote
// store) and the "tmp" endpoint (scratch space for a staged write).
package endpoint

import (
	"context"
	"io"
)

// Endpoint is a blob I/O target. It does not know anything about chunks,
// octrees, or the cache; it only moves named byte streams.
type Endpoint interface {
	// Open opens name for reading. It returns fs.ErrNotExist (wrapped)
	// if name does not exist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create opens name for writing, truncating any existing contents.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	// Rename atomically renames oldName to newName. It can be used to
	// commit a staged write: data is written to a temporary name and
	// only renamed into place once it is complete. chunkio.Chunk.Save
	// does not call it; it writes the staged and committed copies to
	// two different endpoints.
	Rename(ctx context.Context, oldName, newName string) error
	// Remove deletes name. It is not an error to remove a name that
	// does not exist.
	Remove(ctx context.Context, name string) error
}
