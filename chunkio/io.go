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

package chunkio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dchest/siphash"
	"golang.org/x/crypto/blake2b"

	"github.com/lasforge/pcindex/endpoint"
	"github.com/lasforge/pcindex/octkey"
)

// remoteKeys is the fixed siphash key pair used to spread chunk object
// names across a remote bucket's keyspace, the same role
// splitter.go's partition() plays for tenant data: a deterministic,
// well-distributed hash keeps sibling chunks from landing on
// adjacent/hot prefixes.
const remoteKey0, remoteKey1 = 0x646e696b6e756863, 0x79656b3233726178

// RemoteName returns the object name Save/Load use for the chunk
// identified by k: a siphash of its coordinates, so that chunks with
// similar (depth, x, y, z) -- likely to be touched together during a
// directory listing or prefix scan -- do not cluster under one prefix.
func RemoteName(k octkey.Dxyz) string {
	var b [13]byte
	b[0] = k.Depth
	binary.BigEndian.PutUint32(b[1:5], uint32(k.X))
	binary.BigEndian.PutUint32(b[5:9], uint32(k.Y))
	binary.BigEndian.PutUint32(b[9:13], uint32(k.Z))
	h := siphash.Hash(remoteKey0, remoteKey1, b[:])
	return fmt.Sprintf("%02x/%016x", k.Depth, h)
}

func stagingName(k octkey.Dxyz) string {
	return "." + RemoteName(k) + ".tmp"
}

// Save serializes c, compresses it, durably stages the result on tmp,
// then commits it to out under RemoteName(k). It returns the point
// count, which is always nonzero for a chunk worth saving, and the
// blake2b-256 digest of the committed bytes for the caller to record
// in the hierarchy alongside the count.
func (c *Chunk) Save(ctx context.Context, out, tmp endpoint.Endpoint, k octkey.Dxyz) (int64, [32]byte, error) {
	if len(c.Points) == 0 {
		return 0, [32]byte{}, fmt.Errorf("chunkio: refusing to save an empty chunk")
	}
	blob := compress(c.encode())
	digest := blake2b.Sum256(blob)

	stage := stagingName(k)
	if err := writeAll(ctx, tmp, stage, blob); err != nil {
		return 0, digest, fmt.Errorf("chunkio: staging chunk: %w", err)
	}
	if err := writeAll(ctx, out, RemoteName(k), blob); err != nil {
		return 0, digest, fmt.Errorf("chunkio: committing chunk: %w", err)
	}
	if err := tmp.Remove(ctx, stage); err != nil {
		return 0, digest, fmt.Errorf("chunkio: clearing staged chunk: %w", err)
	}
	return int64(len(c.Points)), digest, nil
}

func writeAll(ctx context.Context, ep endpoint.Endpoint, name string, data []byte) error {
	w, err := ep.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// LoadInto reverses Save, reanimating c in place with exactly np
// points from out. It mutates the receiver rather than returning a new
// Chunk so that a pointer registered with a cache's pruner before the
// load started continues to refer to valid data once it completes.
// tmp is unused on the read path (it exists only to stage writes) but
// is accepted for symmetry with Save and future use (e.g. a local
// read-through cache of remote blobs).
func (c *Chunk) LoadInto(ctx context.Context, out, tmp endpoint.Endpoint, k octkey.Dxyz, np int64) error {
	rc, err := out.Open(ctx, RemoteName(k))
	if err != nil {
		return fmt.Errorf("chunkio: opening chunk: %w", err)
	}
	defer rc.Close()
	blob, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("chunkio: reading chunk: %w", err)
	}
	raw, err := decompress(blob)
	if err != nil {
		return err
	}
	loaded, err := decode(raw, c.MaxPoints, np)
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}

// Load reanimates a new Chunk with exactly np points from out, as
// Save left it. maxPoints bounds further inserts into the returned
// chunk the same way it would a freshly constructed one.
func Load(ctx context.Context, out, tmp endpoint.Endpoint, k octkey.Dxyz, np int64, maxPoints int) (*Chunk, error) {
	c := New(maxPoints)
	if err := c.LoadInto(ctx, out, tmp, k, np); err != nil {
		return nil, err
	}
	return c, nil
}
