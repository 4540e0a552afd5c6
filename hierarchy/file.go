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

package hierarchy

import (
	"fmt"
	"os"
	"sync"

	"github.com/lasforge/pcindex/pointcodec"
	"github.com/lasforge/pcindex/octkey"
)

type entry struct {
	count  int64
	digest [32]byte
}

// FileHierarchy is a single-file Hierarchy backed by an in-memory map
// guarded by a sync.RWMutex -- reads (reanimation's Count lookups) run
// concurrently with each other, and the rare Set takes the write lock
// for the duration of a single map update, matching
// tenant/dcache/cache.go's rocache/lock pattern for its read-mostly
// mapping table.
type FileHierarchy struct {
	path string

	mu      sync.RWMutex
	entries map[octkey.Dxyz]entry
	dirty   bool
}

// Open loads a FileHierarchy from path, or starts an empty one if path
// does not yet exist.
func Open(path string) (*FileHierarchy, error) {
	h := &FileHierarchy{path: path, entries: make(map[octkey.Dxyz]entry)}
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("hierarchy: reading %s: %w", path, err)
	}
	if err := h.load(buf); err != nil {
		return nil, fmt.Errorf("hierarchy: decoding %s: %w", path, err)
	}
	return h, nil
}

func (h *FileHierarchy) load(buf []byte) error {
	var st pointcodec.Symtab
	rest, err := st.Unmarshal(buf)
	if err != nil {
		return err
	}
	for len(rest) > 0 {
		d, next, err := pointcodec.ReadDatum(&st, rest)
		if err != nil {
			return err
		}
		rest = next
		depth, _ := d.Field("depth").Uint()
		x, _ := d.Field("x").Int()
		y, _ := d.Field("y").Int()
		z, _ := d.Field("z").Int()
		count, _ := d.Field("count").Int()
		digestBytes, _ := d.Field("digest").Blob()
		var digest [32]byte
		copy(digest[:], digestBytes)
		k := octkey.Dxyz{Depth: uint8(depth), X: int32(x), Y: int32(y), Z: int32(z)}
		h.entries[k] = entry{count: count, digest: digest}
	}
	return nil
}

// Count implements Hierarchy.Count.
func (h *FileHierarchy) Count(k octkey.Dxyz) (int64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.entries[k]
	return e.count, ok
}

// Set implements Hierarchy.Set.
func (h *FileHierarchy) Set(k octkey.Dxyz, np int64, digest [32]byte) error {
	if np <= 0 {
		return fmt.Errorf("hierarchy: refusing to record non-positive count for %v", k)
	}
	h.mu.Lock()
	h.entries[k] = entry{count: np, digest: digest}
	h.dirty = true
	h.mu.Unlock()
	return nil
}

// Snapshot writes the current contents to path, atomically replacing
// any previous snapshot via a write to path+".tmp" followed by a
// rename. It does nothing if no Set has happened since the last
// snapshot.
func (h *FileHierarchy) Snapshot() error {
	h.mu.Lock()
	if !h.dirty {
		h.mu.Unlock()
		return nil
	}
	buf := h.encodeLocked()
	h.dirty = false
	h.mu.Unlock()

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0640); err != nil {
		return fmt.Errorf("hierarchy: writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("hierarchy: committing snapshot: %w", err)
	}
	return nil
}

func (h *FileHierarchy) encodeLocked() []byte {
	var st pointcodec.Symtab
	structs := make([]pointcodec.Struct, 0, len(h.entries))
	for k, e := range h.entries {
		structs = append(structs, pointcodec.NewStruct(&st, []pointcodec.Field{
			{Label: "depth", Value: pointcodec.Uint(uint64(k.Depth))},
			{Label: "x", Value: pointcodec.Int(int64(k.X))},
			{Label: "y", Value: pointcodec.Int(int64(k.Y))},
			{Label: "z", Value: pointcodec.Int(int64(k.Z))},
			{Label: "count", Value: pointcodec.Int(e.count)},
			{Label: "digest", Value: pointcodec.Blob(e.digest[:])},
		}))
	}

	var buf pointcodec.Buffer
	st.Marshal(&buf, true)
	for _, s := range structs {
		s.Encode(&buf, &st)
	}
	return buf.Bytes()
}

// Close implements Hierarchy.Close by flushing a final snapshot.
func (h *FileHierarchy) Close() error {
	return h.Snapshot()
}
