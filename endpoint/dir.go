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

package endpoint

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirEndpoint is an Endpoint backed by a directory on the local
// filesystem. It is typically used as the "tmp" endpoint for scratch
// space during a staged write, and can also stand in for "out" during
// local testing (matching tenant/dcache's own file-backed cache).
type DirEndpoint struct {
	Dir string
}

// NewDirEndpoint returns a DirEndpoint rooted at dir, creating it if
// necessary.
func NewDirEndpoint(dir string) (*DirEndpoint, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("endpoint: creating %s: %w", dir, err)
	}
	return &DirEndpoint{Dir: dir}, nil
}

func (d *DirEndpoint) path(name string) string {
	return filepath.Join(d.Dir, filepath.FromSlash(name))
}

// Open implements Endpoint.Open.
func (d *DirEndpoint) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(d.path(name))
	if err != nil {
		return nil, fmt.Errorf("endpoint: open %s: %w", name, err)
	}
	return f, nil
}

// Create implements Endpoint.Create.
func (d *DirEndpoint) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	full := d.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return nil, fmt.Errorf("endpoint: mkdir for %s: %w", name, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("endpoint: create %s: %w", name, err)
	}
	return f, nil
}

// Rename implements Endpoint.Rename.
func (d *DirEndpoint) Rename(ctx context.Context, oldName, newName string) error {
	full := d.path(newName)
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return fmt.Errorf("endpoint: mkdir for %s: %w", newName, err)
	}
	if err := os.Rename(d.path(oldName), full); err != nil {
		return fmt.Errorf("endpoint: rename %s -> %s: %w", oldName, newName, err)
	}
	return nil
}

// Remove implements Endpoint.Remove.
func (d *DirEndpoint) Remove(ctx context.Context, name string) error {
	err := os.Remove(d.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("endpoint: remove %s: %w", name, err)
	}
	return nil
}

// MappedWriter is implemented by endpoints that can take advantage of
// already knowing the full size of the data being written -- a chunk's
// serialized, compressed bytes are always fully materialized in memory
// before Save writes them out, so there is no streaming benefit to
// os.File.Write over mapping the destination and copying once.
type MappedWriter interface {
	WriteMapped(ctx context.Context, name string, data []byte) error
}

var _ MappedWriter = (*DirEndpoint)(nil)

// WriteMapped writes data to name by truncating/fallocating the
// destination file to len(data), mmap-ing it, and copying data in,
// exactly as tenant/dcache does for its on-disk cache entries.
func (d *DirEndpoint) WriteMapped(ctx context.Context, name string, data []byte) error {
	full := d.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return fmt.Errorf("endpoint: mkdir for %s: %w", name, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("endpoint: create %s: %w", name, err)
	}
	defer f.Close()
	if len(data) == 0 {
		return nil
	}
	if err := resize(f, int64(len(data))); err != nil {
		return fmt.Errorf("endpoint: fallocate %s: %w", name, err)
	}
	buf, err := mmap(f, int64(len(data)))
	if err != nil {
		return fmt.Errorf("endpoint: mmap %s: %w", name, err)
	}
	copy(buf, data)
	if err := unmap(f, buf); err != nil {
		return fmt.Errorf("endpoint: unmap %s: %w", name, err)
	}
	return nil
}
