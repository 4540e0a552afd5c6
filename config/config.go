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

// Package config loads the YAML configuration for the ingestion driver.
package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"sigs.k8s.io/yaml"
)

// just pick an upper limit to prevent DoS
const maxConfigSize = 1024 * 1024

// Config describes how an ingestion run should size and connect its
// chunk cache.
type Config struct {
	// CacheSize is the maximum number of chunks MaybePurge lets sit in
	// the owned set before it starts dispatching serialize jobs.
	CacheSize int `json:"cache_size"`
	// HierarchyPath is the local path the file-backed hierarchy
	// snapshots point counts and digests to.
	HierarchyPath string `json:"hierarchy_path"`
	// OutEndpoint is the durable blob endpoint chunks are committed to,
	// as a dir:// or s3:// URI.
	OutEndpoint string `json:"out_endpoint"`
	// TmpEndpoint is the staging endpoint writes land on before being
	// committed to OutEndpoint, as a dir:// or s3:// URI.
	TmpEndpoint string `json:"tmp_endpoint"`
	// MaxDepth bounds how many times Insert may descend the octree
	// before it gives up on a point.
	MaxDepth uint8 `json:"max_depth"`
	// ChunkMaxPoints bounds how many points a single chunk holds
	// resident before insert must descend a level.
	ChunkMaxPoints int `json:"chunk_max_points"`
}

const (
	defaultCacheSize      = 4096
	defaultMaxDepth       = 16
	defaultChunkMaxPoints = 65536
)

func (c *Config) setDefaults() {
	if c.CacheSize == 0 {
		c.CacheSize = defaultCacheSize
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.ChunkMaxPoints == 0 {
		c.ChunkMaxPoints = defaultChunkMaxPoints
	}
}

// Decode decodes a root-level Config from src and fills defaults for
// any field left at its zero value.
//
// See also: Load
func Decode(src io.Reader) (*Config, error) {
	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	c := new(Config)
	if err := yaml.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	c.setDefaults()
	if c.OutEndpoint == "" {
		return nil, fmt.Errorf("config: out_endpoint is required")
	}
	if c.TmpEndpoint == "" {
		return nil, fmt.Errorf("config: tmp_endpoint is required")
	}
	if c.HierarchyPath == "" {
		return nil, fmt.Errorf("config: hierarchy_path is required")
	}
	return c, nil
}

func checkSize(info fs.FileInfo) error {
	if info.Size() > maxConfigSize {
		return fmt.Errorf("config: file of size %d beyond limit %d", info.Size(), maxConfigSize)
	}
	return nil
}

// Load opens path (YAML, despite any .json extension sigs.k8s.io/yaml
// happily accepts) and calls Decode on its contents.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if err := checkSize(info); err != nil {
		return nil, err
	}
	return Decode(f)
}
