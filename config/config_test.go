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

package config

import (
	"strings"
	"testing"
)

func TestDecodeFillsDefaults(t *testing.T) {
	src := strings.NewReader(`
out_endpoint: dir:///tmp/out
tmp_endpoint: dir:///tmp/tmp
hierarchy_path: /tmp/hierarchy.ion
`)
	c, err := Decode(src)
	if err != nil {
		t.Fatal(err)
	}
	if c.CacheSize != defaultCacheSize {
		t.Fatalf("expected default cache size %d, got %d", defaultCacheSize, c.CacheSize)
	}
	if c.MaxDepth != defaultMaxDepth {
		t.Fatalf("expected default max depth %d, got %d", defaultMaxDepth, c.MaxDepth)
	}
	if c.ChunkMaxPoints != defaultChunkMaxPoints {
		t.Fatalf("expected default chunk max points %d, got %d", defaultChunkMaxPoints, c.ChunkMaxPoints)
	}
}

func TestDecodeRespectsExplicitValues(t *testing.T) {
	src := strings.NewReader(`
cache_size: 10
max_depth: 5
chunk_max_points: 100
out_endpoint: s3://bucket/prefix
tmp_endpoint: dir:///tmp/tmp
hierarchy_path: /tmp/hierarchy.ion
`)
	c, err := Decode(src)
	if err != nil {
		t.Fatal(err)
	}
	if c.CacheSize != 10 || c.MaxDepth != 5 || c.ChunkMaxPoints != 100 {
		t.Fatalf("explicit values not respected: %+v", c)
	}
}

func TestDecodeRequiresEndpoints(t *testing.T) {
	src := strings.NewReader(`hierarchy_path: /tmp/hierarchy.ion`)
	if _, err := Decode(src); err == nil {
		t.Fatal("expected an error for a missing out_endpoint")
	}
}
