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

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lasforge/pcindex/cache"
	"github.com/lasforge/pcindex/config"
	"github.com/lasforge/pcindex/endpoint"
	"github.com/lasforge/pcindex/hierarchy"
	"github.com/lasforge/pcindex/iopool"
	"github.com/lasforge/pcindex/octkey"
)

// root bounds the octree every ingestion run descends: a 2^21-unit
// cube centered on the origin, large enough for any projected
// coordinate system this command is likely to see. It is not
// configurable; SPEC_FULL's config surface only covers cache sizing
// and storage endpoints.
var root = octkey.Root([3]float64{0, 0, 0}, 1<<20)

type poolLogger struct{}

func (poolLogger) LogJobError(id uuid.UUID, err error) {
	logf("job %s failed: %s", id, err)
}

func ingest(ctx context.Context, cfgPath string, files []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out, err := endpoint.Open(cfg.OutEndpoint)
	if err != nil {
		return fmt.Errorf("opening out endpoint: %w", err)
	}
	tmp, err := endpoint.Open(cfg.TmpEndpoint)
	if err != nil {
		return fmt.Errorf("opening tmp endpoint: %w", err)
	}
	h, err := hierarchy.Open(cfg.HierarchyPath)
	if err != nil {
		return fmt.Errorf("opening hierarchy: %w", err)
	}

	pool := iopool.New(0, poolLogger{})
	c := cache.New(h, pool, out, tmp, cfg.MaxDepth, cfg.ChunkMaxPoints)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ticker.C:
				info := c.LatchInfo()
				logf("alive=%d read=%d written=%d", info.Alive, info.Read, info.Written)
			case <-done:
				return
			}
		}
	}()

	var ferr error
	var mu sync.Mutex
	var fwg sync.WaitGroup
	sem := make(chan struct{}, 8)
	for _, path := range files {
		path := path
		fwg.Add(1)
		sem <- struct{}{}
		go func() {
			defer fwg.Done()
			defer func() { <-sem }()
			if err := ingestFile(ctx, c, path); err != nil {
				mu.Lock()
				if ferr == nil {
					ferr = err
				}
				mu.Unlock()
			}
			c.MaybePurge(cfg.CacheSize)
		}()
	}
	fwg.Wait()
	close(done)
	wg.Wait()

	if cerr := c.Close(); cerr != nil && ferr == nil {
		ferr = cerr
	}
	if herr := h.Close(); herr != nil && ferr == nil {
		ferr = herr
	}
	return ferr
}

func ingestFile(ctx context.Context, c *cache.ChunkCache, path string) error {
	pr := c.NewPruner()
	defer pr.Close()
	return readPoints(path, func(v octkey.Voxel) error {
		return c.Insert(ctx, v, root, pr)
	})
}
