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

// Package iopool provides a bounded worker pool for dispatching the
// blocking serialization I/O the cache performs off of its callers'
// goroutines.
package iopool

import (
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Logger receives a correlation ID and error for any dispatched job
// that returns a non-nil error. It is optional; a nil Logger silently
// drops job failures, which is always safe for jobs that already
// propagate their own errors through other means (e.g. a future or a
// channel closed over by the caller).
type Logger interface {
	LogJobError(id uuid.UUID, err error)
}

// Pool is a bounded pool of worker goroutines draining a job queue
// buffered to 64 entries, grounded on tenant/dcache/worker.go's queue.out channel
// plus c.wg WaitGroup pair.
type Pool struct {
	jobs   chan job
	wg     sync.WaitGroup
	logger Logger
}

type job struct {
	id uuid.UUID
	fn func() error
}

// New starts a Pool with n worker goroutines. n <= 0 defaults to
// runtime.GOMAXPROCS(0), the same default tenant/dcache uses for its
// own worker count.
func New(n int, logger Logger) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		jobs:   make(chan job, 64),
		logger: logger,
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := j.fn(); err != nil && p.logger != nil {
			p.logger.LogJobError(j.id, err)
		}
	}
}

// Dispatch enqueues fn to run on a worker goroutine, tagged with a
// fresh correlation ID for failure logging. It blocks while the
// queue's 64-entry buffer is full, until a worker takes a job; it must
// not be called after Join.
func (p *Pool) Dispatch(fn func() error) {
	p.jobs <- job{id: uuid.New(), fn: fn}
}

// Join closes the job queue and waits for every dispatched job to
// finish running. It is the shutdown primitive a ChunkCache calls
// after its final maybePurge(0).
func (p *Pool) Join() {
	close(p.jobs)
	p.wg.Wait()
}
