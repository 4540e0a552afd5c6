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

package iopool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(4, nil)
	var n int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Dispatch(func() error {
			atomic.AddInt64(&n, 1)
			wg.Done()
			return nil
		})
	}
	wg.Wait()
	p.Join()
	if n != 100 {
		t.Fatalf("expected 100 jobs to run, got %d", n)
	}
}

type recordingLogger struct {
	mu   sync.Mutex
	errs []error
}

func (l *recordingLogger) LogJobError(id uuid.UUID, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func TestPoolLogsJobErrors(t *testing.T) {
	logger := &recordingLogger{}
	p := New(2, logger)
	boom := errors.New("boom")
	var wg sync.WaitGroup
	wg.Add(1)
	p.Dispatch(func() error {
		defer wg.Done()
		return boom
	})
	wg.Wait()
	p.Join()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errs) != 1 || logger.errs[0] != boom {
		t.Fatalf("expected exactly one logged error, got %v", logger.errs)
	}
}

func TestJoinDrainsQueue(t *testing.T) {
	p := New(1, nil)
	var n int32
	for i := 0; i < 20; i++ {
		p.Dispatch(func() error {
			atomic.AddInt32(&n, 1)
			return nil
		})
	}
	p.Join()
	if n != 20 {
		t.Fatalf("expected all 20 jobs to drain before Join returns, got %d", n)
	}
}
