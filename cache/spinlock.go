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

package cache

import (
	"runtime"
	"sync/atomic"
)

// spinlock is a CAS-loop lock used for every guarded structure in this
// package: slices, reffed chunks, the owned set, and the info
// counters. Most critical sections here are a handful of field reads
// and writes, so spinning is cheaper than parking a goroutine on a
// mutex's semaphore under the light, brief contention this cache
// expects. The one exception is a reffed chunk's spin, which is held
// across the blocking chunk load and save; goroutines waiting on that
// chunk keep yielding via runtime.Gosched until the I/O finishes.
//
// maybeErase needs to release a lock that lives inside the value being
// destroyed without touching that memory again; forget exists for
// exactly that case.
type spinlock struct {
	held int32
}

func (s *spinlock) Lock() {
	for !atomic.CompareAndSwapInt32(&s.held, 0, 1) {
		runtime.Gosched()
	}
}

func (s *spinlock) Unlock() {
	atomic.StoreInt32(&s.held, 0)
}

// forget releases s without writing to it, for use only when the
// memory s lives in is about to be discarded (the erasing slot case in
// maybeErase). Calling Unlock instead would still be safe, but forget
// documents that no further access to s is permitted afterward.
func (s *spinlock) forget() {}
