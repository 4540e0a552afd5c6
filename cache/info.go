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

// Info is a snapshot of the cache's alive/read/written counters, as
// returned by ChunkCache.LatchInfo.
type Info struct {
	Alive   int64
	Read    int64
	Written int64
}

// info holds the live counters behind one spinlock. alive is a level
// (the current number of reffed-chunk slots across all slices, whether
// or not each still holds a resident); read and written
// are per-epoch counters that LatchInfo zeros on each call.
type info struct {
	lock    spinlock
	alive   int64
	read    int64
	written int64
}

func (i *info) addAlive(delta int64) {
	i.lock.Lock()
	i.alive += delta
	i.lock.Unlock()
}

func (i *info) addRead() {
	i.lock.Lock()
	i.read++
	i.lock.Unlock()
}

func (i *info) addWritten() {
	i.lock.Lock()
	i.written++
	i.lock.Unlock()
}

// latch atomically snapshots the counters and zeros read/written,
// leaving alive untouched since it is a level, not a rate.
func (i *info) latch() Info {
	i.lock.Lock()
	snap := Info{Alive: i.alive, Read: i.read, Written: i.written}
	i.read, i.written = 0, 0
	i.lock.Unlock()
	return snap
}
