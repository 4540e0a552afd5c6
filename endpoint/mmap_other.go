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

//go:build !linux

package endpoint

import "os"

// mmap falls back to a plain in-memory buffer plus an ordinary write on
// platforms where we don't bother with mmap, mirroring
// tenant/dcache/file_other.go's non-Linux fallback.
func mmap(f *os.File, size int64) ([]byte, error) {
	return make([]byte, size), nil
}

// unmap flushes buf to f since it was never actually memory-mapped.
func unmap(f *os.File, buf []byte) error {
	_, err := f.WriteAt(buf, 0)
	return err
}

func resize(f *os.File, size int64) error {
	return f.Truncate(size)
}
