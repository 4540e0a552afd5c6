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

package compr

import (
	"bytes"
	"testing"
)

func TestZstdRoundTrip(t *testing.T) {
	comp := Compression("zstd")
	if n := comp.Name(); n != "zstd" {
		t.Fatalf("bad compressor name %q", n)
	}
	dec := Decompression("zstd")
	if n := dec.Name(); n != "zstd" {
		t.Fatalf("bad decompressor name %q", n)
	}

	ctl := bytes.Repeat([]byte("foo"), 1000)
	cmp := comp.Compress(ctl, nil)
	dst := make([]byte, len(ctl))
	if err := dec.Decompress(cmp, dst); err != nil {
		t.Fatal(err)
	}
	if string(ctl) != string(dst) {
		t.Fatal("round trip mismatch")
	}
}

func TestUnknownNameReturnsNil(t *testing.T) {
	if Compression("lz4") != nil {
		t.Fatal("expected nil Compressor for an unrecognized name")
	}
	if Decompression("lz4") != nil {
		t.Fatal("expected nil Decompressor for an unrecognized name")
	}
}
