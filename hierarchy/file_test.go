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

package hierarchy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lasforge/pcindex/octkey"
)

func TestFileHierarchyCountBeforeSet(t *testing.T) {
	h, err := Open(filepath.Join(t.TempDir(), "hier.ion"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := h.Count(octkey.Dxyz{Depth: 1, X: 2, Y: 3, Z: 4}); ok {
		t.Fatal("expected no entry before any Set")
	}
}

func TestFileHierarchySetRejectsNonPositive(t *testing.T) {
	h, _ := Open(filepath.Join(t.TempDir(), "hier.ion"))
	if err := h.Set(octkey.Dxyz{}, 0, [32]byte{}); err == nil {
		t.Fatal("expected Set(0) to be rejected")
	}
	if err := h.Set(octkey.Dxyz{}, -1, [32]byte{}); err == nil {
		t.Fatal("expected Set(-1) to be rejected")
	}
}

func TestFileHierarchySnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hier.ion")
	h, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	keys := []octkey.Dxyz{
		{Depth: 0, X: 0, Y: 0, Z: 0},
		{Depth: 3, X: -5, Y: 7, Z: 2},
		{Depth: 5, X: 100, Y: -100, Z: 0},
	}
	digest := [32]byte{1, 2, 3}
	for i, k := range keys {
		if err := h.Set(k, int64(i)+1, digest); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for i, k := range keys {
		np, ok := reopened.Count(k)
		if !ok {
			t.Fatalf("missing entry for %v after reopen", k)
		}
		if np != int64(i)+1 {
			t.Fatalf("key %v: expected count %d, got %d", k, i+1, np)
		}
	}
	if _, ok := reopened.Count(octkey.Dxyz{Depth: 9}); ok {
		t.Fatal("unexpected entry for a key never set")
	}
}

func TestFileHierarchySnapshotNoopWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hier.ion")
	h, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	// No Set calls were made; Snapshot must not create a file.
	if err := h.Snapshot(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no snapshot file, stat returned %v", err)
	}
	if _, err := Open(path); err != nil {
		t.Fatal(err)
	}
}
