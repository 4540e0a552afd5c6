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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/lasforge/pcindex/date"
	"github.com/lasforge/pcindex/octkey"
)

// pointRecord is the on-disk layout of one point: three float64
// coordinates, a uint16 intensity, a uint8 class, and an int64 capture
// time as Unix nanoseconds, all little-endian. This is not any
// standard point-cloud interchange format -- it exists only to drive
// the cache from a runnable binary.
const pointRecordSize = 8*3 + 2 + 1 + 8

func readPoints(path string, each func(octkey.Voxel) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	buf := make([]byte, pointRecordSize)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		v := octkey.Voxel{
			Position: [3]float64{
				math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8])),
				math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
				math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
			},
			Intensity: binary.LittleEndian.Uint16(buf[24:26]),
			Class:     buf[26],
			Captured:  date.Unix(0, int64(binary.LittleEndian.Uint64(buf[27:35]))),
		}
		if err := each(v); err != nil {
			return err
		}
	}
}
