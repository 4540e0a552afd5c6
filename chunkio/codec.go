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

package chunkio

import (
	"encoding/binary"
	"fmt"

	"github.com/lasforge/pcindex/compr"
	"github.com/lasforge/pcindex/octkey"
	"github.com/lasforge/pcindex/pointcodec"
)

// encode serializes c as a single pointcodec struct: a "points" list of
// per-voxel structs plus the bounding box/time range maintained
// alongside them, matching the same convention used elsewhere of shaping a
// record as one top-level pointcodec.Struct per logical object.
func (c *Chunk) encode() []byte {
	var st pointcodec.Symtab
	items := make([]pointcodec.Datum, len(c.Points))
	for i, v := range c.Points {
		items[i] = pointcodec.NewStruct(&st, []pointcodec.Field{
			{Label: "x", Value: pointcodec.Float(v.Position[0])},
			{Label: "y", Value: pointcodec.Float(v.Position[1])},
			{Label: "z", Value: pointcodec.Float(v.Position[2])},
			{Label: "intensity", Value: pointcodec.Uint(uint64(v.Intensity))},
			{Label: "class", Value: pointcodec.Uint(uint64(v.Class))},
			{Label: "captured", Value: pointcodec.Timestamp(v.Captured)},
		}).Datum()
	}
	points := pointcodec.NewList(&st, items)

	fields := []pointcodec.Field{
		{Label: "points", Value: points.Datum()},
	}
	if c.haveBounds {
		fields = append(fields,
			pointcodec.Field{Label: "bbox_min", Value: vec3(&st, c.min)},
			pointcodec.Field{Label: "bbox_max", Value: vec3(&st, c.max)},
			pointcodec.Field{Label: "time_min", Value: pointcodec.Timestamp(c.minTime)},
			pointcodec.Field{Label: "time_max", Value: pointcodec.Timestamp(c.maxTime)},
		)
	}
	root := pointcodec.NewStruct(&st, fields)

	var buf pointcodec.Buffer
	st.Marshal(&buf, true)
	root.Encode(&buf, &st)
	return buf.Bytes()
}

func vec3(st *pointcodec.Symtab, v [3]float64) pointcodec.Datum {
	return pointcodec.NewList(st, []pointcodec.Datum{pointcodec.Float(v[0]), pointcodec.Float(v[1]), pointcodec.Float(v[2])}).Datum()
}

// decode reverses encode, reanimating a Chunk with exactly np points.
func decode(buf []byte, maxPoints int, np int64) (*Chunk, error) {
	var st pointcodec.Symtab
	rest, err := st.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("chunkio: decoding symbol table: %w", err)
	}
	root, _, err := pointcodec.ReadDatum(&st, rest)
	if err != nil {
		return nil, fmt.Errorf("chunkio: decoding root struct: %w", err)
	}
	rs, ok := root.Struct()
	if !ok {
		return nil, fmt.Errorf("chunkio: root datum is not a struct")
	}

	c := New(maxPoints)
	pl, ok := rs.Datum().Field("points").List()
	if !ok {
		return nil, fmt.Errorf("chunkio: missing or malformed points field")
	}
	var decodeErr error
	pl.Each(func(d pointcodec.Datum) bool {
		v, err := decodeVoxel(d)
		if err != nil {
			decodeErr = err
			return false
		}
		c.Points = append(c.Points, v)
		c.extend(v)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	if int64(len(c.Points)) != np {
		return nil, fmt.Errorf("chunkio: expected %d points, decoded %d", np, len(c.Points))
	}
	return c, nil
}

func decodeVoxel(d pointcodec.Datum) (octkey.Voxel, error) {
	var v octkey.Voxel
	if _, ok := d.Struct(); !ok {
		return v, fmt.Errorf("chunkio: point datum is not a struct")
	}
	x, _ := d.Field("x").Float()
	y, _ := d.Field("y").Float()
	z, _ := d.Field("z").Float()
	v.Position = [3]float64{x, y, z}
	intensity, _ := d.Field("intensity").Uint()
	v.Intensity = uint16(intensity)
	class, _ := d.Field("class").Uint()
	v.Class = uint8(class)
	v.Captured, _ = d.Field("captured").Timestamp()
	return v, nil
}

// compress prepends the uncompressed length to the zstd-compressed
// payload so decompress can size its destination buffer up front, as
// compr.Decompressor.Decompress requires an adequately sized dst.
func compress(raw []byte) []byte {
	hdr := make([]byte, 8, 8+len(raw))
	binary.LittleEndian.PutUint64(hdr, uint64(len(raw)))
	return compr.Compression("zstd").Compress(raw, hdr)
}

func decompress(blob []byte) ([]byte, error) {
	if len(blob) < 8 {
		return nil, fmt.Errorf("chunkio: truncated chunk blob")
	}
	n := binary.LittleEndian.Uint64(blob[:8])
	dst := make([]byte, n)
	if err := compr.Decompression("zstd").Decompress(blob[8:], dst); err != nil {
		return nil, fmt.Errorf("chunkio: decompressing chunk: %w", err)
	}
	return dst, nil
}
