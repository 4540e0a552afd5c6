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

package endpoint

import (
	"fmt"
	"strings"
)

// Open constructs the Endpoint named by uri, one of:
//
//	dir:///absolute/path      a local directory
//	s3://bucket/prefix        an S3 bucket and key prefix, region and
//	                          credentials taken from the environment
//
// It is the uniform entry point cmd/pcindexd uses to turn the two
// endpoint strings in a Config into live Endpoint values.
func Open(uri string) (Endpoint, error) {
	switch {
	case strings.HasPrefix(uri, "dir://"):
		return NewDirEndpoint(strings.TrimPrefix(uri, "dir://"))
	case strings.HasPrefix(uri, "s3://"):
		rest := strings.TrimPrefix(uri, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		return NewS3Endpoint(bucket, prefix, "", nil)
	default:
		return nil, fmt.Errorf("endpoint: unrecognized URI scheme in %q", uri)
	}
}
