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
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/lasforge/pcindex/aws"
)

// S3Endpoint is an Endpoint backed by an S3 bucket and key prefix,
// signed with the package's lightweight V4 signer rather than a full
// AWS SDK client.
type S3Endpoint struct {
	Key    *aws.SigningKey
	Bucket string
	Prefix string
	Client *http.Client
}

// NewS3Endpoint derives a signing key from the ambient AWS credentials
// via derive (aws.DefaultDerive when nil) and returns an Endpoint rooted
// at bucket/prefix.
func NewS3Endpoint(bucket, prefix, region string, derive aws.DeriveFn) (*S3Endpoint, error) {
	id, secret, derivedRegion, token, err := aws.AmbientCreds()
	if err != nil {
		return nil, fmt.Errorf("endpoint: s3 credentials: %w", err)
	}
	if region == "" {
		region = derivedRegion
	}
	if derive == nil {
		derive = aws.DefaultDerive
	}
	key, err := derive(aws.S3EndPoint(region), id, secret, token, region, "s3")
	if err != nil {
		return nil, fmt.Errorf("endpoint: deriving signing key: %w", err)
	}
	return &S3Endpoint{
		Key:    key,
		Bucket: bucket,
		Prefix: strings.Trim(prefix, "/"),
		Client: http.DefaultClient,
	}, nil
}

func (s *S3Endpoint) url(name string) string {
	full := name
	if s.Prefix != "" {
		full = s.Prefix + "/" + name
	}
	return fmt.Sprintf("%s/%s/%s", s.Key.BaseURI, s.Bucket, full)
}

func (s *S3Endpoint) do(ctx context.Context, method, name string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.url(name), nil)
	if err != nil {
		return nil, err
	}
	s.Key.SignV4(req, body)
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("endpoint: s3 %s %s: %w", method, name, err)
	}
	return resp, nil
}

// Open implements Endpoint.Open as an S3 GetObject.
func (s *S3Endpoint) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.do(ctx, http.MethodGet, name, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("endpoint: s3 get %s: %w", name, fs.ErrNotExist)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("endpoint: s3 get %s: status %s", name, resp.Status)
	}
	return resp.Body, nil
}

// Create implements Endpoint.Create by buffering the write and issuing
// a single S3 PutObject on Close, matching the "chunk bytes are fully
// materialized before Save" assumption documented on MappedWriter.
func (s *S3Endpoint) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	return &s3Writer{ep: s, ctx: ctx, name: name}, nil
}

type s3Writer struct {
	ep   *S3Endpoint
	ctx  context.Context
	name string
	buf  bytes.Buffer
}

func (w *s3Writer) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *s3Writer) Close() error {
	resp, err := w.ep.do(w.ctx, http.MethodPut, w.name, w.buf.Bytes())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint: s3 put %s: status %s", w.name, resp.Status)
	}
	return nil
}

// Rename implements Endpoint.Rename by reading the source object, putting
// its bytes under the new name, then deleting the source object (S3 has
// no native rename).
func (s *S3Endpoint) Rename(ctx context.Context, oldName, newName string) error {
	rd, err := s.Open(ctx, oldName)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rd)
	rd.Close()
	if err != nil {
		return fmt.Errorf("endpoint: rename read %s: %w", oldName, err)
	}
	resp, err := s.do(ctx, http.MethodPut, newName, data)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint: s3 put %s: status %s", newName, resp.Status)
	}
	return s.Remove(ctx, oldName)
}

// Remove implements Endpoint.Remove as an S3 DeleteObject.
func (s *S3Endpoint) Remove(ctx context.Context, name string) error {
	resp, err := s.do(ctx, http.MethodDelete, name, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("endpoint: s3 delete %s: status %s", name, resp.Status)
	}
	return nil
}
