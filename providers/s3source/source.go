// Package s3source liest die Import-Dateien einer Studie aus einem S3-Bucket.
package s3source

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"ddionrails/providers"
	"ddionrails/storage"
)

type Source struct {
	bucket *storage.Bucket
	prefix string
}

// NewSource erstellt eine Quelle für <study>/<subDirectory>/ im Bucket.
func NewSource(bucket *storage.Bucket, study, subDirectory string) *Source {
	return &Source{bucket: bucket, prefix: path.Join(study, subDirectory) + "/"}
}

func (s *Source) Name() string { return "s3" }

func (s *Source) key(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	body, err := s.bucket.Get(ctx, s.key(name))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, providers.ErrNotExist
	}
	return body, err
}

func (s *Source) Exists(ctx context.Context, name string) (bool, error) {
	return s.bucket.Exists(ctx, s.key(name))
}

// List liefert nur direkte Kinder von dir, keine Objekte aus tieferen Ebenen.
func (s *Source) List(ctx context.Context, dir, ext string) ([]string, error) {
	prefix := s.key(dir) + "/"
	keys, err := s.bucket.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		if strings.Contains(rest, "/") || !strings.HasSuffix(rest, ext) {
			continue
		}
		names = append(names, path.Join(dir, rest))
	}
	return names, nil
}
