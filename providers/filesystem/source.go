package filesystem

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"ddionrails/providers"
)

// Source liest Import-Dateien aus einem lokalen Verzeichnis.
type Source struct {
	Root string
}

// NewSource erstellt eine Quelle für das Importverzeichnis einer Studie.
func NewSource(root string) *Source {
	return &Source{Root: root}
}

func (s *Source) Name() string { return "filesystem" }

func (s *Source) path(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(name))
}

func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, providers.ErrNotExist
	}
	return f, err
}

func (s *Source) Exists(ctx context.Context, name string) (bool, error) {
	info, err := os.Stat(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *Source) List(ctx context.Context, dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(s.path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		names = append(names, path.Join(dir, entry.Name()))
	}
	sort.Strings(names)
	return names, nil
}
