package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps artifacts in a directory tree. The dev default.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ PutOptions) (Info, error) {
	normalized, err := NormalizeKey(key)
	if err != nil {
		return Info{}, err
	}
	target := filepath.Join(s.root, filepath.FromSlash(normalized))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Info{}, fmt.Errorf("create artifact parent dir: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return Info{}, fmt.Errorf("create artifact %q: %w", normalized, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return Info{}, fmt.Errorf("write artifact %q: %w", normalized, err)
	}
	if err := file.Close(); err != nil {
		return Info{}, fmt.Errorf("close artifact %q: %w", normalized, err)
	}

	stat, err := os.Stat(target)
	if err != nil {
		return Info{}, fmt.Errorf("stat artifact %q: %w", normalized, err)
	}
	return Info{Key: normalized, Size: stat.Size(), LastModified: stat.ModTime()}, nil
}

func (s *LocalStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	normalized, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.root, filepath.FromSlash(normalized)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("open artifact %q: %w", normalized, err)
	}
	return file, nil
}

func (s *LocalStore) Stat(_ context.Context, key string) (Info, error) {
	normalized, err := NormalizeKey(key)
	if err != nil {
		return Info{}, err
	}
	stat, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(normalized)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, ErrArtifactNotFound
		}
		return Info{}, fmt.Errorf("stat artifact %q: %w", normalized, err)
	}
	return Info{Key: normalized, Size: stat.Size(), LastModified: stat.ModTime()}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	normalized, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(normalized))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete artifact %q: %w", normalized, err)
	}
	return nil
}

func (s *LocalStore) List(_ context.Context, prefix string) ([]Info, error) {
	infos := make([]Info, 0)
	err := filepath.WalkDir(s.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		stat, err := entry.Info()
		if err != nil {
			return err
		}
		infos = append(infos, Info{Key: key, Size: stat.Size(), LastModified: stat.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return infos, nil
}
