package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps files under a base directory. Exports and the local upload
// archive both use it. Writes land in a temp file first so readers never see a partial file.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates baseDir when missing.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", baseDir, err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Driver names the archive backend.
func (s *LocalStorage) Driver() string { return "local" }

// Ping verifies the base directory is still a writable directory.
func (s *LocalStorage) Ping(context.Context) error {
	tmp, err := os.CreateTemp(s.baseDir, ".ping-*")
	if err != nil {
		return fmt.Errorf("storage %s not writable: %w", s.baseDir, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	return os.Remove(name)
}

// Put archives the object under key. The content type is not recorded on disk.
func (s *LocalStorage) Put(ctx context.Context, key string, body io.Reader, _ string) error {
	if strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.SaveStream(key, body)
	return err
}

// Save writes data to filename relative to the base directory.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	return s.write(filename, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// SaveStream copies r into filename relative to the base directory.
func (s *LocalStorage) SaveStream(filename string, r io.Reader) (string, error) {
	return s.write(filename, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

func (s *LocalStorage) write(filename string, fill func(io.Writer) error) (string, error) {
	target := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory for %s: %w", filename, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", filename, err)
	}
	tmpName := tmp.Name()

	err = fill(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpName, target)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return filename, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	return file, nil
}

// Delete removes a stored file; a missing file is not an error.
func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(s.resolve(filename)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	return nil
}

// CleanupOlderThan removes files last modified before now-ttl, then any directory the
// sweep left empty. It returns the removed file names relative to the base directory.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	var dirs []string

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.baseDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup %s: %w", s.baseDir, err)
	}

	// Deepest first so nested empty directories collapse in one pass.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
	return deleted, nil
}

func (s *LocalStorage) resolve(filename string) string {
	return filepath.Join(s.baseDir, filepath.Clean("/"+filename))
}
