// Package filesystem provides the local storage backend. Keys are literally
// paths under a sandboxed root, writes are atomic via temp file and rename,
// and converters can operate on stored files in place.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rkuznets/vanish"
)

// Store implements vanish.Backend on the local filesystem.
type Store struct {
	root *os.Root
}

// NewStore returns a Store rooted at root. The root sandboxes all operations,
// preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to key using a temp file and rename, creating
// intermediate directories as needed. size is advisory; the bytes actually
// read from content win.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile := tmpFileName()
	t, err := s.root.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("could not open temp file: %w", err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	if destDir := filepath.Dir(key); destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if err := s.root.Rename(tmpFile, key); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	success = true
	return nil
}

// Open opens the file at key for reading. Returns vanish.ErrNotFound if it
// does not exist.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, vanish.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Size stats the file at key. Returns vanish.ErrNotFound if it does not
// exist.
func (s *Store) Size(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, vanish.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Size(), nil
}

// Delete removes the file at key. A missing file is not an error; cleanup
// relies on deletion being idempotent.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// LocalPath maps key to the real filesystem path under the root. Always true:
// this backend is natively path addressable, so conversions skip staging.
func (s *Store) LocalPath(key string) (string, bool) {
	return filepath.Join(s.root.Name(), filepath.FromSlash(key)), true
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
