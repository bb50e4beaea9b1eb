package filestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const tempSuffix = ".tmp"

type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return NewLocal(config.Dir), nil
}

func NewLocal(dir string) Store {
	return &localStore{dir: dir}
}

func (s *localStore) Type() string {
	return "local"
}

// Create writes into a hidden temp file and publishes it with a hard link,
// which fails if the final name already exists.
func (s *localStore) Create(ctx context.Context, key string, r io.ReadSeeker, _ int64) error {
	dir, name, err := SplitKey(key)
	if err != nil {
		return err
	}
	target := filepath.Join(s.dir, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	finalPath := filepath.Join(target, name)
	if _, err := os.Lstat(finalPath); err == nil {
		return ErrExist
	}
	tmpPath := filepath.Join(target, "."+name+"."+randomHex(8)+tempSuffix)
	out, err := openFileNoFollow(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if out != nil {
			_ = out.Close()
		}
		_ = os.Remove(tmpPath)
	}()
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	out = nil
	if err := os.Link(tmpPath, finalPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExist
		}
		return err
	}
	logutil.GetLogger(ctx).Debug("file published", zap.String("key", key))
	return nil
}

func (s *localStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	dir, name, err := SplitKey(key)
	if err != nil {
		return nil, err
	}
	f, err := openFileNoFollowRead(filepath.Join(s.dir, dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return f, nil
}

func (s *localStore) List(_ context.Context, dir string) ([]string, error) {
	if !validElem(dir) {
		return nil, fmt.Errorf("invalid dir: %q", dir)
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// SweepTemp removes temp files abandoned by interrupted writes.
func (s *localStore) SweepTemp(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	dirs, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		nsDir := filepath.Join(s.dir, d.Name())
		entries, err := os.ReadDir(nsDir)
		if err != nil {
			return removed, err
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, tempSuffix) {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(nsDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func randomHex(size int) string {
	buf := make([]byte, size)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
