package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/insighthub/internal/config"
)

// ErrExist is returned by Create when the key is already taken.
var ErrExist = errors.New("file already exists")

// ErrNotExist is returned by Open when the key is unknown.
var ErrNotExist = errors.New("file does not exist")

// Store keeps immutable objects addressed as "<dir>/<name>".
// Create never overwrites: a published object is visible in full or not at all.
type Store interface {
	Type() string
	Create(ctx context.Context, key string, r io.ReadSeeker, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns the object names directly under dir. A missing dir yields no names.
	List(ctx context.Context, dir string) ([]string, error)
}

// Sweeper is implemented by stores that can leave temporary files behind.
type Sweeper interface {
	SweepTemp(ctx context.Context, olderThan time.Duration) (int, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.FileStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

// SplitKey validates a "<dir>/<name>" key and returns both parts.
func SplitKey(key string) (string, string, error) {
	dir, name, ok := strings.Cut(key, "/")
	if !ok || !validElem(dir) || !validElem(name) {
		return "", "", fmt.Errorf("invalid file key: %q", key)
	}
	return dir, name, nil
}

func JoinKey(dir, name string) string {
	return dir + "/" + name
}

func validElem(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}
