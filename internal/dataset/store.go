package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/filestore"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

const (
	Ext              = ".csv"
	DefaultListLimit = 5
	// MaxFileNameLen leaves room for the "_N" suffix and the hidden staging name.
	MaxFileNameLen = 200
)

// File identifies one stored dataset.
type File struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (f File) Key() string {
	return filestore.JoinKey(f.Namespace, f.Name)
}

type Store struct {
	files     filestore.Store
	listLimit int
}

func NewStore(files filestore.Store, listLimit int) *Store {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &Store{files: files, listLimit: listLimit}
}

func IsTabular(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Ext)
}

// Save stores data under the first free name among filename, base_1.csv, base_2.csv, ...
func (s *Store) Save(ctx context.Context, namespace, filename string, data []byte) (string, error) {
	if len(namespace) > MaxNamespaceLen {
		return "", appErr.Wrap(appErr.ErrInvalid, "identity too long for storage")
	}
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for suffix := 1; ; suffix++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := s.files.Create(ctx, filestore.JoinKey(namespace, candidate), bytes.NewReader(data), int64(len(data)))
		if err == nil {
			logutil.GetLogger(ctx).Info("dataset stored",
				zap.String("namespace", namespace),
				zap.String("name", candidate),
				zap.Int("size", len(data)),
			)
			return candidate, nil
		}
		if !errors.Is(err, filestore.ErrExist) {
			return "", fmt.Errorf("store dataset: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, suffix, ext)
	}
}

// List returns up to limit tabular files, most recent first.
func (s *Store) List(ctx context.Context, namespace string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = s.listLimit
	}
	names, err := s.sorted(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (s *Store) Latest(ctx context.Context, namespace string) (string, error) {
	names, err := s.sorted(ctx, namespace)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", appErr.Wrap(appErr.ErrNotFound, "no dataset uploaded yet")
	}
	return names[0], nil
}

func (s *Store) Open(ctx context.Context, namespace, name string) (io.ReadCloser, error) {
	if !IsTabular(name) || strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		return nil, appErr.Wrap(appErr.ErrInvalid, "invalid file name")
	}
	rc, err := s.files.Open(ctx, filestore.JoinKey(namespace, name))
	if err != nil {
		if errors.Is(err, filestore.ErrNotExist) {
			return nil, appErr.Wrap(appErr.ErrNotFound, "file not found")
		}
		return nil, err
	}
	return rc, nil
}

func (s *Store) ReadAll(ctx context.Context, namespace, name string) ([]byte, error) {
	rc, err := s.Open(ctx, namespace, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// sorted lists tabular names in reverse lexicographic order, which is the recency order.
func (s *Store) sorted(ctx context.Context, namespace string) ([]string, error) {
	if len(namespace) > MaxNamespaceLen {
		return []string{}, nil
	}
	all, err := s.files.List(ctx, namespace)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, name := range all {
		if IsTabular(name) {
			names = append(names, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func cleanName(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if !IsTabular(name) {
		return "", appErr.Wrap(appErr.ErrInvalid, "only .csv files are supported")
	}
	if len(name) == len(Ext) || strings.HasPrefix(name, ".") {
		return "", appErr.Wrap(appErr.ErrInvalid, "invalid file name")
	}
	if len(name) > MaxFileNameLen {
		return "", appErr.Wrap(appErr.ErrInvalid, "file name too long")
	}
	return name, nil
}
