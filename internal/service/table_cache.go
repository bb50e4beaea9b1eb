package service

import (
	"bytes"
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/insighthub/internal/dataset"
	"github.com/xxxsen/insighthub/internal/insight"
)

const (
	defaultTableCacheSize = 64
	defaultTableCacheTTL  = 10 * time.Minute
)

// TableLoader reads and parses stored datasets. Published files never change,
// so a cached table stays valid until it is evicted.
type TableLoader struct {
	store *dataset.Store
	cache *expirable.LRU[string, *insight.Table]
}

func NewTableLoader(store *dataset.Store, size int, ttl time.Duration) *TableLoader {
	if size <= 0 {
		size = defaultTableCacheSize
	}
	if ttl <= 0 {
		ttl = defaultTableCacheTTL
	}
	return &TableLoader{
		store: store,
		cache: expirable.NewLRU[string, *insight.Table](size, nil, ttl),
	}
}

func (l *TableLoader) Load(ctx context.Context, namespace, name string) (*insight.Table, error) {
	key := dataset.File{Namespace: namespace, Name: name}.Key()
	if t, ok := l.cache.Get(key); ok {
		return t, nil
	}
	data, err := l.store.ReadAll(ctx, namespace, name)
	if err != nil {
		return nil, err
	}
	t, err := insight.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, t)
	return t, nil
}

// Put seeds the cache with a table parsed during upload.
func (l *TableLoader) Put(namespace, name string, t *insight.Table) {
	l.cache.Add(dataset.File{Namespace: namespace, Name: name}.Key(), t)
}
