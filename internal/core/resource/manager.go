package resource

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/pkg/concurrent"
	"golang.org/x/sync/singleflight"
)

// Loader reads the resource at path from fsys.
type Loader func(fsys fs.FS, path string) (Resource, error)

type cacheKey struct {
	typeName string
	path     string
}

// Manager loads resources through per-type loaders and caches them by type
// and path. Concurrent loads of the same resource share one read.
type Manager struct {
	fsys   fs.FS
	logger log.Log

	mu      sync.RWMutex
	loaders map[string]Loader
	cache   map[cacheKey]Resource
	group   singleflight.Group
}

func NewManager(fsys fs.FS, logger log.Log) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		fsys:    fsys,
		logger:  logger.With(log.String("component", "resources")),
		loaders: make(map[string]Loader),
		cache:   make(map[cacheKey]Resource),
	}
}

// Register installs the loader for typeName.
func (m *Manager) Register(typeName string, loader Loader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.loaders[typeName]; exists {
		return fmt.Errorf("%w: %s", ErrLoaderExists, typeName)
	}
	m.loaders[typeName] = loader
	return nil
}

// Load returns the resource of typeName stored at path.
func (m *Manager) Load(path, typeName string) (Resource, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	key := cacheKey{typeName: typeName, path: path}
	m.mu.RLock()
	cached, ok := m.cache[key]
	loader, known := m.loaders[typeName]
	m.mu.RUnlock()

	if ok {
		return cached, nil
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, typeName)
	}

	v, err, shared := m.group.Do(typeName+"\x00"+path, func() (any, error) {
		start := time.Now()
		r, err := loader(m.fsys, path)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s %q", typeName, path)
		}

		m.mu.Lock()
		m.cache[key] = r
		m.mu.Unlock()

		m.logger.Debug("resource loaded",
			log.String("type", typeName),
			log.String("path", path),
			log.Duration("took", time.Since(start)),
		)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.Debug("resource load shared", log.String("path", path))
	}
	return v.(Resource), nil
}

// Request names one resource to load.
type Request struct {
	Path string
	Type string
}

// PreloadWorkers bounds the number of concurrent loads in Preload.
const PreloadWorkers = 4

// Preload loads every request concurrently so later Load calls hit the cache.
func (m *Manager) Preload(ctx context.Context, requests ...Request) error {
	return concurrent.ForEach(ctx, requests, PreloadWorkers, func(_ context.Context, r Request) error {
		_, err := m.Load(r.Path, r.Type)
		return err
	})
}

// Cached returns the number of cached resources.
func (m *Manager) Cached() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

// Forget drops every cached resource.
func (m *Manager) Forget() {
	m.mu.Lock()
	m.cache = make(map[cacheKey]Resource)
	m.mu.Unlock()
}
