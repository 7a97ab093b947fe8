package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nordsalg/advisor-api/internal/lock"
	"github.com/nordsalg/advisor-api/internal/obs"
)

// Source produces a validated catalog snapshot.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// FileSource loads the catalog from a JSON file on disk.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(context.Context) (*Catalog, error) {
	return LoadFile(s.Path)
}

// Service owns the active catalog snapshot. Loads go through the configured
// source; the last good snapshot keeps serving when a reload fails, and a
// Redis copy lets a fresh instance answer before its first source load.
type Service struct {
	source     Source
	sourceName string
	cache      *Cache
	locker     *lock.Locker
	logger     zerolog.Logger
	ttl        time.Duration

	mu       sync.RWMutex
	snapshot *Catalog
	loadedAt time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source     Source
	SourceName string
	Cache      *Cache
	Locker     *lock.Locker
	Logger     zerolog.Logger
	TTL        time.Duration
}

const snapshotCacheKey = "catalog:snapshot"

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("catalog: source is required")
	}
	name := cfg.SourceName
	if name == "" {
		name = "file"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		source:     cfg.Source,
		sourceName: name,
		cache:      cfg.Cache,
		locker:     cfg.Locker,
		logger:     cfg.Logger,
		ttl:        ttl,
	}, nil
}

// Snapshot returns the active catalog, reloading from the source when the
// current snapshot is stale. A failed reload falls back to the last good
// snapshot, then to the Redis copy.
func (s *Service) Snapshot(ctx context.Context) (*Catalog, error) {
	s.mu.RLock()
	current := s.snapshot
	fresh := current != nil && time.Since(s.loadedAt) < s.ttl
	s.mu.RUnlock()
	if fresh {
		return current, nil
	}

	loaded, err := s.load(ctx)
	if err != nil {
		if obs.CatalogReloadTotal != nil {
			obs.CatalogReloadTotal.WithLabelValues(s.sourceName, "error").Inc()
		}
		s.logger.Error().Err(err).Str("source", s.sourceName).Msg("catalog reload failed")
		if current != nil {
			return current, nil
		}
		if cached := s.fromCache(ctx); cached != nil {
			return cached, nil
		}
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	s.install(loaded)
	if obs.CatalogReloadTotal != nil {
		obs.CatalogReloadTotal.WithLabelValues(s.sourceName, "ok").Inc()
	}
	if obs.CatalogWarnings != nil {
		obs.CatalogWarnings.Set(float64(len(loaded.Warnings)))
	}
	for _, warning := range loaded.Warnings {
		s.logger.Warn().Str("source", s.sourceName).Msg(warning)
	}
	_ = s.cache.SetJSON(ctx, snapshotCacheKey, loaded)
	return loaded, nil
}

// Reload forces a source load regardless of snapshot age.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
	_, err := s.Snapshot(ctx)
	return err
}

// Ready reports whether a snapshot can be served. Used as a health probe.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.Snapshot(ctx)
	return err
}

// load runs the source load, holding a distributed lock when one is
// configured so only one instance hits the source per reload cycle.
func (s *Service) load(ctx context.Context) (*Catalog, error) {
	if s.locker == nil {
		return s.source.Load(ctx)
	}
	var loaded *Catalog
	err := s.locker.WithLock(ctx, "catalog:reload", 30*time.Second, func(ctx context.Context) error {
		var err error
		loaded, err = s.source.Load(ctx)
		return err
	})
	return loaded, err
}

func (s *Service) install(c *Catalog) {
	s.mu.Lock()
	s.snapshot = c
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

func (s *Service) fromCache(ctx context.Context) *Catalog {
	var cached Catalog
	ok, err := s.cache.GetJSON(ctx, snapshotCacheKey, &cached)
	if err != nil || !ok {
		return nil
	}
	cached.index()
	s.install(&cached)
	s.logger.Warn().Str("source", s.sourceName).Msg("serving catalog from redis fallback")
	return &cached
}
