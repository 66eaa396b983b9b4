package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Store holds the current catalog snapshot. Readers take a snapshot once per
// request; Reload replaces the snapshot atomically and never mutates the
// previous one.
type Store struct {
	source    string
	current   atomic.Pointer[Catalog]
	reloadMu  sync.Mutex
	listeners []func(*Catalog)
	logger    *zap.Logger
}

// OpenStore loads the catalog at source and returns a store serving it.
// The returned error is a *LoadError when the source is unusable.
func OpenStore(ctx context.Context, source string, logger *zap.Logger) (*Store, error) {
	cat, err := Load(ctx, source)
	if err != nil {
		return nil, err
	}
	s := NewStore(cat, logger)
	s.source = source
	return s, nil
}

// NewStore returns a store serving an already built catalog. Reload is not
// available unless the catalog has a source path.
func NewStore(cat *Catalog, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{source: cat.Source(), logger: logger}
	s.current.Store(cat)
	return s
}

// Snapshot returns the current catalog.
func (s *Store) Snapshot() *Catalog {
	return s.current.Load()
}

// OnSwap registers fn to be called with every catalog installed by Reload.
// Register listeners before serving starts.
func (s *Store) OnSwap(fn func(*Catalog)) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload loads the source again and swaps the snapshot on success. On
// failure the current snapshot keeps serving and the error is returned.
func (s *Store) Reload(ctx context.Context) error {
	if s.source == "" {
		return errors.New("catalog has no source to reload from")
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	cat, err := Load(ctx, s.source)
	if err != nil {
		s.logger.Warn("catalog reload failed, keeping current snapshot",
			zap.String("source", s.source), zap.Error(err))
		return err
	}
	prev := s.current.Swap(cat)
	if prev != nil && prev.Dimensions() != cat.Dimensions() {
		s.logger.Warn("catalog dimensions changed on reload",
			zap.Int("previous", prev.Dimensions()), zap.Int("current", cat.Dimensions()))
	}
	s.logger.Info("catalog reloaded",
		zap.String("source", s.source),
		zap.Int("products", cat.Len()),
		zap.Int("dimensions", cat.Dimensions()),
	)
	for _, fn := range s.listeners {
		fn(cat)
	}
	return nil
}
