package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
)

// sourceKey identifies the loaded file. The dataset is only recomputed when
// the identity changes.
type sourceKey struct {
	path    string
	modTime time.Time
	size    int64
}

func (k sourceKey) equals(o sourceKey) bool {
	return k.path == o.path && k.size == o.size && k.modTime.Equal(o.modTime)
}

// Analytics owns the process-wide dataset snapshot behind an RWMutex. Every
// interaction reads through Snapshot; the dataset itself is immutable.
type Analytics struct {
	mu        sync.RWMutex
	dataset   *Dataset
	key       sourceKey
	loadedAt  time.Time
	sources   []string
	preferred []string
	logger    *slog.Logger
}

func NewAnalytics(sources, preferred []string, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		sources:   slices.Clone(sources),
		preferred: slices.Clone(preferred),
		logger:    logger,
	}
}

// SetDataset seeds the snapshot directly. Tests use this instead of a file.
func (a *Analytics) SetDataset(ds *Dataset) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dataset = ds
	a.key = sourceKey{}
	a.loadedAt = time.Now()
}

// Preferred returns the configured preferred default countries.
func (a *Analytics) Preferred() []string { return slices.Clone(a.preferred) }

// Load performs the startup load. Failure here is fatal for the session.
func (a *Analytics) Load(ctx context.Context) error {
	ds, key, err := a.loadCurrent(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.dataset, a.key, a.loadedAt = ds, key, time.Now()
	a.mu.Unlock()
	return nil
}

// Snapshot returns the current dataset, reloading it first when the source
// file identity (path, mtime, size) changed. A failed hot reload logs a
// warning and keeps serving the previous complete dataset; a partial dataset
// is never exposed.
func (a *Analytics) Snapshot(ctx context.Context) (*Dataset, error) {
	a.mu.RLock()
	ds, key := a.dataset, a.key
	a.mu.RUnlock()

	if ds == nil {
		return nil, fmt.Errorf("dataset not loaded")
	}
	if key.path == "" || a.currentKey(key.path).equals(key) {
		return ds, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key.path == "" || a.currentKey(a.key.path).equals(a.key) {
		return a.dataset, nil
	}

	a.logger.Info("source changed, reloading dataset", "path", a.key.path)
	attempted := a.currentKey(a.key.path)
	fresh, freshKey, err := a.loadCurrent(ctx)
	if err != nil {
		a.logger.Warn("hot reload failed, serving previous dataset", "error", err)
		a.key = attempted
		return a.dataset, nil
	}

	a.dataset, a.key, a.loadedAt = fresh, freshKey, time.Now()
	return a.dataset, nil
}

func (a *Analytics) loadCurrent(ctx context.Context) (*Dataset, sourceKey, error) {
	ds, err := LoadDataset(ctx, a.sources, a.logger)
	if err != nil {
		return nil, sourceKey{}, err
	}
	return ds, a.currentKey(ds.Source()), nil
}

func (a *Analytics) currentKey(path string) sourceKey {
	info, err := os.Stat(path)
	if err != nil {
		return sourceKey{path: path}
	}
	return sourceKey{path: path, modTime: info.ModTime(), size: info.Size()}
}

// Stats reports operational counters for the admin surface.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.dataset == nil {
		return map[string]any{"loaded": false}
	}

	minDate, maxDate := a.dataset.DateBounds()
	return map[string]any{
		"loaded":    true,
		"source":    a.key.path,
		"loaded_at": a.loadedAt,
		"records":   a.dataset.Len(),
		"countries": len(a.dataset.countries),
		"min_date":  minDate,
		"max_date":  maxDate,
		"cleaning":  a.dataset.Stats(),
	}
}
