package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"forage-map/orchard/internal/common"
	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/metrics"
	"forage-map/orchard/internal/models/entities"
	"forage-map/orchard/internal/providers"

	"golang.org/x/sync/singleflight"
)

// DefaultSnapshotWindow is how long a full table read is served from cache.
const DefaultSnapshotWindow = 10 * time.Second

// SnapshotService serves the last full table read while it is younger than
// the window. All callers in the process share one snapshot; with a Redis
// store, all processes do.
type SnapshotService struct {
	table   providers.TableProvider
	store   common.CacheInterface
	window  time.Duration
	metrics *metrics.MetricsRegistry
	key     string

	now func() time.Time

	group singleflight.Group

	// mu orders stores against invalidations; generation moves on every
	// Invalidate so reads that began earlier are neither shared nor stored.
	mu         sync.Mutex
	generation atomic.Uint64
}

// SnapshotKey names the stored snapshot of one table. Processes share a
// snapshot only when backend, location and sheet all match.
func SnapshotKey(backend, location, sheet string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(location) + "/" + strings.TrimSpace(sheet)))
	return string(constants.CachePrefixSnapshot) + backend + "_" + hex.EncodeToString(sum[:8])
}

// NewSnapshotService caches reads of table in store under key. An empty key
// falls back to one derived from the provider type alone.
func NewSnapshotService(
	table providers.TableProvider,
	store common.CacheInterface,
	key string,
	window time.Duration,
	m *metrics.MetricsRegistry,
) *SnapshotService {
	if window <= 0 {
		window = DefaultSnapshotWindow
	}
	if key == "" {
		key = SnapshotKey(table.GetProviderType(), "", "")
	}
	return &SnapshotService{
		table:   table,
		store:   store,
		window:  window,
		metrics: m,
		key:     key,
		now:     time.Now,
	}
}

// Get returns every table row, from cache when the snapshot is fresh.
// Callers must not modify the returned rows.
func (s *SnapshotService) Get(ctx context.Context) ([]entities.TableRow, error) {
	gen := s.generation.Load()

	if snap, ok := s.store.GetSnapshot(ctx, s.key); ok && s.fresh(snap) {
		s.metrics.CacheHit(s.store.Name())
		return snap.Rows, nil
	}
	s.metrics.CacheMiss(s.store.Name())

	v, err, shared := s.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		rows, err := s.table.ReadAll(ctx)
		if err != nil {
			return nil, err
		}
		snap := &entities.TableSnapshot{Rows: rows, FetchedAt: s.now()}

		s.mu.Lock()
		if s.generation.Load() == gen {
			s.store.SetSnapshot(ctx, s.key, snap, s.window)
		}
		s.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Debug("Snapshot read shared between callers", "generation", gen)
	}
	return v.(*entities.TableSnapshot).Rows, nil
}

// Invalidate drops the stored snapshot. The next Get reads the table.
func (s *SnapshotService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.generation.Add(1)
	s.store.Delete(ctx, s.key)
	s.mu.Unlock()
}

func (s *SnapshotService) fresh(snap *entities.TableSnapshot) bool {
	if snap == nil {
		return false
	}
	age := s.now().Sub(snap.FetchedAt)
	return age >= 0 && age < s.window
}
