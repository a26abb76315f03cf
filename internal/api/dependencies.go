package api

import (
	"context"
	"errors"
	"fmt"

	"forage-map/orchard/internal/common"
	"forage-map/orchard/internal/config"
	"forage-map/orchard/internal/metrics"
	"forage-map/orchard/internal/providers"
	"forage-map/orchard/internal/services"
)

type Services struct {
	Snapshot *services.SnapshotService
	Points   *services.PointService
	Export   *services.ExportService
}

type Dependencies struct {
	Config   *config.Config
	Table    providers.TableProvider
	Cache    common.CacheInterface
	Metrics  *metrics.MetricsRegistry
	Services *Services
}

// InitDependencies opens the snapshot store and the table and wires the
// services on top of them.
func InitDependencies(ctx context.Context, cfg *config.Config, m *metrics.MetricsRegistry) (*Dependencies, error) {
	cache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	table, err := providers.OpenTable(ctx, cfg.Table, m)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	return NewDependencies(cfg, table, cache, m), nil
}

// NewDependencies wires the services over an already open table and cache.
func NewDependencies(cfg *config.Config, table providers.TableProvider, cache common.CacheInterface, m *metrics.MetricsRegistry) *Dependencies {
	key := services.SnapshotKey(cfg.Table.Backend, cfg.Table.Location, cfg.Table.Sheet)
	snapshot := services.NewSnapshotService(table, cache, key, cfg.Cache.TTL, m)
	points := services.NewPointService(table, snapshot, m)

	return &Dependencies{
		Config:  cfg,
		Table:   table,
		Cache:   cache,
		Metrics: m,
		Services: &Services{
			Snapshot: snapshot,
			Points:   points,
			Export:   services.NewExportService(points),
		},
	}
}

// Close releases the snapshot store and the table connection.
func (d *Dependencies) Close() error {
	var errs []error
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	if d.Table != nil {
		errs = append(errs, providers.CloseTable(d.Table))
	}
	return errors.Join(errs...)
}

func openCache(ctx context.Context, cfg config.CacheConfig) (common.CacheInterface, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		c, err := common.NewRedisCacheService(ctx, common.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis snapshot store: %w", err)
		}
		return c, nil
	default:
		return common.NewCacheService(cfg.TTL, 2*cfg.TTL), nil
	}
}
