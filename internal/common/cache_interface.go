package common

import (
	"context"
	"time"

	"forage-map/orchard/internal/models/entities"
)

// CacheInterface defines the contract for snapshot cache implementations
type CacheInterface interface {
	// SetSnapshot stores a table snapshot under key for the given duration
	SetSnapshot(ctx context.Context, key string, snap *entities.TableSnapshot, duration time.Duration)

	// GetSnapshot retrieves a snapshot by key
	// Returns the snapshot and true if found, nil and false otherwise
	GetSnapshot(ctx context.Context, key string) (*entities.TableSnapshot, bool)

	// Delete removes a value from cache by key
	Delete(ctx context.Context, key string)

	// Name identifies the backend in logs and health output
	Name() string

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}
