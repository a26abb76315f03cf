package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"forage-map/orchard/internal/common"
	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/models/entities"
	"forage-map/orchard/internal/providers"
)

// fakeTable is an in-memory TableProvider that counts reads and can be told
// to fail.
type fakeTable struct {
	mu sync.Mutex

	rows      []map[string]string
	reads     int
	appends   int
	updates   int
	readDelay time.Duration

	readErr   error
	appendErr error
	updateErr error
}

func newFakeTable(rows ...map[string]string) *fakeTable {
	return &fakeTable{rows: rows}
}

func (f *fakeTable) GetProviderType() string { return "fake" }

func (f *fakeTable) EnsureHeader(ctx context.Context) error { return nil }

func (f *fakeTable) ReadAll(ctx context.Context) ([]entities.TableRow, error) {
	if f.readDelay > 0 {
		time.Sleep(f.readDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}

	out := make([]entities.TableRow, 0, len(f.rows))
	for i, r := range f.rows {
		values := make(map[string]string, len(r))
		for k, v := range r {
			values[k] = v
		}
		out = append(out, entities.TableRow{Ref: entities.RowRef{Index: i + 2}, Values: values})
	}
	return out, nil
}

func (f *fakeTable) Append(ctx context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appendErr != nil {
		return f.appendErr
	}
	f.appends++
	row := make(map[string]string, len(values))
	for k, v := range values {
		row[k] = v
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeTable) LocateRow(ctx context.Context, id string) (entities.TableRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, r := range f.rows {
		if strings.TrimSpace(r[constants.ColumnID]) == strings.TrimSpace(id) && id != "" {
			values := make(map[string]string, len(r))
			for k, v := range r {
				values[k] = v
			}
			return entities.TableRow{Ref: entities.RowRef{Index: i + 2}, Values: values}, nil
		}
	}
	return entities.TableRow{}, &providers.TableError{
		Kind:    providers.ErrNotFound,
		Code:    constants.ErrCodeRowNotFound,
		Message: constants.GetErrorMessage(constants.ErrCodeRowNotFound),
		Details: id,
	}
}

func (f *fakeTable) UpdateCells(ctx context.Context, ref entities.RowRef, updates map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	i := ref.Index - 2
	if i < 0 || i >= len(f.rows) {
		return fmt.Errorf("row %d: %w", ref.Index, providers.ErrNotFound)
	}
	f.updates++
	for k, v := range updates {
		f.rows[i][k] = v
	}
	return nil
}

func (f *fakeTable) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 9, 21, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func row(id, name, lat, lon, seasons, deleted string) map[string]string {
	return map[string]string{
		constants.ColumnID:        id,
		constants.ColumnName:      name,
		constants.ColumnLat:       lat,
		constants.ColumnLon:       lon,
		constants.ColumnSeasons:   seasons,
		constants.ColumnIsDeleted: deleted,
		constants.ColumnUpdatedAt: "2024-09-01T00:00:00Z",
	}
}

// newTestServices wires a point service over table with an hour-long cache
// and a fake clock for the snapshot window.
func newTestServices(table *fakeTable) (*PointService, *SnapshotService, *fakeClock) {
	clock := newFakeClock()
	store := common.NewCacheService(time.Hour, time.Hour)
	snapshot := NewSnapshotService(table, store, "", 10*time.Second, nil)
	snapshot.now = clock.Now

	points := NewPointService(table, snapshot, nil)
	points.now = clock.Now
	return points, snapshot, clock
}
