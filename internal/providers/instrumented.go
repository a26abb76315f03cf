package providers

import (
	"context"
	"time"

	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/metrics"
	"forage-map/orchard/internal/models/entities"
)

// InstrumentedTable wraps a TableProvider with call metrics and warning logs
type InstrumentedTable struct {
	inner   TableProvider
	metrics *metrics.MetricsRegistry
}

// NewInstrumentedTable decorates inner. A nil registry only logs.
func NewInstrumentedTable(inner TableProvider, m *metrics.MetricsRegistry) *InstrumentedTable {
	return &InstrumentedTable{inner: inner, metrics: m}
}

// Close closes the wrapped provider when it holds a connection
func (t *InstrumentedTable) Close() error {
	return CloseTable(t.inner)
}

func (t *InstrumentedTable) GetProviderType() string {
	return t.inner.GetProviderType()
}

func (t *InstrumentedTable) observe(op string, start time.Time, err error) {
	took := time.Since(start)
	t.metrics.ObserveTableCall(t.inner.GetProviderType(), op, err, took)
	if err != nil {
		logging.Warn("Table call failed",
			"backend", t.inner.GetProviderType(),
			"operation", op,
			"duration", took,
			"error", err,
		)
	}
}

func (t *InstrumentedTable) EnsureHeader(ctx context.Context) error {
	start := time.Now()
	err := t.inner.EnsureHeader(ctx)
	t.observe("ensure_header", start, err)
	return err
}

func (t *InstrumentedTable) ReadAll(ctx context.Context) ([]entities.TableRow, error) {
	start := time.Now()
	rows, err := t.inner.ReadAll(ctx)
	t.observe("read_all", start, err)
	return rows, err
}

func (t *InstrumentedTable) Append(ctx context.Context, values map[string]string) error {
	start := time.Now()
	err := t.inner.Append(ctx, values)
	t.observe("append", start, err)
	return err
}

func (t *InstrumentedTable) LocateRow(ctx context.Context, id string) (entities.TableRow, error) {
	start := time.Now()
	row, err := t.inner.LocateRow(ctx, id)
	t.observe("locate_row", start, err)
	return row, err
}

func (t *InstrumentedTable) UpdateCells(ctx context.Context, ref entities.RowRef, updates map[string]string) error {
	start := time.Now()
	err := t.inner.UpdateCells(ctx, ref, updates)
	t.observe("update_cells", start, err)
	return err
}
