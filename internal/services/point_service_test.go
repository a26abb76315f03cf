package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/metrics"
	"forage-map/orchard/internal/models/entities"
	"forage-map/orchard/internal/providers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPointService_AddThenList(t *testing.T) {
	table := newFakeTable()
	points, _, _ := newTestServices(table)
	points.newID = func() string { return "id-1" }
	ctx := context.Background()

	before, err := points.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("Expected empty table, got %d points", len(before))
	}

	p, err := points.Add(ctx, entities.NewPoint{
		Name:    "Pomme",
		Lat:     46.5191,
		Lon:     6.6323,
		Seasons: []string{"automne"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if p.ID != "id-1" || p.UpdatedAt != "2024-09-21T12:00:00Z" || p.Kind != constants.KindTree {
		t.Errorf("Unexpected point: %+v", p)
	}

	// The write invalidates the snapshot, so the writer sees it at once.
	after, err := points.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(after))
	}
	got := after[0]
	if got.Name != "Pomme" || got.Lat != 46.5191 || got.Lon != 6.6323 {
		t.Errorf("Unexpected point: %+v", got)
	}
	if len(got.Seasons) != 1 || got.Seasons[0] != "automne" {
		t.Errorf("Unexpected seasons: %v", got.Seasons)
	}

	stored := table.rows[0]
	if stored[constants.ColumnIsDeleted] != "0" || stored[constants.ColumnLat] != "46.519100" || stored[constants.ColumnSeasons] != "automne" {
		t.Errorf("Unexpected stored row: %v", stored)
	}
}

func TestPointService_SoftDelete(t *testing.T) {
	table := newFakeTable(
		row("a", "Pomme", "46.5", "6.6", "automne", "0"),
		row("b", "Bolets", "46.6", "6.7", "automne", "0"),
	)
	points, _, clock := newTestServices(table)
	ctx := context.Background()

	active, _ := points.ListActive(ctx)
	if len(active) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(active))
	}

	clock.Advance(time.Hour)
	if err := points.SoftDelete(ctx, "a"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	active, _ = points.ListActive(ctx)
	if len(active) != 1 || active[0].ID != "b" {
		t.Errorf("Expected only b active, got %+v", active)
	}

	// The row is still there, flagged and stamped.
	all, err := points.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 rows in the table, got %d", len(all))
	}
	if all[0].Get(constants.ColumnIsDeleted) != "1" || all[0].Get(constants.ColumnUpdatedAt) != "2024-09-21T13:00:00Z" {
		t.Errorf("Unexpected deleted row: %v", all[0].Values)
	}
	if all[0].Get(constants.ColumnName) != "Pomme" || all[0].Get(constants.ColumnLat) != "46.5" {
		t.Errorf("Soft delete changed other columns: %v", all[0].Values)
	}
	if table.updates != 1 {
		t.Errorf("Expected a single update call, got %d", table.updates)
	}
}

func TestPointService_SoftDelete_UnknownID(t *testing.T) {
	table := newFakeTable(row("a", "Pomme", "46.5", "6.6", "", "0"))
	points, _, _ := newTestServices(table)
	ctx := context.Background()

	err := points.SoftDelete(ctx, "does-not-exist")
	if !errors.Is(err, providers.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if table.updates != 0 {
		t.Errorf("Expected no write, got %d", table.updates)
	}

	active, _ := points.ListActive(ctx)
	if len(active) != 1 {
		t.Errorf("Expected table unchanged, got %d active", len(active))
	}
}

func TestPointService_SoftDelete_Twice(t *testing.T) {
	table := newFakeTable(row("a", "Pomme", "46.5", "6.6", "", "0"))
	points, _, clock := newTestServices(table)
	ctx := context.Background()

	if err := points.SoftDelete(ctx, "a"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	stamped := table.rows[0][constants.ColumnUpdatedAt]

	clock.Advance(time.Hour)
	err := points.SoftDelete(ctx, "a")
	if !errors.Is(err, providers.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for a deleted point, got %v", err)
	}
	if table.updates != 1 {
		t.Errorf("Expected no second write, got %d updates", table.updates)
	}
	if got := table.rows[0][constants.ColumnUpdatedAt]; got != stamped {
		t.Errorf("updated_at rewritten: %s -> %s", stamped, got)
	}
}

func TestPointService_SoftDelete_StoredFlagVariants(t *testing.T) {
	table := newFakeTable(row("a", "Pomme", "46.5", "6.6", "", "1,0"))
	points, _, _ := newTestServices(table)

	if err := points.SoftDelete(context.Background(), "a"); !errors.Is(err, providers.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if table.updates != 0 {
		t.Errorf("Expected no write, got %d", table.updates)
	}
}

func TestPointService_ListActive_DropsBadRows(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsRegistry(reg)

	table := newFakeTable(
		row("a", "Pomme", "abc", "6.6", "", "0"),
		row("b", "Poire", "46,5191", "6,6323", "été|automne", " 0 "),
		row("c", "Figue", "46.1", "", "", "0"),
		row("d", "Kaki", "46.1", "6.1", "", "1,0"),
		row("e", "Noix", "46.2", "6.2", "", "garbage"),
	)
	points, _, _ := newTestServices(table)
	points.metrics = m
	points.snapshot.metrics = m

	active, err := points.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 || active[0].ID != "b" || active[1].ID != "e" {
		t.Fatalf("Expected b and e, got %+v", active)
	}
	if active[0].Lat != 46.5191 || active[0].Lon != 6.6323 {
		t.Errorf("Unexpected coordinates: %v, %v", active[0].Lat, active[0].Lon)
	}
	if len(active[0].Seasons) != 2 {
		t.Errorf("Unexpected seasons: %v", active[0].Seasons)
	}

	if got := testutil.ToFloat64(m.RowsDroppedTotal.WithLabelValues("invalid_coordinate")); got != 2 {
		t.Errorf("Expected 2 dropped rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.PointsActive); got != 2 {
		t.Errorf("Expected active gauge 2, got %v", got)
	}
}

func TestPointService_ListActive_UsesSnapshot(t *testing.T) {
	table := newFakeTable(row("a", "Pomme", "46.5", "6.6", "", "0"))
	points, _, clock := newTestServices(table)
	ctx := context.Background()

	_, _ = points.ListActive(ctx)
	clock.Advance(5 * time.Second)
	_, _ = points.ListActive(ctx)
	if table.readCount() != 1 {
		t.Errorf("Expected 1 read, got %d", table.readCount())
	}

	points.InvalidateCache(ctx)
	_, _ = points.ListActive(ctx)
	if table.readCount() != 2 {
		t.Errorf("Expected a read after invalidation, got %d", table.readCount())
	}
}

func TestPointService_Add_FailureKeepsCache(t *testing.T) {
	table := newFakeTable(row("a", "Pomme", "46.5", "6.6", "", "0"))
	points, _, _ := newTestServices(table)
	ctx := context.Background()

	_, _ = points.ListActive(ctx)

	table.appendErr = &providers.TableError{Kind: providers.ErrWrite, Code: constants.ErrCodeAppendFailed}
	_, err := points.Add(ctx, entities.NewPoint{Name: "Poire", Lat: 1, Lon: 1})
	if !errors.Is(err, providers.ErrWrite) {
		t.Fatalf("Expected ErrWrite, got %v", err)
	}

	_, _ = points.ListActive(ctx)
	if table.readCount() != 1 {
		t.Errorf("Failed append must not invalidate, got %d reads", table.readCount())
	}
}

func TestPointService_Add_Validation(t *testing.T) {
	table := newFakeTable()
	points, _, _ := newTestServices(table)
	ctx := context.Background()

	tests := []struct {
		name string
		in   entities.NewPoint
	}{
		{name: "NaN lat", in: entities.NewPoint{Name: "Pomme", Lat: math.NaN(), Lon: 1}},
		{name: "Inf lon", in: entities.NewPoint{Name: "Pomme", Lat: 1, Lon: math.Inf(1)}},
		{name: "separator in season", in: entities.NewPoint{Name: "Pomme", Lat: 1, Lon: 1, Seasons: []string{"été|automne"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := points.Add(ctx, tt.in)
			if !errors.Is(err, ErrInvalidPoint) {
				t.Errorf("Expected ErrInvalidPoint, got %v", err)
			}
		})
	}
	if table.appends != 0 {
		t.Errorf("Expected no append, got %d", table.appends)
	}
}

func TestPointService_Add_NormalizesInput(t *testing.T) {
	table := newFakeTable()
	points, _, _ := newTestServices(table)

	p, err := points.Add(context.Background(), entities.NewPoint{
		Name:    "  Morilles ",
		Lat:     46,
		Lon:     6,
		Seasons: []string{" printemps ", "", "printemps", "été"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if p.Name != "Morilles" || p.Kind != constants.KindMushroom {
		t.Errorf("Unexpected name/kind: %q %q", p.Name, p.Kind)
	}
	if got := table.rows[0][constants.ColumnSeasons]; got != "printemps|été" {
		t.Errorf("Unexpected stored seasons %q", got)
	}
}

func TestPointService_Add_UniqueIDs(t *testing.T) {
	table := newFakeTable()
	points, _, _ := newTestServices(table)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p, err := points.Add(ctx, entities.NewPoint{Name: "Noisette", Lat: 1, Lon: 1})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if seen[p.ID] {
			t.Fatalf("Duplicate id %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestFilterPoints(t *testing.T) {
	points := []entities.Point{
		{ID: "1", Name: "Pomme", Seasons: []string{"automne"}},
		{ID: "2", Name: "Bolets", Seasons: []string{"été", "automne"}},
		{ID: "3", Name: "Morilles", Seasons: []string{"printemps"}},
		{ID: "4", Name: "Pomme", Seasons: []string{}},
	}

	tests := []struct {
		name   string
		filter entities.PointFilter
		want   []string
	}{
		{name: "no filter", filter: entities.PointFilter{}, want: []string{"1", "2", "3", "4"}},
		{name: "category", filter: entities.PointFilter{Categories: []string{"Pomme"}}, want: []string{"1", "4"}},
		{name: "season", filter: entities.PointFilter{Seasons: []string{"automne"}}, want: []string{"1", "2"}},
		{name: "any season", filter: entities.PointFilter{Seasons: []string{"printemps", "été"}}, want: []string{"2", "3"}},
		{name: "both", filter: entities.PointFilter{Categories: []string{"Bolets", "Pomme"}, Seasons: []string{"été"}}, want: []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPoints(points, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %+v", tt.want, got)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestCountByCategory(t *testing.T) {
	stats := CountByCategory([]entities.Point{{Name: "Pomme"}, {Name: "Pomme"}, {Name: "Bolets"}})
	if stats.Total != 3 || stats.Counts["Pomme"] != 2 || stats.Counts["Bolets"] != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
