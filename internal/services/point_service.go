package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"forage-map/orchard/internal/common"
	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/metrics"
	"forage-map/orchard/internal/models/entities"
	"forage-map/orchard/internal/providers"

	"github.com/google/uuid"
)

// ErrInvalidPoint is matched by every PointError
var ErrInvalidPoint = errors.New("invalid point")

// PointError represents a rejected point submission
type PointError struct {
	Code    string
	Message string
	Field   string
}

func (e *PointError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *PointError) Is(target error) bool {
	return target == ErrInvalidPoint
}

// PointService is the only place that knows what an active point is. Reads
// go through the snapshot; every write invalidates it.
type PointService struct {
	table    providers.TableProvider
	snapshot *SnapshotService
	metrics  *metrics.MetricsRegistry

	newID func() string
	now   func() time.Time
}

func NewPointService(table providers.TableProvider, snapshot *SnapshotService, m *metrics.MetricsRegistry) *PointService {
	return &PointService{
		table:    table,
		snapshot: snapshot,
		metrics:  m,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// ListActive returns the points that are not soft-deleted, in storage order.
// Rows with unreadable coordinates are skipped and counted.
func (s *PointService) ListActive(ctx context.Context) ([]entities.Point, error) {
	rows, err := s.snapshot.Get(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]entities.Point, 0, len(rows))
	for _, row := range rows {
		if common.NormalizeDeletedFlag(row.Get(constants.ColumnIsDeleted)) == constants.DeletedFlagDeleted {
			continue
		}
		p, err := rowToPoint(row)
		if err != nil {
			s.metrics.RowDropped("invalid_coordinate")
			logging.Debug("Skipping row with bad coordinates",
				"id", row.Get(constants.ColumnID),
				"row", row.Ref.Index,
				"error", err,
			)
			continue
		}
		points = append(points, p)
	}

	s.metrics.SetActivePoints(len(points))
	return points, nil
}

// ListAll returns every row, soft-deleted ones included.
func (s *PointService) ListAll(ctx context.Context) ([]entities.TableRow, error) {
	return s.snapshot.Get(ctx)
}

// Add stores a new point and invalidates the snapshot. A failed append
// leaves the snapshot untouched.
func (s *PointService) Add(ctx context.Context, in entities.NewPoint) (*entities.Point, error) {
	if err := checkCoordinate("lat", in.Lat); err != nil {
		return nil, err
	}
	if err := checkCoordinate("lon", in.Lon); err != nil {
		return nil, err
	}
	seasons, err := normalizeSeasons(in.Seasons)
	if err != nil {
		return nil, err
	}

	p := entities.Point{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		Lat:       in.Lat,
		Lon:       in.Lon,
		Seasons:   seasons,
		UpdatedAt: common.FormatTimestamp(s.now()),
	}
	p.Kind = constants.KindOf(p.Name)

	values := map[string]string{
		constants.ColumnID:        p.ID,
		constants.ColumnName:      p.Name,
		constants.ColumnLat:       common.FormatCoordinate(p.Lat),
		constants.ColumnLon:       common.FormatCoordinate(p.Lon),
		constants.ColumnSeasons:   common.SerializeSeasons(p.Seasons),
		constants.ColumnIsDeleted: constants.DeletedFlagActive,
		constants.ColumnUpdatedAt: p.UpdatedAt,
	}
	if err := s.table.Append(ctx, values); err != nil {
		return nil, err
	}

	s.snapshot.Invalidate(ctx)
	s.metrics.PointAdded()
	logging.Info("Point added", "id", p.ID, "name", p.Name)
	return &p, nil
}

// SoftDelete flags an active point as deleted. An unknown or already
// deleted id yields an error matching providers.ErrNotFound and nothing is
// written.
func (s *PointService) SoftDelete(ctx context.Context, id string) error {
	row, err := s.table.LocateRow(ctx, id)
	if err != nil {
		return err
	}
	if common.NormalizeDeletedFlag(row.Get(constants.ColumnIsDeleted)) == constants.DeletedFlagDeleted {
		return &providers.TableError{
			Kind:    providers.ErrNotFound,
			Code:    constants.ErrCodeRowNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeRowNotFound),
			Details: id + " already deleted",
		}
	}

	updates := map[string]string{
		constants.ColumnIsDeleted: constants.DeletedFlagDeleted,
		constants.ColumnUpdatedAt: common.FormatTimestamp(s.now()),
	}
	if err := s.table.UpdateCells(ctx, row.Ref, updates); err != nil {
		return err
	}

	s.snapshot.Invalidate(ctx)
	s.metrics.PointDeleted()
	logging.Info("Point soft-deleted", "id", id)
	return nil
}

// InvalidateCache forces the next read to hit the table.
func (s *PointService) InvalidateCache(ctx context.Context) {
	s.snapshot.Invalidate(ctx)
}

// FilterPoints keeps points whose name is in Categories and that carry at
// least one of Seasons. An empty list in the filter matches everything.
func FilterPoints(points []entities.Point, f entities.PointFilter) []entities.Point {
	out := make([]entities.Point, 0, len(points))
	for _, p := range points {
		if len(f.Categories) > 0 && !common.ContainsString(f.Categories, p.Name) {
			continue
		}
		if len(f.Seasons) > 0 && !common.ContainsAny(p.Seasons, f.Seasons) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CountByCategory tallies points per name.
func CountByCategory(points []entities.Point) entities.CategoryStats {
	stats := entities.CategoryStats{
		Total:  len(points),
		Counts: make(map[string]int),
	}
	for _, p := range points {
		stats.Counts[p.Name]++
	}
	return stats
}

func rowToPoint(row entities.TableRow) (entities.Point, error) {
	lat, err := common.ParseCoordinate(row.Get(constants.ColumnLat))
	if err != nil {
		return entities.Point{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := common.ParseCoordinate(row.Get(constants.ColumnLon))
	if err != nil {
		return entities.Point{}, fmt.Errorf("lon: %w", err)
	}

	name := strings.TrimSpace(row.Get(constants.ColumnName))
	return entities.Point{
		ID:        strings.TrimSpace(row.Get(constants.ColumnID)),
		Name:      name,
		Kind:      constants.KindOf(name),
		Lat:       lat,
		Lon:       lon,
		Seasons:   common.ParseSeasons(row.Get(constants.ColumnSeasons)),
		UpdatedAt: row.Get(constants.ColumnUpdatedAt),
	}, nil
}

func checkCoordinate(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &PointError{
			Code:    constants.ErrCodeInvalidCoordinate,
			Message: constants.GetErrorMessage(constants.ErrCodeInvalidCoordinate),
			Field:   field,
		}
	}
	return nil
}

// normalizeSeasons trims tags and drops blanks and duplicates, keeping the
// first occurrence order.
func normalizeSeasons(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if strings.Contains(tag, constants.SeasonSeparator) {
			return nil, &PointError{
				Code:    constants.ErrCodeInvalidDataFormat,
				Message: fmt.Sprintf("season tag %q contains %q", tag, constants.SeasonSeparator),
				Field:   "seasons",
			}
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}

// SortByName orders points by name then id, for stable CLI output.
func SortByName(points []entities.Point) {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return points[i].ID < points[j].ID
	})
}
