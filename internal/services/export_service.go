package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/models/entities"

	"github.com/jszwec/csvutil"
)

// ExportFileName is the suggested download name for the CSV export.
const ExportFileName = "points.csv"

// ExportRow is the public projection of a point: the persisted columns
// without id and is_deleted.
type ExportRow struct {
	Name      string `csv:"name"`
	Lat       string `csv:"lat"`
	Lon       string `csv:"lon"`
	Seasons   string `csv:"seasons"`
	UpdatedAt string `csv:"updated_at"`
}

type ExportService struct {
	points *PointService
}

func NewExportService(points *PointService) *ExportService {
	return &ExportService{points: points}
}

// WriteCSV writes the active points matching f, header first. No matching
// point still yields the header line.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, f entities.PointFilter) error {
	points, err := s.points.ListActive(ctx)
	if err != nil {
		return err
	}
	points = FilterPoints(points, f)

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(points) == 0 {
		if err := enc.EncodeHeader(ExportRow{}); err != nil {
			return fmt.Errorf("encode csv header: %w", err)
		}
	}
	for _, p := range points {
		row := ExportRow{
			Name:      p.Name,
			Lat:       strconv.FormatFloat(p.Lat, 'f', -1, 64),
			Lon:       strconv.FormatFloat(p.Lon, 'f', -1, 64),
			Seasons:   strings.Join(p.Seasons, constants.SeasonSeparator),
			UpdatedAt: p.UpdatedAt,
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode csv row %s: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
