package services

import (
	"context"
	"strings"
	"testing"

	"forage-map/orchard/internal/models/entities"
)

func TestExportService_WriteCSV(t *testing.T) {
	table := newFakeTable(
		row("a", "Pomme", "46,5191", "6.6323", "été|automne", "0"),
		row("b", "Bolets", "46.1", "6.1", "automne", "1"),
		row("c", "Figue", "bad", "6.1", "", "0"),
		row("d", "Noix", "46.2", "6.2", "", "0"),
	)
	points, _, _ := newTestServices(table)
	export := NewExportService(points)

	var buf strings.Builder
	if err := export.WriteCSV(context.Background(), &buf, entities.PointFilter{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "name,lat,lon,seasons,updated_at\n" +
		"Pomme,46.5191,6.6323,été|automne,2024-09-01T00:00:00Z\n" +
		"Noix,46.2,6.2,,2024-09-01T00:00:00Z\n"
	if buf.String() != want {
		t.Errorf("Unexpected CSV:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestExportService_WriteCSV_EmptyKeepsHeader(t *testing.T) {
	table := newFakeTable(row("a", "Pomme", "1", "1", "", "0"))
	points, _, _ := newTestServices(table)
	export := NewExportService(points)

	var buf strings.Builder
	err := export.WriteCSV(context.Background(), &buf, entities.PointFilter{Categories: []string{"Kiwi"}})
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "name,lat,lon,seasons,updated_at\n" {
		t.Errorf("Unexpected CSV %q", buf.String())
	}
}
