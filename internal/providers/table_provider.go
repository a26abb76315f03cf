package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/models/entities"
)

// TableProvider is the single point of contact with the store holding the
// points table. Implementations never retry; failures surface to the caller.
type TableProvider interface {
	// EnsureHeader rewrites the header when it is empty or lacks a required
	// column. Data rows are never touched.
	EnsureHeader(ctx context.Context) error

	// ReadAll returns every row, soft-deleted ones included, in storage order
	ReadAll(ctx context.Context) ([]entities.TableRow, error)

	// Append adds one row after the last one
	Append(ctx context.Context, values map[string]string) error

	// LocateRow scans the table for the row whose id column equals id and
	// returns it with its position
	LocateRow(ctx context.Context, id string) (entities.TableRow, error)

	// UpdateCells writes the given columns of a single row
	UpdateCells(ctx context.Context, ref entities.RowRef, updates map[string]string) error

	// GetProviderType returns the provider type identifier
	GetProviderType() string
}

// CloseTable releases the backend connection of t when it holds one.
func CloseTable(t TableProvider) error {
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Error kinds, matched with errors.Is.
var (
	ErrConnection = errors.New("table connection failed")
	ErrSchema     = errors.New("table schema invalid")
	ErrNotFound   = errors.New("row not found")
	ErrWrite      = errors.New("table write failed")
)

// TableError represents a backend-specific failure
type TableError struct {
	Kind    error
	Code    string
	Message string
	Details string
	Err     error
}

func newTableError(kind error, code string, err error, details string) *TableError {
	return &TableError{
		Kind:    kind,
		Code:    code,
		Message: constants.GetErrorMessage(code),
		Details: details,
		Err:     err,
	}
}

func (e *TableError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TableError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// headerComplete reports whether every canonical column is present.
func headerComplete(header []string) bool {
	return len(missingColumns(header)) == 0
}

func missingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = struct{}{}
	}

	var missing []string
	for _, c := range constants.TableHeader {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// buildRow maps cells onto header names and backfills optional columns.
// ok is false for a row whose cells are all blank.
func buildRow(header []string, cells []string, ref entities.RowRef) (entities.TableRow, bool) {
	values := make(map[string]string, len(constants.TableHeader))
	blank := true
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		if strings.TrimSpace(v) != "" {
			blank = false
		}
		values[name] = v
	}
	if blank {
		return entities.TableRow{}, false
	}

	backfill(values)
	return entities.TableRow{Ref: ref, Values: values}, true
}

// backfill sets default values for missing or empty optional columns and
// an empty string for the remaining canonical ones.
func backfill(values map[string]string) {
	for _, c := range constants.TableHeader {
		v, ok := values[c]
		if def, optional := constants.ColumnDefaults[c]; optional && (!ok || strings.TrimSpace(v) == "") {
			values[c] = def
			continue
		}
		if !ok {
			values[c] = ""
		}
	}
}

// findByID is the linear scan shared by the backends without a native lookup.
// O(n) in the number of rows.
func findByID(rows []entities.TableRow, id string) (entities.TableRow, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.TableRow{}, newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, "empty id")
	}
	for _, row := range rows {
		if strings.TrimSpace(row.Get(constants.ColumnID)) == id {
			return row, nil
		}
	}
	return entities.TableRow{}, newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, id)
}
