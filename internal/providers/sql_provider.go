package providers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/db"
	"forage-map/orchard/internal/models/entities"
	"forage-map/orchard/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLProvider implements TableProvider on a relational table through GORM
type SQLProvider struct {
	db    *gormlib.DB
	table string
}

// OpenSQLProvider connects to the DSN and binds the provider to table
func OpenSQLProvider(ctx context.Context, dsn, table string) (*SQLProvider, error) {
	conn, err := db.OpenORM(ctx, dsn)
	if err != nil {
		return nil, newTableError(ErrConnection, constants.ErrCodeInvalidLocation, err, "")
	}
	p, err := NewSQLProvider(conn, table)
	if err != nil {
		if sqlDB, dbErr := conn.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return p, nil
}

// NewSQLProvider wraps an open connection
func NewSQLProvider(conn *gormlib.DB, table string) (*SQLProvider, error) {
	if table == "" {
		table = constants.DefaultSheetName
	}
	if !tableNamePattern.MatchString(table) {
		return nil, newTableError(ErrConnection, constants.ErrCodeInvalidLocation, nil, fmt.Sprintf("table name %q", table))
	}
	return &SQLProvider{db: conn, table: table}, nil
}

// Close closes the underlying database connection
func (p *SQLProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetProviderType returns the provider type identifier
func (p *SQLProvider) GetProviderType() string {
	return "sql"
}

func (p *SQLProvider) query(ctx context.Context) *gormlib.DB {
	return p.db.WithContext(ctx).Table(p.table)
}

// EnsureHeader creates the table or adds missing columns. Existing rows
// and columns are left alone.
func (p *SQLProvider) EnsureHeader(ctx context.Context) error {
	if err := p.query(ctx).AutoMigrate(&gorm.PointRow{}); err != nil {
		return newTableError(ErrSchema, constants.ErrCodeHeaderRepairErr, err, p.table)
	}
	return nil
}

// ReadAll returns every row ordered by insertion
func (p *SQLProvider) ReadAll(ctx context.Context) ([]entities.TableRow, error) {
	var records []gorm.PointRow
	if err := p.query(ctx).Order("row_no asc").Find(&records).Error; err != nil {
		return nil, newTableError(ErrConnection, constants.ErrCodeReadFailed, err, p.table)
	}

	rows := make([]entities.TableRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, pointRowToTableRow(rec))
	}
	return rows, nil
}

func pointRowToTableRow(rec gorm.PointRow) entities.TableRow {
	values := map[string]string{
		constants.ColumnID:        rec.PointID,
		constants.ColumnName:      rec.Name,
		constants.ColumnLat:       rec.Lat,
		constants.ColumnLon:       rec.Lon,
		constants.ColumnSeasons:   rec.Seasons,
		constants.ColumnIsDeleted: rec.IsDeleted,
		constants.ColumnUpdatedAt: rec.UpdatedAt,
	}
	backfill(values)
	return entities.TableRow{
		Ref:    entities.RowRef{Index: int(rec.RowNo)},
		Values: values,
	}
}

// Append inserts one row
func (p *SQLProvider) Append(ctx context.Context, values map[string]string) error {
	rec := gorm.PointRow{
		PointID:   values[constants.ColumnID],
		Name:      values[constants.ColumnName],
		Lat:       values[constants.ColumnLat],
		Lon:       values[constants.ColumnLon],
		Seasons:   values[constants.ColumnSeasons],
		IsDeleted: values[constants.ColumnIsDeleted],
		UpdatedAt: values[constants.ColumnUpdatedAt],
	}
	if err := p.query(ctx).Create(&rec).Error; err != nil {
		return newTableError(ErrWrite, constants.ErrCodeAppendFailed, err, p.table)
	}
	return nil
}

// LocateRow finds the first row carrying the id
func (p *SQLProvider) LocateRow(ctx context.Context, id string) (entities.TableRow, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.TableRow{}, newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, "empty id")
	}

	var rec gorm.PointRow
	err := p.query(ctx).Where("id = ?", id).Order("row_no asc").First(&rec).Error
	if errors.Is(err, gormlib.ErrRecordNotFound) {
		return entities.TableRow{}, newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, id)
	}
	if err != nil {
		return entities.TableRow{}, newTableError(ErrConnection, constants.ErrCodeReadFailed, err, p.table)
	}
	return pointRowToTableRow(rec), nil
}

// UpdateCells updates the given columns of one row in a single statement
func (p *SQLProvider) UpdateCells(ctx context.Context, ref entities.RowRef, updates map[string]string) error {
	if ref.Index < 1 {
		return newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, fmt.Sprintf("row %d", ref.Index))
	}
	if len(updates) == 0 {
		return nil
	}

	var unknown []string
	changes := make(map[string]interface{}, len(updates))
	for c, v := range updates {
		if !constants.IsKnownColumn(c) {
			unknown = append(unknown, c)
			continue
		}
		changes[c] = v
	}
	if len(unknown) > 0 {
		// The schema is the model; a repair cannot add foreign columns,
		// but it does create the table if it vanished.
		if err := p.EnsureHeader(ctx); err != nil {
			return err
		}
		sort.Strings(unknown)
		return newTableError(ErrSchema, constants.ErrCodeColumnNotFound, nil, strings.Join(unknown, ", "))
	}

	res := p.query(ctx).Where("row_no = ?", ref.Index).Updates(changes)
	if res.Error != nil {
		return newTableError(ErrWrite, constants.ErrCodeUpdateFailed, res.Error, p.table)
	}
	if res.RowsAffected == 0 {
		return newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, fmt.Sprintf("row %d", ref.Index))
	}
	return nil
}
