package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/models/entities"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var (
	spreadsheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	spreadsheetKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SheetsProvider implements TableProvider for a Google Sheets worksheet
type SheetsProvider struct {
	srv           *sheets.Service
	spreadsheetID string
	sheet         string
}

// ResolveSpreadsheetID accepts a full spreadsheet URL or a bare key.
func ResolveSpreadsheetID(location string) (string, error) {
	location = strings.TrimSpace(location)
	if m := spreadsheetURLPattern.FindStringSubmatch(location); m != nil {
		return m[1], nil
	}
	if spreadsheetKeyPattern.MatchString(location) {
		return location, nil
	}
	return "", newTableError(ErrConnection, constants.ErrCodeInvalidLocation, nil, location)
}

// OpenSheetsProvider connects to the spreadsheet and makes sure the
// worksheet exists. Credentials are passed as client options.
func OpenSheetsProvider(ctx context.Context, location, sheet string, opts ...option.ClientOption) (*SheetsProvider, error) {
	id, err := ResolveSpreadsheetID(location)
	if err != nil {
		return nil, err
	}
	if sheet == "" {
		sheet = constants.DefaultSheetName
	}

	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, newTableError(ErrConnection, constants.ErrCodeInvalidCredentials, err, "")
	}

	p := &SheetsProvider{
		srv:           srv,
		spreadsheetID: id,
		sheet:         sheet,
	}

	if err := p.ensureWorksheet(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProviderType returns the provider type identifier
func (p *SheetsProvider) GetProviderType() string {
	return "sheets"
}

// ensureWorksheet verifies access to the spreadsheet and adds the tab when
// it does not exist yet.
func (p *SheetsProvider) ensureWorksheet(ctx context.Context) error {
	ss, err := p.srv.Spreadsheets.Get(p.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsError(ErrConnection, constants.ErrCodeNetworkError, err)
	}

	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == p.sheet {
			return nil
		}
	}

	logging.Info("Worksheet missing, creating it", "spreadsheet", p.spreadsheetID, "sheet", p.sheet)
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: p.sheet},
			},
		}},
	}
	if _, err := p.srv.Spreadsheets.BatchUpdate(p.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classifySheetsError(ErrConnection, constants.ErrCodeNetworkError, err)
	}
	return nil
}

// EnsureHeader rewrites row 1 when it is empty or misses a column
func (p *SheetsProvider) EnsureHeader(ctx context.Context) error {
	header, err := p.readHeader(ctx)
	if err != nil {
		return err
	}
	if headerComplete(header) {
		return nil
	}

	logging.Warn("Repairing sheet header",
		"sheet", p.sheet,
		"found", header,
		"missing", missingColumns(header),
	)

	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(constants.TableHeader)}}
	rng := p.a1(fmt.Sprintf("A1:%s1", columnLetter(len(constants.TableHeader))))
	_, err = p.srv.Spreadsheets.Values.Update(p.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsError(ErrSchema, constants.ErrCodeHeaderRepairErr, err)
	}
	return nil
}

// ReadAll reads the whole worksheet; row 1 is the header
func (p *SheetsProvider) ReadAll(ctx context.Context) ([]entities.TableRow, error) {
	resp, err := p.srv.Spreadsheets.Values.Get(p.spreadsheetID, p.a1("")).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySheetsError(ErrConnection, constants.ErrCodeReadFailed, err)
	}

	if len(resp.Values) == 0 {
		return []entities.TableRow{}, nil
	}

	header := fromCells(resp.Values[0])
	rows := make([]entities.TableRow, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		// Sheet rows are 1-based and row 1 is the header.
		ref := entities.RowRef{Index: i + 2}
		if row, ok := buildRow(header, fromCells(raw), ref); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Append adds one row below the last used row. Cells are placed under the
// header's own column order, which need not be the canonical one.
func (p *SheetsProvider) Append(ctx context.Context, values map[string]string) error {
	row := make(map[string]string, len(constants.TableHeader))
	for _, c := range constants.TableHeader {
		row[c] = values[c]
	}

	positions, err := p.columnPositions(ctx, row)
	if err != nil {
		return err
	}

	width := 0
	for c := range row {
		if positions[c] >= width {
			width = positions[c] + 1
		}
	}
	cells := make([]string, width)
	for c, v := range row {
		cells[positions[c]] = v
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(cells)}}
	_, err = p.srv.Spreadsheets.Values.Append(p.spreadsheetID, p.a1("A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsError(ErrWrite, constants.ErrCodeAppendFailed, err)
	}
	return nil
}

// LocateRow scans the worksheet for the id. O(n) in the number of rows.
func (p *SheetsProvider) LocateRow(ctx context.Context, id string) (entities.TableRow, error) {
	rows, err := p.ReadAll(ctx)
	if err != nil {
		return entities.TableRow{}, err
	}
	return findByID(rows, id)
}

// UpdateCells writes the given columns of one row in a single request
func (p *SheetsProvider) UpdateCells(ctx context.Context, ref entities.RowRef, updates map[string]string) error {
	if ref.Index < 2 {
		return newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, fmt.Sprintf("row %d", ref.Index))
	}
	if len(updates) == 0 {
		return nil
	}

	positions, err := p.columnPositions(ctx, updates)
	if err != nil {
		return err
	}

	columns := make([]string, 0, len(updates))
	for c := range updates {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	data := make([]*sheets.ValueRange, 0, len(columns))
	for _, c := range columns {
		cell := fmt.Sprintf("%s%d", columnLetter(positions[c]+1), ref.Index)
		data = append(data, &sheets.ValueRange{
			Range:  p.a1(cell),
			Values: [][]interface{}{{updates[c]}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}
	if _, err := p.srv.Spreadsheets.Values.BatchUpdate(p.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classifySheetsError(ErrWrite, constants.ErrCodeUpdateFailed, err)
	}
	return nil
}

// columnPositions maps each updated column to its 0-based header position,
// repairing the header once when a column is missing.
func (p *SheetsProvider) columnPositions(ctx context.Context, updates map[string]string) (map[string]int, error) {
	lookup := func() (map[string]int, []string, error) {
		header, err := p.readHeader(ctx)
		if err != nil {
			return nil, nil, err
		}
		pos := make(map[string]int, len(header))
		for i, h := range header {
			pos[strings.TrimSpace(h)] = i
		}
		var missing []string
		for c := range updates {
			if _, ok := pos[c]; !ok {
				missing = append(missing, c)
			}
		}
		return pos, missing, nil
	}

	pos, missing, err := lookup()
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return pos, nil
	}

	if err := p.EnsureHeader(ctx); err != nil {
		return nil, err
	}
	pos, missing, err = lookup()
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, newTableError(ErrSchema, constants.ErrCodeColumnNotFound, nil, strings.Join(missing, ", "))
	}
	return pos, nil
}

func (p *SheetsProvider) readHeader(ctx context.Context) ([]string, error) {
	resp, err := p.srv.Spreadsheets.Values.Get(p.spreadsheetID, p.a1("1:1")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySheetsError(ErrConnection, constants.ErrCodeReadFailed, err)
	}
	if len(resp.Values) == 0 {
		return []string{}, nil
	}
	return fromCells(resp.Values[0]), nil
}

// a1 prefixes a range with the quoted worksheet name. An empty range
// selects the whole worksheet.
func (p *SheetsProvider) a1(rng string) string {
	quoted := "'" + strings.ReplaceAll(p.sheet, "'", "''") + "'"
	if rng == "" {
		return quoted
	}
	return quoted + "!" + rng
}

// classifySheetsError maps Google API failures onto the table error kinds.
// Auth and missing-target failures are connection errors whatever the call.
func classifySheetsError(kind error, code string, err error) *TableError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return newTableError(ErrConnection, constants.ErrCodeInvalidCredentials, err, gerr.Message)
		case http.StatusNotFound:
			return newTableError(ErrConnection, constants.ErrCodeInvalidLocation, err, gerr.Message)
		case http.StatusTooManyRequests:
			return newTableError(kind, constants.ErrCodeRateLimited, err, gerr.Message)
		}
		return newTableError(kind, code, err, gerr.Message)
	}
	return newTableError(kind, code, err, "")
}

// columnLetter converts a 1-based column number to its A1 letters.
func columnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func fromCells(cells []interface{}) []string {
	values := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		values[i] = fmt.Sprint(c)
	}
	return values
}
