package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/models/entities"
)

const airtablePageSize = 100

// AirtableProvider implements TableProvider for an Airtable table. Field
// names play the role of the header row.
type AirtableProvider struct {
	client    *http.Client
	BaseURL   string
	APIKey    string
	BaseID    string
	TableName string

	mu     sync.Mutex
	fields map[string]struct{}
}

// NewAirtableProvider creates a new Airtable provider
func NewAirtableProvider(baseURL, apiKey, baseID, tableName string) *AirtableProvider {
	if baseURL == "" {
		baseURL = "https://api.airtable.com"
	}
	if tableName == "" {
		tableName = constants.DefaultSheetName
	}
	return &AirtableProvider{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		BaseID:    baseID,
		TableName: tableName,
	}
}

// OpenAirtableProvider creates the provider and validates the credentials
func OpenAirtableProvider(ctx context.Context, baseURL, apiKey, baseID, tableName string) (*AirtableProvider, error) {
	if strings.TrimSpace(baseID) == "" {
		return nil, newTableError(ErrConnection, constants.ErrCodeInvalidLocation, nil, "empty base id")
	}
	p := NewAirtableProvider(baseURL, apiKey, baseID, tableName)
	if err := p.validateCredentials(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProviderType returns the provider type identifier
func (p *AirtableProvider) GetProviderType() string {
	return "airtable"
}

// EnsureHeader creates the table or its missing fields
func (p *AirtableProvider) EnsureHeader(ctx context.Context) error {
	table, err := p.fetchTableSchema(ctx)
	if err != nil {
		return err
	}

	if table == nil {
		logging.Warn("Airtable table missing, creating it", "base", p.BaseID, "table", p.TableName)
		fields := make([]airtableFieldSpec, len(constants.TableHeader))
		for i, c := range constants.TableHeader {
			fields[i] = airtableFieldSpec{Name: c, Type: "singleLineText"}
		}
		var created airtableTableSchema
		err := p.do(ctx, http.MethodPost, p.metaURL("tables"), map[string]interface{}{
			"name":   p.TableName,
			"fields": fields,
		}, &created, ErrSchema, constants.ErrCodeHeaderRepairErr)
		if err != nil {
			return err
		}
		p.rememberSchema(&created)
		return nil
	}

	names := make([]string, len(table.Fields))
	for i, f := range table.Fields {
		names[i] = f.Name
	}
	missing := missingColumns(names)
	if len(missing) == 0 {
		return nil
	}

	logging.Warn("Repairing Airtable fields", "table", p.TableName, "missing", missing)
	for _, c := range missing {
		var field airtableFieldSpec
		err := p.do(ctx, http.MethodPost, p.metaURL("tables", table.ID, "fields"),
			airtableFieldSpec{Name: c, Type: "singleLineText"}, &field, ErrSchema, constants.ErrCodeHeaderRepairErr)
		if err != nil {
			return err
		}
		table.Fields = append(table.Fields, field)
	}
	p.rememberSchema(table)
	return nil
}

// ReadAll pages through every record of the table
func (p *AirtableProvider) ReadAll(ctx context.Context) ([]entities.TableRow, error) {
	rows := []entities.TableRow{}
	filters := &SyncFilters{Limit: airtablePageSize}

	for {
		page, err := p.FetchRecords(ctx, filters)
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Records {
			ref := entities.RowRef{Index: len(rows) + 1, Key: rec.ID}
			rows = append(rows, recordToRow(rec, ref))
		}
		if !page.HasMore {
			return rows, nil
		}
		filters.Offset = page.Offset
	}
}

// FetchRecords fetches one page of records
func (p *AirtableProvider) FetchRecords(ctx context.Context, filters *SyncFilters) (*RecordSet, error) {
	payload := p.buildFetchPayload(filters)

	var airtableResp AirtableListResponse
	err := p.do(ctx, http.MethodPost, p.tableURL("listRecords"), payload, &airtableResp,
		ErrConnection, constants.ErrCodeReadFailed)
	if err != nil {
		return nil, err
	}

	// Transform to RecordSet with IDs
	records := make([]RecordWithID, len(airtableResp.Records))
	for i, rec := range airtableResp.Records {
		records[i] = RecordWithID{
			ID:     rec.ID,
			Fields: rec.Fields,
		}
	}

	return &RecordSet{
		Records: records,
		Offset:  airtableResp.Offset,
		HasMore: airtableResp.Offset != "",
	}, nil
}

// Append creates one record
func (p *AirtableProvider) Append(ctx context.Context, values map[string]string) error {
	fields := make(map[string]interface{}, len(constants.TableHeader))
	for _, c := range constants.TableHeader {
		fields[c] = values[c]
	}

	payload := map[string]interface{}{
		"records":  []map[string]interface{}{{"fields": fields}},
		"typecast": true,
	}
	return p.do(ctx, http.MethodPost, p.tableURL(), payload, nil, ErrWrite, constants.ErrCodeAppendFailed)
}

// LocateRow asks Airtable for the record carrying the id
func (p *AirtableProvider) LocateRow(ctx context.Context, id string) (entities.TableRow, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.TableRow{}, newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, "empty id")
	}

	page, err := p.FetchRecords(ctx, &SyncFilters{
		Limit:         1,
		FilterFormula: fmt.Sprintf("{%s} = '%s'", constants.ColumnID, escapeFormulaString(id)),
	})
	if err != nil {
		return entities.TableRow{}, err
	}
	if len(page.Records) == 0 {
		return entities.TableRow{}, newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, id)
	}
	rec := page.Records[0]
	return recordToRow(rec, entities.RowRef{Key: rec.ID}), nil
}

// UpdateCells patches the given fields of one record
func (p *AirtableProvider) UpdateCells(ctx context.Context, ref entities.RowRef, updates map[string]string) error {
	if ref.Key == "" {
		return newTableError(ErrNotFound, constants.ErrCodeRowNotFound, nil, "missing record id")
	}
	if len(updates) == 0 {
		return nil
	}
	if err := p.checkColumns(ctx, updates); err != nil {
		return err
	}

	fields := make(map[string]interface{}, len(updates))
	for c, v := range updates {
		fields[c] = v
	}

	err := p.do(ctx, http.MethodPatch, p.tableURL(ref.Key),
		map[string]interface{}{"fields": fields, "typecast": true}, nil,
		ErrWrite, constants.ErrCodeUpdateFailed)
	var te *TableError
	if errors.As(err, &te) && te.Code == constants.ErrCodeInvalidLocation {
		// A 404 on a record path means the record is gone.
		return newTableError(ErrNotFound, constants.ErrCodeRowNotFound, te.Err, ref.Key)
	}
	return err
}

// checkColumns makes sure every updated column is a field of the table,
// repairing the schema once before giving up.
func (p *AirtableProvider) checkColumns(ctx context.Context, updates map[string]string) error {
	missing, loaded := p.unknownFields(updates)
	if loaded && len(missing) == 0 {
		return nil
	}
	if err := p.EnsureHeader(ctx); err != nil {
		return err
	}
	if missing, _ = p.unknownFields(updates); len(missing) > 0 {
		sort.Strings(missing)
		return newTableError(ErrSchema, constants.ErrCodeColumnNotFound, nil, strings.Join(missing, ", "))
	}
	return nil
}

// unknownFields lists the updated columns the cached schema does not know.
// loaded is false until the schema has been fetched once.
func (p *AirtableProvider) unknownFields(updates map[string]string) (missing []string, loaded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fields == nil {
		return nil, false
	}
	for c := range updates {
		if _, ok := p.fields[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing, true
}

func (p *AirtableProvider) rememberSchema(table *airtableTableSchema) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fields = make(map[string]struct{}, len(table.Fields))
	for _, f := range table.Fields {
		p.fields[f.Name] = struct{}{}
	}
}

// fetchTableSchema returns nil when the base has no table with our name
func (p *AirtableProvider) fetchTableSchema(ctx context.Context) (*airtableTableSchema, error) {
	var resp struct {
		Tables []airtableTableSchema `json:"tables"`
	}
	if err := p.do(ctx, http.MethodGet, p.metaURL("tables"), nil, &resp, ErrConnection, constants.ErrCodeReadFailed); err != nil {
		return nil, err
	}

	for i := range resp.Tables {
		if resp.Tables[i].Name == p.TableName {
			p.rememberSchema(&resp.Tables[i])
			return &resp.Tables[i], nil
		}
	}
	return nil, nil
}

// validateCredentials checks if the API key and base ID are valid
func (p *AirtableProvider) validateCredentials(ctx context.Context) error {
	return p.do(ctx, http.MethodGet, p.metaURL("tables"), nil, nil, ErrConnection, constants.ErrCodeNetworkError)
}

// do sends one JSON request and decodes the response into out when non-nil
func (p *AirtableProvider) do(ctx context.Context, method, endpoint string, payload, out interface{}, kind error, code string) error {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Execute request
	resp, err := p.client.Do(req)
	if err != nil {
		return newTableError(ErrConnection, constants.ErrCodeNetworkError, err, "")
	}
	defer resp.Body.Close()

	// Handle error responses
	if err := p.handleHTTPError(resp, kind, code); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newTableError(kind, code, fmt.Errorf("failed to decode response: %w", err), "")
	}
	return nil
}

// handleHTTPError converts HTTP errors to TableError
func (p *AirtableProvider) handleHTTPError(resp *http.Response, kind error, code string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return newTableError(ErrConnection, constants.ErrCodeInvalidCredentials, nil, string(body))
	case http.StatusNotFound:
		return newTableError(ErrConnection, constants.ErrCodeInvalidLocation, nil, string(body))
	case http.StatusUnprocessableEntity:
		if strings.Contains(string(body), "UNKNOWN_FIELD_NAME") {
			return newTableError(ErrSchema, constants.ErrCodeColumnNotFound, nil, string(body))
		}
		return newTableError(kind, code, nil, string(body))
	case http.StatusTooManyRequests:
		return newTableError(kind, constants.ErrCodeRateLimited, nil, string(body))
	default:
		return newTableError(kind, code, fmt.Errorf("HTTP %d", resp.StatusCode), string(body))
	}
}

// buildFetchPayload builds the request payload for fetching records
func (p *AirtableProvider) buildFetchPayload(filters *SyncFilters) map[string]interface{} {
	payload := map[string]interface{}{
		"fields": constants.TableHeader,
	}

	if filters != nil {
		if filters.FilterFormula != "" {
			payload["filterByFormula"] = filters.FilterFormula
		}
		if filters.Offset != "" {
			payload["offset"] = filters.Offset
		}
		if filters.Limit > 0 {
			payload["pageSize"] = filters.Limit
		}
	}

	return payload
}

func (p *AirtableProvider) tableURL(parts ...string) string {
	segments := append([]string{"v0", url.PathEscape(p.BaseID), url.PathEscape(p.TableName)}, escapeAll(parts)...)
	return p.BaseURL + "/" + strings.Join(segments, "/")
}

func (p *AirtableProvider) metaURL(parts ...string) string {
	segments := append([]string{"v0", "meta", "bases", url.PathEscape(p.BaseID)}, escapeAll(parts)...)
	return p.BaseURL + "/" + strings.Join(segments, "/")
}

func escapeAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, s := range parts {
		out[i] = url.PathEscape(s)
	}
	return out
}

// recordToRow renders Airtable field values the way a sheet would show them
func recordToRow(rec RecordWithID, ref entities.RowRef) entities.TableRow {
	values := make(map[string]string, len(constants.TableHeader))
	for name, v := range rec.Fields {
		values[name] = formatFieldValue(v)
	}
	backfill(values)
	return entities.TableRow{Ref: ref, Values: values}
}

func formatFieldValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return constants.DeletedFlagDeleted
		}
		return constants.DeletedFlagActive
	default:
		return fmt.Sprint(t)
	}
}

func escapeFormulaString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Airtable API response structures

type AirtableRecordResponse struct {
	ID          string                 `json:"id"`
	CreatedTime string                 `json:"createdTime,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

type AirtableListResponse struct {
	Records []AirtableRecordResponse `json:"records"`
	Offset  string                   `json:"offset,omitempty"`
}

type airtableFieldSpec struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type airtableTableSchema struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Fields []airtableFieldSpec `json:"fields"`
}
