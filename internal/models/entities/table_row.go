package entities

import "time"

// RowRef locates a row inside a backend. Index is the 1-based sheet row
// (header is row 1) or the SQL row number; Key is the backend record id
// where one exists (Airtable).
type RowRef struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
}

// TableRow is one raw row of the points table, values keyed by column name.
type TableRow struct {
	Ref    RowRef            `json:"ref"`
	Values map[string]string `json:"values"`
}

// Get returns the raw value of a column, or "" when absent.
func (r TableRow) Get(column string) string {
	return r.Values[column]
}

// TableSnapshot is a full read of the table at a point in time.
type TableSnapshot struct {
	Rows      []TableRow `json:"rows"`
	FetchedAt time.Time  `json:"fetched_at"`
}
