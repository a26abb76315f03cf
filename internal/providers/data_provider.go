package providers

// RecordSet represents a paginated set of records
type RecordSet struct {
	Records []RecordWithID // Array of records with their provider IDs
	Offset  string         // Pagination offset/cursor
	HasMore bool           // Whether more records exist
}

// RecordWithID represents a record with its provider-specific ID
type RecordWithID struct {
	ID     string                 // Provider-specific record ID (e.g., Airtable rec...)
	Fields map[string]interface{} // Record fields
}

// SyncFilters defines filters for fetching records
type SyncFilters struct {
	Offset        string // Pagination offset
	Limit         int    // Max records to fetch
	FilterFormula string // Custom filter formula (e.g., Airtable formula for field matching)
}
