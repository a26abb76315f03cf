package constants

// Persisted column names, in storage order.
const (
	ColumnID        = "id"
	ColumnName      = "name"
	ColumnLat       = "lat"
	ColumnLon       = "lon"
	ColumnSeasons   = "seasons"
	ColumnIsDeleted = "is_deleted"
	ColumnUpdatedAt = "updated_at"
)

// TableHeader is the canonical header row of the points table.
var TableHeader = []string{
	ColumnID,
	ColumnName,
	ColumnLat,
	ColumnLon,
	ColumnSeasons,
	ColumnIsDeleted,
	ColumnUpdatedAt,
}

// ColumnDefaults are backfilled into rows that lack the optional columns.
var ColumnDefaults = map[string]string{
	ColumnIsDeleted: DeletedFlagActive,
	ColumnSeasons:   "",
}

const (
	DeletedFlagActive  = "0"
	DeletedFlagDeleted = "1"

	SeasonSeparator = "|"

	DefaultSheetName = "points"
)

// IsKnownColumn reports whether name is part of the canonical header.
func IsKnownColumn(name string) bool {
	for _, c := range TableHeader {
		if c == name {
			return true
		}
	}
	return false
}
