package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"forage-map/orchard/internal/constants"
)

// ErrInvalidCoordinate is returned when a latitude or longitude cannot be read.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// TimestampLayout is ISO-8601 UTC with second precision.
const TimestampLayout = "2006-01-02T15:04:05Z"

// noBreakSpaces are stripped anywhere in numeric input; spreadsheets in
// fr-CH render digit groups with them.
var noBreakSpaces = strings.NewReplacer(
	"\u00a0", "",
	"\u202f", "",
	"\u2009", "",
)

// cleanNumeric removes spacing and locale punctuation and turns a decimal
// comma into a decimal point.
func cleanNumeric(raw string) string {
	s := noBreakSpaces.Replace(raw)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "\u2019", "")
	return strings.ReplaceAll(s, ",", ".")
}

// ParseCoordinate reads a latitude or longitude written with either decimal
// separator. The result is always finite.
func ParseCoordinate(raw string) (float64, error) {
	s := cleanNumeric(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidCoordinate)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidCoordinate, raw)
	}
	return f, nil
}

// FormatCoordinate renders a coordinate the way rows are written.
func FormatCoordinate(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// SerializeSeasons joins season tags for storage.
func SerializeSeasons(seasons []string) string {
	return strings.Join(seasons, constants.SeasonSeparator)
}

// ParseSeasons splits a stored season string back into trimmed tags.
// Blank input and blank tokens yield nothing.
func ParseSeasons(raw string) []string {
	seasons := []string{}
	if strings.TrimSpace(raw) == "" {
		return seasons
	}

	for _, tok := range strings.Split(raw, constants.SeasonSeparator) {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			seasons = append(seasons, tok)
		}
	}
	return seasons
}

// NormalizeDeletedFlag reduces a stored is_deleted value to "0" or "1".
// Any non-zero number is deleted; unreadable input is active.
func NormalizeDeletedFlag(raw string) string {
	s := cleanNumeric(raw)

	switch strings.ToLower(s) {
	case "true":
		return constants.DeletedFlagDeleted
	case "", "false":
		return constants.DeletedFlagActive
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return constants.DeletedFlagActive
	}
	if f != 0 {
		return constants.DeletedFlagDeleted
	}
	return constants.DeletedFlagActive
}

// FormatTimestamp renders t as used in the updated_at column.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
