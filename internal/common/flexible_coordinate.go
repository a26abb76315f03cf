package common

import (
	"encoding/json"
	"fmt"
)

// FlexibleCoordinate accepts a JSON number or a locale-formatted string
// such as "46,5191".
type FlexibleCoordinate float64

func (fc *FlexibleCoordinate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return fmt.Errorf("%w: missing value", ErrInvalidCoordinate)
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*fc = FlexibleCoordinate(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: expected number or string", ErrInvalidCoordinate)
	}
	v, err := ParseCoordinate(s)
	if err != nil {
		return err
	}
	*fc = FlexibleCoordinate(v)
	return nil
}
