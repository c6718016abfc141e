package ingest

import (
	"strconv"
	"strings"
)

// Scale holds the inclusive grade bounds active for an academic level.
// Two scales exist in practice (1.0-5.0 inverted for college/senior-high,
// 0-100 percentage for basic education) but the validator is deliberately
// scale-agnostic so neither leaks into pipeline logic.
type Scale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ParseGrade parses a raw cell value as a decimal and checks it against the
// scale bounds, inclusive. No rounding or scale conversion is performed; the
// caller must pass the scale matching the academic level of the target
// subject.
func ParseGrade(raw string, scale Scale) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ValidationError{Kind: NotNumeric}
	}
	if value < scale.Min || value > scale.Max {
		return 0, &ValidationError{Kind: OutOfRange, Min: scale.Min, Max: scale.Max}
	}
	return value, nil
}
