package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrade(t *testing.T) {
	college := Scale{Min: 1.0, Max: 5.0}
	percentage := Scale{Min: 0, Max: 100}

	tests := []struct {
		name    string
		raw     string
		scale   Scale
		want    float64
		wantErr ValidationKind
	}{
		{name: "college scale in range", raw: "2.0", scale: college, want: 2.0},
		{name: "college scale lower bound", raw: "1.0", scale: college, want: 1.0},
		{name: "college scale upper bound", raw: "5.0", scale: college, want: 5.0},
		{name: "percentage in range", raw: "85.5", scale: percentage, want: 85.5},
		{name: "leading whitespace", raw: " 90 ", scale: percentage, want: 90},
		{name: "not numeric", raw: "absent", scale: percentage, wantErr: NotNumeric},
		{name: "empty", raw: "", scale: percentage, wantErr: NotNumeric},
		{name: "above percentage max", raw: "150", scale: percentage, wantErr: OutOfRange},
		{name: "below college min", raw: "0.5", scale: college, wantErr: OutOfRange},
		{name: "above college max", raw: "5.01", scale: college, wantErr: OutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseGrade(tc.raw, tc.scale)
			if tc.wantErr != "" {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tc.wantErr, vErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidationErrorCarriesBounds(t *testing.T) {
	_, err := ParseGrade("150", Scale{Min: 0, Max: 100})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0.0, vErr.Min)
	assert.Equal(t, 100.0, vErr.Max)
	assert.Equal(t, "grade out of range (0-100)", vErr.Error())
}
