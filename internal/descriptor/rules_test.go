package descriptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleSet_Unknown(t *testing.T) {
	_, err := ParseRuleSet("required|wibble")
	assert.Error(t, err)
}

func TestParseRuleSet_BadLimit(t *testing.T) {
	_, err := ParseRuleSet("integer|max:abc")
	assert.Error(t, err)
}

func TestRuleSet_Required(t *testing.T) {
	rs, err := ParseRuleSet("required|string")
	require.NoError(t, err)

	_, msg := rs.Validate(nil, false)
	assert.Equal(t, "is required", msg)

	_, msg = rs.Validate("", true)
	assert.Equal(t, "is required", msg)

	_, msg = rs.Validate("Urgent", true)
	assert.Empty(t, msg)
}

func TestRuleSet_OptionalAbsent(t *testing.T) {
	rs, err := ParseRuleSet("integer|min:0")
	require.NoError(t, err)

	_, msg := rs.Validate(nil, false)
	assert.Empty(t, msg)
}

func TestRuleSet_Integer(t *testing.T) {
	rs, err := ParseRuleSet("integer|min:1|max:10")
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   any
		want    any
		wantMsg string
	}{
		{"json number", float64(5), int64(5), ""},
		{"string digits", "7", int64(7), ""},
		{"fractional", 2.5, nil, "must be an integer"},
		{"below min", float64(0), nil, "must be at least 1"},
		{"above max", float64(11), nil, "must be at most 10"},
		{"not a number", "high", nil, "must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := rs.Validate(tt.value, true)
			assert.Equal(t, tt.wantMsg, msg)
			if tt.wantMsg == "" {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRuleSet_NumericCoercion(t *testing.T) {
	rs, err := ParseRuleSet("numeric|min:0|max:100")
	require.NoError(t, err)

	got, msg := rs.Validate(19.5, true)
	require.Empty(t, msg)
	assert.Equal(t, "19.5", got)

	got, msg = rs.Validate("7.25", true)
	require.Empty(t, msg)
	assert.Equal(t, "7.25", got)

	_, msg = rs.Validate("101", true)
	assert.Equal(t, "must be at most 100", msg)
}

func TestRuleSet_NumericLimitsCompareValue(t *testing.T) {
	rs, err := ParseRuleSet("required|numeric|min:0|max:100")
	require.NoError(t, err)

	// Limits apply to the numeric value, not the digit count.
	_, msg := rs.Validate(float64(950), true)
	assert.Equal(t, "must be at most 100", msg)

	_, msg = rs.Validate("-5", true)
	assert.Equal(t, "must be at least 0", msg)

	got, msg := rs.Validate(float64(100), true)
	require.Empty(t, msg)
	assert.Equal(t, "100", got)
}

func TestRuleSet_StringMaxIsLength(t *testing.T) {
	rs, err := ParseRuleSet("string|max:5")
	require.NoError(t, err)

	_, msg := rs.Validate("short", true)
	assert.Empty(t, msg)

	_, msg = rs.Validate("toolong", true)
	assert.Equal(t, "must be at most 5", msg)
}

func TestRuleSet_In(t *testing.T) {
	rs, err := ParseRuleSet("in:low,normal,high")
	require.NoError(t, err)

	_, msg := rs.Validate("normal", true)
	assert.Empty(t, msg)

	_, msg = rs.Validate("urgent", true)
	assert.Equal(t, "must be one of low, normal, high", msg)
}

func TestRuleSet_Regex(t *testing.T) {
	rs, err := ParseRuleSet(`regex:^#[0-9a-fA-F]{6}$`)
	require.NoError(t, err)

	_, msg := rs.Validate("#ff0000", true)
	assert.Empty(t, msg)

	_, msg = rs.Validate("red", true)
	assert.Equal(t, "has invalid format", msg)
}

func TestRuleSet_Boolean(t *testing.T) {
	rs, err := ParseRuleSet("boolean")
	require.NoError(t, err)

	got, msg := rs.Validate("true", true)
	require.Empty(t, msg)
	assert.Equal(t, true, got)

	_, msg = rs.Validate("maybe", true)
	assert.Equal(t, "must be a boolean", msg)
}

func TestRuleSet_Date(t *testing.T) {
	rs, err := ParseRuleSet("date")
	require.NoError(t, err)

	got, msg := rs.Validate("2026-01-15", true)
	require.Empty(t, msg)
	parsed, ok := got.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2026, parsed.Year())

	_, msg = rs.Validate("15.01.2026", true)
	assert.Equal(t, "must be a date (YYYY-MM-DD)", msg)
}
