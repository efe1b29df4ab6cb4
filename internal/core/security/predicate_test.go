package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_EmptyAlwaysAllows(t *testing.T) {
	p, err := Compile("")
	require.NoError(t, err)

	assert.True(t, p.Allow(nil))
	assert.True(t, p.Allow(map[string]any{"role": "guest"}))
}

func TestCompile_InvalidExpression(t *testing.T) {
	_, err := Compile("actor.role ==")
	assert.Error(t, err)
}

func TestPredicate_Allow(t *testing.T) {
	p, err := Compile(`actor.role == 'admin'`)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input map[string]any
		want  bool
	}{
		{"matching role", map[string]any{"role": "admin"}, true},
		{"other role", map[string]any{"role": "viewer"}, false},
		{"missing key denies", map[string]any{"subject": "u1"}, false},
		{"nil input denies", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Allow(tt.input))
		})
	}
}

func TestPredicate_NilAllows(t *testing.T) {
	var p *Predicate
	assert.True(t, p.Allow(map[string]any{"role": "guest"}))
}

func TestPredicate_NonBooleanDenies(t *testing.T) {
	p, err := Compile(`actor.role`)
	require.NoError(t, err)
	assert.False(t, p.Allow(map[string]any{"role": "admin"}))
}
