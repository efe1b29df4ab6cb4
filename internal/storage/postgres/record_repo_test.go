package postgres

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterdata/internal/descriptor"
)

func testEntity(t *testing.T, softDelete bool) *descriptor.Entity {
	t.Helper()
	reg := descriptor.NewRegistry()
	require.NoError(t, reg.Register(descriptor.Descriptor{
		Key:              "lead_statuses",
		Table:            "lead_statuses",
		TitleSingular:    "Lead Status",
		TitlePlural:      "Lead Statuses",
		Module:           "crm",
		SearchableFields: []string{"name", "code"},
		FillableFields:   []string{"name", "code", "position"},
		SoftDelete:       softDelete,
	}))
	e, ok := reg.Get("lead_statuses")
	require.True(t, ok)
	return e
}

func TestSelectColumns_CastsID(t *testing.T) {
	e := testEntity(t, false)
	assert.Equal(t,
		[]string{"id::text AS id", "name", "code", "position", "created_at", "updated_at"},
		selectColumns(e))
}

func TestBaseSelect_SoftDeleteFilter(t *testing.T) {
	repo := NewRecordRepo(nil)
	e := testEntity(t, true)

	sql, _, err := liveOnly(e, repo.baseSelect(e)).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id::text AS id, name, code, position, created_at, updated_at, deleted_at "+
			"FROM lead_statuses WHERE deleted_at IS NULL",
		sql)
}

func TestSearchClause_IsILikeOverSearchableFields(t *testing.T) {
	repo := NewRecordRepo(nil)
	e := testEntity(t, false)

	pattern := "%new%"
	or := squirrel.Or{
		squirrel.ILike{"name": pattern},
		squirrel.ILike{"code": pattern},
	}
	sql, args, err := repo.baseSelect(e).Where(or).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "name ILIKE $1 OR code ILIKE $2")
	assert.Equal(t, []any{pattern, pattern}, args)
}

func TestParseOrderBy(t *testing.T) {
	e := testEntity(t, false)

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{"empty defaults to newest first", "", "created_at DESC", false},
		{"ascending", "name", "name ASC", false},
		{"descending", "-position", "position DESC", false},
		{"explicit plus", "+code", "code ASC", false},
		{"unknown column", "password", "", true},
		{"injection attempt", "name; DROP TABLE lead_statuses", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOrderBy(e, tt.orderBy)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
