package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "livability.weight_presets",
		Columns:      []string{"name", "safety"},
		ConflictKeys: []string{"name"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "livability.weight_presets",
		ConflictKeys: []string{"name"},
	}, [][]any{{"a", 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "livability.weight_presets",
		Columns: []string{"name", "safety"},
	}, [][]any{{"a", 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"name", "safety"}
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_weight_presets"}, cols).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "weight_presets"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "weight_presets",
		Columns:      cols,
		ConflictKeys: []string{"name"},
	}, [][]any{{"a", 1.0}, {"b", 2.0}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"name", "safety"}
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_weight_presets"}, cols).WillReturnError(fmt.Errorf("copy failed"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "weight_presets",
		Columns:      cols,
		ConflictKeys: []string{"name"},
	}, [][]any{{"a", 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into staging table")
}

func TestMergeSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  UpsertConfig
		want string
	}{
		{
			name: "update non-key columns",
			cfg:  UpsertConfig{Columns: []string{"name", "safety"}, ConflictKeys: []string{"name"}},
			want: `INSERT INTO "weight_presets" ("name", "safety") SELECT "name", "safety" FROM "_stage" ON CONFLICT ("name") DO UPDATE SET "safety" = EXCLUDED."safety"`,
		},
		{
			name: "explicit update columns",
			cfg:  UpsertConfig{Columns: []string{"name", "safety", "parks"}, ConflictKeys: []string{"name"}, UpdateCols: []string{"parks"}},
			want: `INSERT INTO "weight_presets" ("name", "safety", "parks") SELECT "name", "safety", "parks" FROM "_stage" ON CONFLICT ("name") DO UPDATE SET "parks" = EXCLUDED."parks"`,
		},
		{
			name: "keys only",
			cfg:  UpsertConfig{Columns: []string{"name"}, ConflictKeys: []string{"name"}},
			want: `INSERT INTO "weight_presets" ("name") SELECT "name" FROM "_stage" ON CONFLICT ("name") DO NOTHING`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeSQL(`"weight_presets"`, `"_stage"`, tt.cfg))
		})
	}
}

func TestIdentifier_SchemaQualified(t *testing.T) {
	assert.Equal(t, `"simple"`, identifier("simple").Sanitize())
	assert.Equal(t, `"livability"."weight_presets"`, identifier("livability.weight_presets").Sanitize())
}
