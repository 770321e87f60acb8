package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/livability-map/internal/db"
	"github.com/sells-group/livability-map/internal/scorer"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlUpsertPreset = `INSERT INTO weight_presets (name, description, safety, parks, transit, parking, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, safety = EXCLUDED.safety,
parks = EXCLUDED.parks, transit = EXCLUDED.transit, parking = EXCLUDED.parking, updated_at = EXCLUDED.updated_at`
	sqlGetPreset       = `SELECT name, description, safety, parks, transit, parking FROM weight_presets WHERE name = $1`
	sqlListPresets     = `SELECT name, description, safety, parks, transit, parking FROM weight_presets ORDER BY name`
	sqlDeletePreset    = `DELETE FROM weight_presets WHERE name = $1`
	sqlInsertSnapshot  = `INSERT INTO snapshots (id, property, weights, breaks, legend, top, source, version, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	sqlGetSnapshot     = `SELECT id, property, weights, breaks, legend, top, source, version, created_at FROM snapshots WHERE id = $1`
	sqlSnapshotScores  = `SELECT feature_id, score, class FROM snapshot_scores WHERE snapshot_id = $1 ORDER BY ord`
	snapshotScoreTable = "snapshot_scores"
	presetTable        = "weight_presets"
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"upsert_preset":   sqlUpsertPreset,
	"get_preset":      sqlGetPreset,
	"list_presets":    sqlListPresets,
	"get_snapshot":    sqlGetSnapshot,
	"snapshot_scores": sqlSnapshotScores,
}

var snapshotScoreColumns = []string{"snapshot_id", "ord", "feature_id", "score", "class"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS weight_presets (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	safety      DOUBLE PRECISION NOT NULL,
	parks       DOUBLE PRECISION NOT NULL,
	transit     DOUBLE PRECISION NOT NULL,
	parking     DOUBLE PRECISION NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	property   TEXT NOT NULL,
	weights    JSONB NOT NULL,
	breaks     JSONB,
	legend     JSONB NOT NULL,
	top        JSONB NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	version    BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshot_scores (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	ord         INTEGER NOT NULL,
	feature_id  TEXT NOT NULL,
	score       DOUBLE PRECISION,
	class       INTEGER,
	PRIMARY KEY (snapshot_id, ord)
);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate creates the store tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SavePreset inserts or replaces a preset by name.
func (s *PostgresStore) SavePreset(ctx context.Context, p scorer.Preset) error {
	if err := validatePreset(p); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, sqlUpsertPreset,
		p.Name, p.Description, p.Weights.Safety, p.Weights.Parks, p.Weights.Transit, p.Weights.Parking, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save preset %s", p.Name)
}

// ImportPresets bulk-upserts presets, typically from a YAML presets file.
func (s *PostgresStore) ImportPresets(ctx context.Context, presets []scorer.Preset) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(presets))
	for _, p := range presets {
		if err := validatePreset(p); err != nil {
			return 0, err
		}
		rows = append(rows, []any{p.Name, p.Description, p.Weights.Safety, p.Weights.Parks, p.Weights.Transit, p.Weights.Parking, now})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        presetTable,
		Columns:      []string{"name", "description", "safety", "parks", "transit", "parking", "updated_at"},
		ConflictKeys: []string{"name"},
	}, rows)
	return n, eris.Wrap(err, "postgres: import presets")
}

// GetPreset returns the named preset, or nil if absent.
func (s *PostgresStore) GetPreset(ctx context.Context, name string) (*scorer.Preset, error) {
	p, err := scanPreset(s.pool.QueryRow(ctx, sqlGetPreset, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get preset %s", name)
	}
	return p, nil
}

// ListPresets returns all presets ordered by name.
func (s *PostgresStore) ListPresets(ctx context.Context) ([]scorer.Preset, error) {
	rows, err := s.pool.Query(ctx, sqlListPresets)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list presets")
	}
	defer rows.Close()

	var presets []scorer.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan preset")
		}
		presets = append(presets, *p)
	}
	return presets, eris.Wrap(rows.Err(), "postgres: iterate presets")
}

// DeletePreset removes the named preset.
func (s *PostgresStore) DeletePreset(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, sqlDeletePreset, name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete preset %s", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("preset not found: %s", name)
	}
	return nil
}

// SaveSnapshot stores snap and its feature scores in one transaction.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	out := *snap
	out.ID = uuid.New().String()
	out.CreatedAt = time.Now().UTC()

	cols, err := marshalSnapshot(&out)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin snapshot tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, sqlInsertSnapshot,
		out.ID, out.Property, cols.weights, cols.breaks, cols.legend, cols.top, out.Source, int64(out.Version), out.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert snapshot")
	}

	rows := make([][]any, 0, len(out.Scores))
	for i, fs := range out.Scores {
		rows = append(rows, []any{out.ID, i, fs.FeatureID, fs.Score, fs.Class})
	}
	if _, err := db.CopyFrom(ctx, tx, snapshotScoreTable, snapshotScoreColumns, rows); err != nil {
		return nil, eris.Wrap(err, "postgres: copy snapshot scores")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit snapshot")
	}
	return &out, nil
}

// GetSnapshot returns the snapshot with its feature scores, or nil if absent.
func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	var (
		snap    Snapshot
		cols    snapshotColumns
		version int64
	)
	err := s.pool.QueryRow(ctx, sqlGetSnapshot, id).Scan(
		&snap.ID, &snap.Property, &cols.weights, &cols.breaks, &cols.legend, &cols.top, &snap.Source, &version, &snap.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", id)
	}
	snap.Version = uint64(version)
	if err := unmarshalSnapshot(&snap, cols); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlSnapshotScores, id)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get snapshot scores")
	}
	defer rows.Close()

	for rows.Next() {
		var fs FeatureScore
		if err := rows.Scan(&fs.FeatureID, &fs.Score, &fs.Class); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot score")
		}
		snap.Scores = append(snap.Scores, fs)
	}
	return &snap, eris.Wrap(rows.Err(), "postgres: iterate snapshot scores")
}
