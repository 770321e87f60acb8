package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/livability-map/internal/scorer"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS weight_presets (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	safety      REAL NOT NULL,
	parks       REAL NOT NULL,
	transit     REAL NOT NULL,
	parking     REAL NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	property   TEXT NOT NULL,
	weights    TEXT NOT NULL,
	breaks     TEXT,
	legend     TEXT NOT NULL,
	top        TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshot_scores (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	feature_id  TEXT NOT NULL,
	score       REAL,
	class       INTEGER
);

CREATE INDEX IF NOT EXISTS idx_snapshot_scores_snapshot_id ON snapshot_scores(snapshot_id);
`

// Migrate creates the store tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePreset inserts or replaces a preset by name.
func (s *SQLiteStore) SavePreset(ctx context.Context, p scorer.Preset) error {
	if err := validatePreset(p); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weight_presets (name, description, safety, parks, transit, parking, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
			description = excluded.description,
			safety = excluded.safety,
			parks = excluded.parks,
			transit = excluded.transit,
			parking = excluded.parking,
			updated_at = excluded.updated_at`,
		p.Name, p.Description, p.Weights.Safety, p.Weights.Parks, p.Weights.Transit, p.Weights.Parking, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save preset %s", p.Name)
}

// GetPreset returns the named preset, or nil if absent.
func (s *SQLiteStore) GetPreset(ctx context.Context, name string) (*scorer.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, description, safety, parks, transit, parking FROM weight_presets WHERE name = ?`,
		name,
	)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get preset %s", name)
	}
	return p, nil
}

// ListPresets returns all presets ordered by name.
func (s *SQLiteStore) ListPresets(ctx context.Context) ([]scorer.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, safety, parks, transit, parking FROM weight_presets ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list presets")
	}
	defer rows.Close() //nolint:errcheck

	var presets []scorer.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan preset")
		}
		presets = append(presets, *p)
	}
	return presets, eris.Wrap(rows.Err(), "sqlite: iterate presets")
}

// DeletePreset removes the named preset.
func (s *SQLiteStore) DeletePreset(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM weight_presets WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete preset %s", name)
	}
	return checkRowsAffected(res, "preset", name)
}

// SaveSnapshot stores snap with a new id and returns the stored copy.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	out := *snap
	out.ID = uuid.New().String()
	out.CreatedAt = time.Now().UTC()

	cols, err := marshalSnapshot(&out)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin snapshot tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, property, weights, breaks, legend, top, source, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.Property, cols.weights, cols.breaks, cols.legend, cols.top, out.Source, int64(out.Version), out.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
	}

	if len(out.Scores) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_scores (snapshot_id, feature_id, score, class) VALUES (?, ?, ?, ?)`,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: prepare snapshot scores")
		}
		defer stmt.Close() //nolint:errcheck
		for _, fs := range out.Scores {
			if _, err := stmt.ExecContext(ctx, out.ID, fs.FeatureID, fs.Score, fs.Class); err != nil {
				return nil, eris.Wrapf(err, "sqlite: insert snapshot score %s", fs.FeatureID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit snapshot")
	}
	return &out, nil
}

// GetSnapshot returns the snapshot with its feature scores, or nil if absent.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, property, weights, breaks, legend, top, source, version, created_at FROM snapshots WHERE id = ?`,
		id,
	)

	var (
		snap    Snapshot
		cols    snapshotColumns
		breaks  sql.NullString
		version int64
	)
	err := row.Scan(&snap.ID, &snap.Property, &cols.weights, &breaks, &cols.legend, &cols.top, &snap.Source, &version, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", id)
	}
	cols.breaks = []byte(breaks.String)
	snap.Version = uint64(version)
	if err := unmarshalSnapshot(&snap, cols); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT feature_id, score, class FROM snapshot_scores WHERE snapshot_id = ? ORDER BY rowid`,
		id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get snapshot scores")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			fs    FeatureScore
			score sql.NullFloat64
			class sql.NullInt64
		)
		if err := rows.Scan(&fs.FeatureID, &score, &class); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot score")
		}
		if score.Valid {
			v := score.Float64
			fs.Score = &v
		}
		if class.Valid {
			c := int(class.Int64)
			fs.Class = &c
		}
		snap.Scores = append(snap.Scores, fs)
	}
	return &snap, eris.Wrap(rows.Err(), "sqlite: iterate snapshot scores")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPreset(row scannable) (*scorer.Preset, error) {
	var p scorer.Preset
	err := row.Scan(&p.Name, &p.Description, &p.Weights.Safety, &p.Weights.Parks, &p.Weights.Transit, &p.Weights.Parking)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func validatePreset(p scorer.Preset) error {
	if p.Name == "" {
		return eris.New("store: preset name is required")
	}
	return p.Weights.Validate()
}

// snapshotColumns holds the JSON-encoded snapshot fields.
type snapshotColumns struct {
	weights []byte
	breaks  []byte
	legend  []byte
	top     []byte
}

func marshalSnapshot(s *Snapshot) (snapshotColumns, error) {
	var (
		cols snapshotColumns
		err  error
	)
	if cols.weights, err = json.Marshal(s.Weights); err != nil {
		return cols, eris.Wrap(err, "store: marshal weights")
	}
	if cols.breaks, err = json.Marshal(s.Breaks); err != nil {
		return cols, eris.Wrap(err, "store: marshal breaks")
	}
	if cols.legend, err = json.Marshal(s.Legend); err != nil {
		return cols, eris.Wrap(err, "store: marshal legend")
	}
	if cols.top, err = json.Marshal(s.Top); err != nil {
		return cols, eris.Wrap(err, "store: marshal top list")
	}
	return cols, nil
}

func unmarshalSnapshot(s *Snapshot, cols snapshotColumns) error {
	if err := json.Unmarshal(cols.weights, &s.Weights); err != nil {
		return eris.Wrap(err, "store: unmarshal weights")
	}
	if len(cols.breaks) > 0 {
		if err := json.Unmarshal(cols.breaks, &s.Breaks); err != nil {
			return eris.Wrap(err, "store: unmarshal breaks")
		}
	}
	if err := json.Unmarshal(cols.legend, &s.Legend); err != nil {
		return eris.Wrap(err, "store: unmarshal legend")
	}
	if err := json.Unmarshal(cols.top, &s.Top); err != nil {
		return eris.Wrap(err, "store: unmarshal top list")
	}
	return nil
}
