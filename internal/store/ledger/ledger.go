package ledger

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database that records what the bot published.
// It is an audit trail only; dedup stays in memory.
type DB struct{ sql *sql.DB }

// Publication is one mint or deploy attempt.
type Publication struct {
	TS       time.Time
	PostID   string
	Stage    string // mint, deploy
	ImageURL string
	Ref      string // tx hash or token address
	Error    string
}

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		d.SetMaxOpenConns(1)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS publications (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  post_id TEXT NOT NULL,
	  stage TEXT NOT NULL,
	  image_url TEXT,
	  ref TEXT,
	  error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_pub_ts ON publications(ts);
	CREATE INDEX IF NOT EXISTS idx_pub_stage_ts ON publications(stage, ts);
	`)
	return err
}

// PutPublication stores a publish attempt.
func (d *DB) PutPublication(ctx context.Context, p Publication) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO publications(ts, post_id, stage, image_url, ref, error) VALUES(?,?,?,?,?,?)`,
		p.TS.Unix(), p.PostID, p.Stage, p.ImageURL, p.Ref, p.Error)
	return err
}

// LoadRange returns publications in [start, end), optionally filtered by stage.
func (d *DB) LoadRange(ctx context.Context, start, end time.Time, stage string) ([]Publication, error) {
	var rows *sql.Rows
	var err error
	if stage == "" {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, post_id, stage, image_url, ref, error FROM publications WHERE ts>=? AND ts<? ORDER BY ts, id`, start.Unix(), end.Unix())
	} else {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, post_id, stage, image_url, ref, error FROM publications WHERE ts>=? AND ts<? AND stage=? ORDER BY ts, id`, start.Unix(), end.Unix(), stage)
	}
	if err != nil {
		return nil, err
	}
	return scan(rows)
}

// Recent returns the latest publications, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT ts, post_id, stage, image_url, ref, error FROM publications ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scan(rows)
}

// CountSuccessWithin counts error-free publications of a stage in [start, end).
func (d *DB) CountSuccessWithin(ctx context.Context, start, end time.Time, stage string) (int, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM publications WHERE ts>=? AND ts<? AND stage=? AND (error IS NULL OR error='')`, start.Unix(), end.Unix(), stage)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scan(rows *sql.Rows) ([]Publication, error) {
	defer rows.Close()
	var out []Publication
	for rows.Next() {
		var ts int64
		var p Publication
		var img, ref, perr sql.NullString
		if err := rows.Scan(&ts, &p.PostID, &p.Stage, &img, &ref, &perr); err != nil {
			return nil, err
		}
		p.TS = time.Unix(ts, 0).UTC()
		p.ImageURL, p.Ref, p.Error = img.String, ref.String, perr.String
		out = append(out, p)
	}
	return out, rows.Err()
}
