package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atmoslab/upperair/internal/profile"
	"github.com/atmoslab/upperair/internal/sounding"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/delete-sounding.sql
var deleteSoundingSQL string

//go:embed sql/insert-sounding.sql
var insertSoundingSQL string

//go:embed sql/insert-level.sql
var insertLevelSQL string

//go:embed sql/get-latest-sounding.sql
var getLatestSoundingSQL string

//go:embed sql/get-soundings-range.sql
var getSoundingsRangeSQL string

//go:embed sql/get-levels.sql
var getLevelsSQL string

// SQLiteStore persists soundings in a single sqlite file: one row per
// sounding, levels as child rows. NaN fields map to NULL columns.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the sqlite database at path and
// applies the schema. The DSN enables foreign keys, WAL journaling and a
// busy timeout, which keeps concurrent scheduler writes and API reads from
// tripping over "database is locked".
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	dsn := fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSounding upserts a sounding: an earlier copy of the same observation
// from the same source is replaced wholesale.
func (s *SQLiteStore) SaveSounding(snd sounding.Sounding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	observedAt := snd.ObservedAt.UTC().Format(time.RFC3339)

	if _, err := tx.Exec(deleteSoundingSQL, snd.Station.ID, observedAt, snd.Source); err != nil {
		return fmt.Errorf("delete stale sounding: %w", err)
	}

	res, err := tx.Exec(insertSoundingSQL,
		snd.Station.ID, snd.Station.Name, snd.Station.Latitude, snd.Station.Longitude,
		snd.Source, observedAt)
	if err != nil {
		return fmt.Errorf("insert sounding: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sounding id: %w", err)
	}

	for pos, lvl := range snd.Profile {
		_, err := tx.Exec(insertLevelSQL, id, pos,
			nullable(lvl.Pressure), nullable(lvl.Height),
			nullable(lvl.Temperature), nullable(lvl.Dewpoint),
			nullable(lvl.WindU), nullable(lvl.WindV))
		if err != nil {
			return fmt.Errorf("insert level %d: %w", pos, err)
		}
	}

	return tx.Commit()
}

// Latest returns the most recent sounding for a station.
func (s *SQLiteStore) Latest(stationID string) (sounding.Sounding, error) {
	row := s.db.QueryRow(getLatestSoundingSQL, stationID)
	snd, id, err := scanSounding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sounding.Sounding{}, ErrNotFound
	}
	if err != nil {
		return sounding.Sounding{}, err
	}

	snd.Profile, err = s.loadLevels(id)
	if err != nil {
		return sounding.Sounding{}, err
	}
	return snd, nil
}

// Range returns all soundings for a station between from and to (inclusive),
// ordered by observation time.
func (s *SQLiteStore) Range(stationID string, from, to time.Time) ([]sounding.Sounding, error) {
	rows, err := s.db.Query(getSoundingsRangeSQL, stationID,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sounding.Sounding
	var ids []int64
	for rows.Next() {
		snd, id, err := scanSounding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snd)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}

	for i, id := range ids {
		out[i].Profile, err = s.loadLevels(id)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) loadLevels(soundingID int64) (profile.Profile, error) {
	rows, err := s.db.Query(getLevelsSQL, soundingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prof profile.Profile
	for rows.Next() {
		var p, h, t, td, u, v sql.NullFloat64
		if err := rows.Scan(&p, &h, &t, &td, &u, &v); err != nil {
			return nil, err
		}
		lvl := profile.NewLevel()
		lvl.Pressure = fromNull(p)
		lvl.Height = fromNull(h)
		lvl.Temperature = fromNull(t)
		lvl.Dewpoint = fromNull(td)
		lvl.WindU = fromNull(u)
		lvl.WindV = fromNull(v)
		prof = append(prof, lvl)
	}
	return prof, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSounding(row rowScanner) (sounding.Sounding, int64, error) {
	var snd sounding.Sounding
	var id int64
	var observedAt string
	err := row.Scan(&id, &snd.Station.ID, &snd.Station.Name,
		&snd.Station.Latitude, &snd.Station.Longitude, &snd.Source, &observedAt)
	if err != nil {
		return sounding.Sounding{}, 0, err
	}

	t, err := time.Parse(time.RFC3339, observedAt)
	if err != nil {
		return sounding.Sounding{}, 0, fmt.Errorf("parse observed_at %q: %w", observedAt, err)
	}
	snd.ObservedAt = t
	return snd, id, nil
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
