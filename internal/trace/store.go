// Package trace persists watch changes of a simulation run to SQLite so
// that a run can be replayed and compared later.
package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	driverName      = "sqlite"
	dialectSQLite   = "sqlite3"
	tableRecordings = "recordings"
	tableEntries    = "entries"
	colID           = "id"
	colScenario     = "scenario"
	colStartedAt    = "started_at"
	colRecording    = "recording"
	colSeq          = "seq"
	colTick         = "tick"
	colWatch        = "watch"
	colValue        = "value"
	colRecordedAt   = "recorded_at"
	memoryDSN       = ":memory:"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrBuildingQueryFailed = errors.New("building query failed")
	ErrRecordingNotFound   = errors.New("recording not found")
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		started_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		recording TEXT NOT NULL REFERENCES recordings(id),
		seq INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		watch TEXT NOT NULL,
		value TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (recording, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_watch ON entries(recording, watch)`,
}

// Entry is one recorded change of a watch
type Entry struct {
	Recording  uuid.UUID
	Seq        int64
	Tick       int64
	Watch      string
	Value      string // JSON encoded
	RecordedAt time.Time
}

// Decode unmarshals the entry's JSON value into v
func (e Entry) Decode(v any) error {
	return json.UnmarshalFromString(e.Value, v)
}

// Recording describes one stored run
type Recording struct {
	ID        uuid.UUID
	Scenario  string
	StartedAt time.Time
}

type entryRow struct {
	Recording  string `db:"recording"`
	Seq        int64  `db:"seq"`
	Tick       int64  `db:"tick"`
	Watch      string `db:"watch"`
	Value      string `db:"value"`
	RecordedAt int64  `db:"recorded_at"`
}

type recordingRow struct {
	ID        string `db:"id"`
	Scenario  string `db:"scenario"`
	StartedAt int64  `db:"started_at"`
}

// Store is a SQLite backed trace store
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for query diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating if needed) the trace database at path. Use
// ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	dsn := path
	if path != memoryDSN {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	// SQLite works best with single writer; also keeps :memory: on one connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRecording stores a new recording for scenario and returns its id
func (s *Store) BeginRecording(ctx context.Context, scenario string, startedAt time.Time) (uuid.UUID, error) {
	id := uuid.New()

	query, args, err := goqu.Dialect(dialectSQLite).
		Insert(tableRecordings).
		Rows(goqu.Record{
			colID:        id.String(),
			colScenario:  scenario,
			colStartedAt: startedAt.UnixNano(),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return uuid.Nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert recording: %w", err)
	}

	s.logger.Debug("recording started", "recording", id.String(), "scenario", scenario)
	return id, nil
}

// appendBatchSize caps the rows per INSERT, keeping each statement under
// SQLite's bound variable limit
var appendBatchSize = 1000

// Append stores entries in one transaction, in batches of appendBatchSize
// rows. Either every entry is stored or none is.
func (s *Store) Append(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	batches := 0
	for batch := range slices.Chunk(entries, appendBatchSize) {
		rows := make([]any, len(batch))
		for i, e := range batch {
			rows[i] = goqu.Record{
				colRecording:  e.Recording.String(),
				colSeq:        e.Seq,
				colTick:       e.Tick,
				colWatch:      e.Watch,
				colValue:      e.Value,
				colRecordedAt: e.RecordedAt.UnixNano(),
			}
		}

		query, args, err := goqu.Dialect(dialectSQLite).
			Insert(tableEntries).
			Rows(rows...).
			Prepared(true).
			ToSQL()
		if err != nil {
			return errors.Join(ErrBuildingQueryFailed, err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to append %d entries: %w", len(entries), err)
		}
		batches++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %d entries: %w", len(entries), err)
	}

	s.logger.Debug("entries appended",
		"entry_count", len(entries),
		"batches", batches,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Entries returns the entries of a recording in sequence order
func (s *Store) Entries(ctx context.Context, recording uuid.UUID) ([]Entry, error) {
	query, args, err := goqu.Dialect(dialectSQLite).
		From(tableEntries).
		Select(colRecording, colSeq, colTick, colWatch, colValue, colRecordedAt).
		Where(goqu.C(colRecording).Eq(recording.String())).
		Order(goqu.I(colSeq).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		id, err := uuid.Parse(row.Recording)
		if err != nil {
			return nil, fmt.Errorf("entry %d has invalid recording id: %w", row.Seq, err)
		}
		entries[i] = Entry{
			Recording:  id,
			Seq:        row.Seq,
			Tick:       row.Tick,
			Watch:      row.Watch,
			Value:      row.Value,
			RecordedAt: time.Unix(0, row.RecordedAt),
		}
	}

	return entries, nil
}

// Recording returns the stored recording with id
func (s *Store) Recording(ctx context.Context, id uuid.UUID) (Recording, error) {
	recordings, err := s.recordings(ctx, goqu.C(colID).Eq(id.String()))
	if err != nil {
		return Recording{}, err
	}
	if len(recordings) == 0 {
		return Recording{}, fmt.Errorf("%s: %w", id, ErrRecordingNotFound)
	}
	return recordings[0], nil
}

// Recordings returns every stored recording, oldest first
func (s *Store) Recordings(ctx context.Context) ([]Recording, error) {
	return s.recordings(ctx)
}

func (s *Store) recordings(ctx context.Context, where ...goqu.Expression) ([]Recording, error) {
	query, args, err := goqu.Dialect(dialectSQLite).
		From(tableRecordings).
		Select(colID, colScenario, colStartedAt).
		Where(where...).
		Order(goqu.I(colStartedAt).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	var rows []recordingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query recordings: %w", err)
	}

	recordings := make([]Recording, len(rows))
	for i, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("recording has invalid id %q: %w", row.ID, err)
		}
		recordings[i] = Recording{
			ID:        id,
			Scenario:  row.Scenario,
			StartedAt: time.Unix(0, row.StartedAt),
		}
	}

	return recordings, nil
}
