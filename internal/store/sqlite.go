package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/geo-cli/internal/geocode"
)

// DefaultGeocodeTTL is how long cached geocode results stay fresh.
const DefaultGeocodeTTL = 24 * time.Hour

// Store persists geocode results and enrichment reports in SQLite.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps and expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, opts ...Option) (*Store, error) {
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &Store{db: db, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	id         TEXT PRIMARY KEY,
	query_key  TEXT NOT NULL,
	results    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichments (
	id         TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_query_key ON geocode_cache(query_key);
CREATE INDEX IF NOT EXISTS idx_geocode_cache_expires_at ON geocode_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_enrichments_created_at ON enrichments(created_at);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// queryKey normalizes a geocode query into its cache key. Case and runs of
// whitespace do not distinguish queries; mode does.
func queryKey(q geocode.Query) string {
	text := strings.Join(strings.Fields(strings.ToLower(q.Text)), " ")
	return string(q.Mode) + "|" + text
}

// GetGeocode returns the unexpired cached results for a query, or nil when
// there is no fresh entry.
func (s *Store) GetGeocode(ctx context.Context, q geocode.Query) ([]geocode.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT results FROM geocode_cache
		 WHERE query_key = ? AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		queryKey(q), s.clock.Now().UTC(),
	)

	var resultsJSON string
	err := row.Scan(&resultsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get geocode")
	}

	var results []geocode.Result
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached results")
	}
	return results, nil
}

// PutGeocode stores results for a query with the given TTL.
func (s *Store) PutGeocode(ctx context.Context, q geocode.Query, results []geocode.Result, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultGeocodeTTL
	}
	now := s.clock.Now().UTC()

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (id, query_key, results, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), queryKey(q), string(resultsJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: put geocode")
}

// DeleteExpiredGeocodes removes stale cache rows and reports how many went.
func (s *Store) DeleteExpiredGeocodes(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM geocode_cache WHERE expires_at <= ?`,
		s.clock.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired geocodes")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// Enrichment is one persisted enrichment report.
type Enrichment struct {
	ID        string          `json:"id"`
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	Report    json.RawMessage `json:"report"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveEnrichment persists a report and returns its record.
func (s *Store) SaveEnrichment(ctx context.Context, id string, lat, lon float64, report json.RawMessage) (*Enrichment, error) {
	if id == "" {
		id = uuid.New().String()
	}
	now := s.clock.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichments (id, lat, lon, report, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, lat, lon, string(report), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert enrichment %s", id)
	}

	return &Enrichment{ID: id, Lat: lat, Lon: lon, Report: report, CreatedAt: now}, nil
}

// GetEnrichment looks a report up by ID.
func (s *Store) GetEnrichment(ctx context.Context, id string) (*Enrichment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lat, lon, report, created_at FROM enrichments WHERE id = ?`,
		id,
	)

	var e Enrichment
	var reportJSON string
	err := row.Scan(&e.ID, &e.Lat, &e.Lon, &reportJSON, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("enrichment not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get enrichment")
	}
	e.Report = json.RawMessage(reportJSON)
	return &e, nil
}

// ListEnrichments returns the most recent reports, newest first.
func (s *Store) ListEnrichments(ctx context.Context, limit int) ([]Enrichment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lat, lon, report, created_at FROM enrichments ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list enrichments")
	}
	defer rows.Close()

	var out []Enrichment
	for rows.Next() {
		var e Enrichment
		var reportJSON string
		if err := rows.Scan(&e.ID, &e.Lat, &e.Lon, &reportJSON, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan enrichment")
		}
		e.Report = json.RawMessage(reportJSON)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list enrichments iterate")
}
