// Package postgres provides the Postgres-backed corpus store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// DB is the pool surface the store needs. pgxpool.Pool and pgxmock both
// satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store implements corpus.Store on Postgres.
//
// Schema (managed externally):
//
//	CREATE TABLE companies (
//	    id         TEXT PRIMARY KEY,
//	    ticker     TEXT NOT NULL DEFAULT '',
//	    name       TEXT NOT NULL,
//	    source_url TEXT NOT NULL,
//	    base_url   TEXT NOT NULL DEFAULT '',
//	    extractor  TEXT NOT NULL
//	);
//
//	CREATE TABLE job_postings (
//	    id               UUID PRIMARY KEY,
//	    company_id       TEXT NOT NULL REFERENCES companies (id),
//	    identity_key     TEXT NOT NULL,
//	    title            TEXT NOT NULL,
//	    location_text    TEXT NOT NULL DEFAULT '',
//	    date_posted_raw  TEXT NOT NULL DEFAULT '',
//	    description_text TEXT NOT NULL DEFAULT '',
//	    source_url       TEXT NOT NULL DEFAULT '',
//	    canonical_url    TEXT NOT NULL DEFAULT '',
//	    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
//	    first_seen_at    TIMESTAMPTZ NOT NULL,
//	    last_seen_at     TIMESTAMPTZ NOT NULL,
//	    closed_at        TIMESTAMPTZ,
//	    UNIQUE (company_id, identity_key)
//	);
//
//	CREATE INDEX job_postings_company_active_seen
//	    ON job_postings (company_id, is_active, last_seen_at);
type Store struct {
	db DB
}

// New connects a pool from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{db: pool}, nil
}

// NewWithDB constructs a store from an existing pool, primarily for
// testing.
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

// Close releases the pool.
func (s *Store) Close() {
	s.db.Close()
}

// Ping verifies connectivity for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return &corpus.PersistenceError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) UpsertCompany(ctx context.Context, c corpus.Company) error {
	query := `
		INSERT INTO companies (id, ticker, name, source_url, base_url, extractor)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET ticker = EXCLUDED.ticker,
		    name = EXCLUDED.name,
		    source_url = EXCLUDED.source_url,
		    base_url = EXCLUDED.base_url,
		    extractor = EXCLUDED.extractor;
	`
	_, err := s.db.Exec(ctx, query, c.ID, c.Ticker, c.Name, c.Source.URL, c.Source.BaseURL, c.Source.Extractor)
	if err != nil {
		return &corpus.PersistenceError{Op: "upsert company", Err: err}
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (corpus.Company, error) {
	query := `
		SELECT id, ticker, name, source_url, base_url, extractor
		FROM companies WHERE id = $1;
	`
	var c corpus.Company
	err := s.db.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Ticker, &c.Name, &c.Source.URL, &c.Source.BaseURL, &c.Source.Extractor)
	if errors.Is(err, pgx.ErrNoRows) {
		return corpus.Company{}, corpus.ErrNotFound
	}
	if err != nil {
		return corpus.Company{}, &corpus.PersistenceError{Op: "get company", Err: err}
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]corpus.Company, error) {
	query := `
		SELECT id, ticker, name, source_url, base_url, extractor
		FROM companies ORDER BY id;
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, &corpus.PersistenceError{Op: "list companies", Err: err}
	}
	defer rows.Close()

	var out []corpus.Company
	for rows.Next() {
		var c corpus.Company
		if err := rows.Scan(&c.ID, &c.Ticker, &c.Name, &c.Source.URL, &c.Source.BaseURL, &c.Source.Extractor); err != nil {
			return nil, &corpus.PersistenceError{Op: "list companies", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &corpus.PersistenceError{Op: "list companies", Err: err}
	}
	return out, nil
}

func (s *Store) ActiveKeys(ctx context.Context, companyID string) ([]string, error) {
	query := `
		SELECT identity_key FROM job_postings
		WHERE company_id = $1 AND is_active;
	`
	rows, err := s.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, &corpus.PersistenceError{Op: "active keys", Err: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &corpus.PersistenceError{Op: "active keys", Err: err}
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, &corpus.PersistenceError{Op: "active keys", Err: err}
	}
	return keys, nil
}

// upsertPostingSQL revives a previously closed key in place: the conflict
// arm reactivates the row, clears closed_at, and leaves first_seen_at as
// originally recorded.
const upsertPostingSQL = `
	INSERT INTO job_postings (
		id, company_id, identity_key, title, location_text, date_posted_raw,
		description_text, source_url, canonical_url, is_active,
		first_seen_at, last_seen_at, closed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $10, NULL)
	ON CONFLICT (company_id, identity_key) DO UPDATE
	SET title = EXCLUDED.title,
	    location_text = EXCLUDED.location_text,
	    date_posted_raw = EXCLUDED.date_posted_raw,
	    description_text = EXCLUDED.description_text,
	    source_url = EXCLUDED.source_url,
	    canonical_url = EXCLUDED.canonical_url,
	    is_active = TRUE,
	    last_seen_at = EXCLUDED.last_seen_at,
	    closed_at = NULL;
`

const renewPostingSQL = `
	UPDATE job_postings
	SET title = $3,
	    location_text = $4,
	    date_posted_raw = $5,
	    description_text = $6,
	    source_url = $7,
	    canonical_url = $8,
	    last_seen_at = $9
	WHERE company_id = $1 AND identity_key = $2;
`

const closePostingsSQL = `
	UPDATE job_postings
	SET is_active = FALSE, closed_at = $3
	WHERE company_id = $1 AND identity_key = ANY($2) AND is_active;
`

const reopenedKeysSQL = `
	SELECT identity_key FROM job_postings
	WHERE company_id = $1 AND identity_key = ANY($2) AND NOT is_active;
`

// ApplyCycle persists one diff atomically. Closes only touch lifecycle
// columns; renews and reopens overwrite content fields with the freshly
// observed values.
func (s *Store) ApplyCycle(ctx context.Context, companyID string, diff corpus.Diff, byKey map[string]corpus.NormalizedPosting, now time.Time) (corpus.CycleResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return corpus.CycleResult{}, &corpus.PersistenceError{Op: "begin cycle", Err: err}
	}
	defer tx.Rollback(ctx)

	result := corpus.CycleResult{CompanyID: companyID}

	if len(diff.ToCreate) > 0 {
		reopened, err := s.inactiveAmong(ctx, tx, companyID, diff.ToCreate)
		if err != nil {
			return corpus.CycleResult{}, err
		}
		result.Reopened = reopened
	}

	for _, key := range diff.ToCreate {
		np := byKey[key]
		_, err := tx.Exec(ctx, upsertPostingSQL,
			uuid.NewString(), companyID, np.IdentityKey, np.Title, np.LocationText,
			np.DatePostedRaw, np.DescriptionText, np.SourceURL, np.CanonicalURL, now)
		if err != nil {
			return corpus.CycleResult{}, &corpus.PersistenceError{Op: "create posting", Err: err}
		}
		result.Created++
	}

	for _, key := range diff.ToRenew {
		np := byKey[key]
		_, err := tx.Exec(ctx, renewPostingSQL,
			companyID, np.IdentityKey, np.Title, np.LocationText, np.DatePostedRaw,
			np.DescriptionText, np.SourceURL, np.CanonicalURL, now)
		if err != nil {
			return corpus.CycleResult{}, &corpus.PersistenceError{Op: "renew posting", Err: err}
		}
		result.Renewed++
	}

	if len(diff.ToClose) > 0 {
		tag, err := tx.Exec(ctx, closePostingsSQL, companyID, diff.ToClose, now)
		if err != nil {
			return corpus.CycleResult{}, &corpus.PersistenceError{Op: "close postings", Err: err}
		}
		result.Closed = int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return corpus.CycleResult{}, &corpus.PersistenceError{Op: "commit cycle", Err: err}
	}
	return result, nil
}

func (s *Store) inactiveAmong(ctx context.Context, tx pgx.Tx, companyID string, keys []string) (int, error) {
	rows, err := tx.Query(ctx, reopenedKeysSQL, companyID, keys)
	if err != nil {
		return 0, &corpus.PersistenceError{Op: "reopened keys", Err: err}
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return 0, &corpus.PersistenceError{Op: "reopened keys", Err: err}
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, &corpus.PersistenceError{Op: "reopened keys", Err: err}
	}
	return count, nil
}

const postingColumns = `
	id, company_id, identity_key, title, location_text, date_posted_raw,
	description_text, source_url, canonical_url, is_active,
	first_seen_at, last_seen_at, closed_at
`

// Search applies the plain filters in SQL, newest last_seen_at first, and
// the match callback per row in Go before the limit is taken. The query
// never reaches SQL, so the boolean grammar stays one implementation.
func (s *Store) Search(ctx context.Context, params corpus.SearchParams, match func(text string) bool) ([]corpus.JobPosting, error) {
	sql := "SELECT" + postingColumns + "FROM job_postings WHERE 1=1"
	var args []any
	if params.CompanyID != "" {
		args = append(args, params.CompanyID)
		sql += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		sql += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if params.Since != nil {
		args = append(args, *params.Since)
		sql += fmt.Sprintf(" AND last_seen_at >= $%d", len(args))
	}
	sql += " ORDER BY last_seen_at DESC;"

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &corpus.PersistenceError{Op: "search", Err: err}
	}
	defer rows.Close()

	var out []corpus.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, &corpus.PersistenceError{Op: "search", Err: err}
		}
		if match != nil && !match(p.SearchText()) {
			continue
		}
		out = append(out, p)
		if params.Limit > 0 && len(out) >= params.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &corpus.PersistenceError{Op: "search", Err: err}
	}
	return out, nil
}

func (s *Store) GetPosting(ctx context.Context, id string) (corpus.JobPosting, error) {
	query := "SELECT" + postingColumns + "FROM job_postings WHERE id = $1;"
	p, err := scanPosting(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return corpus.JobPosting{}, corpus.ErrNotFound
	}
	if err != nil {
		return corpus.JobPosting{}, &corpus.PersistenceError{Op: "get posting", Err: err}
	}
	return p, nil
}

func scanPosting(row pgx.Row) (corpus.JobPosting, error) {
	var p corpus.JobPosting
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.IdentityKey, &p.Title, &p.LocationText,
		&p.DatePostedRaw, &p.DescriptionText, &p.SourceURL, &p.CanonicalURL,
		&p.IsActive, &p.FirstSeenAt, &p.LastSeenAt, &p.ClosedAt,
	)
	return p, err
}
