// Package sqlstore persists drafts and taxonomy terms in PostgreSQL (through
// the pgx stdlib driver) or SQLite. It implements the normalizer draft and
// vocabulary ports.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/taxonomy"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS webform_drafts (
  user_id TEXT NOT NULL,
  form_id TEXT NOT NULL,
  sid TEXT NOT NULL DEFAULT '',
  current_page TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL DEFAULT '{}',
  PRIMARY KEY (user_id, form_id)
)`,
	`CREATE TABLE IF NOT EXISTS taxonomy_terms (
  vocabulary_id TEXT NOT NULL,
  term_id TEXT NOT NULL,
  label TEXT NOT NULL,
  parent_id TEXT NOT NULL DEFAULT '',
  weight INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (vocabulary_id, term_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_taxonomy_terms_weight ON taxonomy_terms (vocabulary_id, weight)`,
}

// Store reads and writes drafts and vocabularies.
type Store struct {
	db     *sql.DB
	driver string

	schemaMu    sync.Mutex
	schemaReady bool
}

var (
	_ normalizer.DraftLoader = (*Store)(nil)
	_ taxonomy.Loader        = (*Store)(nil)
)

// Open connects to dsn with the given driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver = strings.TrimSpace(driver)
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	return New(db, driver), nil
}

// New wraps an existing connection pool. driver selects the placeholder
// dialect.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates the tables on first use. A failed attempt is retried
// by the next call.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlstore: store is not connected")
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: ensure schema: %w", err)
		}
	}
	s.schemaReady = true
	return nil
}

// LoadDraft returns the draft userID keeps for formID, or nil when none is
// stored.
func (s *Store) LoadDraft(ctx context.Context, userID, formID string) (*normalizer.Draft, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT sid, current_page, data
FROM webform_drafts WHERE user_id = ? AND form_id = ?`), strings.TrimSpace(userID), strings.TrimSpace(formID))

	var (
		draft normalizer.Draft
		data  string
	)
	if err := row.Scan(&draft.SID, &draft.CurrentPage, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore: load draft: %w", err)
	}
	if strings.TrimSpace(data) != "" {
		if err := json.Unmarshal([]byte(data), &draft.Values); err != nil {
			return nil, fmt.Errorf("sqlstore: decode draft data: %w", err)
		}
	}
	return &draft, nil
}

// SaveDraft inserts or replaces the draft of userID for formID and returns
// its submission id. A draft saved without a SID keeps the one already
// stored, or gets a new one.
func (s *Store) SaveDraft(ctx context.Context, userID, formID string, draft normalizer.Draft) (string, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return "", err
	}
	userID, formID = strings.TrimSpace(userID), strings.TrimSpace(formID)
	if userID == "" || formID == "" {
		return "", errors.New("sqlstore: user id and form id are required")
	}
	sid := strings.TrimSpace(draft.SID)
	if sid == "" {
		existing, err := s.storedSID(ctx, userID, formID)
		if err != nil {
			return "", err
		}
		sid = existing
	}
	if sid == "" {
		sid = uuid.New().String()
	}
	values := draft.Values
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("sqlstore: encode draft data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO webform_drafts (user_id, form_id, sid, current_page, data)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, form_id)
DO UPDATE SET sid=EXCLUDED.sid,
  current_page=EXCLUDED.current_page,
  data=EXCLUDED.data`),
		userID, formID, sid, draft.CurrentPage, string(data))
	if err != nil {
		return "", fmt.Errorf("sqlstore: save draft: %w", err)
	}
	return sid, nil
}

func (s *Store) storedSID(ctx context.Context, userID, formID string) (string, error) {
	var sid string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT sid FROM webform_drafts WHERE user_id = ? AND form_id = ?`),
		userID, formID).Scan(&sid)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sqlstore: load draft sid: %w", err)
	}
	return sid, nil
}

// DeleteDraft removes a stored draft. Missing drafts are not an error.
func (s *Store) DeleteDraft(ctx context.Context, userID, formID string) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM webform_drafts WHERE user_id = ? AND form_id = ?`),
		strings.TrimSpace(userID), strings.TrimSpace(formID))
	if err != nil {
		return fmt.Errorf("sqlstore: delete draft: %w", err)
	}
	return nil
}

// LoadVocabulary returns the terms of vocabularyID in display order.
func (s *Store) LoadVocabulary(ctx context.Context, vocabularyID string) ([]taxonomy.Term, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT term_id, label, parent_id
FROM taxonomy_terms WHERE vocabulary_id = ?
ORDER BY weight, label`), strings.TrimSpace(vocabularyID))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query vocabulary: %w", err)
	}
	defer rows.Close()

	terms := []taxonomy.Term{}
	for rows.Next() {
		var term taxonomy.Term
		if err := rows.Scan(&term.ID, &term.Label, &term.ParentID); err != nil {
			return nil, fmt.Errorf("sqlstore: scan term: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: read vocabulary: %w", err)
	}
	return terms, nil
}

// PutVocabulary replaces the terms of vocabularyID. Terms keep the order they
// are given in.
func (s *Store) PutVocabulary(ctx context.Context, vocabularyID string, terms []taxonomy.Term) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	vocabularyID = strings.TrimSpace(vocabularyID)
	if vocabularyID == "" {
		return errors.New("sqlstore: vocabulary id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM taxonomy_terms WHERE vocabulary_id = ?`), vocabularyID); err != nil {
		return fmt.Errorf("sqlstore: clear vocabulary: %w", err)
	}
	insert := s.rebind(`INSERT INTO taxonomy_terms (vocabulary_id, term_id, label, parent_id, weight)
VALUES (?, ?, ?, ?, ?)`)
	for idx, term := range terms {
		if _, err := tx.ExecContext(ctx, insert, vocabularyID, term.ID, term.Label, term.ParentID, idx); err != nil {
			return fmt.Errorf("sqlstore: insert term %q: %w", term.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
