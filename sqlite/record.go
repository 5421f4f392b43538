package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/pagestem"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ pagestem.RecordStore = (*RecordStore)(nil)

// DefaultExclude lists the record fields that are not persisted: the raw
// page and the parsed tree.
var DefaultExclude = []string{pagestem.FieldContent, pagestem.FieldTree}

// SaveCounts reports what a run did to the stored records.
type SaveCounts struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// RecordStore implements pagestem.RecordStore using SQLite. Records are keyed
// by URL, so saving a page again replaces its previous version. All saves
// between two commits run in one transaction. The database allows a single
// connection, so finders block while a run is open.
type RecordStore struct {
	db *DB

	// Exclude lists fields left out of the stored record.
	Exclude []string

	// Now returns the time stamped on runs and records.
	Now func() time.Time

	mu       sync.Mutex
	tx       *sql.Tx
	runID    string
	position int
	counts   SaveCounts
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{
		db:      db,
		Exclude: DefaultExclude,
		Now:     time.Now,
	}
}

// RecordFilter selects stored records. Nil fields match everything.
type RecordFilter struct {
	RunID    *string
	Template *string
	SiteURL  *string

	Limit  int
	Offset int
}

// RunID returns the ID of the run in progress, or "" when none is.
func (s *RecordStore) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Counts returns the counts of the run in progress.
func (s *RecordStore) Counts() SaveCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Save stages a record. A record whose stored fields are unchanged since
// its last save only moves to the current run.
func (s *RecordStore) Save(ctx context.Context, rec pagestem.Record) error {
	if rec.Path() == "" {
		return pagestem.Errorf(pagestem.EINVALID, "record has no path")
	}

	fields, err := s.encode(rec)
	if err != nil {
		return err
	}
	hash := hashContent(fields)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx); err != nil {
		return err
	}

	now := s.Now().UTC().Format(time.RFC3339)
	url := rec.URL()

	var id, storedHash string
	err = s.tx.QueryRowContext(ctx, `SELECT id, content_hash FROM records WHERE url = ?`, url).Scan(&id, &storedHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.tx.ExecContext(ctx, `
			INSERT INTO records (id, run_id, url, site_url, path, template, title, fields, content_hash, position, saved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), s.runID, url, rec.SiteURL(), rec.Path(), rec.String(pagestem.FieldTemplate),
			rec.String("title"), string(fields), hash, s.position, now)
		if err == nil {
			s.counts.Inserted++
		}
	case err != nil:
		return err
	case storedHash == hash:
		_, err = s.tx.ExecContext(ctx, `UPDATE records SET run_id = ?, position = ? WHERE id = ?`, s.runID, s.position, id)
		if err == nil {
			s.counts.Unchanged++
		}
	default:
		_, err = s.tx.ExecContext(ctx, `
			UPDATE records
			SET run_id = ?, site_url = ?, path = ?, template = ?, title = ?, fields = ?, content_hash = ?, position = ?, saved_at = ?
			WHERE id = ?
		`, s.runID, rec.SiteURL(), rec.Path(), rec.String(pagestem.FieldTemplate), rec.String("title"),
			string(fields), hash, s.position, now, id)
		if err == nil {
			s.counts.Updated++
		}
	}
	if err != nil {
		return err
	}

	s.position++
	return nil
}

// begin opens the run transaction if none is open. The caller holds s.mu.
func (s *RecordStore) begin(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}

	// The transaction outlives the context of the first save.
	tx, err := s.db.BeginTx(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	runID := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		runID, s.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return err
	}

	s.tx = tx
	s.runID = runID
	s.position = 0
	s.counts = SaveCounts{}
	return nil
}

// encode serializes the persisted fields of rec. Keys are sorted so equal
// records encode identically.
func (s *RecordStore) encode(rec pagestem.Record) ([]byte, error) {
	stored := make(pagestem.Record, len(rec))
	for k, v := range rec {
		stored[k] = v
	}
	for _, k := range s.Exclude {
		delete(stored, k)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(stored); err != nil {
		return nil, pagestem.Errorf(pagestem.EINVALID, "record %q cannot be stored: %v", rec.Path(), err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Commit makes the run's records permanent.
func (s *RecordStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	defer s.reset()

	if _, err := s.tx.Exec(`UPDATE runs SET finished_at = ?, saved = ? WHERE id = ?`,
		s.Now().UTC().Format(time.RFC3339), s.position, s.runID); err != nil {
		_ = s.tx.Rollback()
		return err
	}
	return s.tx.Commit()
}

// Abort discards the run's records.
func (s *RecordStore) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	defer s.reset()
	return s.tx.Rollback()
}

func (s *RecordStore) reset() {
	s.tx = nil
	s.runID = ""
}

// FindRecordByURL retrieves the stored record of a page.
func (s *RecordStore) FindRecordByURL(ctx context.Context, url string) (pagestem.Record, error) {
	var fields string
	err := s.db.QueryRowContext(ctx, `SELECT fields FROM records WHERE url = ?`, url).Scan(&fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pagestem.Errorf(pagestem.ENOTFOUND, "record not found")
	}
	if err != nil {
		return nil, err
	}
	return decode(fields)
}

// FindRecords retrieves stored records in the order they were saved.
func (s *RecordStore) FindRecords(ctx context.Context, filter RecordFilter) ([]pagestem.Record, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT fields FROM records WHERE 1=1")

	if filter.RunID != nil {
		query.WriteString(" AND run_id = ?")
		args = append(args, *filter.RunID)
	}
	if filter.Template != nil {
		query.WriteString(" AND template = ?")
		args = append(args, *filter.Template)
	}
	if filter.SiteURL != nil {
		query.WriteString(" AND site_url = ?")
		args = append(args, *filter.SiteURL)
	}

	query.WriteString(" ORDER BY position ASC, url ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []pagestem.Record
	for rows.Next() {
		var fields string
		if err := rows.Scan(&fields); err != nil {
			return nil, err
		}
		rec, err := decode(fields)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// Run describes one committed batch of saves.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Saved      int
}

// FindRuns lists committed runs, most recent first.
func (s *RecordStore) FindRuns(ctx context.Context, limit int) ([]*Run, error) {
	var query strings.Builder
	var args []any
	query.WriteString("SELECT id, started_at, finished_at, saved FROM runs WHERE finished_at != '' ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, limit, 0)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt string
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Saved); err != nil {
			return nil, err
		}
		if run.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseRFC3339(finishedAt, "finished_at"); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func decode(fields string) (pagestem.Record, error) {
	dec := json.NewDecoder(strings.NewReader(fields))
	dec.UseNumber()
	var rec pagestem.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return rec, nil
}
