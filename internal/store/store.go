// Package store persists the billing configuration and visit records
// in a SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sitemeter/internal/model"
	"sitemeter/internal/usage"

	"github.com/coder/quartz"
	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout is RFC 3339 with fixed-width nanoseconds so that stored
// UTC timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultRate is the per-second rate seeded on first initialization.
const DefaultRate = 0.001

// Store provides visit tracking and billing persistence.
type Store struct {
	db    *sql.DB
	clock quartz.Clock
}

// Open opens or creates the billing database at the given path, applies
// the schema, and seeds the billing config row if absent. Safe to call
// on every process start.
func Open(dbPath string, clock quartz.Clock) (*Store, error) {
	if clock == nil {
		clock = quartz.NewReal()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening billing db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	now := clock.Now().UTC().Format(timeLayout)
	_, err = db.Exec(`INSERT INTO billing_config (id, base_cost_per_second, updated_at)
		SELECT 1, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM billing_config)`, DefaultRate, now)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seeding billing config: %w", err)
	}

	return &Store{db: db, clock: clock}, nil
}

// Close closes the billing database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BillingRate returns the active per-second rate.
func (s *Store) BillingRate() (float64, error) {
	var rate float64
	err := s.db.QueryRow("SELECT base_cost_per_second FROM billing_config LIMIT 1").Scan(&rate)
	if err != nil {
		return 0, fmt.Errorf("reading billing rate: %w", err)
	}
	return rate, nil
}

// SetBillingRate updates the active per-second rate. Rates below zero
// are rejected.
func (s *Store) SetBillingRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("billing rate must be non-negative, got %v", rate)
	}
	now := s.clock.Now().UTC().Format(timeLayout)
	if _, err := s.db.Exec("UPDATE billing_config SET base_cost_per_second = ?, updated_at = ?", rate, now); err != nil {
		return fmt.Errorf("updating billing rate: %w", err)
	}
	return nil
}

// OpenVisit records the start of a tracked page view and returns the
// assigned visit id.
func (s *Store) OpenVisit(userID, sessionID, pageURL string) (int64, error) {
	now := s.clock.Now().UTC().Format(timeLayout)
	res, err := s.db.Exec(`INSERT INTO visits (user_id, session_id, page_url, start_time, created_at)
		VALUES (?, ?, ?, ?, ?)`, userID, sessionID, pageURL, now, now)
	if err != nil {
		return 0, fmt.Errorf("opening visit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading visit id: %w", err)
	}
	return id, nil
}

// CloseVisit sets end time, duration, and cost on an open visit, using
// the rate in effect at close time. Unknown or already-closed visit ids
// are a silent no-op.
func (s *Store) CloseVisit(id int64) error {
	rate, err := s.BillingRate()
	if err != nil {
		return err
	}

	var startStr string
	err = s.db.QueryRow("SELECT start_time FROM visits WHERE id = ? AND end_time IS NULL", id).Scan(&startStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading visit %d: %w", id, err)
	}

	start, err := time.Parse(timeLayout, startStr)
	if err != nil {
		return fmt.Errorf("parsing start time of visit %d: %w", id, err)
	}

	now := s.clock.Now().UTC()
	duration := now.Sub(start).Seconds()
	if duration < 0 {
		duration = 0
	}

	_, err = s.db.Exec(`UPDATE visits
		SET end_time = ?, duration_seconds = ?, cost = ?
		WHERE id = ? AND end_time IS NULL`,
		now.Format(timeLayout), duration, duration*rate, id)
	if err != nil {
		return fmt.Errorf("closing visit %d: %w", id, err)
	}
	return nil
}

// Visit loads a single visit record by id.
func (s *Store) Visit(id int64) (model.Visit, error) {
	row := s.db.QueryRow(`SELECT id, user_id, session_id, page_url,
		start_time, end_time, duration_seconds, cost, created_at
		FROM visits WHERE id = ?`, id)

	v, err := scanVisit(row)
	if err != nil {
		return model.Visit{}, fmt.Errorf("loading visit %d: %w", id, err)
	}
	return v, nil
}

// VisitsSince returns the user's visits created at or after since,
// oldest first.
func (s *Store) VisitsSince(userID string, since time.Time) ([]model.Visit, error) {
	rows, err := s.db.Query(`SELECT id, user_id, session_id, page_url,
		start_time, end_time, duration_seconds, cost, created_at
		FROM visits
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at`, userID, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var visits []model.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Usage computes the summary and per-day usage for a user over the
// trailing window of days. Open visits count once with zero duration
// and cost.
func (s *Store) Usage(userID string, days int) (model.UsageReport, error) {
	if days <= 0 {
		days = 30
	}

	since := s.clock.Now().AddDate(0, 0, -days)
	visits, err := s.VisitsSince(userID, since)
	if err != nil {
		return model.UsageReport{}, err
	}

	return model.UsageReport{
		UserID:  userID,
		Days:    days,
		Summary: usage.Summarize(visits),
		Daily:   usage.ByDay(visits),
	}, nil
}

type rowScanner interface {
	Scan(dst ...any) error
}

func scanVisit(row rowScanner) (model.Visit, error) {
	var (
		v                model.Visit
		startStr, create string
		endStr           sql.NullString
		duration, cost   sql.NullFloat64
	)

	err := row.Scan(&v.ID, &v.UserID, &v.SessionID, &v.PageURL,
		&startStr, &endStr, &duration, &cost, &create)
	if err != nil {
		return v, err
	}

	if v.StartTime, err = time.Parse(timeLayout, startStr); err != nil {
		return v, err
	}
	if v.CreatedAt, err = time.Parse(timeLayout, create); err != nil {
		return v, err
	}
	if endStr.Valid {
		if v.EndTime, err = time.Parse(timeLayout, endStr.String); err != nil {
			return v, err
		}
	}
	v.DurationSecs = duration.Float64
	v.Cost = cost.Float64
	return v, nil
}
