package sqlite

import (
	"context"
	"fmt"
	"time"
)

// Visitor is one tracked page view. The client address is stored only as a
// salted hash.
type Visitor struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	VisitedAt time.Time `json:"timestamp"`
}

type VisitorStats struct {
	TotalVisitors    int64 `json:"total_visitors"`
	UniqueVisitors   int64 `json:"unique_visitors"`
	VisitorsToday    int64 `json:"visitors_today"`
	VisitorsThisWeek int64 `json:"visitors_this_week"`
}

func (s *Store) RecordVisit(ctx context.Context, v Visitor) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, visited_at) VALUES (?, ?, ?, ?)`,
		v.HashedIP, v.UserAgent, v.Path, toMillis(v.VisitedAt),
	)
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// VisitorStats counts visits overall, since UTC midnight of now, and over the
// seven days before now.
func (s *Store) VisitorStats(ctx context.Context, now time.Time) (VisitorStats, error) {
	if err := s.check(ctx); err != nil {
		return VisitorStats{}, err
	}
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var st VisitorStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT hashed_ip),
		        COALESCE(SUM(CASE WHEN visited_at >= ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN visited_at >= ? THEN 1 ELSE 0 END), 0)
		   FROM visitors`,
		toMillis(midnight), toMillis(weekAgo),
	).Scan(&st.TotalVisitors, &st.UniqueVisitors, &st.VisitorsToday, &st.VisitorsThisWeek)
	if err != nil {
		return VisitorStats{}, fmt.Errorf("visitor stats: %w", err)
	}
	return st, nil
}

// RecentVisitors returns up to limit visits, newest first.
func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]Visitor, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hashed_ip, user_agent, path, visited_at
		   FROM visitors
		  ORDER BY visited_at DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent visitors: %w", err)
	}
	defer rows.Close()

	visitors := []Visitor{}
	for rows.Next() {
		var v Visitor
		var at int64
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &at); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		v.VisitedAt = fromMillis(at)
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visitors: %w", err)
	}
	return visitors, nil
}

// PurgeVisitorsBefore deletes visits older than cutoff and returns how many
// were removed.
func (s *Store) PurgeVisitorsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE visited_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge visitors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
