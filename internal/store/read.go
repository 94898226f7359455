package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// ErrNotFound is returned when a session ID has no durable record.
var ErrNotFound = errors.New("session not found")

// SessionRecord is the durable view of a session, as read back for
// inspection.
type SessionRecord struct {
	ID           string
	Kind         session.Kind
	TargetEdges  int
	OriginTaskID string
	Prescribed   bool
	Status       session.Status
	EndReason    string
	Completion   string
	Mood         session.Mood
	Notes        string
	Points       int
	Duration     time.Duration
	EdgeCount    int
	CreatedAt    time.Time
	FinalizedAt  time.Time
}

// CommitmentRecord is one accepted auction option as stored.
type CommitmentRecord struct {
	OptionID    string
	Commitment  session.CommitmentType
	Value       string
	TriggerEdge int
	AcceptedAt  time.Time
}

const sessionColumns = `id, kind, target_edges, origin_task_id, prescribed, status,
	end_reason, completion_type, mood, notes, points, duration_ms, edge_count,
	created_at, finalized_at`

// GetSession reads one durable session record.
func (s *Store) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	return rec, err
}

// ListSessions returns sessions newest first, up to limit (0 means all).
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEdges returns a session's edges in recorded order.
func (s *Store) ListEdges(ctx context.Context, sessionID string) ([]session.EdgeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, at, elapsed_ms, since_last_ms, recovery_ms
		FROM edges WHERE session_id = ? ORDER BY number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var out []session.EdgeRecord
	for rows.Next() {
		var (
			e                           session.EdgeRecord
			at                          string
			elapsedMS, sinceMS, recovMS int64
		)
		if err := rows.Scan(&e.Number, &at, &elapsedMS, &sinceMS, &recovMS); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.At = parseTime(at)
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		e.SinceLast = time.Duration(sinceMS) * time.Millisecond
		e.Recovery = time.Duration(recovMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListCommitments returns a session's accepted commitments in acceptance
// order.
func (s *Store) ListCommitments(ctx context.Context, sessionID string) ([]CommitmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT option_id, commitment_type, value, trigger_edge, accepted_at
		FROM commitments WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer rows.Close()

	var out []CommitmentRecord
	for rows.Next() {
		var (
			c      CommitmentRecord
			ct, at string
		)
		if err := rows.Scan(&c.OptionID, &ct, &c.Value, &c.TriggerEdge, &at); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		c.Commitment = session.CommitmentType(ct)
		c.AcceptedAt = parseTime(at)
		out = append(out, c)
	}
	return out, rows.Err()
}

// TotalPoints sums the points ledger for a session.
func (s *Store) TotalPoints(ctx context.Context, sessionID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE session_id = ?`,
		sessionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total points: %w", err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var (
		rec                    SessionRecord
		kind, status, mood     string
		prescribed             int
		durationMS             int64
		createdAt, finalizedAt string
	)
	err := row.Scan(
		&rec.ID, &kind, &rec.TargetEdges, &rec.OriginTaskID, &prescribed, &status,
		&rec.EndReason, &rec.Completion, &mood, &rec.Notes, &rec.Points,
		&durationMS, &rec.EdgeCount, &createdAt, &finalizedAt,
	)
	if err != nil {
		return SessionRecord{}, err
	}
	rec.Kind = session.Kind(kind)
	rec.Status = session.Status(status)
	rec.Mood = session.Mood(mood)
	rec.Prescribed = prescribed != 0
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.CreatedAt = parseTime(createdAt)
	rec.FinalizedAt = parseTime(finalizedAt)
	return rec, nil
}
