package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SissyMaxy/becoming-protocol-sub003/internal/engine"
	"github.com/SissyMaxy/becoming-protocol-sub003/internal/session"
)

// CreateSession inserts the durable record and returns its generated ID.
// This is the one store call the engine requires to succeed.
func (s *Store) CreateSession(ctx context.Context, cfg session.Config) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, kind, target_edges, origin_task_id, prescribed, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		string(cfg.Kind),
		cfg.TargetEdges,
		cfg.OriginTaskID,
		boolToInt(cfg.Prescribed),
		string(session.StatusInProgress),
		formatTime(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// RecordCommitment appends one accepted auction option. Called best-effort
// by the engine; a failure here is logged and swallowed upstream.
func (s *Store) RecordCommitment(ctx context.Context, sessionID string, opt session.AuctionOption, triggerEdge int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commitments (session_id, option_id, commitment_type, value, trigger_edge, accepted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID,
		opt.ID,
		string(opt.Commitment),
		opt.Value,
		triggerEdge,
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("record commitment: %w", err)
	}
	return nil
}

// FinalizeSession writes the summary and the full edge list in one
// transaction. Re-finalizing a session replaces its edge rows, so a
// retried best-effort write stays idempotent.
func (s *Store) FinalizeSession(ctx context.Context, sessionID string, sum engine.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET status = ?, end_reason = ?, completion_type = ?, mood = ?, notes = ?,
		    points = ?, duration_ms = ?, edge_count = ?, finalized_at = ?
		WHERE id = ?`,
		string(sum.Status),
		string(sum.Reason),
		sum.Completion.String(),
		string(sum.Mood),
		sum.Notes,
		sum.Points,
		sum.Duration.Milliseconds(),
		len(sum.Edges),
		formatTime(s.now()),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finalize session: unknown session %s", sessionID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}
	for _, e := range sum.Edges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO edges (session_id, number, at, elapsed_ms, since_last_ms, recovery_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID,
			e.Number,
			formatTime(e.At),
			e.Elapsed.Milliseconds(),
			e.SinceLast.Milliseconds(),
			e.Recovery.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert edge %d: %w", e.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// AwardPoints appends to the points ledger. Implements engine.PointsAwarder;
// the engine skips the call entirely for a zero score.
func (s *Store) AwardPoints(ctx context.Context, sessionID string, points int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO points_ledger (session_id, points, awarded_at)
		VALUES (?, ?, ?)`,
		sessionID,
		points,
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
