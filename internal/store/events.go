package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/tutorloop/internal/llm"
)

// RecordLLMRequest appends one generation-call event. Implements
// llm.EventSink.
func (s *Store) RecordLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO llm_request_events
			(sequence, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, ev.Provider, ev.Model, ev.Purpose,
		ev.InputTokens, ev.OutputTokens, ev.LatencyMs, ev.Success, ev.ErrorMessage)
	if err != nil {
		return fmt.Errorf("save llm request event: %w", err)
	}
	return nil
}

// RecordSessionEvent appends one session lifecycle event. Implements
// session.EventRecorder.
func (s *Store) RecordSessionEvent(ctx context.Context, userID, missionID, event, detail string) error {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_events (sequence, user_id, mission_id, event, detail)
		 VALUES (?, ?, ?, ?, ?)`,
		seq, userID, missionID, event, detail)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// LLMStats aggregates the generation-call log.
type LLMStats struct {
	Requests     int64
	Failures     int64
	InputTokens  int64
	OutputTokens int64
	AvgLatencyMs float64
}

// LLMStatsSince aggregates generation calls recorded after since.
func (s *Store) LLMStatsSince(ctx context.Context, since time.Time) (*LLMStats, error) {
	var st LLMStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(AVG(latency_ms), 0)
		 FROM llm_request_events
		 WHERE created_at >= ?`, since.UTC()).
		Scan(&st.Requests, &st.Failures, &st.InputTokens, &st.OutputTokens, &st.AvgLatencyMs)
	if err != nil {
		return nil, fmt.Errorf("llm stats: %w", err)
	}
	return &st, nil
}

// LLMEvent is one row of the generation-call log.
type LLMEvent struct {
	ID           int64
	Sequence     int64
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	CreatedAt    time.Time
}

// RecentLLMEvents returns the newest generation-call events, newest first.
func (s *Store) RecentLLMEvents(ctx context.Context, limit int) ([]LLMEvent, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sequence, provider, model, purpose, input_tokens, output_tokens,
			latency_ms, success, error_message, created_at
		 FROM llm_request_events
		 ORDER BY sequence DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent llm events: %w", err)
	}
	defer rows.Close()

	var events []LLMEvent
	for rows.Next() {
		var ev LLMEvent
		if err := rows.Scan(&ev.ID, &ev.Sequence, &ev.Provider, &ev.Model, &ev.Purpose,
			&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &ev.Success,
			&ev.ErrorMessage, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan llm event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SessionEvent is one row of the session lifecycle log.
type SessionEvent struct {
	Sequence  int64
	UserID    string
	MissionID string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// SessionHistory returns the lifecycle events for one session key in
// sequence order.
func (s *Store) SessionHistory(ctx context.Context, userID, missionID string) ([]SessionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence, user_id, mission_id, event, detail, created_at
		 FROM session_events
		 WHERE user_id = ? AND mission_id = ?
		 ORDER BY sequence`, userID, missionID)
	if err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var ev SessionEvent
		if err := rows.Scan(&ev.Sequence, &ev.UserID, &ev.MissionID, &ev.Event, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
