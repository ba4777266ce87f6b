package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Nenorae/PIFACE/internal/database"
)

// SessionRepository provides PostgreSQL-backed session storage
type SessionRepository struct {
	pool *Pool
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(pool *Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession persists a newly started session
func (r *SessionRepository) CreateSession(ctx context.Context, session *database.Session) error {
	query := `
		INSERT INTO class_sessions (id, schedule_id, meeting_no, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, session.ID, session.ScheduleID, session.MeetingNo, session.StartedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FinishSession stamps ended_at on a session, making it terminal
func (r *SessionRepository) FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	result, err := r.pool.Exec(ctx, "UPDATE class_sessions SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL", sessionID, endedAt)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("finish session: session %s not found or already finished", sessionID)
	}
	return nil
}

// GetSession retrieves a session by ID, returns nil if not found
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*database.Session, error) {
	query := `
		SELECT id, schedule_id, meeting_no, started_at, ended_at
		FROM class_sessions
		WHERE id = $1
	`

	var s database.Session
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&s.ID,
		&s.ScheduleID,
		&s.MeetingNo,
		&s.StartedAt,
		&s.EndedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

// Verify interface compliance
var _ database.SessionStore = (*SessionRepository)(nil)
