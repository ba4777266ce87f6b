// Package database defines the storage types and repository interfaces the
// attendance server is built against. The postgres subpackage provides the
// production implementation; mock provides in-memory doubles for tests.
package database

import (
	"context"
	"time"
)

// SessionStore persists attendance sessions.
type SessionStore interface {
	// CreateSession persists a newly started session
	CreateSession(ctx context.Context, session *Session) error
	// FinishSession stamps ended_at on a session, making it terminal
	FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error
	// GetSession retrieves a session by ID, returns nil if not found
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}

// AttendanceLedger is the durable, append-only attendance record store.
// The (session, student) uniqueness constraint lives at the storage layer,
// which makes de-duplication correct even across multiple server processes
// sharing one database.
type AttendanceLedger interface {
	// HasRecord checks whether a record exists for (session, student)
	HasRecord(ctx context.Context, sessionID string, studentID int64) (bool, error)
	// InsertRecord appends one attendance record. Returns ErrDuplicateRecord
	// when a concurrent or earlier writer already inserted the same pair.
	InsertRecord(ctx context.Context, sessionID string, studentID int64, recordedAt time.Time) error
	// ListBySession returns all records for a session in insertion order
	ListBySession(ctx context.Context, sessionID string) ([]AttendanceRecord, error)
}

// StudentReader resolves recognized roster names to enrolled students.
type StudentReader interface {
	// GetStudentByName looks a student up by normalized name, returns nil
	// if no student matches
	GetStudentByName(ctx context.Context, name string) (*Student, error)
}
