package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Nenorae/PIFACE/internal/database"
)

// uniqueViolation is the PostgreSQL error code raised when an insert hits a
// unique constraint.
const uniqueViolation = "23505"

// AttendanceRepository provides PostgreSQL-backed attendance storage
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// HasRecord checks whether a record exists for (session, student)
func (r *AttendanceRepository) HasRecord(ctx context.Context, sessionID string, studentID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM attendance_log WHERE session_id = $1 AND student_id = $2)",
		sessionID, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance record exists: %w", err)
	}
	return exists, nil
}

// InsertRecord appends one attendance record. The unique constraint on
// (session_id, student_id) is the authoritative de-duplication point:
// concurrent inserts of the same pair all but one come back as
// database.ErrDuplicateRecord.
func (r *AttendanceRepository) InsertRecord(ctx context.Context, sessionID string, studentID int64, recordedAt time.Time) error {
	query := `
		INSERT INTO attendance_log (session_id, student_id, recorded_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, sessionID, studentID, recordedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return database.ErrDuplicateRecord
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// ListBySession returns all records for a session in insertion order
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]database.AttendanceRecord, error) {
	query := `
		SELECT a.id, a.session_id, a.student_id, s.name, a.recorded_at
		FROM attendance_log a
		JOIN students s ON s.id = a.student_id
		WHERE a.session_id = $1
		ORDER BY a.id
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.StudentID,
			&rec.StudentName,
			&rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}

	return records, nil
}

// Verify interface compliance
var _ database.AttendanceLedger = (*AttendanceRepository)(nil)
