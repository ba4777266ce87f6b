package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nenorae/PIFACE/internal/database"
)

// ScheduleRepository provides PostgreSQL-backed schedule storage
type ScheduleRepository struct {
	pool *Pool
}

// NewScheduleRepository creates a new PostgreSQL schedule repository
func NewScheduleRepository(pool *Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// CreateSchedule inserts a schedule and returns its ID
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule *database.Schedule) (int64, error) {
	query := `
		INSERT INTO schedules (course_code, course_name, lecturer, day, start_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		schedule.CourseCode,
		schedule.CourseName,
		schedule.Lecturer,
		schedule.Day,
		schedule.StartTime,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create schedule: %w", err)
	}
	return id, nil
}

// GetSchedule retrieves a schedule by ID, returns nil if not found
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id int64) (*database.Schedule, error) {
	query := `
		SELECT id, course_code, course_name, lecturer, day, start_time
		FROM schedules
		WHERE id = $1
	`

	var s database.Schedule
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.CourseCode,
		&s.CourseName,
		&s.Lecturer,
		&s.Day,
		&s.StartTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	return &s, nil
}

// ListSchedules returns all schedules ordered by ID
func (r *ScheduleRepository) ListSchedules(ctx context.Context) ([]database.Schedule, error) {
	query := `
		SELECT id, course_code, course_name, lecturer, day, start_time
		FROM schedules
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []database.Schedule
	for rows.Next() {
		var s database.Schedule
		if err := rows.Scan(&s.ID, &s.CourseCode, &s.CourseName, &s.Lecturer, &s.Day, &s.StartTime); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	return schedules, nil
}
