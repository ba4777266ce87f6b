package mariadb

import (
	"context"
	"fmt"

	"github.com/Nenorae/PIFACE/internal/database"
)

// ListEnrolledStudents returns the names of students enrolled in the given
// course, ordered by name.
func (p *Pool) ListEnrolledStudents(ctx context.Context, courseCode string) ([]string, error) {
	query := `
		SELECT s.full_name
		FROM siakad_students s
		JOIN siakad_enrollments e ON e.student_id = s.id
		JOIN siakad_courses c ON c.id = e.course_id
		WHERE c.course_code = ?
		ORDER BY s.full_name
	`

	rows, err := p.db.QueryContext(ctx, query, courseCode)
	if err != nil {
		return nil, fmt.Errorf("query enrolled students: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan student name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student names: %w", err)
	}

	return names, nil
}

// ListCourseSchedules returns the scheduled slots for the given course.
func (p *Pool) ListCourseSchedules(ctx context.Context, courseCode string) ([]database.Schedule, error) {
	query := `
		SELECT c.course_code, c.course_name, c.lecturer_name, sl.day_name, sl.start_time
		FROM siakad_courses c
		JOIN siakad_slots sl ON sl.course_id = c.id
		WHERE c.course_code = ?
		ORDER BY sl.day_name, sl.start_time
	`

	rows, err := p.db.QueryContext(ctx, query, courseCode)
	if err != nil {
		return nil, fmt.Errorf("query course schedules: %w", err)
	}
	defer rows.Close()

	var schedules []database.Schedule
	for rows.Next() {
		var s database.Schedule
		if err := rows.Scan(&s.CourseCode, &s.CourseName, &s.Lecturer, &s.Day, &s.StartTime); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	return schedules, nil
}
