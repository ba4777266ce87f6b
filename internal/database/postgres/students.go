package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nenorae/PIFACE/internal/database"
)

// StudentRepository provides PostgreSQL-backed student storage
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetStudentByName looks a student up by normalized name, returns nil
// if no student matches
func (r *StudentRepository) GetStudentByName(ctx context.Context, name string) (*database.Student, error) {
	query := `
		SELECT id, name, created_at
		FROM students
		WHERE normalized_name = $1
	`

	var s database.Student
	err := r.pool.QueryRow(ctx, query, database.NormalizeStudentName(name)).Scan(
		&s.ID,
		&s.Name,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student by name: %w", err)
	}

	return &s, nil
}

// UpsertStudent inserts a student or refreshes the display name of an
// existing one, keyed by normalized name. Returns the student ID.
func (r *StudentRepository) UpsertStudent(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO students (name, normalized_name)
		VALUES ($1, $2)
		ON CONFLICT (normalized_name) DO UPDATE SET
			name = EXCLUDED.name
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, name, database.NormalizeStudentName(name)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert student: %w", err)
	}
	return id, nil
}

// ListStudents returns all students ordered by name
func (r *StudentRepository) ListStudents(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, created_at FROM students ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}

// Verify interface compliance
var _ database.StudentReader = (*StudentRepository)(nil)
