package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/Nenorae/PIFACE/internal/roster"
)

// RosterRepository mirrors the roster embedding snapshot into PostgreSQL.
// The server matches against the in-memory snapshot; the mirror exists so
// embeddings survive SD-card loss on the device and so other tooling can
// query them with pgvector operators.
type RosterRepository struct {
	pool *Pool
}

// NewRosterRepository creates a new PostgreSQL roster repository
func NewRosterRepository(pool *Pool) *RosterRepository {
	return &RosterRepository{pool: pool}
}

// PushRoster upserts all roster identities in a single transaction.
func (r *RosterRepository) PushRoster(ctx context.Context, model string, identities []roster.Identity) error {
	if len(identities) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roster_embeddings (student_name, embedding, model, dim)
		VALUES ($1, $2::vector, $3, $4)
		ON CONFLICT (student_name) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range identities {
		vec := pgvector.NewVector(id.Embedding)
		if _, err := stmt.ExecContext(ctx, id.Name, vec, model, len(id.Embedding)); err != nil {
			return fmt.Errorf("insert roster embedding %s: %w", id.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadRoster returns all mirrored identities for the given model.
func (r *RosterRepository) LoadRoster(ctx context.Context, model string) ([]roster.Identity, error) {
	query := `
		SELECT student_name, embedding
		FROM roster_embeddings
		WHERE model = $1
		ORDER BY student_name
	`

	rows, err := r.pool.Query(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("query roster embeddings: %w", err)
	}
	defer rows.Close()

	var identities []roster.Identity
	for rows.Next() {
		var id roster.Identity
		var vec pgvector.Vector
		if err := rows.Scan(&id.Name, &vec); err != nil {
			return nil, fmt.Errorf("scan roster embedding: %w", err)
		}
		id.Embedding = vec.Slice()
		identities = append(identities, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster embeddings: %w", err)
	}

	return identities, nil
}

// Count returns the number of mirrored roster embeddings
func (r *RosterRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM roster_embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count roster embeddings: %w", err)
	}
	return count, nil
}

// FindNearest returns the mirrored identity closest to the given embedding
// by cosine distance, along with the cosine similarity. Returns nil when the
// mirror is empty.
func (r *RosterRepository) FindNearest(ctx context.Context, model string, embedding []float32) (*roster.Identity, float64, error) {
	query := `
		SELECT student_name, embedding, 1 - (embedding <=> $2::vector) AS similarity
		FROM roster_embeddings
		WHERE model = $1
		ORDER BY embedding <=> $2::vector
		LIMIT 1
	`

	var id roster.Identity
	var vec pgvector.Vector
	var similarity float64

	err := r.pool.QueryRow(ctx, query, model, pgvector.NewVector(embedding)).Scan(&id.Name, &vec, &similarity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("query nearest roster embedding: %w", err)
	}

	id.Embedding = vec.Slice()
	return &id, similarity, nil
}
