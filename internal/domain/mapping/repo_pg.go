package mapping

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a Postgres-backed mapping repository over the
// code_mappings table.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const mappingColumns = `id, source_code, source_term, target_code, target_term, equivalence, confidence, created_at`

func (r *repoPG) ListBySourceCode(ctx context.Context, sourceCode string) ([]*CodeMapping, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+mappingColumns+`
		 FROM code_mappings
		 WHERE source_code = $1
		 ORDER BY confidence DESC, target_code`, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("mapping list by source: %w", err)
	}
	defer rows.Close()
	return scanMappings(rows)
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*CodeMapping, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+mappingColumns+`
		 FROM code_mappings
		 ORDER BY source_code, confidence DESC, target_code
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("mapping list all: %w", err)
	}
	defer rows.Close()
	return scanMappings(rows)
}

func (r *repoPG) Upsert(ctx context.Context, m *CodeMapping) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO code_mappings (source_code, source_term, target_code, target_term, equivalence, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (source_code, target_code) DO UPDATE
		 SET source_term = EXCLUDED.source_term,
		     target_term = EXCLUDED.target_term,
		     equivalence = EXCLUDED.equivalence,
		     confidence = EXCLUDED.confidence`,
		m.SourceCode, m.SourceTerm, m.TargetCode, m.TargetTerm, m.Equivalence, m.Confidence)
	if err != nil {
		return fmt.Errorf("mapping upsert: %w", err)
	}
	return nil
}

func (r *repoPG) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM code_mappings`); err != nil {
		return fmt.Errorf("mapping delete all: %w", err)
	}
	return nil
}

type pgRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanMappings(rows pgRows) ([]*CodeMapping, error) {
	var results []*CodeMapping
	for rows.Next() {
		var m CodeMapping
		if err := rows.Scan(&m.ID, &m.SourceCode, &m.SourceTerm, &m.TargetCode, &m.TargetTerm,
			&m.Equivalence, &m.Confidence, &m.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &m)
	}
	return results, rows.Err()
}
