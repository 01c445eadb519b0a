package terminology

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a code does not exist in the given system.
var ErrNotFound = errors.New("concept not found")

type conceptRepoPG struct{ pool *pgxpool.Pool }

// NewConceptRepoPG creates a Postgres-backed concept repository over the
// concepts table.
func NewConceptRepoPG(pool *pgxpool.Pool) ConceptRepository {
	return &conceptRepoPG{pool: pool}
}

func (r *conceptRepoPG) Search(ctx context.Context, systems []string, query string, limit int) ([]*Concept, error) {
	if limit <= 0 {
		limit = 20
	}
	if len(systems) == 0 {
		systems = AllSystems()
	}
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx,
		`SELECT code, display, COALESCE(definition,''), system
		 FROM concepts
		 WHERE system = ANY($1) AND (code ILIKE $2 OR display ILIKE $2)
		 ORDER BY display, code LIMIT $3`, systems, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("concept search: %w", err)
	}
	defer rows.Close()

	var results []*Concept
	for rows.Next() {
		var c Concept
		if err := rows.Scan(&c.Code, &c.Display, &c.Definition, &c.System); err != nil {
			return nil, err
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

// ImportConcepts bulk-upserts concepts into the concepts table. Used by the
// seed command to load the NAMASTE CSV export.
func ImportConcepts(ctx context.Context, pool *pgxpool.Pool, concepts []*Concept) (int, error) {
	batch := &pgx.Batch{}
	for _, c := range concepts {
		batch.Queue(
			`INSERT INTO concepts (system, code, display, definition)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (system, code) DO UPDATE
			 SET display = EXCLUDED.display, definition = EXCLUDED.definition`,
			c.System, c.Code, c.Display, c.Definition)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range concepts {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("import concept %s: %w", concepts[i].Code, err)
		}
	}
	return len(concepts), nil
}

func (r *conceptRepoPG) GetByCode(ctx context.Context, system, code string) (*Concept, error) {
	var c Concept
	err := r.pool.QueryRow(ctx,
		`SELECT code, display, COALESCE(definition,''), system
		 FROM concepts WHERE system = $1 AND code = $2`, system, code).
		Scan(&c.Code, &c.Display, &c.Definition, &c.System)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("concept get: %w", err)
	}
	return &c, nil
}
