package diagnosis

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a Postgres-backed diagnosis repository over the
// conditions table.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const conditionColumns = `id, patient_id, namaste_code, namaste_display, icd_code, icd_display,
	clinical_status, verification_status, note, recorded_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conditions (id, patient_id, namaste_code, namaste_display, icd_code, icd_display,
		                         clinical_status, verification_status, note, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.PatientID, rec.NAMASTECode, rec.NAMASTEDisplay, rec.ICDCode, rec.ICDDisplay,
		rec.ClinicalStatus, rec.VerificationStatus, rec.Note, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("condition insert: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+conditionColumns+` FROM conditions WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("condition get: %w", err)
	}
	return rec, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+conditionColumns+`
		 FROM conditions
		 WHERE patient_id = $1
		 ORDER BY recorded_at DESC, id
		 LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("condition list: %w", err)
	}
	defer rows.Close()

	var results []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

type pgRow interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row pgRow) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.NAMASTECode, &rec.NAMASTEDisplay,
		&rec.ICDCode, &rec.ICDDisplay, &rec.ClinicalStatus, &rec.VerificationStatus,
		&rec.Note, &rec.RecordedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
