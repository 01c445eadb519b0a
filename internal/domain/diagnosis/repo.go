package diagnosis

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a diagnosis record does not exist.
var ErrNotFound = errors.New("diagnosis not found")

// Repository provides access to stored diagnosis records.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, error)
}
