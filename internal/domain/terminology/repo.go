package terminology

import "context"

// ConceptRepository provides access to the concepts of the supported
// terminology systems. Search matches case-insensitively against code and
// display; ranking is applied by the service, so implementations only need a
// stable candidate order.
type ConceptRepository interface {
	Search(ctx context.Context, systems []string, query string, limit int) ([]*Concept, error)
	GetByCode(ctx context.Context, system, code string) (*Concept, error)
}
