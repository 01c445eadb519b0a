package mapping

import "context"

// Repository provides access to stored code mappings.
type Repository interface {
	ListBySourceCode(ctx context.Context, sourceCode string) ([]*CodeMapping, error)
	ListAll(ctx context.Context, limit, offset int) ([]*CodeMapping, error)
	Upsert(ctx context.Context, m *CodeMapping) error
	DeleteAll(ctx context.Context) error
}
