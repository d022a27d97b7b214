package outbound

import "context"

// Repository is the per-entity persistence surface bound to one unit of work.
// Reads hit the store directly; writes are staged until the unit of work commits.
type Repository[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	GetAll(ctx context.Context) ([]T, error)
	// GetAllProjected decodes every document into out, a pointer to a slice of a projection type.
	GetAllProjected(ctx context.Context, out any) error
	Add(ctx context.Context, item *T) (string, error)
	AddRange(ctx context.Context, items []*T) ([]string, error)
	Delete(ctx context.Context, id string) error
	DeleteRange(ctx context.Context, ids []string) error
	Disable(ctx context.Context, id string) error
	DisableEntity(ctx context.Context, item *T) error
	DisableRange(ctx context.Context, ids []string) error
	DisableEntities(ctx context.Context, items []*T) error
}
