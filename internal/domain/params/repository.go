package params

import "context"

type Repository interface {
	Get(ctx context.Context) (*Params, error)
	GetForUpdate(ctx context.Context) (*Params, error)
	Save(ctx context.Context, p *Params) error
}
