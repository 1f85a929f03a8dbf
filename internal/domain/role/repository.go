package role

import "context"

type Repository interface {
	Get(ctx context.Context, name Name) (*Holder, error)
	// Create fails with ErrAlreadyInitialized if the role already has a holder.
	Create(ctx context.Context, h *Holder) error
	List(ctx context.Context) ([]Holder, error)
}
