package collateral

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type Repository interface {
	// Get returns ErrNotFound when the asset was never registered.
	Get(ctx context.Context, asset common.Address) (*Descriptor, error)
	GetForUpdate(ctx context.Context, asset common.Address) (*Descriptor, error)
	// Save inserts or overwrites the descriptor row.
	Save(ctx context.Context, d *Descriptor) error
	List(ctx context.Context) ([]Descriptor, error)
}
