package liquidation

import "context"

type Repository interface {
	// Create a new liquidation (DB uniqueness ensures at most one per loan)
	Create(ctx context.Context, l *Liquidation) error

	// Get liquidation by numeric loan ID
	GetByLoanID(ctx context.Context, loanID uint64) (*Liquidation, error)

	// Get by public liquidation_id
	GetByLiquidationID(ctx context.Context, liquidationID string) (*Liquidation, error)

	Save(ctx context.Context, l *Liquidation) error
}
