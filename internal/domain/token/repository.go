package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Repository stores ERC20-shaped balances and allowances per token. Missing
// rows read as zero.
type Repository interface {
	Balance(ctx context.Context, token, holder common.Address) (*uint256.Int, error)
	SetBalance(ctx context.Context, token, holder common.Address, amount *uint256.Int) error
	Allowance(ctx context.Context, token, owner, spender common.Address) (*uint256.Int, error)
	SetAllowance(ctx context.Context, token, owner, spender common.Address, amount *uint256.Int) error
	RecordDeposit(ctx context.Context, d *TreasuryDeposit) error
	ListDeposits(ctx context.Context, asset common.Address) ([]TreasuryDeposit, error)
}
