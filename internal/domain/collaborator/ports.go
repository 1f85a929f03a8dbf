// Package collaborator declares the external contracts the ledger drives:
// the synthetic currency, collateral tokens, the native coin, the liquidation
// auction and the treasury.
package collaborator

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrTransferFailed        = errors.New("transfer failed")
)

// SyntheticCurrency is the pegged debt token. The ledger holds issuer
// authority: it mints on issuance and burns what it pulled on settlement.
type SyntheticCurrency interface {
	Mint(ctx context.Context, to common.Address, amount *uint256.Int) error
	Burn(ctx context.Context, amount *uint256.Int) error
	Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error)
	TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) (bool, error)
}

// CollateralToken is an ERC20-shaped collateral asset.
type CollateralToken interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error)
	TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) (bool, error)
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) (bool, error)
}

// NativeCoin moves the chain's native coin by direct value transfer.
type NativeCoin interface {
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) (bool, error)
}

// Handoff is what the ledger passes to the auction when a loan enters
// liquidation.
type Handoff struct {
	LiquidationID    string         `json:"liquidation_id"`
	LoanID           uint64         `json:"loan_id"`
	Asset            common.Address `json:"asset"`
	CollateralAmount *uint256.Int   `json:"collateral_amount"`
	DebtAmount       *uint256.Int   `json:"debt_amount"`
	Duration         time.Duration  `json:"duration"`
}

// Liquidator starts the auction. It later calls back into exitLiquidation.
// CancelLiquidation withdraws a hand-off whose ledger transaction did not
// commit; the auction must drop that liquidation_id.
type Liquidator interface {
	StartLiquidation(ctx context.Context, h Handoff) error
	CancelLiquidation(ctx context.Context, h Handoff) error
}

// Treasury receives collateral swept out of the ledger.
type Treasury interface {
	Deposit(ctx context.Context, asset common.Address, amount *uint256.Int, memo string) error
}
