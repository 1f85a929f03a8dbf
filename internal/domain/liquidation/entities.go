package liquidation

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrNotFound = errors.New("liquidation not found")
)

// Liquidation records one hand-off of a loan to the external auction and,
// once the liquidator reports back, its outcome.
type Liquidation struct {
	// Public identifier (32-char lowercase hex)
	LiquidationID string `json:"liquidation_id"`
	// FK to loans.id; at most one liquidation per loan
	LoanID           uint64         `json:"loan_id"`
	Asset            common.Address `json:"asset"`
	CollateralAmount *uint256.Int   `json:"collateral_amount"` // at hand-off
	DebtAmount       *uint256.Int   `json:"debt_amount"`       // at hand-off
	Duration         time.Duration  `json:"duration"`
	StartedAt        time.Time      `json:"started_at"`
	// Filled in by exitLiquidation
	Buyer             *common.Address `json:"buyer,omitempty"`
	CollateralPaidOut *uint256.Int    `json:"collateral_paid_out,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

func (l *Liquidation) Completed() bool { return l.CompletedAt != nil }
