package loan

import (
	"time"

	"cdp-ledger/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type IssueInput struct {
	Borrower        common.Address
	DebtAmount      *uint256.Int
	CollateralAsset common.Address
	// Collateral deposited with the request: attached value for the native
	// coin, pulled through the engine's allowance for tokens.
	Collateral *uint256.Int
}

type LoanDTO struct {
	LoanID           uint64         `json:"loan_id"`
	Recipient        common.Address `json:"recipient"`
	CollateralAsset  common.Address `json:"collateral_asset"`
	CollateralAmount *uint256.Int   `json:"collateral_amount"`
	DebtAmount       *uint256.Int   `json:"debt_amount"`
	State            string         `json:"state"`
	StateUpdatedAt   time.Time      `json:"state_updated_at"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Health describes how far a loan is from liquidation at current prices.
type Health struct {
	MinimumCollateral *uint256.Int `json:"minimum_collateral"`
	// CollateralValue is the collateral priced in synthetic-currency units.
	CollateralValue decimal.Decimal `json:"collateral_value"`
	// CollateralRatio is CollateralValue / DebtAmount; empty when debt is zero.
	CollateralRatio string `json:"collateral_ratio,omitempty"`
	Liquidatable    bool   `json:"liquidatable"`
}

type LoanView struct {
	LoanDTO
	Health *Health `json:"health,omitempty"`
}

type SettleResult struct {
	Loan    *LoanDTO     `json:"loan"`
	Payback *uint256.Int `json:"payback"`
}

type LiquidationDTO struct {
	LiquidationID     string          `json:"liquidation_id"`
	LoanID            uint64          `json:"loan_id"`
	Asset             common.Address  `json:"asset"`
	CollateralAmount  *uint256.Int    `json:"collateral_amount"`
	DebtAmount        *uint256.Int    `json:"debt_amount"`
	DurationSeconds   int64           `json:"duration_seconds"`
	StartedAt         time.Time       `json:"started_at"`
	Buyer             *common.Address `json:"buyer,omitempty"`
	CollateralPaidOut *uint256.Int    `json:"collateral_paid_out,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:           l.ID,
		Recipient:        l.Recipient,
		CollateralAsset:  l.CollateralAsset,
		CollateralAmount: l.CollateralAmount.Clone(),
		DebtAmount:       l.DebtAmount.Clone(),
		State:            string(l.State),
		StateUpdatedAt:   l.StateUpdatedAt,
		CreatedAt:        l.CreatedAt,
	}
}
