package params

import (
	"errors"
	"time"

	"github.com/holiman/uint256"
)

var ErrNotFound = errors.New("engine params not initialized")

// Params is the process-wide configuration every loan operation reads.
type Params struct {
	CollateralRatio     uint64        `json:"collateral_ratio"` // thousandths
	LiquidationDuration time.Duration `json:"liquidation_duration"`
	MaxLoan             *uint256.Int  `json:"max_loan"`
	UpdatedAt           time.Time     `json:"updated_at"`
}
