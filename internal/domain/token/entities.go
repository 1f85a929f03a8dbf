package token

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TreasuryDeposit is one discharge of collateral into the treasury.
type TreasuryDeposit struct {
	DepositID string         `json:"deposit_id"`
	Asset     common.Address `json:"asset"`
	Amount    *uint256.Int   `json:"amount"`
	Memo      string         `json:"memo"`
	CreatedAt time.Time      `json:"created_at"`
}
