package registry

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type RegisterInput struct {
	Asset    common.Address `json:"asset"`
	Price    *uint256.Int   `json:"price"`
	Decimals *uint256.Int   `json:"decimals"`
	Symbol   string         `json:"symbol"`
}

// ParamsDefaults seed the engine parameters on first start.
type ParamsDefaults struct {
	CollateralRatio     uint64
	LiquidationDuration time.Duration
	MaxLoan             *uint256.Int
}
