package collateral

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrNotFound      = errors.New("collateral not found")
	ErrAlreadyExists = errors.New("collateral already registered")
)

// NativeAsset is the reserved identifier for the chain's native coin.
var NativeAsset = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

type Descriptor struct {
	Asset     common.Address `json:"asset"`
	IsActive  bool           `json:"is_active"`
	Price     *uint256.Int   `json:"price"`
	Decimals  *uint256.Int   `json:"decimals"` // base-unit scale, e.g. 10^18
	Symbol    string         `json:"symbol"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (d *Descriptor) IsNative() bool { return d.Asset == NativeAsset }
