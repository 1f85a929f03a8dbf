package accounting

import (
	"errors"

	"github.com/holiman/uint256"
)

// Precision is the denominator of the collateral ratio (ratios are thousandths).
const Precision = 1000

// DefaultCollateralRatio is 1.5x.
const DefaultCollateralRatio = 1500

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPrice  = errors.New("invalid price: division by zero")
	ErrOverflow      = errors.New("arithmetic overflow")
)

var precision = uint256.NewInt(Precision)

// MinimumCollateral returns the smallest collateral amount (in base units)
// that backs debt at the given ratio:
//
//	debt * ratio * scale / Precision / price
//
// Multiplications happen before the divisions and each division truncates.
// The result may therefore sit marginally below the exact minimum.
func MinimumCollateral(debt *uint256.Int, ratio uint64, scale, price *uint256.Int) (*uint256.Int, error) {
	if price == nil || price.IsZero() {
		return nil, ErrInvalidPrice
	}
	if debt == nil || scale == nil {
		return nil, ErrInvalidAmount
	}
	out, overflow := new(uint256.Int).MulOverflow(debt, uint256.NewInt(ratio))
	if overflow {
		return nil, ErrOverflow
	}
	if _, overflow = out.MulOverflow(out, scale); overflow {
		return nil, ErrOverflow
	}
	out.Div(out, precision)
	out.Div(out, price)
	return out, nil
}

// ProRata returns amount * part / whole, truncated. whole must be non-zero.
func ProRata(amount, part, whole *uint256.Int) (*uint256.Int, error) {
	if whole == nil || whole.IsZero() {
		return nil, ErrInvalidAmount
	}
	out, overflow := new(uint256.Int).MulOverflow(amount, part)
	if overflow {
		return nil, ErrOverflow
	}
	return out.Div(out, whole), nil
}

// Add returns a + b or ErrOverflow.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Sub returns a - b. Underflow is reported as ErrInvalidAmount.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	out, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrInvalidAmount
	}
	return out, nil
}

// Zero returns a fresh zero amount.
func Zero() *uint256.Int { return new(uint256.Int) }
