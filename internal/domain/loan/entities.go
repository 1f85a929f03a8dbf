package loan

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type State string

const (
	StateActive           State = "active"
	StateUnderLiquidation State = "under_liquidation"
	StateLiquidated       State = "liquidated"
	StateSettled          State = "settled"
)

var (
	ErrNotFound               = errors.New("loan not found")
	ErrInvalidLoanState       = errors.New("invalid loan state")
	ErrInsufficientCollateral = errors.New("insufficient collateral")
	ErrSufficientCollateral   = errors.New("loan is sufficiently collateralized")
	ErrExceededMaxLoan        = errors.New("exceeded max loan")
)

// transitions lists every legal edge of the loan state machine.
var transitions = map[State][]State{
	StateActive:           {StateUnderLiquidation, StateSettled},
	StateUnderLiquidation: {StateLiquidated},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool { return s == StateSettled || s == StateLiquidated }

func (s State) Valid() bool {
	switch s {
	case StateActive, StateUnderLiquidation, StateLiquidated, StateSettled:
		return true
	}
	return false
}

type Loan struct {
	ID               uint64         `json:"loan_id"`
	Recipient        common.Address `json:"recipient"`
	CollateralAsset  common.Address `json:"collateral_asset"`
	CollateralAmount *uint256.Int   `json:"collateral_amount"`
	DebtAmount       *uint256.Int   `json:"debt_amount"`
	State            State          `json:"state"`
	StateUpdatedAt   time.Time      `json:"state_updated_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TransitionTo moves the loan along a legal edge or returns ErrInvalidLoanState.
func (l *Loan) TransitionTo(to State, at time.Time) error {
	if !CanTransition(l.State, to) {
		return ErrInvalidLoanState
	}
	l.State = to
	l.StateUpdatedAt = at
	return nil
}

// Clone returns a deep copy so callers can mutate amounts without aliasing.
func (l *Loan) Clone() *Loan {
	out := *l
	if l.CollateralAmount != nil {
		out.CollateralAmount = l.CollateralAmount.Clone()
	}
	if l.DebtAmount != nil {
		out.DebtAmount = l.DebtAmount.Clone()
	}
	return &out
}
