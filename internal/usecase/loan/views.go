package loan

import (
	"context"

	"cdp-ledger/internal/domain/accounting"
	"cdp-ledger/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Get returns the loan with its health at current prices.
func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanView, error) {
	l, err := u.reads.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	h, err := u.health(ctx, l)
	if err != nil {
		return nil, err
	}
	return &LoanView{LoanDTO: *toDTO(l), Health: h}, nil
}

func (u *Usecase) List(ctx context.Context, recipient common.Address, limit int) ([]LoanDTO, error) {
	loans, err := u.reads.Loans.ListByRecipient(ctx, recipient, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, *toDTO(&loans[i]))
	}
	return out, nil
}

// MinimumCollateral quotes the collateral a new loan of debt against asset
// needs at the current ratio and price.
func (u *Usecase) MinimumCollateral(ctx context.Context, asset common.Address, debt *uint256.Int) (*uint256.Int, error) {
	if debt == nil {
		return nil, accounting.ErrInvalidAmount
	}
	p, err := u.reads.Params.Get(ctx)
	if err != nil {
		return nil, err
	}
	d, err := u.reads.Collaterals.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	return accounting.MinimumCollateral(debt, p.CollateralRatio, d.Decimals, d.Price)
}

func (u *Usecase) GetLiquidation(ctx context.Context, loanID uint64) (*LiquidationDTO, error) {
	l, err := u.reads.Liquidations.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toLiquidationDTO(l), nil
}

func (u *Usecase) health(ctx context.Context, l *loan.Loan) (*Health, error) {
	p, err := u.reads.Params.Get(ctx)
	if err != nil {
		return nil, err
	}
	d, err := u.reads.Collaterals.Get(ctx, l.CollateralAsset)
	if err != nil {
		return nil, err
	}
	minimum, err := accounting.MinimumCollateral(l.DebtAmount, p.CollateralRatio, d.Decimals, d.Price)
	if err != nil {
		return nil, err
	}
	value := toDecimal(l.CollateralAmount).Mul(toDecimal(d.Price)).Div(toDecimal(d.Decimals))
	h := &Health{
		MinimumCollateral: minimum,
		CollateralValue:   value.Truncate(6),
		Liquidatable:      l.State == loan.StateActive && l.CollateralAmount.Lt(minimum),
	}
	if !l.DebtAmount.IsZero() {
		h.CollateralRatio = value.Div(toDecimal(l.DebtAmount)).StringFixed(4)
	}
	return h, nil
}

func toDecimal(v *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v.ToBig(), 0)
}
