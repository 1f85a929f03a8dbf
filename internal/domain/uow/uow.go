package uow

import (
	"context"

	"cdp-ledger/internal/domain/collateral"
	"cdp-ledger/internal/domain/liquidation"
	"cdp-ledger/internal/domain/loan"
	"cdp-ledger/internal/domain/params"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/token"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans        loan.Repository
	Liquidations liquidation.Repository
	Collaterals  collateral.Repository
	Params       params.Repository
	Roles        role.Repository
	Tokens       token.Repository
}

type UnitOfWork interface {
	// plain tx; returning an error rolls back everything fn wrote
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
