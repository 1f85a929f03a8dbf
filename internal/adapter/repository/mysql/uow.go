package mysql

import (
	"context"
	"sync"

	"cdp-ledger/internal/domain/loan"
	"cdp-ledger/internal/domain/uow"

	"gorm.io/gorm"
)

// GormUoW runs ledger transactions one at a time within the process; MySQL
// row locks taken through the *ForUpdate reads serialize across replicas.
type GormUoW struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:        &LoanRepository{db: tx},
		Liquidations: &LiquidationRepository{db: tx},
		Collaterals:  &CollateralRepository{db: tx},
		Params:       &ParamsRepository{db: tx},
		Roles:        &RoleRepository{db: tx},
		Tokens:       &TokenRepository{db: tx},
	}
}

// Repos returns repositories bound to the pool, for reads outside a tx.
func (u *GormUoW) Repos() uow.Repos { return reposFor(u.db) }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.WithinTx(ctx, func(r uow.Repos) error {
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
