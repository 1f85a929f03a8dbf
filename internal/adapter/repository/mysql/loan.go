package mysql

import (
	"context"
	"errors"

	loanDomain "cdp-ledger/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	row := toLoanRow(l)
	row.ID = 0 // identifiers come from the sequence only
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	l.ID = row.ID
	l.CreatedAt = row.CreatedAt
	l.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	row := toLoanRow(l)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	l.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *LoanRepository) ListByRecipient(ctx context.Context, recipient common.Address, limit int) ([]loanDomain.Loan, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []loanRow
	res := r.db.WithContext(ctx).
		Where("recipient = ?", addr(recipient)).
		Order("id DESC").
		Limit(limit).
		Find(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	out := make([]loanDomain.Loan, 0, len(rows))
	for i := range rows {
		l, err := fromLoanRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *LoanRepository) first(db *gorm.DB, id uint64) (*loanDomain.Loan, error) {
	var row loanRow
	res := db.Where("id = ?", id).First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return fromLoanRow(&row)
}

func toLoanRow(l *loanDomain.Loan) *loanRow {
	return &loanRow{
		ID:               l.ID,
		Recipient:        addr(l.Recipient),
		CollateralAsset:  addr(l.CollateralAsset),
		CollateralAmount: amountString(l.CollateralAmount),
		DebtAmount:       amountString(l.DebtAmount),
		State:            string(l.State),
		StateUpdatedAt:   l.StateUpdatedAt,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func fromLoanRow(row *loanRow) (*loanDomain.Loan, error) {
	coll, err := parseAmount("collateral_amount", row.CollateralAmount)
	if err != nil {
		return nil, err
	}
	debt, err := parseAmount("debt_amount", row.DebtAmount)
	if err != nil {
		return nil, err
	}
	return &loanDomain.Loan{
		ID:               row.ID,
		Recipient:        common.HexToAddress(row.Recipient),
		CollateralAsset:  common.HexToAddress(row.CollateralAsset),
		CollateralAmount: coll,
		DebtAmount:       debt,
		State:            loanDomain.State(row.State),
		StateUpdatedAt:   row.StateUpdatedAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}
