package mysql

import (
	"context"
	"errors"
	"time"

	liquidationDomain "cdp-ledger/internal/domain/liquidation"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

type LiquidationRepository struct{ db *gorm.DB }

func NewLiquidationRepository(db *gorm.DB) *LiquidationRepository {
	return &LiquidationRepository{db: db}
}

func (r *LiquidationRepository) Create(ctx context.Context, l *liquidationDomain.Liquidation) error {
	return r.db.WithContext(ctx).Create(toLiquidationRow(l)).Error
}

func (r *LiquidationRepository) Save(ctx context.Context, l *liquidationDomain.Liquidation) error {
	row := toLiquidationRow(l)
	return r.db.WithContext(ctx).
		Model(&liquidationRow{}).
		Where("liquidation_id = ?", l.LiquidationID).
		Updates(map[string]any{
			"buyer":               row.Buyer,
			"collateral_paid_out": row.CollateralPaidOut,
			"completed_at":        row.CompletedAt,
		}).Error
}

func (r *LiquidationRepository) GetByLoanID(ctx context.Context, loanID uint64) (*liquidationDomain.Liquidation, error) {
	return r.first(r.db.WithContext(ctx).Where("loan_id = ?", loanID))
}

func (r *LiquidationRepository) GetByLiquidationID(ctx context.Context, liquidationID string) (*liquidationDomain.Liquidation, error) {
	return r.first(r.db.WithContext(ctx).Where("liquidation_id = ?", liquidationID))
}

func (r *LiquidationRepository) first(q *gorm.DB) (*liquidationDomain.Liquidation, error) {
	var row liquidationRow
	res := q.First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, liquidationDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return fromLiquidationRow(&row)
}

func toLiquidationRow(l *liquidationDomain.Liquidation) *liquidationRow {
	row := &liquidationRow{
		LiquidationID:    l.LiquidationID,
		LoanID:           l.LoanID,
		Asset:            addr(l.Asset),
		CollateralAmount: amountString(l.CollateralAmount),
		DebtAmount:       amountString(l.DebtAmount),
		DurationSecs:     int64(l.Duration / time.Second),
		StartedAt:        l.StartedAt,
		CompletedAt:      l.CompletedAt,
	}
	if l.Buyer != nil {
		b := addr(*l.Buyer)
		row.Buyer = &b
	}
	if l.CollateralPaidOut != nil {
		p := amountString(l.CollateralPaidOut)
		row.CollateralPaidOut = &p
	}
	return row
}

func fromLiquidationRow(row *liquidationRow) (*liquidationDomain.Liquidation, error) {
	coll, err := parseAmount("collateral_amount", row.CollateralAmount)
	if err != nil {
		return nil, err
	}
	debt, err := parseAmount("debt_amount", row.DebtAmount)
	if err != nil {
		return nil, err
	}
	out := &liquidationDomain.Liquidation{
		LiquidationID:    row.LiquidationID,
		LoanID:           row.LoanID,
		Asset:            common.HexToAddress(row.Asset),
		CollateralAmount: coll,
		DebtAmount:       debt,
		Duration:         time.Duration(row.DurationSecs) * time.Second,
		StartedAt:        row.StartedAt,
		CompletedAt:      row.CompletedAt,
	}
	if row.Buyer != nil {
		b := common.HexToAddress(*row.Buyer)
		out.Buyer = &b
	}
	if row.CollateralPaidOut != nil {
		p, err := parseAmount("collateral_paid_out", *row.CollateralPaidOut)
		if err != nil {
			return nil, err
		}
		out.CollateralPaidOut = p
	}
	return out, nil
}
