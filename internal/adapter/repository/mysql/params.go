package mysql

import (
	"context"
	"errors"
	"time"

	paramsDomain "cdp-ledger/internal/domain/params"

	"gorm.io/gorm"
)

// engine params live in a single row
const paramsRowID = 1

type ParamsRepository struct{ db *gorm.DB }

func NewParamsRepository(db *gorm.DB) *ParamsRepository { return &ParamsRepository{db: db} }

func (r *ParamsRepository) Get(ctx context.Context) (*paramsDomain.Params, error) {
	return r.first(r.db.WithContext(ctx))
}

func (r *ParamsRepository) GetForUpdate(ctx context.Context) (*paramsDomain.Params, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)))
}

func (r *ParamsRepository) Save(ctx context.Context, p *paramsDomain.Params) error {
	row := &paramsRow{
		ID:                  paramsRowID,
		CollateralRatio:     p.CollateralRatio,
		LiquidationDuration: int64(p.LiquidationDuration / time.Second),
		MaxLoan:             amountString(p.MaxLoan),
	}
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	p.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ParamsRepository) first(db *gorm.DB) (*paramsDomain.Params, error) {
	var row paramsRow
	res := db.Where("id = ?", paramsRowID).First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, paramsDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	maxLoan, err := parseAmount("max_loan", row.MaxLoan)
	if err != nil {
		return nil, err
	}
	return &paramsDomain.Params{
		CollateralRatio:     row.CollateralRatio,
		LiquidationDuration: time.Duration(row.LiquidationDuration) * time.Second,
		MaxLoan:             maxLoan,
		UpdatedAt:           row.UpdatedAt,
	}, nil
}
