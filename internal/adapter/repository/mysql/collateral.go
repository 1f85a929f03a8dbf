package mysql

import (
	"context"
	"errors"

	collateralDomain "cdp-ledger/internal/domain/collateral"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

type CollateralRepository struct{ db *gorm.DB }

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

func (r *CollateralRepository) Get(ctx context.Context, asset common.Address) (*collateralDomain.Descriptor, error) {
	return r.first(r.db.WithContext(ctx), asset)
}

func (r *CollateralRepository) GetForUpdate(ctx context.Context, asset common.Address) (*collateralDomain.Descriptor, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), asset)
}

func (r *CollateralRepository) Save(ctx context.Context, d *collateralDomain.Descriptor) error {
	row := &collateralRow{
		Asset:     addr(d.Asset),
		IsActive:  d.IsActive,
		Price:     amountString(d.Price),
		Decimals:  amountString(d.Decimals),
		Symbol:    d.Symbol,
		CreatedAt: d.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	d.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *CollateralRepository) List(ctx context.Context) ([]collateralDomain.Descriptor, error) {
	var rows []collateralRow
	if err := r.db.WithContext(ctx).Order("symbol ASC, asset ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]collateralDomain.Descriptor, 0, len(rows))
	for i := range rows {
		d, err := fromCollateralRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *CollateralRepository) first(db *gorm.DB, asset common.Address) (*collateralDomain.Descriptor, error) {
	var row collateralRow
	res := db.Where("asset = ?", addr(asset)).First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, collateralDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return fromCollateralRow(&row)
}

func fromCollateralRow(row *collateralRow) (*collateralDomain.Descriptor, error) {
	price, err := parseAmount("price", row.Price)
	if err != nil {
		return nil, err
	}
	decimals, err := parseAmount("decimals", row.Decimals)
	if err != nil {
		return nil, err
	}
	return &collateralDomain.Descriptor{
		Asset:     common.HexToAddress(row.Asset),
		IsActive:  row.IsActive,
		Price:     price,
		Decimals:  decimals,
		Symbol:    row.Symbol,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
