package mysql

import (
	"context"
	"errors"

	tokenDomain "cdp-ledger/internal/domain/token"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) *TokenRepository { return &TokenRepository{db: db} }

func (r *TokenRepository) Balance(ctx context.Context, token, holder common.Address) (*uint256.Int, error) {
	var row balanceRow
	res := r.db.WithContext(ctx).
		Where("token = ? AND holder = ?", addr(token), addr(holder)).
		First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return new(uint256.Int), nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return parseAmount("amount", row.Amount)
}

func (r *TokenRepository) SetBalance(ctx context.Context, token, holder common.Address, amount *uint256.Int) error {
	row := &balanceRow{Token: addr(token), Holder: addr(holder), Amount: amountString(amount)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}, {Name: "holder"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(row).Error
}

func (r *TokenRepository) Allowance(ctx context.Context, token, owner, spender common.Address) (*uint256.Int, error) {
	var row allowanceRow
	res := r.db.WithContext(ctx).
		Where("token = ? AND owner = ? AND spender = ?", addr(token), addr(owner), addr(spender)).
		First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return new(uint256.Int), nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return parseAmount("amount", row.Amount)
}

func (r *TokenRepository) SetAllowance(ctx context.Context, token, owner, spender common.Address, amount *uint256.Int) error {
	row := &allowanceRow{Token: addr(token), Owner: addr(owner), Spender: addr(spender), Amount: amountString(amount)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}, {Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(row).Error
}

func (r *TokenRepository) RecordDeposit(ctx context.Context, d *tokenDomain.TreasuryDeposit) error {
	row := &depositRow{
		DepositID: d.DepositID,
		Asset:     addr(d.Asset),
		Amount:    amountString(d.Amount),
		Memo:      d.Memo,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	d.CreatedAt = row.CreatedAt
	return nil
}

func (r *TokenRepository) ListDeposits(ctx context.Context, asset common.Address) ([]tokenDomain.TreasuryDeposit, error) {
	var rows []depositRow
	if err := r.db.WithContext(ctx).Where("asset = ?", addr(asset)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tokenDomain.TreasuryDeposit, 0, len(rows))
	for _, row := range rows {
		amt, err := parseAmount("amount", row.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, tokenDomain.TreasuryDeposit{
			DepositID: row.DepositID,
			Asset:     common.HexToAddress(row.Asset),
			Amount:    amt,
			Memo:      row.Memo,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}
