package mysql

import (
	"context"
	"errors"

	roleDomain "cdp-ledger/internal/domain/role"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

type RoleRepository struct{ db *gorm.DB }

func NewRoleRepository(db *gorm.DB) *RoleRepository { return &RoleRepository{db: db} }

func (r *RoleRepository) Get(ctx context.Context, name roleDomain.Name) (*roleDomain.Holder, error) {
	var row roleRow
	res := r.db.WithContext(ctx).Where("role = ?", string(name)).First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, roleDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return fromRoleRow(&row), nil
}

func (r *RoleRepository) Create(ctx context.Context, h *roleDomain.Holder) error {
	if _, err := r.Get(ctx, h.Role); err == nil {
		return roleDomain.ErrAlreadyInitialized
	} else if !errors.Is(err, roleDomain.ErrNotFound) {
		return err
	}
	row := &roleRow{Role: string(h.Role), Holder: addr(h.Holder)}
	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return roleDomain.ErrAlreadyInitialized
	}
	if err != nil {
		return err
	}
	h.CreatedAt = row.CreatedAt
	return nil
}

func (r *RoleRepository) List(ctx context.Context) ([]roleDomain.Holder, error) {
	var rows []roleRow
	if err := r.db.WithContext(ctx).Order("role ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]roleDomain.Holder, 0, len(rows))
	for i := range rows {
		out = append(out, *fromRoleRow(&rows[i]))
	}
	return out, nil
}

func fromRoleRow(row *roleRow) *roleDomain.Holder {
	return &roleDomain.Holder{
		Role:      roleDomain.Name(row.Role),
		Holder:    common.HexToAddress(row.Holder),
		CreatedAt: row.CreatedAt,
	}
}
