package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cdp-ledger/internal/domain/accounting"
	"cdp-ledger/internal/domain/collateral"
	"cdp-ledger/internal/domain/params"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/uow"
	"cdp-ledger/internal/observability"
	roleUsecase "cdp-ledger/internal/usecase/role"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Usecase is the collateral registry and the engine parameter store. Every
// write is restricted to the oracle role.
type Usecase struct {
	uow         uow.UnitOfWork
	collaterals collateral.Repository
	params      params.Repository
	log         *slog.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, collaterals collateral.Repository, prm params.Repository, log *slog.Logger, m *observability.Metrics) *Usecase {
	return &Usecase{
		uow:         tx,
		collaterals: collaterals,
		params:      prm,
		log:         log,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) Register(ctx context.Context, caller common.Address, in RegisterInput) (*collateral.Descriptor, error) {
	var d *collateral.Descriptor
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := roleUsecase.Require(ctx, r.Roles, role.Oracle, caller); err != nil {
			return err
		}
		var err error
		d, err = u.register(ctx, r, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.metrics.ObservePrice(d.Symbol, d.Price)
	u.log.InfoContext(ctx, "collateral registered", "asset", d.Asset.Hex(), "symbol", d.Symbol, "price", d.Price.Dec())
	return d, nil
}

func (u *Usecase) register(ctx context.Context, r uow.Repos, in RegisterInput) (*collateral.Descriptor, error) {
	if isZero(in.Price) || isZero(in.Decimals) {
		return nil, accounting.ErrInvalidAmount
	}
	now := u.now()
	createdAt := now
	existing, err := r.Collaterals.GetForUpdate(ctx, in.Asset)
	switch {
	case err == nil && existing.IsActive:
		return nil, collateral.ErrAlreadyExists
	case err == nil:
		// re-activation keeps the original registration time
		createdAt = existing.CreatedAt
	case !errors.Is(err, collateral.ErrNotFound):
		return nil, err
	}
	d := &collateral.Descriptor{
		Asset:     in.Asset,
		IsActive:  true,
		Price:     in.Price.Clone(),
		Decimals:  in.Decimals.Clone(),
		Symbol:    in.Symbol,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if err := r.Collaterals.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Deregister stops new loans against asset. Existing loans keep reading its
// price.
func (u *Usecase) Deregister(ctx context.Context, caller common.Address, asset common.Address) error {
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := roleUsecase.Require(ctx, r.Roles, role.Oracle, caller); err != nil {
			return err
		}
		d, err := activeForUpdate(ctx, r, asset)
		if err != nil {
			return err
		}
		d.IsActive = false
		return r.Collaterals.Save(ctx, d)
	})
	if err != nil {
		return err
	}
	u.log.InfoContext(ctx, "collateral deregistered", "asset", asset.Hex())
	return nil
}

func (u *Usecase) SetPrice(ctx context.Context, caller common.Address, asset common.Address, price *uint256.Int) (*collateral.Descriptor, error) {
	var d *collateral.Descriptor
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := roleUsecase.Require(ctx, r.Roles, role.Oracle, caller); err != nil {
			return err
		}
		var err error
		d, err = activeForUpdate(ctx, r, asset)
		if err != nil {
			return err
		}
		if isZero(price) {
			return accounting.ErrInvalidAmount
		}
		d.Price = price.Clone()
		return r.Collaterals.Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	u.metrics.ObservePrice(d.Symbol, d.Price)
	u.log.InfoContext(ctx, "collateral price updated", "asset", asset.Hex(), "price", price.Dec())
	return d, nil
}

func (u *Usecase) Get(ctx context.Context, asset common.Address) (*collateral.Descriptor, error) {
	return u.collaterals.Get(ctx, asset)
}

func (u *Usecase) List(ctx context.Context) ([]collateral.Descriptor, error) {
	return u.collaterals.List(ctx)
}

// Seed registers descriptors from configuration without a role check.
// Assets that are already active are left as they are.
func (u *Usecase) Seed(ctx context.Context, items []RegisterInput) error {
	for _, in := range items {
		var d *collateral.Descriptor
		err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
			var err error
			d, err = u.register(ctx, r, in)
			return err
		})
		if errors.Is(err, collateral.ErrAlreadyExists) {
			u.log.DebugContext(ctx, "seed collateral already active", "asset", in.Asset.Hex())
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", in.Symbol, err)
		}
		u.metrics.ObservePrice(d.Symbol, d.Price)
		u.log.InfoContext(ctx, "collateral seeded", "asset", d.Asset.Hex(), "symbol", d.Symbol)
	}
	return nil
}

func activeForUpdate(ctx context.Context, r uow.Repos, asset common.Address) (*collateral.Descriptor, error) {
	d, err := r.Collaterals.GetForUpdate(ctx, asset)
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, collateral.ErrNotFound
	}
	return d, nil
}

func isZero(v *uint256.Int) bool { return v == nil || v.IsZero() }
