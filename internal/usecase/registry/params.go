package registry

import (
	"context"
	"errors"
	"time"

	"cdp-ledger/internal/domain/accounting"
	"cdp-ledger/internal/domain/params"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/uow"
	roleUsecase "cdp-ledger/internal/usecase/role"

	"github.com/ethereum/go-ethereum/common"
)

func (u *Usecase) GetParams(ctx context.Context) (*params.Params, error) {
	return u.params.Get(ctx)
}

// EnsureParams writes the defaults on first start. On later starts the
// oracle-owned ratio and duration are kept and only the debt cap follows
// configuration.
func (u *Usecase) EnsureParams(ctx context.Context, def ParamsDefaults) (*params.Params, error) {
	if def.CollateralRatio == 0 {
		def.CollateralRatio = accounting.DefaultCollateralRatio
	}
	if def.LiquidationDuration <= 0 || def.MaxLoan == nil {
		return nil, accounting.ErrInvalidAmount
	}
	var out *params.Params
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Params.GetForUpdate(ctx)
		switch {
		case errors.Is(err, params.ErrNotFound):
			p = &params.Params{CollateralRatio: def.CollateralRatio, LiquidationDuration: def.LiquidationDuration}
		case err != nil:
			return err
		}
		p.MaxLoan = def.MaxLoan.Clone()
		if err := r.Params.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (u *Usecase) SetCollateralRatio(ctx context.Context, caller common.Address, ratio uint64) (*params.Params, error) {
	if ratio == 0 {
		return nil, accounting.ErrInvalidAmount
	}
	p, err := u.updateParams(ctx, caller, func(p *params.Params) { p.CollateralRatio = ratio })
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "collateral ratio updated", "ratio", ratio)
	return p, nil
}

func (u *Usecase) SetLiquidationDuration(ctx context.Context, caller common.Address, d time.Duration) (*params.Params, error) {
	if d < time.Second {
		return nil, accounting.ErrInvalidAmount
	}
	p, err := u.updateParams(ctx, caller, func(p *params.Params) { p.LiquidationDuration = d.Truncate(time.Second) })
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "liquidation duration updated", "duration", d.String())
	return p, nil
}

func (u *Usecase) updateParams(ctx context.Context, caller common.Address, mutate func(*params.Params)) (*params.Params, error) {
	var out *params.Params
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := roleUsecase.Require(ctx, r.Roles, role.Oracle, caller); err != nil {
			return err
		}
		p, err := r.Params.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		mutate(p)
		if err := r.Params.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}
