// Package wallet exposes the reference token book: balances, approvals for
// the engine and an admin faucet for collateral tokens.
package wallet

import (
	"context"
	"log/slog"

	"cdp-ledger/internal/domain/accounting"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/token"
	"cdp-ledger/internal/domain/uow"
	roleUsecase "cdp-ledger/internal/usecase/role"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Usecase struct {
	uow      uow.UnitOfWork
	tokens   token.Repository
	currency common.Address
	log      *slog.Logger
}

func NewUsecase(tx uow.UnitOfWork, tokens token.Repository, currency common.Address, log *slog.Logger) *Usecase {
	return &Usecase{uow: tx, tokens: tokens, currency: currency, log: log}
}

type Position struct {
	Token  common.Address `json:"token"`
	Holder common.Address `json:"holder"`
	Amount *uint256.Int   `json:"amount"`
}

func (u *Usecase) Balance(ctx context.Context, tok, holder common.Address) (*Position, error) {
	v, err := u.tokens.Balance(ctx, tok, holder)
	if err != nil {
		return nil, err
	}
	return &Position{Token: tok, Holder: holder, Amount: v}, nil
}

func (u *Usecase) Allowance(ctx context.Context, tok, owner, spender common.Address) (*uint256.Int, error) {
	return u.tokens.Allowance(ctx, tok, owner, spender)
}

// Approve lets spender pull up to amount of tok from owner. The amount
// replaces any previous allowance.
func (u *Usecase) Approve(ctx context.Context, owner, tok, spender common.Address, amount *uint256.Int) error {
	if amount == nil {
		return accounting.ErrInvalidAmount
	}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Tokens.SetAllowance(ctx, tok, owner, spender, amount)
	})
	if err != nil {
		return err
	}
	u.log.DebugContext(ctx, "allowance set", "token", tok.Hex(), "owner", owner.Hex(), "spender", spender.Hex(), "amount", amount.Dec())
	return nil
}

// Credit adds amount of a collateral token to holder. Admin only; the
// synthetic currency is minted by the ledger alone.
func (u *Usecase) Credit(ctx context.Context, caller, tok, holder common.Address, amount *uint256.Int) (*Position, error) {
	if amount == nil || amount.IsZero() {
		return nil, accounting.ErrInvalidAmount
	}
	if tok == u.currency {
		return nil, role.ErrUnauthorized
	}
	var out *Position
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := roleUsecase.Require(ctx, r.Roles, role.Admin, caller); err != nil {
			return err
		}
		bal, err := r.Tokens.Balance(ctx, tok, holder)
		if err != nil {
			return err
		}
		next, err := accounting.Add(bal, amount)
		if err != nil {
			return err
		}
		if err := r.Tokens.SetBalance(ctx, tok, holder, next); err != nil {
			return err
		}
		out = &Position{Token: tok, Holder: holder, Amount: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "balance credited", "token", tok.Hex(), "holder", holder.Hex(), "amount", amount.Dec())
	return out, nil
}
