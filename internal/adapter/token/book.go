// Package token is the reference implementation of the ledger's token
// collaborators: an ERC20-shaped balance book kept in the ledger database, so
// every token movement commits or rolls back with the loan update.
package token

import (
	"context"
	"fmt"

	"cdp-ledger/internal/domain/accounting"
	"cdp-ledger/internal/domain/collaborator"
	tokenDomain "cdp-ledger/internal/domain/token"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Book operates one token on behalf of self (the caller of transfer,
// transferFrom and burn).
type Book struct {
	repo  tokenDomain.Repository
	token common.Address
	self  common.Address
}

var (
	_ collaborator.SyntheticCurrency = (*Book)(nil)
	_ collaborator.CollateralToken   = (*Book)(nil)
	_ collaborator.NativeCoin        = nativeBook{}
)

func NewBook(repo tokenDomain.Repository, token, self common.Address) *Book {
	return &Book{repo: repo, token: token, self: self}
}

func (b *Book) Token() common.Address { return b.token }

func (b *Book) BalanceOf(ctx context.Context, holder common.Address) (*uint256.Int, error) {
	return b.repo.Balance(ctx, b.token, holder)
}

func (b *Book) Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error) {
	return b.repo.Allowance(ctx, b.token, owner, spender)
}

// Approve sets the allowance owner grants spender.
func (b *Book) Approve(ctx context.Context, owner, spender common.Address, amount *uint256.Int) error {
	return b.repo.SetAllowance(ctx, b.token, owner, spender, amount)
}

// TransferFrom moves amount from -> to using self's allowance. It returns
// false, leaving balances untouched, when allowance or balance is short.
func (b *Book) TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) (bool, error) {
	allowed, err := b.repo.Allowance(ctx, b.token, from, b.self)
	if err != nil {
		return false, err
	}
	if allowed.Lt(amount) {
		return false, nil
	}
	ok, err := b.move(ctx, from, to, amount)
	if err != nil || !ok {
		return ok, err
	}
	left := new(uint256.Int).Sub(allowed, amount)
	if err := b.repo.SetAllowance(ctx, b.token, from, b.self, left); err != nil {
		return false, err
	}
	return true, nil
}

// Transfer moves amount from self to to.
func (b *Book) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) (bool, error) {
	return b.move(ctx, b.self, to, amount)
}

// Mint credits amount to to out of thin air. Only the issuer calls it.
func (b *Book) Mint(ctx context.Context, to common.Address, amount *uint256.Int) error {
	bal, err := b.repo.Balance(ctx, b.token, to)
	if err != nil {
		return err
	}
	next, err := accounting.Add(bal, amount)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	return b.repo.SetBalance(ctx, b.token, to, next)
}

// Burn destroys amount held by self.
func (b *Book) Burn(ctx context.Context, amount *uint256.Int) error {
	bal, err := b.repo.Balance(ctx, b.token, b.self)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("burn %s from %s: %w", amount.Dec(), b.self.Hex(), collaborator.ErrTransferFailed)
	}
	return b.repo.SetBalance(ctx, b.token, b.self, new(uint256.Int).Sub(bal, amount))
}

// nativeBook adapts Book to the direct value transfer of the native coin.
type nativeBook struct{ *Book }

func (n nativeBook) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) (bool, error) {
	return n.move(ctx, from, to, amount)
}

func (b *Book) move(ctx context.Context, from, to common.Address, amount *uint256.Int) (bool, error) {
	fromBal, err := b.repo.Balance(ctx, b.token, from)
	if err != nil {
		return false, err
	}
	if fromBal.Lt(amount) {
		return false, nil
	}
	if from == to || amount.IsZero() {
		return true, nil
	}
	if err := b.repo.SetBalance(ctx, b.token, from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return false, err
	}
	toBal, err := b.repo.Balance(ctx, b.token, to)
	if err != nil {
		return false, err
	}
	next, err := accounting.Add(toBal, amount)
	if err != nil {
		return false, err
	}
	if err := b.repo.SetBalance(ctx, b.token, to, next); err != nil {
		return false, err
	}
	return true, nil
}
