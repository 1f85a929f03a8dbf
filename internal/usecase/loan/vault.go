package loan

import (
	"context"
	"fmt"

	"cdp-ledger/internal/domain/collaborator"
	"cdp-ledger/internal/domain/collateral"
	"cdp-ledger/internal/domain/uow"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// vault moves one collateral asset between accounts and the engine's escrow.
// Loan logic is written once against it, whatever the collateral kind.
type vault interface {
	transferIn(ctx context.Context, from common.Address, amount *uint256.Int) error
	transferOut(ctx context.Context, to common.Address, amount *uint256.Int) error
}

func (u *Usecase) vaultFor(r uow.Repos, asset common.Address) vault {
	engine := u.collab.Engine()
	if asset == collateral.NativeAsset {
		return nativeVault{coin: u.collab.Native(r), engine: engine}
	}
	return tokenVault{token: u.collab.CollateralToken(r, asset), asset: asset, engine: engine}
}

type nativeVault struct {
	coin   collaborator.NativeCoin
	engine common.Address
}

func (v nativeVault) transferIn(ctx context.Context, from common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	ok, err := v.coin.Transfer(ctx, from, v.engine, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("native deposit of %s from %s: %w", amount.Dec(), from.Hex(), collaborator.ErrTransferFailed)
	}
	return nil
}

func (v nativeVault) transferOut(ctx context.Context, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	ok, err := v.coin.Transfer(ctx, v.engine, to, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("native payout of %s to %s: %w", amount.Dec(), to.Hex(), collaborator.ErrTransferFailed)
	}
	return nil
}

type tokenVault struct {
	token  collaborator.CollateralToken
	asset  common.Address
	engine common.Address
}

func (v tokenVault) transferIn(ctx context.Context, from common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	return pull(ctx, v.token, v.asset.Hex(), from, v.engine, amount)
}

func (v tokenVault) transferOut(ctx context.Context, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	ok, err := v.token.Transfer(ctx, to, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transfer %s of %s to %s: %w", amount.Dec(), v.asset.Hex(), to.Hex(), collaborator.ErrTransferFailed)
	}
	return nil
}

// allowanceSpender is the part of an ERC20 the engine needs to pull funds.
type allowanceSpender interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error)
	TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) (bool, error)
}

func pull(ctx context.Context, t allowanceSpender, label string, from, engine common.Address, amount *uint256.Int) error {
	allowed, err := t.Allowance(ctx, from, engine)
	if err != nil {
		return err
	}
	if allowed.Lt(amount) {
		return fmt.Errorf("pull %s of %s from %s (allowed %s): %w",
			amount.Dec(), label, from.Hex(), allowed.Dec(), collaborator.ErrInsufficientAllowance)
	}
	ok, err := t.TransferFrom(ctx, from, engine, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("pull %s of %s from %s: %w", amount.Dec(), label, from.Hex(), collaborator.ErrTransferFailed)
	}
	return nil
}
