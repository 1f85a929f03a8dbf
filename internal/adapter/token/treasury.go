package token

import (
	"context"
	"fmt"

	"cdp-ledger/internal/domain/collaborator"
	tokenDomain "cdp-ledger/internal/domain/token"
	"cdp-ledger/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Treasury moves swept collateral from the engine account to the treasury
// account and records the deposit.
type Treasury struct {
	repo     tokenDomain.Repository
	engine   common.Address
	treasury common.Address
}

var _ collaborator.Treasury = (*Treasury)(nil)

func NewTreasury(repo tokenDomain.Repository, engine, treasury common.Address) *Treasury {
	return &Treasury{repo: repo, engine: engine, treasury: treasury}
}

func (t *Treasury) Deposit(ctx context.Context, asset common.Address, amount *uint256.Int, memo string) error {
	ok, err := NewBook(t.repo, asset, t.engine).move(ctx, t.engine, t.treasury, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("treasury deposit of %s %s: %w", amount.Dec(), asset.Hex(), collaborator.ErrTransferFailed)
	}
	return t.repo.RecordDeposit(ctx, &tokenDomain.TreasuryDeposit{
		DepositID: id.New(),
		Asset:     asset,
		Amount:    amount.Clone(),
		Memo:      memo,
	})
}
