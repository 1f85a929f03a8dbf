package token

import (
	"cdp-ledger/internal/domain/collaborator"
	"cdp-ledger/internal/domain/collateral"
	"cdp-ledger/internal/domain/uow"

	"github.com/ethereum/go-ethereum/common"
)

// Collaborators hands out token collaborators bound to a transaction's repos.
type Collaborators struct {
	EngineAddr    common.Address // escrow account of the ledger
	TreasuryAddr  common.Address
	CurrencyToken common.Address
}

func (c Collaborators) Engine() common.Address { return c.EngineAddr }

func (c Collaborators) Currency(r uow.Repos) collaborator.SyntheticCurrency {
	return NewBook(r.Tokens, c.CurrencyToken, c.EngineAddr)
}

func (c Collaborators) CollateralToken(r uow.Repos, asset common.Address) collaborator.CollateralToken {
	return NewBook(r.Tokens, asset, c.EngineAddr)
}

func (c Collaborators) Native(r uow.Repos) collaborator.NativeCoin {
	return nativeBook{NewBook(r.Tokens, collateral.NativeAsset, c.EngineAddr)}
}

func (c Collaborators) Treasury(r uow.Repos) collaborator.Treasury {
	return NewTreasury(r.Tokens, c.EngineAddr, c.TreasuryAddr)
}

// Book returns a book for any token acting as self, for approvals and reads.
func (c Collaborators) Book(r uow.Repos, token common.Address) *Book {
	return NewBook(r.Tokens, token, c.EngineAddr)
}
