package loan

import (
	"context"
	"testing"
	"time"

	"cdp-ledger/internal/adapter/repository/mysql"
	"cdp-ledger/internal/adapter/token"
	"cdp-ledger/internal/domain/collateral"
	"cdp-ledger/internal/domain/params"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/uow"
	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/testutil/liquidationmock"
	"cdp-ledger/internal/testutil/sqlitedb"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	engine     = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	treasury   = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	currency   = common.HexToAddress("0x0000000000000000000000000000000000000cc0")
	admin      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	liquidator = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	borrower   = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	payer      = common.HexToAddress("0x00000000000000000000000000000000000000d5")
	buyer      = common.HexToAddress("0x00000000000000000000000000000000000000d6")

	// 18-decimal token priced at 200 currency units
	weth = common.HexToAddress("0x1000000000000000000000000000000000000001")
	// unit-scale token priced at 1, so small amounts stay readable
	unit = common.HexToAddress("0x1000000000000000000000000000000000000002")

	wad = uint256.MustFromDecimal("1000000000000000000")
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	uc    *Usecase
	repos uow.Repos
	liq   *liquidationmock.Liquidator
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	guow := mysql.NewGormUoW(sqlitedb.Open(t))
	repos := guow.Repos()

	for _, h := range []role.Holder{{Role: role.Admin, Holder: admin}, {Role: role.Liquidator, Holder: liquidator}} {
		h := h
		if err := repos.Roles.Create(ctx, &h); err != nil {
			t.Fatalf("seed role: %v", err)
		}
	}
	if err := repos.Params.Save(ctx, &params.Params{
		CollateralRatio:     1500,
		LiquidationDuration: time.Hour,
		MaxLoan:             uint256.NewInt(1_000_000),
	}); err != nil {
		t.Fatalf("seed params: %v", err)
	}
	descs := []collateral.Descriptor{
		{Asset: weth, IsActive: true, Price: uint256.NewInt(200), Decimals: wad, Symbol: "WETH"},
		{Asset: unit, IsActive: true, Price: uint256.NewInt(1), Decimals: uint256.NewInt(1), Symbol: "UNIT"},
		{Asset: collateral.NativeAsset, IsActive: true, Price: uint256.NewInt(200), Decimals: wad, Symbol: "ETH"},
	}
	for i := range descs {
		if err := repos.Collaterals.Save(ctx, &descs[i]); err != nil {
			t.Fatalf("seed collateral: %v", err)
		}
	}

	f := &fixture{
		t:     t,
		ctx:   ctx,
		repos: repos,
		liq:   &liquidationmock.Liquidator{},
		clock: time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC),
	}
	collab := token.Collaborators{EngineAddr: engine, TreasuryAddr: treasury, CurrencyToken: currency}
	f.uc = NewUsecase(guow, repos, collab, f.liq, observability.Discard(), nil)
	f.uc.now = func() time.Time { return f.clock }

	// borrower holds plenty of every collateral and lets the engine pull it
	plenty := uint256.MustFromDecimal("1000000000000000000000000")
	for _, asset := range []common.Address{weth, unit, collateral.NativeAsset} {
		f.setBalance(asset, borrower, plenty)
		f.approve(asset, borrower, plenty)
	}
	return f
}

func (f *fixture) setBalance(tok, holder common.Address, v *uint256.Int) {
	f.t.Helper()
	if err := f.repos.Tokens.SetBalance(f.ctx, tok, holder, v); err != nil {
		f.t.Fatalf("SetBalance: %v", err)
	}
}

func (f *fixture) approve(tok, owner common.Address, v *uint256.Int) {
	f.t.Helper()
	if err := f.repos.Tokens.SetAllowance(f.ctx, tok, owner, engine, v); err != nil {
		f.t.Fatalf("SetAllowance: %v", err)
	}
}

func (f *fixture) balance(tok, holder common.Address) *uint256.Int {
	f.t.Helper()
	v, err := f.repos.Tokens.Balance(f.ctx, tok, holder)
	if err != nil {
		f.t.Fatalf("Balance: %v", err)
	}
	return v
}

func (f *fixture) setPrice(asset common.Address, price uint64) {
	f.t.Helper()
	d, err := f.repos.Collaterals.Get(f.ctx, asset)
	if err != nil {
		f.t.Fatalf("Get collateral: %v", err)
	}
	d.Price = uint256.NewInt(price)
	if err := f.repos.Collaterals.Save(f.ctx, d); err != nil {
		f.t.Fatalf("Save collateral: %v", err)
	}
}

func (f *fixture) issue(asset common.Address, debt, deposit *uint256.Int) *LoanDTO {
	f.t.Helper()
	dto, err := f.uc.Issue(f.ctx, IssueInput{Borrower: borrower, DebtAmount: debt, CollateralAsset: asset, Collateral: deposit})
	if err != nil {
		f.t.Fatalf("Issue: %v", err)
	}
	return dto
}

func (f *fixture) loan(id uint64) *LoanView {
	f.t.Helper()
	v, err := f.uc.Get(f.ctx, id)
	if err != nil {
		f.t.Fatalf("Get: %v", err)
	}
	return v
}

func mustParams(f *fixture, ratio uint64) *params.Params {
	f.t.Helper()
	p, err := f.repos.Params.Get(f.ctx)
	if err != nil {
		f.t.Fatalf("Get params: %v", err)
	}
	p.CollateralRatio = ratio
	return p
}

func amt(v uint64) *uint256.Int { return uint256.NewInt(v) }

func dec(s string) *uint256.Int { return uint256.MustFromDecimal(s) }
