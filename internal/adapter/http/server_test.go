package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cdp-ledger/internal/adapter/middleware"
	"cdp-ledger/internal/adapter/repository/mysql"
	"cdp-ledger/internal/adapter/token"
	"cdp-ledger/internal/auth"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/uow"
	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/testutil/liquidationmock"
	"cdp-ledger/internal/testutil/sqlitedb"
	"cdp-ledger/internal/usecase/loan"
	"cdp-ledger/internal/usecase/registry"
	roleUsecase "cdp-ledger/internal/usecase/role"
	"cdp-ledger/internal/usecase/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	engine     = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	treasury   = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	currency   = common.HexToAddress("0x0000000000000000000000000000000000000cc0")
	admin      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	oracle     = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	liquidator = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	borrower   = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	buyer      = common.HexToAddress("0x00000000000000000000000000000000000000d6")

	weth = common.HexToAddress("0x1000000000000000000000000000000000000001")
	unit = common.HexToAddress("0x1000000000000000000000000000000000000002")

	anonymous = common.Address{}
)

type server struct {
	t     *testing.T
	ctx   context.Context
	e     *echo.Echo
	jwt   *auth.JWTManager
	repos uow.Repos
	liq   *liquidationmock.Liquidator
	reg   *prometheus.Registry
}

func newServer(t *testing.T, write ...echo.MiddlewareFunc) *server {
	t.Helper()
	ctx := context.Background()
	guow := mysql.NewGormUoW(sqlitedb.Open(t))
	repos := guow.Repos()
	log := observability.Discard()

	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	roles := roleUsecase.NewUsecase(guow, repos.Roles, log)
	if err := roles.Bootstrap(ctx, admin); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	for name, holder := range map[role.Name]common.Address{role.Oracle: oracle, role.Liquidator: liquidator} {
		if _, err := roles.Initialize(ctx, admin, name, holder); err != nil {
			t.Fatalf("init %s: %v", name, err)
		}
	}

	registryUC := registry.NewUsecase(guow, repos.Collaterals, repos.Params, log, m)
	if _, err := registryUC.EnsureParams(ctx, registry.ParamsDefaults{
		CollateralRatio:     1500,
		LiquidationDuration: time.Hour,
		MaxLoan:             uint256.NewInt(1_000_000),
	}); err != nil {
		t.Fatalf("params: %v", err)
	}
	if err := registryUC.Seed(ctx, []registry.RegisterInput{
		{Asset: weth, Price: uint256.NewInt(200), Decimals: uint256.MustFromDecimal("1000000000000000000"), Symbol: "WETH"},
		{Asset: unit, Price: uint256.NewInt(1), Decimals: uint256.NewInt(1), Symbol: "UNIT"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	liq := &liquidationmock.Liquidator{}
	collab := token.Collaborators{EngineAddr: engine, TreasuryAddr: treasury, CurrencyToken: currency}
	loanUC := loan.NewUsecase(guow, repos, collab, liq, log, m)
	walletUC := wallet.NewUsecase(guow, repos.Tokens, currency, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	jm := auth.NewJWTManager("cdp-ledger-test", "test-signing-key")
	Register(e, Handlers{
		Base:         NewHandler(),
		Loans:        NewLoanHandler(loanUC, m, log),
		Liquidations: NewLiquidationHandler(loanUC, m, log),
		Registry:     NewRegistryHandler(registryUC, m, log),
		Roles:        NewRoleHandler(roles, m, log),
		Wallet:       NewWalletHandler(walletUC, m, log),
	}, reg, middleware.JWTAuth(jm), write...)

	return &server{t: t, ctx: ctx, e: e, jwt: jm, repos: repos, liq: liq, reg: reg}
}

// do sends a request as the given caller; the zero address sends no token.
func (s *server) do(method, path string, body any, as common.Address) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != anonymous {
		tok, err := s.jwt.Mint(as, time.Minute)
		if err != nil {
			s.t.Fatalf("mint: %v", err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// must fails the test unless rec carries the wanted status.
func (s *server) must(rec *httptest.ResponseRecorder, want int) *httptest.ResponseRecorder {
	s.t.Helper()
	if rec.Code != want {
		s.t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
	return rec
}

// fund credits holder with amount of tok and approves the engine for it.
func (s *server) fund(tok, holder common.Address, amount string) {
	s.t.Helper()
	if tok != currency {
		s.must(s.do(stdhttp.MethodPost, "/v1/tokens/"+tok.Hex()+"/credit", map[string]string{
			"holder": holder.Hex(), "amount": amount,
		}, admin), stdhttp.StatusOK)
	}
	s.must(s.do(stdhttp.MethodPost, "/v1/tokens/"+tok.Hex()+"/approve", map[string]string{
		"spender": engine.Hex(), "amount": amount,
	}, holder), stdhttp.StatusOK)
}

func (s *server) balance(tok, holder common.Address) string {
	s.t.Helper()
	rec := s.must(s.do(stdhttp.MethodGet, "/v1/tokens/"+tok.Hex()+"/balances/"+holder.Hex(), nil, anonymous), stdhttp.StatusOK)
	return decode[struct {
		Amount string `json:"amount"`
	}](s.t, rec).Amount
}

type loanResp struct {
	LoanID           uint64 `json:"loan_id"`
	Recipient        string `json:"recipient"`
	CollateralAsset  string `json:"collateral_asset"`
	CollateralAmount string `json:"collateral_amount"`
	DebtAmount       string `json:"debt_amount"`
	State            string `json:"state"`
	Health           *struct {
		MinimumCollateral string `json:"minimum_collateral"`
		CollateralRatio   string `json:"collateral_ratio"`
		Liquidatable      bool   `json:"liquidatable"`
	} `json:"health"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, rec).Code
}
