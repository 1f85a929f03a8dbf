package http

import (
	stdhttp "net/http"
	"testing"
)

// undercollateralize opens loan 1 at exactly its minimum and raises the
// ratio so it falls below it.
func undercollateralize(s *server) {
	s.t.Helper()
	s.fund(unit, borrower, "10000")
	s.must(s.do(stdhttp.MethodPost, "/v1/loans", issueReq(unit, "100", "150"), borrower), stdhttp.StatusCreated)
	s.must(s.do(stdhttp.MethodPut, "/v1/params/collateral-ratio", map[string]uint64{"collateral_ratio": 2000}, oracle), stdhttp.StatusOK)
}

type liquidationResp struct {
	LiquidationID     string `json:"liquidation_id"`
	LoanID            uint64 `json:"loan_id"`
	CollateralAmount  string `json:"collateral_amount"`
	DebtAmount        string `json:"debt_amount"`
	DurationSeconds   int64  `json:"duration_seconds"`
	Buyer             string `json:"buyer"`
	CollateralPaidOut string `json:"collateral_paid_out"`
}

func TestEnterLiquidation(t *testing.T) {
	s := newServer(t)
	s.fund(unit, borrower, "10000")
	s.must(s.do(stdhttp.MethodPost, "/v1/loans", issueReq(unit, "100", "150"), borrower), stdhttp.StatusCreated)

	rec := s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation"), nil, liquidator), stdhttp.StatusConflict)
	if code := errCode(t, rec); code != "sufficient_collateral" {
		t.Fatalf("code = %q", code)
	}

	s.must(s.do(stdhttp.MethodPut, "/v1/params/collateral-ratio", map[string]uint64{"collateral_ratio": 2000}, oracle), stdhttp.StatusOK)

	// no role needed: the borrower may trigger its own loan's liquidation
	got := decode[liquidationResp](t, s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation"), nil, borrower), stdhttp.StatusCreated))
	if got.LoanID != 1 || got.CollateralAmount != "150" || got.DebtAmount != "100" || got.DurationSeconds != 3600 {
		t.Fatalf("liquidation = %+v", got)
	}
	if len(got.LiquidationID) != 32 {
		t.Fatalf("liquidation_id = %q", got.LiquidationID)
	}
	if hs := s.liq.Handoffs(); len(hs) != 1 || hs[0].LoanID != 1 {
		t.Fatalf("handoffs = %+v", hs)
	}
	if l := decode[loanResp](t, s.must(s.do(stdhttp.MethodGet, loanPath(1, ""), nil, anonymous), stdhttp.StatusOK)); l.State != "under_liquidation" {
		t.Fatalf("state = %s", l.State)
	}

	// a second trigger finds the loan already frozen
	rec = s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation"), nil, buyer), stdhttp.StatusConflict)
	if code := errCode(t, rec); code != "invalid_loan_state" {
		t.Fatalf("code = %q", code)
	}

	// frozen while the auction runs
	rec = s.must(s.do(stdhttp.MethodPost, loanPath(1, "/collateral/increase"), map[string]string{"amount": "10"}, borrower), stdhttp.StatusConflict)
	if code := errCode(t, rec); code != "invalid_loan_state" {
		t.Fatalf("code = %q", code)
	}
}

func TestExitLiquidation(t *testing.T) {
	s := newServer(t)
	undercollateralize(s)
	s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation"), nil, liquidator), stdhttp.StatusCreated)

	rec := s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation/exit"), map[string]string{
		"collateral_paid_out": "151", "buyer": buyer.Hex(),
	}, liquidator), stdhttp.StatusUnprocessableEntity)
	if code := errCode(t, rec); code != "invalid_amount" {
		t.Fatalf("code = %q", code)
	}

	got := decode[liquidationResp](t, s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation/exit"), map[string]string{
		"collateral_paid_out": "100", "buyer": buyer.Hex(),
	}, liquidator), stdhttp.StatusOK))
	if got.CollateralPaidOut != "100" {
		t.Fatalf("paid out = %s", got.CollateralPaidOut)
	}
	if b := s.balance(unit, buyer); b != "100" {
		t.Fatalf("buyer balance = %s, want 100", b)
	}

	l := decode[loanResp](t, s.must(s.do(stdhttp.MethodGet, loanPath(1, ""), nil, anonymous), stdhttp.StatusOK))
	if l.State != "liquidated" || l.DebtAmount != "0" || l.CollateralAmount != "50" {
		t.Fatalf("loan after exit = %+v", l)
	}

	// a completed liquidation cannot be completed again
	rec = s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation/exit"), map[string]string{
		"collateral_paid_out": "1", "buyer": buyer.Hex(),
	}, liquidator), stdhttp.StatusConflict)
	if code := errCode(t, rec); code != "invalid_loan_state" {
		t.Fatalf("code = %q", code)
	}

	read := decode[liquidationResp](t, s.must(s.do(stdhttp.MethodGet, loanPath(1, "/liquidation"), nil, anonymous), stdhttp.StatusOK))
	if read.CollateralPaidOut != "100" || read.Buyer == "" {
		t.Fatalf("stored liquidation = %+v", read)
	}
}

func TestSweepResidual(t *testing.T) {
	s := newServer(t)
	undercollateralize(s)
	s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation"), nil, liquidator), stdhttp.StatusCreated)
	s.must(s.do(stdhttp.MethodPost, loanPath(1, "/liquidation/exit"), map[string]string{
		"collateral_paid_out": "100", "buyer": buyer.Hex(),
	}, liquidator), stdhttp.StatusOK)

	s.must(s.do(stdhttp.MethodPost, loanPath(1, "/sweep"), nil, borrower), stdhttp.StatusForbidden)

	l := decode[loanResp](t, s.must(s.do(stdhttp.MethodPost, loanPath(1, "/sweep"), nil, admin), stdhttp.StatusOK))
	if l.CollateralAmount != "0" || l.State != "liquidated" {
		t.Fatalf("loan after sweep = %+v", l)
	}
	if b := s.balance(unit, treasury); b != "50" {
		t.Fatalf("treasury balance = %s, want 50", b)
	}
}

func TestGetLiquidation_NotFound(t *testing.T) {
	s := newServer(t)
	rec := s.must(s.do(stdhttp.MethodGet, loanPath(7, "/liquidation"), nil, anonymous), stdhttp.StatusNotFound)
	if code := errCode(t, rec); code != "liquidation_not_found" {
		t.Fatalf("code = %q", code)
	}
}
