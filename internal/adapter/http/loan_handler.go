package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/usecase/loan"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"
)

type LoanHandler struct {
	uc *loan.Usecase
	responder
}

func NewLoanHandler(uc *loan.Usecase, m *observability.Metrics, log *slog.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, responder: responder{metrics: m, log: log}}
}

type issueLoanReq struct {
	DebtAmount       string `json:"debt_amount"       validate:"required,posu256"`
	CollateralAsset  string `json:"collateral_asset"  validate:"required,addr"`
	CollateralAmount string `json:"collateral_amount" validate:"required,u256"`
}

type amountReq struct {
	Amount string `json:"amount" validate:"required,posu256"`
}

// IssueLoan opens a loan for the authenticated caller.
func (h *LoanHandler) IssueLoan(c echo.Context) error {
	borrower, ok, err := caller(c)
	if !ok {
		return err
	}
	var req issueLoanReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Issue(c.Request().Context(), loan.IssueInput{
		Borrower:        borrower,
		DebtAmount:      mustU256(req.DebtAmount),
		CollateralAsset: common.HexToAddress(req.CollateralAsset),
		Collateral:      mustU256(req.CollateralAmount),
	})
	if err != nil {
		return h.fail(c, "issue", err)
	}
	return h.ok(c, "issue", http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, ok, err := loanIDParam(c)
	if !ok {
		return err
	}
	view, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return h.fail(c, "get_loan", err)
	}
	return h.ok(c, "get_loan", http.StatusOK, view)
}

// ListLoans answers GET /v1/loans?recipient=0x..&limit=n.
func (h *LoanHandler) ListLoans(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if !common.IsHexAddress(recipient) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid recipient query param", Code: "invalid_param"})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit query param", Code: "invalid_param"})
		}
		limit = n
	}
	list, err := h.uc.List(c.Request().Context(), common.HexToAddress(recipient), limit)
	if err != nil {
		return h.fail(c, "list_loans", err)
	}
	return h.ok(c, "list_loans", http.StatusOK, map[string]any{"loans": list})
}

func (h *LoanHandler) IncreaseCollateral(c echo.Context) error {
	return h.adjust(c, "increase_collateral", h.uc.IncreaseCollateral)
}

func (h *LoanHandler) DecreaseCollateral(c echo.Context) error {
	return h.adjust(c, "decrease_collateral", h.uc.DecreaseCollateral)
}

func (h *LoanHandler) adjust(c echo.Context, op string, fn func(context.Context, common.Address, uint64, *uint256.Int) (*loan.LoanDTO, error)) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	loanID, ok, err := loanIDParam(c)
	if !ok {
		return err
	}
	var req amountReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := fn(c.Request().Context(), who, loanID, mustU256(req.Amount))
	if err != nil {
		return h.fail(c, op, err)
	}
	return h.ok(c, op, http.StatusOK, dto)
}

// Settle repays part or all of the debt; the caller pays.
func (h *LoanHandler) Settle(c echo.Context) error {
	payer, ok, err := caller(c)
	if !ok {
		return err
	}
	loanID, ok, err := loanIDParam(c)
	if !ok {
		return err
	}
	var req amountReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	res, err := h.uc.Settle(c.Request().Context(), payer, loanID, mustU256(req.Amount))
	if err != nil {
		return h.fail(c, "settle", err)
	}
	return h.ok(c, "settle", http.StatusOK, res)
}

func (h *LoanHandler) SweepResidual(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	loanID, ok, err := loanIDParam(c)
	if !ok {
		return err
	}
	dto, err := h.uc.SweepResidual(c.Request().Context(), who, loanID)
	if err != nil {
		return h.fail(c, "sweep_residual", err)
	}
	return h.ok(c, "sweep_residual", http.StatusOK, dto)
}

// MinimumCollateral answers GET /v1/quotes/minimum-collateral?asset=&debt=.
func (h *LoanHandler) MinimumCollateral(c echo.Context) error {
	asset, debt := c.QueryParam("asset"), c.QueryParam("debt")
	if !common.IsHexAddress(asset) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid asset query param", Code: "invalid_param"})
	}
	amount, err := uint256.FromDecimal(debt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid debt query param", Code: "invalid_param"})
	}
	minimum, err := h.uc.MinimumCollateral(c.Request().Context(), common.HexToAddress(asset), amount)
	if err != nil {
		return h.fail(c, "minimum_collateral", err)
	}
	return h.ok(c, "minimum_collateral", http.StatusOK, map[string]any{
		"asset":              common.HexToAddress(asset),
		"debt_amount":        amount,
		"minimum_collateral": minimum,
	})
}
