package http

import (
	"log/slog"
	"net/http"

	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/usecase/loan"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

// LiquidationHandler serves the auction side of a loan: the liquidator role
// starts and completes liquidations, anyone may read the record.
type LiquidationHandler struct {
	uc *loan.Usecase
	responder
}

func NewLiquidationHandler(uc *loan.Usecase, m *observability.Metrics, log *slog.Logger) *LiquidationHandler {
	return &LiquidationHandler{uc: uc, responder: responder{metrics: m, log: log}}
}

type exitLiquidationReq struct {
	CollateralPaidOut string `json:"collateral_paid_out" validate:"required,u256"`
	Buyer             string `json:"buyer"               validate:"required,addr"`
}

func (h *LiquidationHandler) EnterLiquidation(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	loanID, ok, err := loanIDParam(c)
	if !ok {
		return err
	}
	dto, err := h.uc.EnterLiquidation(c.Request().Context(), who, loanID)
	if err != nil {
		return h.fail(c, "enter_liquidation", err)
	}
	return h.ok(c, "enter_liquidation", http.StatusCreated, dto)
}

// ExitLiquidation is the auction's callback once the collateral is sold.
func (h *LiquidationHandler) ExitLiquidation(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	loanID, ok, err := loanIDParam(c)
	if !ok {
		return err
	}
	var req exitLiquidationReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.ExitLiquidation(c.Request().Context(), who, loanID,
		mustU256(req.CollateralPaidOut), common.HexToAddress(req.Buyer))
	if err != nil {
		return h.fail(c, "exit_liquidation", err)
	}
	return h.ok(c, "exit_liquidation", http.StatusOK, dto)
}

func (h *LiquidationHandler) GetLiquidation(c echo.Context) error {
	loanID, ok, err := loanIDParam(c)
	if !ok {
		return err
	}
	dto, err := h.uc.GetLiquidation(c.Request().Context(), loanID)
	if err != nil {
		return h.fail(c, "get_liquidation", err)
	}
	return h.ok(c, "get_liquidation", http.StatusOK, dto)
}
