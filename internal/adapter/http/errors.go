package http

import (
	"errors"
	"log/slog"
	"net/http"

	"cdp-ledger/internal/domain/accounting"
	"cdp-ledger/internal/domain/collaborator"
	"cdp-ledger/internal/domain/collateral"
	"cdp-ledger/internal/domain/liquidation"
	"cdp-ledger/internal/domain/loan"
	"cdp-ledger/internal/domain/params"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/observability"

	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first errors.Is match wins.
var errorTable = []errorMapping{
	{accounting.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{accounting.ErrInvalidPrice, http.StatusUnprocessableEntity, "invalid_price"},
	{accounting.ErrOverflow, http.StatusUnprocessableEntity, "overflow"},
	{loan.ErrNotFound, http.StatusNotFound, "loan_not_found"},
	{loan.ErrInvalidLoanState, http.StatusConflict, "invalid_loan_state"},
	{loan.ErrInsufficientCollateral, http.StatusUnprocessableEntity, "insufficient_collateral"},
	{loan.ErrSufficientCollateral, http.StatusConflict, "sufficient_collateral"},
	{loan.ErrExceededMaxLoan, http.StatusUnprocessableEntity, "exceeded_max_loan"},
	{collateral.ErrNotFound, http.StatusNotFound, "collateral_not_found"},
	{collateral.ErrAlreadyExists, http.StatusConflict, "already_exists"},
	{liquidation.ErrNotFound, http.StatusNotFound, "liquidation_not_found"},
	{role.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{role.ErrAlreadyInitialized, http.StatusConflict, "already_initialized"},
	{role.ErrNotFound, http.StatusNotFound, "role_not_found"},
	{role.ErrUnknownRole, http.StatusBadRequest, "unknown_role"},
	{collaborator.ErrInsufficientAllowance, http.StatusUnprocessableEntity, "insufficient_allowance"},
	{collaborator.ErrTransferFailed, http.StatusUnprocessableEntity, "transfer_failed"},
	{params.ErrNotFound, http.StatusServiceUnavailable, "params_not_initialized"},
}

// ErrorCode returns the stable code for err, or "internal".
func ErrorCode(err error) string {
	_, code := classify(err)
	return code
}

func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// responder finishes a handler: it records the outcome of op and writes the
// JSON body.
type responder struct {
	metrics *observability.Metrics
	log     *slog.Logger
}

func (r responder) fail(c echo.Context, op string, err error) error {
	status, code := classify(err)
	r.metrics.ObserveOp(op, code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		r.log.Error("request failed", "op", op, "path", c.Path(), "err", err)
		msg = "internal error"
	}
	return c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

func (r responder) ok(c echo.Context, op string, status int, body any) error {
	r.metrics.ObserveOp(op, "ok")
	if body == nil {
		return c.NoContent(status)
	}
	return c.JSON(status, body)
}
