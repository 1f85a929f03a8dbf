package http

import (
	"net/http"
	"strconv"

	"cdp-ledger/internal/adapter/middleware"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"
)

// bind decodes and validates req. On failure it has already written the
// 400/422 response and returns false.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: "invalid_body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// caller is set by the JWT middleware; routes without it answer 401.
func caller(c echo.Context) (common.Address, bool, error) {
	addr, ok := middleware.CallerFrom(c)
	if !ok {
		return common.Address{}, false, c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing caller", Code: "unauthorized"})
	}
	return addr, true, nil
}

func loanIDParam(c echo.Context) (uint64, bool, error) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id path param", Code: "invalid_param"})
	}
	return id, true, nil
}

func addrParam(c echo.Context, name string) (common.Address, bool, error) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " path param", Code: "invalid_param"})
	}
	return common.HexToAddress(raw), true, nil
}

// mustU256 is only called on fields already checked by the u256 tags.
func mustU256(s string) *uint256.Int { return uint256.MustFromDecimal(s) }
