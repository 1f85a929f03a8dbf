package http

import (
	"log/slog"
	"net/http"

	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/usecase/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

// WalletHandler fronts the reference token book.
type WalletHandler struct {
	uc *wallet.Usecase
	responder
}

func NewWalletHandler(uc *wallet.Usecase, m *observability.Metrics, log *slog.Logger) *WalletHandler {
	return &WalletHandler{uc: uc, responder: responder{metrics: m, log: log}}
}

type approveReq struct {
	Spender string `json:"spender" validate:"required,addr"`
	Amount  string `json:"amount"  validate:"required,u256"`
}

type creditReq struct {
	Holder string `json:"holder" validate:"required,addr"`
	Amount string `json:"amount" validate:"required,posu256"`
}

// Approve sets the caller's allowance for spender on :token.
func (h *WalletHandler) Approve(c echo.Context) error {
	owner, ok, err := caller(c)
	if !ok {
		return err
	}
	tok, ok, err := addrParam(c, "token")
	if !ok {
		return err
	}
	var req approveReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	spender := common.HexToAddress(req.Spender)
	amount := mustU256(req.Amount)
	if err := h.uc.Approve(c.Request().Context(), owner, tok, spender, amount); err != nil {
		return h.fail(c, "approve", err)
	}
	return h.ok(c, "approve", http.StatusOK, map[string]any{
		"token":   tok,
		"owner":   owner,
		"spender": spender,
		"amount":  amount,
	})
}

// Credit is the admin faucet for collateral tokens.
func (h *WalletHandler) Credit(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	tok, ok, err := addrParam(c, "token")
	if !ok {
		return err
	}
	var req creditReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	pos, err := h.uc.Credit(c.Request().Context(), who, tok, common.HexToAddress(req.Holder), mustU256(req.Amount))
	if err != nil {
		return h.fail(c, "credit", err)
	}
	return h.ok(c, "credit", http.StatusOK, pos)
}

func (h *WalletHandler) Balance(c echo.Context) error {
	tok, ok, err := addrParam(c, "token")
	if !ok {
		return err
	}
	holder, ok, err := addrParam(c, "holder")
	if !ok {
		return err
	}
	pos, err := h.uc.Balance(c.Request().Context(), tok, holder)
	if err != nil {
		return h.fail(c, "balance", err)
	}
	return h.ok(c, "balance", http.StatusOK, pos)
}

func (h *WalletHandler) Allowance(c echo.Context) error {
	tok, ok, err := addrParam(c, "token")
	if !ok {
		return err
	}
	owner, ok, err := addrParam(c, "owner")
	if !ok {
		return err
	}
	spender, ok, err := addrParam(c, "spender")
	if !ok {
		return err
	}
	amount, err := h.uc.Allowance(c.Request().Context(), tok, owner, spender)
	if err != nil {
		return h.fail(c, "allowance", err)
	}
	return h.ok(c, "allowance", http.StatusOK, map[string]any{
		"token":   tok,
		"owner":   owner,
		"spender": spender,
		"amount":  amount,
	})
}
