package http

import (
	"log/slog"
	"net/http"
	"time"

	"cdp-ledger/internal/domain/params"
	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/usecase/registry"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"
)

// RegistryHandler exposes the collateral registry and the engine params.
// Mutations are oracle only; the usecase enforces it.
type RegistryHandler struct {
	uc *registry.Usecase
	responder
}

func NewRegistryHandler(uc *registry.Usecase, m *observability.Metrics, log *slog.Logger) *RegistryHandler {
	return &RegistryHandler{uc: uc, responder: responder{metrics: m, log: log}}
}

type registerCollateralReq struct {
	Asset    string `json:"asset"    validate:"required,addr"`
	Price    string `json:"price"    validate:"required,posu256"`
	Decimals string `json:"decimals" validate:"required,posu256"`
	Symbol   string `json:"symbol"   validate:"max=32"`
}

type setPriceReq struct {
	Price string `json:"price" validate:"required,posu256"`
}

type setRatioReq struct {
	CollateralRatio uint64 `json:"collateral_ratio" validate:"required,gte=1"`
}

type setDurationReq struct {
	Seconds int64 `json:"seconds" validate:"required,gte=1"`
}

type paramsView struct {
	CollateralRatio            uint64       `json:"collateral_ratio"`
	LiquidationDurationSeconds int64        `json:"liquidation_duration_seconds"`
	MaxLoan                    *uint256.Int `json:"max_loan"`
	UpdatedAt                  time.Time    `json:"updated_at"`
}

func toParamsView(p *params.Params) paramsView {
	return paramsView{
		CollateralRatio:            p.CollateralRatio,
		LiquidationDurationSeconds: int64(p.LiquidationDuration / time.Second),
		MaxLoan:                    p.MaxLoan,
		UpdatedAt:                  p.UpdatedAt,
	}
}

func (h *RegistryHandler) Register(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	var req registerCollateralReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	d, err := h.uc.Register(c.Request().Context(), who, registry.RegisterInput{
		Asset:    common.HexToAddress(req.Asset),
		Price:    mustU256(req.Price),
		Decimals: mustU256(req.Decimals),
		Symbol:   req.Symbol,
	})
	if err != nil {
		return h.fail(c, "register_collateral", err)
	}
	return h.ok(c, "register_collateral", http.StatusCreated, d)
}

func (h *RegistryHandler) Deregister(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	asset, ok, err := addrParam(c, "asset")
	if !ok {
		return err
	}
	if err := h.uc.Deregister(c.Request().Context(), who, asset); err != nil {
		return h.fail(c, "deregister_collateral", err)
	}
	return h.ok(c, "deregister_collateral", http.StatusNoContent, nil)
}

func (h *RegistryHandler) SetPrice(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	asset, ok, err := addrParam(c, "asset")
	if !ok {
		return err
	}
	var req setPriceReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	d, err := h.uc.SetPrice(c.Request().Context(), who, asset, mustU256(req.Price))
	if err != nil {
		return h.fail(c, "set_price", err)
	}
	return h.ok(c, "set_price", http.StatusOK, d)
}

func (h *RegistryHandler) GetCollateral(c echo.Context) error {
	asset, ok, err := addrParam(c, "asset")
	if !ok {
		return err
	}
	d, err := h.uc.Get(c.Request().Context(), asset)
	if err != nil {
		return h.fail(c, "get_collateral", err)
	}
	return h.ok(c, "get_collateral", http.StatusOK, d)
}

func (h *RegistryHandler) ListCollaterals(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "list_collaterals", err)
	}
	return h.ok(c, "list_collaterals", http.StatusOK, map[string]any{"collaterals": list})
}

func (h *RegistryHandler) GetParams(c echo.Context) error {
	p, err := h.uc.GetParams(c.Request().Context())
	if err != nil {
		return h.fail(c, "get_params", err)
	}
	return h.ok(c, "get_params", http.StatusOK, toParamsView(p))
}

func (h *RegistryHandler) SetCollateralRatio(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	var req setRatioReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	p, err := h.uc.SetCollateralRatio(c.Request().Context(), who, req.CollateralRatio)
	if err != nil {
		return h.fail(c, "set_collateral_ratio", err)
	}
	return h.ok(c, "set_collateral_ratio", http.StatusOK, toParamsView(p))
}

func (h *RegistryHandler) SetLiquidationDuration(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	var req setDurationReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	p, err := h.uc.SetLiquidationDuration(c.Request().Context(), who, time.Duration(req.Seconds)*time.Second)
	if err != nil {
		return h.fail(c, "set_liquidation_duration", err)
	}
	return h.ok(c, "set_liquidation_duration", http.StatusOK, toParamsView(p))
}
