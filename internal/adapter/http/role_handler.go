package http

import (
	"log/slog"
	"net/http"

	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/observability"
	roleUsecase "cdp-ledger/internal/usecase/role"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

type RoleHandler struct {
	uc *roleUsecase.Usecase
	responder
}

func NewRoleHandler(uc *roleUsecase.Usecase, m *observability.Metrics, log *slog.Logger) *RoleHandler {
	return &RoleHandler{uc: uc, responder: responder{metrics: m, log: log}}
}

type initRoleReq struct {
	Holder string `json:"holder" validate:"required,addr"`
}

// InitializeRole answers PUT /v1/roles/:role. Admin only, once per role.
func (h *RoleHandler) InitializeRole(c echo.Context) error {
	who, ok, err := caller(c)
	if !ok {
		return err
	}
	var req initRoleReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	holder, err := h.uc.Initialize(c.Request().Context(), who, role.Name(c.Param("role")), common.HexToAddress(req.Holder))
	if err != nil {
		return h.fail(c, "initialize_role", err)
	}
	return h.ok(c, "initialize_role", http.StatusCreated, holder)
}

func (h *RoleHandler) GetRole(c echo.Context) error {
	holder, err := h.uc.Get(c.Request().Context(), role.Name(c.Param("role")))
	if err != nil {
		return h.fail(c, "get_role", err)
	}
	return h.ok(c, "get_role", http.StatusOK, holder)
}

func (h *RoleHandler) ListRoles(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "list_roles", err)
	}
	return h.ok(c, "list_roles", http.StatusOK, map[string]any{"roles": list})
}
