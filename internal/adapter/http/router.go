package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type Handlers struct {
	Base         *Handler
	Loans        *LoanHandler
	Liquidations *LiquidationHandler
	Registry     *RegistryHandler
	Roles        *RoleHandler
	Wallet       *WalletHandler
}

// Register mounts every route on e. Reads are public; writes go through
// auth and then the remaining middlewares (idempotency in production).
func Register(e *echo.Echo, h Handlers, g prometheus.Gatherer, auth echo.MiddlewareFunc, write ...echo.MiddlewareFunc) {
	e.GET("/health", h.Base.Health)
	e.GET("/metrics", h.Base.Metrics(g))

	v1 := e.Group("/v1")
	v1.GET("/loans", h.Loans.ListLoans)
	v1.GET("/loans/:loan_id", h.Loans.GetLoan)
	v1.GET("/loans/:loan_id/liquidation", h.Liquidations.GetLiquidation)
	v1.GET("/quotes/minimum-collateral", h.Loans.MinimumCollateral)
	v1.GET("/collaterals", h.Registry.ListCollaterals)
	v1.GET("/collaterals/:asset", h.Registry.GetCollateral)
	v1.GET("/params", h.Registry.GetParams)
	v1.GET("/roles", h.Roles.ListRoles)
	v1.GET("/roles/:role", h.Roles.GetRole)
	v1.GET("/tokens/:token/balances/:holder", h.Wallet.Balance)
	v1.GET("/tokens/:token/allowances/:owner/:spender", h.Wallet.Allowance)

	w := v1.Group("", append([]echo.MiddlewareFunc{auth}, write...)...)
	w.POST("/loans", h.Loans.IssueLoan)
	w.POST("/loans/:loan_id/collateral/increase", h.Loans.IncreaseCollateral)
	w.POST("/loans/:loan_id/collateral/decrease", h.Loans.DecreaseCollateral)
	w.POST("/loans/:loan_id/settle", h.Loans.Settle)
	w.POST("/loans/:loan_id/sweep", h.Loans.SweepResidual)
	w.POST("/loans/:loan_id/liquidation", h.Liquidations.EnterLiquidation)
	w.POST("/loans/:loan_id/liquidation/exit", h.Liquidations.ExitLiquidation)
	w.POST("/collaterals", h.Registry.Register)
	w.DELETE("/collaterals/:asset", h.Registry.Deregister)
	w.PUT("/collaterals/:asset/price", h.Registry.SetPrice)
	w.PUT("/params/collateral-ratio", h.Registry.SetCollateralRatio)
	w.PUT("/params/liquidation-duration", h.Registry.SetLiquidationDuration)
	w.PUT("/roles/:role", h.Roles.InitializeRole)
	w.POST("/tokens/:token/approve", h.Wallet.Approve)
	w.POST("/tokens/:token/credit", h.Wallet.Credit)
}
