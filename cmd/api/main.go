package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	httpadp "cdp-ledger/internal/adapter/http"
	"cdp-ledger/internal/adapter/liquidator"
	mw "cdp-ledger/internal/adapter/middleware"
	"cdp-ledger/internal/adapter/repository/mysql"
	"cdp-ledger/internal/adapter/token"
	"cdp-ledger/internal/auth"
	"cdp-ledger/internal/config"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/infrastructure/cache"
	"cdp-ledger/internal/infrastructure/db"
	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/usecase/loan"
	"cdp-ledger/internal/usecase/registry"
	roleUsecase "cdp-ledger/internal/usecase/role"
	"cdp-ledger/internal/usecase/wallet"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func openDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	opt := db.Options{Log: log, LogLevel: db.ParseLogLevel(cfg.LogLevel)}
	if cfg.DBDriver == "sqlite" {
		return db.OpenSQLite(cfg.SQLitePath, opt)
	}
	return db.OpenGorm(cfg.MySQLDSN(), opt)
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	gdb, err := openDB(cfg, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := mysql.Migrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	rdb, err := cache.OpenRedis(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	guow := mysql.NewGormUoW(gdb)
	repos := guow.Repos()

	roles := roleUsecase.NewUsecase(guow, repos.Roles, log)
	switch err := roles.Bootstrap(ctx, cfg.Admin()); {
	case errors.Is(err, role.ErrAlreadyInitialized):
		if h, getErr := roles.Get(ctx, role.Admin); getErr == nil && h.Holder != cfg.Admin() {
			log.Warn("admin already set to a different account; ADMIN_ADDRESS ignored", "admin", h.Holder.Hex())
		}
	case err != nil:
		return fmt.Errorf("bootstrap admin: %w", err)
	default:
		log.Info("admin role initialized", "admin", cfg.Admin().Hex())
	}

	registryUC := registry.NewUsecase(guow, repos.Collaterals, repos.Params, log, metrics)
	if _, err := registryUC.EnsureParams(ctx, registry.ParamsDefaults{
		CollateralRatio:     cfg.CollateralRatio,
		LiquidationDuration: cfg.LiquidationDuration(),
		MaxLoan:             cfg.MaxLoanAmount(),
	}); err != nil {
		return fmt.Errorf("engine params: %w", err)
	}
	seeds, err := cfg.Seeds()
	if err != nil {
		return err
	}
	items := make([]registry.RegisterInput, 0, len(seeds))
	for _, s := range seeds {
		items = append(items, registry.RegisterInput{Asset: s.Asset, Price: s.Price, Decimals: s.Decimals, Symbol: s.Symbol})
	}
	if err := registryUC.Seed(ctx, items); err != nil {
		return err
	}

	collab := token.Collaborators{EngineAddr: cfg.Engine(), TreasuryAddr: cfg.Treasury(), CurrencyToken: cfg.Currency()}
	loanUC := loan.NewUsecase(guow, repos, collab, liquidator.NewStreamLiquidator(rdb, cfg.LiquidationStream), log, metrics)
	walletUC := wallet.NewUsecase(guow, repos.Tokens, cfg.Currency(), log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	jm := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTSecret)
	base := httpadp.NewHandler(
		httpadp.Check{Name: "database", Ping: sqlDB.PingContext},
		httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)
	httpadp.Register(e, httpadp.Handlers{
		Base:         base,
		Loans:        httpadp.NewLoanHandler(loanUC, metrics, log),
		Liquidations: httpadp.NewLiquidationHandler(loanUC, metrics, log),
		Registry:     httpadp.NewRegistryHandler(registryUC, metrics, log),
		Roles:        httpadp.NewRoleHandler(roles, metrics, log),
		Wallet:       httpadp.NewWalletHandler(walletUC, metrics, log),
	}, reg, mw.JWTAuth(jm), mw.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log))

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "db", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
