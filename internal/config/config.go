package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"cdp-ledger/internal/domain/collateral"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DBDriver   string // mysql | sqlite
	SQLitePath string
	MySQLHost  string
	MySQLPort  string
	MySQLDB    string
	MySQLUser  string
	MySQLPass  string

	AutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs int

	LogLevel  string
	LogFormat string

	JWTSecret string
	JWTIssuer string

	EngineAddress   string
	TreasuryAddress string
	CurrencyToken   string
	AdminAddress    string

	CollateralRatio         uint64
	LiquidationDurationSecs int64
	MaxLoan                 string
	LiquidationStream       string

	// symbol:asset:price:decimals entries separated by ';'. asset may be
	// "native" for the chain coin.
	SeedCollaterals string
}

// SeedCollateral is one parsed SEED_COLLATERALS entry.
type SeedCollateral struct {
	Symbol   string
	Asset    common.Address
	Price    *uint256.Int
	Decimals *uint256.Int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func Load() *Config {
	// optional .env; variables already in the environment win
	_ = godotenv.Load()

	c := &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		DBDriver:   getenv("DB_DRIVER", "mysql"),
		SQLitePath: getenv("SQLITE_PATH", "cdp-ledger.db"),
		MySQLHost:  getenv("MYSQL_HOST", "mysql"),
		MySQLPort:  getenv("MYSQL_PORT", "3306"),
		MySQLDB:    getenv("MYSQL_DB", "cdp_ledger"),
		MySQLUser:  getenv("MYSQL_USER", "cdp"),
		MySQLPass:  getenv("MYSQL_PASS", "cdp"),

		AutoMigrate: true,

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		IdempTTLSecs:  300,

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getenv("JWT_ISSUER", "cdp-ledger"),

		EngineAddress:   getenv("ENGINE_ADDRESS", "0x000000000000000000000000000000000000E261"),
		TreasuryAddress: getenv("TREASURY_ADDRESS", "0x000000000000000000000000000000000000eA51"),
		CurrencyToken:   getenv("CURRENCY_TOKEN", "0x000000000000000000000000000000000000C0De"),
		AdminAddress:    os.Getenv("ADMIN_ADDRESS"),

		CollateralRatio:         1500,
		LiquidationDurationSecs: 86400,
		MaxLoan:                 getenv("MAX_LOAN", "1000000000000000000000000"),
		LiquidationStream:       getenv("LIQUIDATION_STREAM", "cdp:liquidations"),
		SeedCollaterals:         os.Getenv("SEED_COLLATERALS"),
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	if v := os.Getenv("COLLATERAL_RATIO"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.CollateralRatio = n
		}
	}
	if v := os.Getenv("LIQUIDATION_DURATION_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.LiquidationDurationSecs = n
		}
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoMigrate = b
		}
	}
	return c
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (mysql|sqlite)", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	for key, v := range map[string]string{
		"ENGINE_ADDRESS":   c.EngineAddress,
		"TREASURY_ADDRESS": c.TreasuryAddress,
		"CURRENCY_TOKEN":   c.CurrencyToken,
		"ADMIN_ADDRESS":    c.AdminAddress,
	} {
		if !common.IsHexAddress(v) || common.HexToAddress(v) == (common.Address{}) {
			return fmt.Errorf("invalid %s %q", key, v)
		}
	}
	if c.CollateralRatio == 0 {
		return errors.New("COLLATERAL_RATIO must be positive")
	}
	if c.LiquidationDurationSecs <= 0 {
		return errors.New("LIQUIDATION_DURATION_SECONDS must be positive")
	}
	if _, err := uint256.FromDecimal(c.MaxLoan); err != nil || c.MaxLoan == "" {
		return fmt.Errorf("invalid MAX_LOAN %q", c.MaxLoan)
	}
	if _, err := c.Seeds(); err != nil {
		return err
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) Engine() common.Address { return common.HexToAddress(c.EngineAddress) }
func (c *Config) Treasury() common.Address { return common.HexToAddress(c.TreasuryAddress) }
func (c *Config) Currency() common.Address { return common.HexToAddress(c.CurrencyToken) }
func (c *Config) Admin() common.Address { return common.HexToAddress(c.AdminAddress) }

func (c *Config) LiquidationDuration() time.Duration {
	return time.Duration(c.LiquidationDurationSecs) * time.Second
}

// MaxLoanAmount is only meaningful after Validate.
func (c *Config) MaxLoanAmount() *uint256.Int {
	v, err := uint256.FromDecimal(c.MaxLoan)
	if err != nil {
		return new(uint256.Int)
	}
	return v
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

// Seeds parses SEED_COLLATERALS.
func (c *Config) Seeds() ([]SeedCollateral, error) {
	var out []SeedCollateral
	for _, entry := range strings.Split(c.SeedCollaterals, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid SEED_COLLATERALS entry %q: want symbol:asset:price:decimals", entry)
		}
		s := SeedCollateral{Symbol: strings.TrimSpace(parts[0])}
		switch asset := strings.TrimSpace(parts[1]); {
		case strings.EqualFold(asset, "native"):
			s.Asset = collateral.NativeAsset
		case common.IsHexAddress(asset):
			s.Asset = common.HexToAddress(asset)
		default:
			return nil, fmt.Errorf("invalid SEED_COLLATERALS asset %q", asset)
		}
		var err error
		if s.Price, err = uint256.FromDecimal(strings.TrimSpace(parts[2])); err != nil || s.Price.IsZero() {
			return nil, fmt.Errorf("invalid SEED_COLLATERALS price in %q", entry)
		}
		if s.Decimals, err = uint256.FromDecimal(strings.TrimSpace(parts[3])); err != nil || s.Decimals.IsZero() {
			return nil, fmt.Errorf("invalid SEED_COLLATERALS decimals in %q", entry)
		}
		out = append(out, s)
	}
	return out, nil
}
