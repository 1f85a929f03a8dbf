package config

import (
	"strings"
	"testing"
	"time"

	"cdp-ledger/internal/domain/collateral"

	"github.com/ethereum/go-ethereum/common"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_ADDRESS", "0x00000000000000000000000000000000000000a1")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	c := Load()

	if c.AppPort != "8080" || c.DBDriver != "mysql" || !c.AutoMigrate {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.CollateralRatio != 1500 || c.LiquidationDuration() != 24*time.Hour {
		t.Fatalf("ratio/duration = %d/%s", c.CollateralRatio, c.LiquidationDuration())
	}
	if c.IdempotencyTTL() != 5*time.Minute {
		t.Fatalf("idempotency ttl = %s", c.IdempotencyTTL())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Admin() != common.HexToAddress("0x00000000000000000000000000000000000000a1") {
		t.Fatalf("admin = %s", c.Admin().Hex())
	}
	if got := c.MaxLoanAmount().Dec(); got != "1000000000000000000000000" {
		t.Fatalf("max loan = %s", got)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("COLLATERAL_RATIO", "2000")
	t.Setenv("LIQUIDATION_DURATION_SECONDS", "60")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "not-a-number")

	c := Load()
	if c.CollateralRatio != 2000 || c.LiquidationDurationSecs != 60 || c.AutoMigrate || c.RedisDB != 3 || c.RedisPassword != "hunter2" {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.IdempTTLSecs != 300 {
		t.Fatalf("bad number should keep the default, got %d", c.IdempTTLSecs)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		set  map[string]string
		want string
	}{
		{"no secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"no admin", map[string]string{"ADMIN_ADDRESS": ""}, "ADMIN_ADDRESS"},
		{"bad engine", map[string]string{"ENGINE_ADDRESS": "0x12"}, "ENGINE_ADDRESS"},
		{"bad driver", map[string]string{"DB_DRIVER": "postgres"}, "DB_DRIVER"},
		{"bad port", map[string]string{"MYSQL_PORT": "notaport"}, "MYSQL_PORT"},
		{"bad max loan", map[string]string{"MAX_LOAN": "1e6"}, "MAX_LOAN"},
		{"zero ratio", map[string]string{"COLLATERAL_RATIO": "0"}, "COLLATERAL_RATIO"},
		{"bad seed", map[string]string{"SEED_COLLATERALS": "WETH:0x01"}, "SEED_COLLATERALS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.set {
				t.Setenv(k, v)
			}
			err := Load().Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestSeeds(t *testing.T) {
	c := &Config{SeedCollaterals: " WETH:0x1000000000000000000000000000000000000001:2000:1000000000000000000 ; ETH:native:2000:1000000000000000000;"}
	seeds, err := c.Seeds()
	if err != nil {
		t.Fatalf("Seeds: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("len = %d, want 2", len(seeds))
	}
	if seeds[0].Symbol != "WETH" || seeds[0].Price.Uint64() != 2000 {
		t.Fatalf("first seed = %+v", seeds[0])
	}
	if seeds[1].Asset != collateral.NativeAsset {
		t.Fatalf("native seed asset = %s", seeds[1].Asset.Hex())
	}

	for _, bad := range []string{
		"WETH:nope:1:1",
		"WETH:0x1000000000000000000000000000000000000001:0:1",
		"WETH:0x1000000000000000000000000000000000000001:1:x",
	} {
		if _, err := (&Config{SeedCollaterals: bad}).Seeds(); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &Config{MySQLUser: "u", MySQLPass: "p", MySQLHost: "db", MySQLPort: "3306", MySQLDB: "ledger"}
	if got := c.MySQLDSN(); !strings.HasPrefix(got, "u:p@tcp(db:3306)/ledger?") || !strings.Contains(got, "parseTime=true") {
		t.Fatalf("dsn = %s", got)
	}
}
