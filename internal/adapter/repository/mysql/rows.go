package mysql

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Amounts are stored as base-10 strings in size:78 columns: 2^256 needs 78
// digits, which is beyond MySQL DECIMAL(65).
type loanRow struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Recipient        string    `gorm:"column:recipient;size:42;not null;index:idx_loans_recipient"`
	CollateralAsset  string    `gorm:"column:collateral_asset;size:42;not null;index:idx_loans_asset"`
	CollateralAmount string    `gorm:"column:collateral_amount;size:78;not null"`
	DebtAmount       string    `gorm:"column:debt_amount;size:78;not null"`
	State            string    `gorm:"column:state;size:32;not null;index:idx_loans_state"`
	StateUpdatedAt   time.Time `gorm:"column:state_updated_at"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (loanRow) TableName() string { return "loans" }

type liquidationRow struct {
	ID                uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	LiquidationID     string     `gorm:"column:liquidation_id;size:32;not null;uniqueIndex:ux_liquidations_liquidation_id"`
	LoanID            uint64     `gorm:"column:loan_id;not null;uniqueIndex:ux_liquidations_loan"`
	Asset             string     `gorm:"column:asset;size:42;not null"`
	CollateralAmount  string     `gorm:"column:collateral_amount;size:78;not null"`
	DebtAmount        string     `gorm:"column:debt_amount;size:78;not null"`
	DurationSecs      int64      `gorm:"column:duration_secs;not null"`
	StartedAt         time.Time  `gorm:"column:started_at;not null"`
	Buyer             *string    `gorm:"column:buyer;size:42"`
	CollateralPaidOut *string    `gorm:"column:collateral_paid_out;size:78"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (liquidationRow) TableName() string { return "liquidations" }

type collateralRow struct {
	Asset     string    `gorm:"column:asset;primaryKey;size:42"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	Price     string    `gorm:"column:price;size:78;not null"`
	Decimals  string    `gorm:"column:decimals;size:78;not null"`
	Symbol    string    `gorm:"column:symbol;size:32"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (collateralRow) TableName() string { return "collaterals" }

type paramsRow struct {
	ID                  uint8     `gorm:"column:id;primaryKey"`
	CollateralRatio     uint64    `gorm:"column:collateral_ratio;not null"`
	LiquidationDuration int64     `gorm:"column:liquidation_duration_secs;not null"`
	MaxLoan             string    `gorm:"column:max_loan;size:78;not null"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (paramsRow) TableName() string { return "engine_params" }

type roleRow struct {
	Role      string    `gorm:"column:role;primaryKey;size:16"`
	Holder    string    `gorm:"column:holder;size:42;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (roleRow) TableName() string { return "roles" }

type balanceRow struct {
	Token     string    `gorm:"column:token;primaryKey;size:42"`
	Holder    string    `gorm:"column:holder;primaryKey;size:42"`
	Amount    string    `gorm:"column:amount;size:78;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (balanceRow) TableName() string { return "token_balances" }

type allowanceRow struct {
	Token     string    `gorm:"column:token;primaryKey;size:42"`
	Owner     string    `gorm:"column:owner;primaryKey;size:42"`
	Spender   string    `gorm:"column:spender;primaryKey;size:42"`
	Amount    string    `gorm:"column:amount;size:78;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (allowanceRow) TableName() string { return "token_allowances" }

type depositRow struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	DepositID string    `gorm:"column:deposit_id;size:32;not null;uniqueIndex"`
	Asset     string    `gorm:"column:asset;size:42;not null;index"`
	Amount    string    `gorm:"column:amount;size:78;not null"`
	Memo      string    `gorm:"column:memo;size:128"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (depositRow) TableName() string { return "treasury_deposits" }

// Migrate creates or updates every ledger table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loanRow{},
		&liquidationRow{},
		&collateralRow{},
		&paramsRow{},
		&roleRow{},
		&balanceRow{},
		&allowanceRow{},
		&depositRow{},
	)
}

// forUpdate adds FOR UPDATE on dialects that support row locks. SQLite locks
// the whole database for the write transaction anyway.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "mysql" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func addr(a common.Address) string { return a.Hex() }

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func parseAmount(column, s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", column, s, err)
	}
	return v, nil
}
