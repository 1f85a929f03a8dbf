package role

import (
	"context"
	"errors"
	"testing"

	"cdp-ledger/internal/adapter/repository/mysql"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/observability"
	"cdp-ledger/internal/testutil/sqlitedb"

	"github.com/ethereum/go-ethereum/common"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	oracle   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func newUsecase(t *testing.T) *Usecase {
	t.Helper()
	guow := mysql.NewGormUoW(sqlitedb.Open(t))
	return NewUsecase(guow, guow.Repos().Roles, observability.Discard())
}

func TestBootstrap_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	uc := newUsecase(t)

	if err := uc.Bootstrap(ctx, admin); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := uc.Bootstrap(ctx, stranger); !errors.Is(err, role.ErrAlreadyInitialized) {
		t.Fatalf("want ErrAlreadyInitialized, got %v", err)
	}
	h, err := uc.Get(ctx, role.Admin)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if h.Holder != admin {
		t.Fatalf("admin holder=%s", h.Holder.Hex())
	}
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  common.Address
		role    role.Name
		prepare func(*Usecase)
		wantErr error
	}{
		{name: "admin sets oracle", caller: admin, role: role.Oracle},
		{name: "admin sets liquidator", caller: admin, role: role.Liquidator},
		{name: "non-admin rejected", caller: stranger, role: role.Oracle, wantErr: role.ErrUnauthorized},
		{name: "admin role not settable", caller: admin, role: role.Admin, wantErr: role.ErrUnauthorized},
		{name: "unknown role", caller: admin, role: role.Name("auditor"), wantErr: role.ErrUnknownRole},
		{
			name: "second init rejected", caller: admin, role: role.Oracle,
			prepare: func(uc *Usecase) {
				if _, err := uc.Initialize(ctx, admin, role.Oracle, stranger); err != nil {
					t.Fatalf("first init: %v", err)
				}
			},
			wantErr: role.ErrAlreadyInitialized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc := newUsecase(t)
			if err := uc.Bootstrap(ctx, admin); err != nil {
				t.Fatalf("Bootstrap: %v", err)
			}
			if tc.prepare != nil {
				tc.prepare(uc)
			}
			h, err := uc.Initialize(ctx, tc.caller, tc.role, oracle)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Initialize: %v", err)
			}
			if h.Holder != oracle || h.Role != tc.role {
				t.Fatalf("holder mismatch: %+v", h)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	guow := mysql.NewGormUoW(sqlitedb.Open(t))
	uc := NewUsecase(guow, guow.Repos().Roles, observability.Discard())
	roles := guow.Repos().Roles

	// nobody holds an uninitialized role
	if err := Require(ctx, roles, role.Oracle, oracle); !errors.Is(err, role.ErrUnauthorized) {
		t.Fatalf("uninitialized: want ErrUnauthorized, got %v", err)
	}

	if err := uc.Bootstrap(ctx, admin); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, err := uc.Initialize(ctx, admin, role.Oracle, oracle); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := Require(ctx, roles, role.Oracle, oracle); err != nil {
		t.Fatalf("holder rejected: %v", err)
	}
	if err := Require(ctx, roles, role.Oracle, stranger); !errors.Is(err, role.ErrUnauthorized) {
		t.Fatalf("stranger: want ErrUnauthorized, got %v", err)
	}

	list, err := uc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 holders, got %d", len(list))
	}
}
