package loanmock

import (
	"context"
	"errors"
	"testing"

	domain "cdp-ledger/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
)

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}

	if err := m.Create(ctx, &domain.Loan{}); err != nil {
		t.Fatalf("Create default: %v", err)
	}
	if err := m.Save(ctx, &domain.Loan{}); err != nil {
		t.Fatalf("Save default: %v", err)
	}
	if _, err := m.GetByID(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID default: want ErrNotFound, got %v", err)
	}
	if _, err := m.GetByIDForUpdate(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByIDForUpdate default: want ErrNotFound, got %v", err)
	}
	if got, err := m.ListByRecipient(ctx, common.Address{}, 10); err != nil || got != nil {
		t.Fatalf("ListByRecipient default: %v %v", got, err)
	}
}

func TestRepo_UsesFuncs(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{ID: 7}
	boom := errors.New("boom")
	var saved, created bool

	m := &Repo{
		CreateFn: func(_ context.Context, l *domain.Loan) error {
			created = true
			l.ID = 7
			return nil
		},
		GetByIDFn: func(_ context.Context, id uint64) (*domain.Loan, error) {
			if id != 7 {
				t.Fatalf("id=%d", id)
			}
			return want, nil
		},
		GetByIDForUpdateFn: func(context.Context, uint64) (*domain.Loan, error) { return nil, boom },
		SaveFn: func(_ context.Context, l *domain.Loan) error {
			saved = l == want
			return nil
		},
		ListByRecipientFn: func(_ context.Context, _ common.Address, limit int) ([]domain.Loan, error) {
			return make([]domain.Loan, limit), nil
		},
	}

	l := &domain.Loan{}
	if err := m.Create(ctx, l); err != nil || !created || l.ID != 7 {
		t.Fatalf("Create: err=%v created=%v id=%d", err, created, l.ID)
	}
	if got, _ := m.GetByID(ctx, 7); got != want {
		t.Fatalf("GetByID returned %+v", got)
	}
	if _, err := m.GetByIDForUpdate(ctx, 7); !errors.Is(err, boom) {
		t.Fatalf("GetByIDForUpdate: want boom, got %v", err)
	}
	if err := m.Save(ctx, want); err != nil || !saved {
		t.Fatalf("Save: err=%v saved=%v", err, saved)
	}
	if got, _ := m.ListByRecipient(ctx, common.Address{}, 3); len(got) != 3 {
		t.Fatalf("ListByRecipient len=%d", len(got))
	}
}
