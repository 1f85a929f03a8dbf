package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/uow"

	"github.com/ethereum/go-ethereum/common"
)

type Usecase struct {
	uow   uow.UnitOfWork
	reads role.Repository
	log   *slog.Logger
	now   func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, reads role.Repository, log *slog.Logger) *Usecase {
	return &Usecase{uow: tx, reads: reads, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Require fails with ErrUnauthorized unless caller holds name. An
// uninitialized role authorizes nobody.
func Require(ctx context.Context, r role.Repository, name role.Name, caller common.Address) error {
	h, err := r.Get(ctx, name)
	if errors.Is(err, role.ErrNotFound) {
		return fmt.Errorf("%s role not initialized: %w", name, role.ErrUnauthorized)
	}
	if err != nil {
		return err
	}
	if h.Holder != caller {
		return role.ErrUnauthorized
	}
	return nil
}

// Bootstrap sets the admin role once. A second call returns
// ErrAlreadyInitialized.
func (u *Usecase) Bootstrap(ctx context.Context, admin common.Address) error {
	if admin == (common.Address{}) {
		return fmt.Errorf("admin address: %w", role.ErrUnauthorized)
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Roles.Create(ctx, &role.Holder{Role: role.Admin, Holder: admin, CreatedAt: u.now()})
	})
}

// Initialize sets the oracle or liquidator holder. Only the admin may call
// it and each role can be set exactly once.
func (u *Usecase) Initialize(ctx context.Context, caller common.Address, name role.Name, holder common.Address) (*role.Holder, error) {
	if !name.Valid() {
		return nil, role.ErrUnknownRole
	}
	if name == role.Admin {
		// admin comes from configuration only
		return nil, role.ErrUnauthorized
	}
	h := &role.Holder{Role: name, Holder: holder, CreatedAt: u.now()}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := Require(ctx, r.Roles, role.Admin, caller); err != nil {
			return err
		}
		return r.Roles.Create(ctx, h)
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "role initialized", "role", name, "holder", holder.Hex())
	return h, nil
}

func (u *Usecase) Get(ctx context.Context, name role.Name) (*role.Holder, error) {
	if !name.Valid() {
		return nil, role.ErrUnknownRole
	}
	return u.reads.Get(ctx, name)
}

func (u *Usecase) List(ctx context.Context) ([]role.Holder, error) {
	return u.reads.List(ctx)
}
