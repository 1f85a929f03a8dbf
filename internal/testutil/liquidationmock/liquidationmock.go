package liquidationmock

import (
	"context"
	"sync"

	"cdp-ledger/internal/domain/collaborator"
	domain "cdp-ledger/internal/domain/liquidation"
)

var (
	_ domain.Repository       = (*Repo)(nil)
	_ collaborator.Liquidator = (*Liquidator)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn             func(ctx context.Context, l *domain.Liquidation) error
	GetByLoanIDFn        func(ctx context.Context, loanID uint64) (*domain.Liquidation, error)
	GetByLiquidationIDFn func(ctx context.Context, liquidationID string) (*domain.Liquidation, error)
	SaveFn               func(ctx context.Context, l *domain.Liquidation) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Liquidation) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID uint64) (*domain.Liquidation, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByLiquidationID(ctx context.Context, liquidationID string) (*domain.Liquidation, error) {
	if m.GetByLiquidationIDFn != nil {
		return m.GetByLiquidationIDFn(ctx, liquidationID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, l *domain.Liquidation) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

// Liquidator records every hand-off and cancellation. StartFn and CancelFn,
// when set, decide the result.
type Liquidator struct {
	StartFn  func(ctx context.Context, h collaborator.Handoff) error
	CancelFn func(ctx context.Context, h collaborator.Handoff) error

	mu        sync.Mutex
	handoffs  []collaborator.Handoff
	cancelled []collaborator.Handoff
}

func (m *Liquidator) StartLiquidation(ctx context.Context, h collaborator.Handoff) error {
	if m.StartFn != nil {
		if err := m.StartFn(ctx, h); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.handoffs = append(m.handoffs, h)
	m.mu.Unlock()
	return nil
}

// Handoffs returns the successful hand-offs in call order.
func (m *Liquidator) Handoffs() []collaborator.Handoff {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]collaborator.Handoff(nil), m.handoffs...)
}

func (m *Liquidator) CancelLiquidation(ctx context.Context, h collaborator.Handoff) error {
	if m.CancelFn != nil {
		if err := m.CancelFn(ctx, h); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.cancelled = append(m.cancelled, h)
	m.mu.Unlock()
	return nil
}

// Cancelled returns the successful cancellations in call order.
func (m *Liquidator) Cancelled() []collaborator.Handoff {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]collaborator.Handoff(nil), m.cancelled...)
}
