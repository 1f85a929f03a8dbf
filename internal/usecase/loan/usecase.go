package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cdp-ledger/internal/domain/accounting"
	"cdp-ledger/internal/domain/collaborator"
	"cdp-ledger/internal/domain/collateral"
	"cdp-ledger/internal/domain/liquidation"
	"cdp-ledger/internal/domain/loan"
	"cdp-ledger/internal/domain/role"
	"cdp-ledger/internal/domain/uow"
	"cdp-ledger/internal/observability"
	roleUsecase "cdp-ledger/internal/usecase/role"
	"cdp-ledger/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Collaborators hands out collaborator adapters bound to one transaction.
type Collaborators interface {
	Engine() common.Address
	Currency(r uow.Repos) collaborator.SyntheticCurrency
	CollateralToken(r uow.Repos, asset common.Address) collaborator.CollateralToken
	Native(r uow.Repos) collaborator.NativeCoin
	Treasury(r uow.Repos) collaborator.Treasury
}

// Usecase is the loan ledger. Every mutation runs in one unit of work; any
// failing step, collaborator calls included, rolls the whole operation back.
type Usecase struct {
	uow        uow.UnitOfWork
	reads      uow.Repos
	collab     Collaborators
	liquidator collaborator.Liquidator
	log        *slog.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, reads uow.Repos, c Collaborators, liq collaborator.Liquidator, log *slog.Logger, m *observability.Metrics) *Usecase {
	return &Usecase{
		uow:        tx,
		reads:      reads,
		collab:     c,
		liquidator: liq,
		log:        log,
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) Issue(ctx context.Context, in IssueInput) (*LoanDTO, error) {
	if in.DebtAmount == nil || in.DebtAmount.IsZero() {
		return nil, accounting.ErrInvalidAmount
	}
	deposit := in.Collateral
	if deposit == nil {
		deposit = accounting.Zero()
	}
	var dto *LoanDTO

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Params.Get(ctx)
		if err != nil {
			return err
		}
		if in.DebtAmount.Gt(p.MaxLoan) {
			return loan.ErrExceededMaxLoan
		}
		d, err := r.Collaterals.Get(ctx, in.CollateralAsset)
		if err != nil {
			return err
		}
		if !d.IsActive {
			return collateral.ErrNotFound
		}
		minimum, err := accounting.MinimumCollateral(in.DebtAmount, p.CollateralRatio, d.Decimals, d.Price)
		if err != nil {
			return err
		}
		if deposit.Lt(minimum) {
			return fmt.Errorf("deposit %s below minimum %s: %w", deposit.Dec(), minimum.Dec(), loan.ErrInsufficientCollateral)
		}

		now := u.now()
		l := &loan.Loan{
			Recipient:        in.Borrower,
			CollateralAsset:  in.CollateralAsset,
			CollateralAmount: deposit.Clone(),
			DebtAmount:       in.DebtAmount.Clone(),
			State:            loan.StateActive,
			StateUpdatedAt:   now,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := u.vaultFor(r, in.CollateralAsset).transferIn(ctx, in.Borrower, deposit); err != nil {
			return err
		}
		if err := u.collab.Currency(r).Mint(ctx, in.Borrower, in.DebtAmount); err != nil {
			return fmt.Errorf("mint: %w", err)
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.metrics.ObserveIssued(dto.DebtAmount)
	u.log.InfoContext(ctx, "loan issued",
		"loan_id", dto.LoanID,
		"recipient", dto.Recipient.Hex(),
		"asset", dto.CollateralAsset.Hex(),
		"collateral", dto.CollateralAmount.Dec(),
		"debt", dto.DebtAmount.Dec(),
	)
	return dto, nil
}

// IncreaseCollateral tops up an active loan with amount pulled from caller.
func (u *Usecase) IncreaseCollateral(ctx context.Context, caller common.Address, loanID uint64, amount *uint256.Int) (*LoanDTO, error) {
	if amount == nil || amount.IsZero() {
		return nil, accounting.ErrInvalidAmount
	}
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StateActive {
			return loan.ErrInvalidLoanState
		}
		next, err := accounting.Add(l.CollateralAmount, amount)
		if err != nil {
			return err
		}
		l.CollateralAmount = next
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := u.vaultFor(r, l.CollateralAsset).transferIn(ctx, caller, amount); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "collateral increased", "loan_id", loanID, "amount", amount.Dec(), "collateral", dto.CollateralAmount.Dec())
	return dto, nil
}

// DecreaseCollateral returns amount to the recipient as long as the loan stays
// above its minimum. It never changes the loan state, so the recipient also
// uses it to recover what is left on a settled or liquidated loan.
func (u *Usecase) DecreaseCollateral(ctx context.Context, caller common.Address, loanID uint64, amount *uint256.Int) (*LoanDTO, error) {
	if amount == nil || amount.IsZero() {
		return nil, accounting.ErrInvalidAmount
	}
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if caller != l.Recipient {
			return role.ErrUnauthorized
		}
		if l.State == loan.StateUnderLiquidation {
			return loan.ErrInvalidLoanState
		}
		if amount.Gt(l.CollateralAmount) {
			return loan.ErrInsufficientCollateral
		}
		remaining := new(uint256.Int).Sub(l.CollateralAmount, amount)
		minimum, err := u.minimumFor(ctx, r, l)
		if err != nil {
			return err
		}
		if remaining.Lt(minimum) {
			return fmt.Errorf("remaining %s below minimum %s: %w", remaining.Dec(), minimum.Dec(), loan.ErrInsufficientCollateral)
		}
		l.CollateralAmount = remaining
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := u.vaultFor(r, l.CollateralAsset).transferOut(ctx, l.Recipient, amount); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "collateral decreased", "loan_id", loanID, "amount", amount.Dec(), "collateral", dto.CollateralAmount.Dec())
	return dto, nil
}

// Settle repays payment of the loan's debt on behalf of anyone. Collateral is
// released in proportion and truncated, so the last settlement releases
// everything that is left.
func (u *Usecase) Settle(ctx context.Context, payer common.Address, loanID uint64, payment *uint256.Int) (*SettleResult, error) {
	if payment == nil || payment.IsZero() {
		return nil, accounting.ErrInvalidAmount
	}
	var res *SettleResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StateActive {
			return loan.ErrInvalidLoanState
		}
		if payment.Gt(l.DebtAmount) {
			return accounting.ErrInvalidAmount
		}
		payback, err := accounting.ProRata(l.CollateralAmount, payment, l.DebtAmount)
		if err != nil {
			return err
		}
		l.CollateralAmount = new(uint256.Int).Sub(l.CollateralAmount, payback)
		l.DebtAmount = new(uint256.Int).Sub(l.DebtAmount, payment)
		if l.DebtAmount.IsZero() {
			if err := l.TransitionTo(loan.StateSettled, u.now()); err != nil {
				return err
			}
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		currency := u.collab.Currency(r)
		if err := pull(ctx, currency, "currency", payer, u.collab.Engine(), payment); err != nil {
			return err
		}
		if err := currency.Burn(ctx, payment); err != nil {
			return fmt.Errorf("burn: %w", err)
		}
		if err := u.vaultFor(r, l.CollateralAsset).transferOut(ctx, l.Recipient, payback); err != nil {
			return err
		}
		res = &SettleResult{Loan: toDTO(l), Payback: payback}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.metrics.ObserveRepaid(payment)
	u.log.InfoContext(ctx, "loan settled",
		"loan_id", loanID,
		"payer", payer.Hex(),
		"payment", payment.Dec(),
		"payback", res.Payback.Dec(),
		"state", res.Loan.State,
	)
	return res, nil
}

// EnterLiquidation freezes an under-collateralized loan and hands it to the
// liquidator. Anyone may trigger it.
func (u *Usecase) EnterLiquidation(ctx context.Context, caller common.Address, loanID uint64) (*LiquidationDTO, error) {
	var (
		out       *liquidation.Liquidation
		handedOff *collaborator.Handoff
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StateActive {
			return loan.ErrInvalidLoanState
		}
		p, err := r.Params.Get(ctx)
		if err != nil {
			return err
		}
		d, err := r.Collaterals.Get(ctx, l.CollateralAsset)
		if err != nil {
			return err
		}
		minimum, err := accounting.MinimumCollateral(l.DebtAmount, p.CollateralRatio, d.Decimals, d.Price)
		if err != nil {
			return err
		}
		if !l.CollateralAmount.Lt(minimum) {
			return loan.ErrSufficientCollateral
		}
		now := u.now()
		if err := l.TransitionTo(loan.StateUnderLiquidation, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		out = &liquidation.Liquidation{
			LiquidationID:    id.New(),
			LoanID:           l.ID,
			Asset:            l.CollateralAsset,
			CollateralAmount: l.CollateralAmount.Clone(),
			DebtAmount:       l.DebtAmount.Clone(),
			Duration:         p.LiquidationDuration,
			StartedAt:        now,
		}
		if err := r.Liquidations.Create(ctx, out); err != nil {
			return err
		}
		// last step: a failed hand-off rolls the state change back
		h := collaborator.Handoff{
			LiquidationID:    out.LiquidationID,
			LoanID:           out.LoanID,
			Asset:            out.Asset,
			CollateralAmount: out.CollateralAmount,
			DebtAmount:       out.DebtAmount,
			Duration:         out.Duration,
		}
		if err := u.liquidator.StartLiquidation(ctx, h); err != nil {
			return err
		}
		handedOff = &h
		return nil
	})
	if err != nil {
		if handedOff != nil {
			// published, then the commit failed: the loan is still ACTIVE
			u.retractHandoff(ctx, *handedOff, err)
		}
		return nil, err
	}
	u.metrics.ObserveLiquidation("started")
	u.log.WarnContext(ctx, "loan entered liquidation",
		"loan_id", loanID,
		"liquidation_id", out.LiquidationID,
		"caller", caller.Hex(),
		"collateral", out.CollateralAmount.Dec(),
		"debt", out.DebtAmount.Dec(),
	)
	return toLiquidationDTO(out), nil
}

func (u *Usecase) retractHandoff(ctx context.Context, h collaborator.Handoff, cause error) {
	// the request may already be cancelled; the retraction must still go out
	ctx = context.WithoutCancel(ctx)
	if err := u.liquidator.CancelLiquidation(ctx, h); err != nil {
		u.log.ErrorContext(ctx, "liquidation hand-off not retracted after failed commit",
			"loan_id", h.LoanID,
			"liquidation_id", h.LiquidationID,
			"cause", cause,
			"err", err,
		)
		return
	}
	u.metrics.ObserveLiquidation("retracted")
	u.log.WarnContext(ctx, "liquidation hand-off retracted after failed commit",
		"loan_id", h.LoanID,
		"liquidation_id", h.LiquidationID,
		"cause", cause,
	)
}

// ExitLiquidation records the auction outcome: the debt is cleared and
// paidOut collateral goes to buyer. Whatever remains stays on the loan.
func (u *Usecase) ExitLiquidation(ctx context.Context, caller common.Address, loanID uint64, paidOut *uint256.Int, buyer common.Address) (*LiquidationDTO, error) {
	if paidOut == nil {
		paidOut = accounting.Zero()
	}
	var out *liquidation.Liquidation
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := roleUsecase.Require(ctx, r.Roles, role.Liquidator, caller); err != nil {
			return err
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if l.State != loan.StateUnderLiquidation {
			return loan.ErrInvalidLoanState
		}
		if paidOut.Gt(l.CollateralAmount) {
			return accounting.ErrInvalidAmount
		}
		now := u.now()
		l.DebtAmount = accounting.Zero()
		l.CollateralAmount = new(uint256.Int).Sub(l.CollateralAmount, paidOut)
		if err := l.TransitionTo(loan.StateLiquidated, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		out, err = r.Liquidations.GetByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		b := buyer
		out.Buyer = &b
		out.CollateralPaidOut = paidOut.Clone()
		out.CompletedAt = &now
		if err := r.Liquidations.Save(ctx, out); err != nil {
			return err
		}
		return u.vaultFor(r, l.CollateralAsset).transferOut(ctx, buyer, paidOut)
	})
	if err != nil {
		return nil, err
	}
	u.metrics.ObserveLiquidation("completed")
	u.log.InfoContext(ctx, "loan liquidated", "loan_id", loanID, "buyer", buyer.Hex(), "paid_out", paidOut.Dec())
	return toLiquidationDTO(out), nil
}

// SweepResidual deposits the collateral left on a liquidated loan into the
// treasury. Admin only.
func (u *Usecase) SweepResidual(ctx context.Context, caller common.Address, loanID uint64) (*LoanDTO, error) {
	var (
		dto   *LoanDTO
		swept *uint256.Int
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := roleUsecase.Require(ctx, r.Roles, role.Admin, caller); err != nil {
			return err
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if l.State != loan.StateLiquidated {
			return loan.ErrInvalidLoanState
		}
		if l.CollateralAmount.IsZero() {
			return accounting.ErrInvalidAmount
		}
		swept = l.CollateralAmount.Clone()
		l.CollateralAmount = accounting.Zero()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		memo := fmt.Sprintf("loan:%d", l.ID)
		if err := u.collab.Treasury(r).Deposit(ctx, l.CollateralAsset, swept, memo); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "residual collateral swept", "loan_id", loanID, "amount", swept.Dec())
	return dto, nil
}

// minimumFor prices l at the current ratio. Inactive descriptors still price
// existing loans.
func (u *Usecase) minimumFor(ctx context.Context, r uow.Repos, l *loan.Loan) (*uint256.Int, error) {
	if l.DebtAmount.IsZero() {
		return accounting.Zero(), nil
	}
	p, err := r.Params.Get(ctx)
	if err != nil {
		return nil, err
	}
	d, err := r.Collaterals.Get(ctx, l.CollateralAsset)
	if err != nil {
		return nil, err
	}
	return accounting.MinimumCollateral(l.DebtAmount, p.CollateralRatio, d.Decimals, d.Price)
}

func toLiquidationDTO(l *liquidation.Liquidation) *LiquidationDTO {
	return &LiquidationDTO{
		LiquidationID:     l.LiquidationID,
		LoanID:            l.LoanID,
		Asset:             l.Asset,
		CollateralAmount:  l.CollateralAmount,
		DebtAmount:        l.DebtAmount,
		DurationSeconds:   int64(l.Duration / time.Second),
		StartedAt:         l.StartedAt,
		Buyer:             l.Buyer,
		CollateralPaidOut: l.CollateralPaidOut,
		CompletedAt:       l.CompletedAt,
	}
}
