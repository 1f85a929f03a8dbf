// Package liquidator hands loans over to the external auction through a
// Redis stream.
package liquidator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cdp-ledger/internal/domain/collaborator"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream  = "cdp:liquidations"
	publishTimeout = 2 * time.Second
	// keep roughly this many hand-offs in the stream
	streamMaxLen = 100_000
)

// Stream entry kinds, in the "event" field.
const (
	EventStarted   = "started"
	EventCancelled = "cancelled"
)

// StreamLiquidator publishes one XADD entry per hand-off. The auction
// consumes the stream and reports back through exitLiquidation. A
// "cancelled" entry retracts a "started" one with the same liquidation_id.
type StreamLiquidator struct {
	rdb    redis.Cmdable
	stream string
}

var _ collaborator.Liquidator = (*StreamLiquidator)(nil)

func NewStreamLiquidator(rdb redis.Cmdable, stream string) *StreamLiquidator {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamLiquidator{rdb: rdb, stream: stream}
}

func (s *StreamLiquidator) StartLiquidation(ctx context.Context, h collaborator.Handoff) error {
	return s.publish(ctx, EventStarted, h)
}

func (s *StreamLiquidator) CancelLiquidation(ctx context.Context, h collaborator.Handoff) error {
	return s.publish(ctx, EventCancelled, h)
}

func (s *StreamLiquidator) publish(ctx context.Context, event string, h collaborator.Handoff) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: []any{
			"event", event,
			"liquidation_id", h.LiquidationID,
			"loan_id", strconv.FormatUint(h.LoanID, 10),
			"asset", h.Asset.Hex(),
			"collateral_amount", h.CollateralAmount.Dec(),
			"debt_amount", h.DebtAmount.Dec(),
			"duration_seconds", strconv.FormatInt(int64(h.Duration/time.Second), 10),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s liquidation of loan %d: %w", event, h.LoanID, err)
	}
	return nil
}
