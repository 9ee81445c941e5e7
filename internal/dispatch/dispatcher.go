package dispatch

import (
	"context"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/service"
)

// Processing modes reported back to webhook senders. The visible contract is
// identical either way; only this indicator differs.
const (
	ModeAsync = "async"
	ModeSync  = "sync"
)

// Dispatcher routes a merchant status update to the refund workflow, either
// by queuing it for a worker or by applying it inline.
type Dispatcher interface {
	Dispatch(ctx context.Context, upd domain.RefundStatusUpdate) (string, error)
	Close()
}

// InlineDispatcher applies the update synchronously in the caller's request.
type InlineDispatcher struct {
	refunds service.RefundService
}

func NewInlineDispatcher(refunds service.RefundService) *InlineDispatcher {
	return &InlineDispatcher{refunds: refunds}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, upd domain.RefundStatusUpdate) (string, error) {
	if _, err := d.refunds.ApplyStatusUpdate(ctx, upd); err != nil {
		return ModeSync, err
	}
	return ModeSync, nil
}

func (d *InlineDispatcher) Close() {}
