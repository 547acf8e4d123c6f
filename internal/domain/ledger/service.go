package ledger

import (
	"context"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

// ReconcileService keeps the ledger in step with the external time clock.
type ReconcileService interface {
	// Reconcile fetches the window's shifts and upserts them under the
	// reconciliation lock.
	Reconcile(ctx context.Context, window timezone.DateRange) (ReconcileStats, error)

	// ReconcileShifts upserts already fetched shifts. The caller is
	// responsible for holding the lock.
	ReconcileShifts(ctx context.Context, window timezone.DateRange, shifts []Shift) (ReconcileStats, error)
}
