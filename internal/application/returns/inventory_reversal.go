package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReversalSummary reports what an inventory reversal changed
type ReversalSummary struct {
	Restocked int
	Released  int
	Skipped   int
}

// InventoryReversal puts returned units back on sale at their origin and
// releases the matching reservations
type InventoryReversal struct {
	logger *zap.Logger
}

// NewInventoryReversal creates an InventoryReversal
func NewInventoryReversal(logger *zap.Logger) *InventoryReversal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryReversal{logger: logger}
}

// Reverse restocks every non-damaged line. Damaged units are written off and
// never touch stock or reservations.
func (r *InventoryReversal) Reverse(ctx context.Context, repo inventory.Repository, orderID uuid.UUID, lines []returns.ApprovedLine) (ReversalSummary, error) {
	var summary ReversalSummary
	for _, line := range lines {
		if !line.Restockable() {
			summary.Skipped += line.Quantity
			r.logger.Info("damaged return line excluded from restock",
				zap.String("line_id", line.ID.String()),
				zap.String("variant_id", line.VariantID.String()),
				zap.Int("quantity", line.Quantity),
			)
			continue
		}

		if err := r.restock(ctx, repo, line); err != nil {
			return summary, err
		}
		summary.Restocked += line.Quantity

		released, err := r.release(ctx, repo, orderID, line)
		if err != nil {
			return summary, err
		}
		summary.Released += released
	}
	return summary, nil
}

func (r *InventoryReversal) restock(ctx context.Context, repo inventory.Repository, line returns.ApprovedLine) error {
	rec, err := repo.FindRecord(ctx, line.OriginID, line.VariantID)
	if errors.Is(err, shared.ErrNotFound) {
		rec = inventory.NewRecord(line.OriginID, line.VariantID)
	} else if err != nil {
		return fmt.Errorf("load stock record: %w", err)
	}
	if err := rec.Restock(line.Quantity); err != nil {
		return err
	}
	if err := repo.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("save stock record: %w", err)
	}
	return nil
}

func (r *InventoryReversal) release(ctx context.Context, repo inventory.Repository, orderID uuid.UUID, line returns.ApprovedLine) (int, error) {
	holds, err := repo.FindReserved(ctx, orderID, line.VariantID, line.OriginID)
	if err != nil {
		return 0, fmt.Errorf("load reservations: %w", err)
	}
	remaining := line.Quantity
	for _, hold := range holds {
		if remaining <= 0 {
			break
		}
		consumed := hold.ReleaseUpTo(remaining)
		if consumed == 0 {
			continue
		}
		remaining -= consumed
		if err := repo.SaveReservation(ctx, hold); err != nil {
			return 0, fmt.Errorf("save reservation: %w", err)
		}
	}
	return line.Quantity - remaining, nil
}
