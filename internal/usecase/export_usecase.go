package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/infrastructure/metrics"
)

// ExportUseCase renders the whole ledger, oldest first, with running totals.
type ExportUseCase struct {
	ledger  *LedgerUseCase
	encoder EntryEncoder
	metrics *metrics.Metrics
}

func NewExportUseCase(ledger *LedgerUseCase, encoder EntryEncoder, metrics *metrics.Metrics) *ExportUseCase {
	return &ExportUseCase{
		ledger:  ledger,
		encoder: encoder,
		metrics: metrics,
	}
}

// Export writes the ledger to w. An empty ledger still produces a header row.
func (uc *ExportUseCase) Export(ctx context.Context, w io.Writer) error {
	rows, err := uc.ledger.ListWithTotals(ctx, domain.Ascending)
	if err != nil {
		return err
	}

	if err := uc.encoder.Encode(w, rows); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	uc.metrics.RecordExport()

	return nil
}
