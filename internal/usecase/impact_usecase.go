package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/infrastructure/metrics"
)

// ImpactAnalyzer finds transactions that may have depended on money from a
// transaction that is about to be deleted. Deleting an income can leave
// later transfers out of that account without a funding source, so the
// caller can warn the user before confirming.
type ImpactAnalyzer struct {
	transactions TransactionStore
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewImpactAnalyzer creates an ImpactAnalyzer.
func NewImpactAnalyzer(transactions TransactionStore, logger zerolog.Logger, m *metrics.Metrics) *ImpactAnalyzer {
	return &ImpactAnalyzer{
		transactions: transactions,
		logger:       logger,
		metrics:      m,
	}
}

// Analyze returns the transfers out of the income's account that occurred
// after the income itself. Non-income transactions never have
// dependents and return an empty slice without touching the store. An
// income with no occurrence date cannot anchor the comparison and also
// returns empty.
func (a *ImpactAnalyzer) Analyze(ctx context.Context, txn *domain.Transaction) ([]*domain.Transaction, error) {
	if txn.Kind != domain.KindIncome || txn.AccountID == "" || txn.OccurredAt.IsZero() {
		return []*domain.Transaction{}, nil
	}

	transfers, err := a.transactions.ListTransfersFrom(ctx, txn.AccountID)
	if err != nil {
		return nil, err
	}

	impacted := make([]*domain.Transaction, 0, len(transfers))
	for _, transfer := range transfers {
		if transfer.ID == txn.ID || transfer.OccurredAt.IsZero() {
			continue
		}
		if transfer.OccurredAt.After(txn.OccurredAt) {
			impacted = append(impacted, transfer)
		}
	}

	if len(impacted) > 0 {
		if a.metrics != nil {
			a.metrics.ImpactWarnings.Inc()
		}
		a.logger.Info().
			Str("transaction_id", txn.ID).
			Str("account_id", txn.AccountID).
			Int("impacted_transfers", len(impacted)).
			Msg("deletion may affect dependent transfers")
	}

	return impacted, nil
}
