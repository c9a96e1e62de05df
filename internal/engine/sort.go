package engine

import (
	"sort"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// Less reports whether a is listed before b: later calendar day first, then the
// more recently created id first.
func Less(a, b *domain.Transaction) bool {
	if a.Date != b.Date {
		return a.Date.After(b.Date)
	}
	return domain.IDTimestamp(a.ID) > domain.IDTimestamp(b.ID)
}

// SortTransactions returns a sorted copy of txs. The input is left untouched.
func SortTransactions(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(&out[i], &out[j])
	})
	return out
}
