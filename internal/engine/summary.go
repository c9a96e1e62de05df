package engine

import (
	"sort"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// InstallmentSummary rolls up the open buy-now-pay-later plans.
type InstallmentSummary struct {
	ActivePlans     int                `json:"activePlans"`
	CompletedPlans  int                `json:"completedPlans"`
	RemainingAmount float64            `json:"remainingAmount"`
	ByProvider      map[string]float64 `json:"byProvider"`
}

// SummarizeInstallments totals what is still owed on each provider.
func SummarizeInstallments(plans []domain.InstallmentPlan) InstallmentSummary {
	sum := InstallmentSummary{ByProvider: make(map[string]float64)}
	for i := range plans {
		p := &plans[i]
		if p.IsComplete() {
			sum.CompletedPlans++
			continue
		}
		sum.ActivePlans++
		remaining := p.RemainingAmount()
		sum.RemainingAmount += remaining
		sum.ByProvider[p.Provider] += remaining
	}
	return sum
}

// LoanSummary rolls up outstanding loans.
type LoanSummary struct {
	ActiveLoans     int     `json:"activeLoans"`
	RemainingAmount float64 `json:"remainingAmount"`
	MonthlyPayments float64 `json:"monthlyPayments"`
}

// SummarizeLoans totals the outstanding schedule of every loan not yet repaid.
func SummarizeLoans(loans []domain.Loan) LoanSummary {
	var sum LoanSummary
	for i := range loans {
		remaining := loans[i].RemainingAmount()
		if remaining <= 0 {
			continue
		}
		sum.ActiveLoans++
		sum.RemainingAmount += remaining
		sum.MonthlyPayments += loans[i].MonthlyPayment
	}
	return sum
}

// CategoryAmount is one row of a category breakdown.
type CategoryAmount struct {
	CategoryID string  `json:"categoryId"`
	Amount     float64 `json:"amount"`
}

// TopCategories returns the category breakdown ordered by amount, largest first,
// ties broken by id. n <= 0 returns every category.
func TopCategories(byCategory map[string]float64, n int) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(byCategory))
	for id, amount := range byCategory {
		out = append(out, CategoryAmount{CategoryID: id, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
