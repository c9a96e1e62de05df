package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/finance-dashboard/internal/dashboard"
)

const defaultQuestion = "Give me three concrete suggestions to improve my finances this period."

// BuildPrompt renders the overview as plain text followed by the question.
// Maps are printed in sorted order so equal overviews give equal prompts.
func BuildPrompt(ov *dashboard.Overview, question string) string {
	snap := ov.Snapshot
	var b strings.Builder

	b.WriteString("You are a personal finance assistant. Amounts are in the user's home currency.\n")
	b.WriteString("Answer in plain text, at most 200 words. Do not invent figures that are not listed below.\n\n")

	fmt.Fprintf(&b, "Period: %s\n", snap.Period)
	fmt.Fprintf(&b, "Income: %s\n", money(snap.TotalIncome))
	fmt.Fprintf(&b, "Expenses: %s\n", money(snap.TotalExpenses))
	fmt.Fprintf(&b, "Net: %s\n", money(snap.Net()))
	if snap.TotalInvestmentDeposits != 0 || snap.TotalInvestmentWithdrawals != 0 {
		fmt.Fprintf(&b, "Investments: deposited %s, withdrawn %s\n",
			money(snap.TotalInvestmentDeposits), money(snap.TotalInvestmentWithdrawals))
	}

	if len(ov.TopCategories) > 0 {
		b.WriteString("\nSpending by category:\n")
		for _, c := range ov.TopCategories {
			name := c.CategoryID
			if cat, ok := ov.Categories[c.CategoryID]; ok && cat.Name != "" {
				name = cat.Name
			}
			fmt.Fprintf(&b, "- %s: %s\n", name, money(c.Amount))
		}
	}

	if len(snap.CardDetails) > 0 {
		b.WriteString("\nCredit cards:\n")
		for _, id := range sortedKeys(snap.CardDetails) {
			c := snap.CardDetails[id]
			fmt.Fprintf(&b, "- %s: balance %s of limit %s (%.0f%% used), available %s\n",
				c.Name, money(c.Balance), money(c.Limit), c.UsagePercentage, money(c.Available))
		}
		fmt.Fprintf(&b, "Total card debt: %s\n", money(snap.TotalDebt))
	}

	if len(snap.BankAccountDetails) > 0 {
		b.WriteString("\nBank accounts:\n")
		for _, id := range sortedKeys(snap.BankAccountDetails) {
			a := snap.BankAccountDetails[id]
			line := fmt.Sprintf("- %s: balance %s", a.Name, money(a.Balance))
			if a.Currency != "" {
				line += " " + a.Currency
			}
			fmt.Fprintf(&b, "%s (in %s, out %s this period)\n", line, money(a.Deposits), money(a.Withdrawals))
		}
	}

	if ov.Installments.ActivePlans > 0 {
		fmt.Fprintf(&b, "\nBuy-now-pay-later: %d active plans, %s remaining\n",
			ov.Installments.ActivePlans, money(ov.Installments.RemainingAmount))
		for _, provider := range sortedKeys(ov.Installments.ByProvider) {
			fmt.Fprintf(&b, "- %s: %s\n", provider, money(ov.Installments.ByProvider[provider]))
		}
	}

	if ov.Loans.ActiveLoans > 0 {
		fmt.Fprintf(&b, "\nLoans: %d active, %s remaining, %s per month\n",
			ov.Loans.ActiveLoans, money(ov.Loans.RemainingAmount), money(ov.Loans.MonthlyPayments))
	}

	question = strings.TrimSpace(question)
	if question == "" {
		question = defaultQuestion
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n")

	return b.String()
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
