// Package engine derives balances, utilisation and period totals from the
// transaction log. Everything here is a pure function of its inputs: no I/O,
// no logging, no shared state. Every call rescans the full log.
package engine

import (
	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// CardDetail is a card's configuration plus its derived position.
type CardDetail struct {
	domain.CardConfig
	Balance         float64 `json:"balance"`
	Available       float64 `json:"available"`
	UsagePercentage float64 `json:"usagePercentage"`
}

// BankAccountDetail is an account's configuration plus its derived balance and
// the in-period flows.
type BankAccountDetail struct {
	domain.BankAccountConfig
	OpeningBalance float64 `json:"openingBalance"`
	Deposits       float64 `json:"deposits"`
	Withdrawals    float64 `json:"withdrawals"`
}

// Snapshot is the computed view of the ledger for one period.
// Card and account balances are point-in-time over the full log; every other
// total only covers the period.
type Snapshot struct {
	Period domain.Period `json:"period"`

	TotalIncome                float64 `json:"totalIncome"`
	TotalExpenses              float64 `json:"totalExpenses"`
	TotalInvestmentDeposits    float64 `json:"totalInvestmentDeposits"`
	TotalInvestmentWithdrawals float64 `json:"totalInvestmentWithdrawals"`

	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`

	CardDetails        map[string]CardDetail        `json:"cardDetails"`
	BankAccountDetails map[string]BankAccountDetail `json:"bankAccountDetails"`
	CardPayments       map[string]float64           `json:"cardPayments"`

	TotalDebt        float64 `json:"totalDebt"`
	TotalAvailable   float64 `json:"totalAvailable"`
	TotalLimits      float64 `json:"totalLimits"`
	TotalBankBalance float64 `json:"totalBankBalance"`
}

// Net returns TotalIncome - TotalExpenses.
func (s *Snapshot) Net() float64 {
	return s.TotalIncome - s.TotalExpenses
}

// ComputeSnapshot derives the snapshot for period from the full transaction log
// and the card and bank account configuration. Transactions that reference
// unknown ids contribute nothing to per-entity figures; the function never fails.
func ComputeSnapshot(
	txs []domain.Transaction,
	cards map[string]domain.CardConfig,
	accounts map[string]domain.BankAccountConfig,
	period domain.Period,
) *Snapshot {
	s := &Snapshot{
		Period:             period,
		ExpensesByCategory: make(map[string]float64),
		CardDetails:        make(map[string]CardDetail, len(cards)),
		BankAccountDetails: make(map[string]BankAccountDetail, len(accounts)),
		CardPayments:       make(map[string]float64),
	}

	inPeriod := FilterByPeriod(txs, period)

	for _, tx := range inPeriod {
		switch tx.Type {
		case domain.TypeIncome:
			s.TotalIncome += tx.Amount
		case domain.TypeInvestmentWithdrawal:
			s.TotalIncome += tx.Amount
			s.TotalInvestmentWithdrawals += tx.Amount
		case domain.TypeExpense, domain.TypeBNPLPayment:
			s.TotalExpenses += tx.Amount
			if tx.CategoryID != "" {
				s.ExpensesByCategory[tx.CategoryID] += tx.Amount
			}
		case domain.TypeInvestmentDeposit:
			// Counted as a cash outflow and as an investment inflow.
			s.TotalExpenses += tx.Amount
			s.TotalInvestmentDeposits += tx.Amount
		}
	}

	for id, card := range cards {
		detail := deriveCard(card, txs)
		s.CardDetails[id] = detail
		s.TotalDebt += detail.Balance
		s.TotalAvailable += detail.Available
		s.TotalLimits += detail.Limit

		// Matches on type alone, whatever the settlement tag: the source leg of a
		// card-to-card transfer ("<from>-payment", paid) counts here for the source
		// card as well as raising its balance.
		paymentType := domain.CardPaymentType(card.ID)
		for _, tx := range inPeriod {
			if tx.Type == paymentType {
				s.CardPayments[id] += tx.Amount
			}
		}
	}

	for id, account := range accounts {
		detail := deriveBankAccount(account, txs, inPeriod)
		s.BankAccountDetails[id] = detail
		s.TotalBankBalance += detail.Balance
	}

	return s
}

// FilterByPeriod returns the transactions dated inside period, in input order.
func FilterByPeriod(txs []domain.Transaction, period domain.Period) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if period.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}
