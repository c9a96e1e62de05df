package engine

import (
	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// deriveBankAccount computes the current balance over the full log and the
// deposits/withdrawals over the in-period subset.
func deriveBankAccount(account domain.BankAccountConfig, all, inPeriod []domain.Transaction) BankAccountDetail {
	balance := account.Balance
	for i := range all {
		in, out := bankFlows(account.ID, &all[i])
		balance += in - out
	}

	var deposits, withdrawals float64
	for i := range inPeriod {
		in, out := bankFlows(account.ID, &inPeriod[i])
		deposits += in
		withdrawals += out
	}

	detail := BankAccountDetail{
		BankAccountConfig: account,
		OpeningBalance:    account.Balance,
		Deposits:          deposits,
		Withdrawals:       withdrawals,
	}
	detail.Balance = balance
	return detail
}

// bankFlows returns the amount tx adds to and removes from the account.
//
// The "-payment" and installment checks are independent of the type switch:
// an installment expense paid from the account is subtracted twice. This is
// the established behaviour and is pinned by tests; do not change it without
// migrating stored balances.
func bankFlows(accountID string, tx *domain.Transaction) (in, out float64) {
	if tx.PaymentMethod != accountID {
		return 0, 0
	}

	switch tx.Type {
	case domain.TypeIncome, domain.TypeInvestmentWithdrawal:
		in += tx.Amount
	case domain.TypeExpense, domain.TypeInvestmentDeposit:
		out += tx.Amount
	}

	if tx.Type.IsPaymentType() {
		out += tx.Amount
	}
	if tx.Type == domain.TypeExpense && tx.IsInstallmentPayment {
		out += tx.Amount
	}
	return in, out
}
