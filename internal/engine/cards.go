package engine

import (
	"strings"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// cardRule identifies which classification rule a transaction falls under for a card.
type cardRule int

const (
	ruleNone cardRule = iota
	// ruleReceived: a payment settling this card. Reduces the balance.
	ruleReceived
	// rulePaidFrom: this card was used to settle another obligation. Increases the balance.
	rulePaidFrom
	// ruleSpend: ordinary expense or BNPL payment charged to the card.
	ruleSpend
)

// deriveCard computes the balance of card over the full log. Cards have no
// opening balance.
func deriveCard(card domain.CardConfig, txs []domain.Transaction) CardDetail {
	var balance float64
	for i := range txs {
		switch classifyForCard(card, &txs[i]) {
		case ruleReceived:
			balance -= txs[i].Amount
		case rulePaidFrom, ruleSpend:
			balance += txs[i].Amount
		}
	}

	usage := 0.0
	if card.Limit > 0 {
		usage = balance / card.Limit * 100
	}

	return CardDetail{
		CardConfig:      card,
		Balance:         balance,
		Available:       card.Limit - balance,
		UsagePercentage: usage,
	}
}

// classifyForCard applies the rules in priority order; the first match wins so
// a transaction is never counted twice against the same card. A tag that does
// not fit the type is ignored and the entry goes through the rules untagged.
func classifyForCard(card domain.CardConfig, tx *domain.Transaction) cardRule {
	if tx.Settlement != domain.SettlementUnset && tx.SettlementApplies() {
		return classifyTagged(card, tx)
	}

	if receivedByCard(card, tx, true) {
		return ruleReceived
	}
	if tx.PaymentMethod == card.ID && hasPaymentMarker(tx) {
		return rulePaidFrom
	}
	if isCardSpend(card, tx) {
		return ruleSpend
	}
	return ruleNone
}

// classifyTagged trusts the explicit settlement direction instead of the text.
func classifyTagged(card domain.CardConfig, tx *domain.Transaction) cardRule {
	switch tx.Settlement {
	case domain.SettlementReceived:
		if receivedByCard(card, tx, false) {
			return ruleReceived
		}
	case domain.SettlementPaid:
		if tx.PaymentMethod == card.ID {
			return rulePaidFrom
		}
	case domain.SettlementNone:
		if isCardSpend(card, tx) {
			return ruleSpend
		}
	}
	return ruleNone
}

// receivedByCard matches the settlement markers naming this card. The description
// is only consulted for untagged entries.
func receivedByCard(card domain.CardConfig, tx *domain.Transaction, useDescription bool) bool {
	if tx.Type == domain.CardPaymentType(card.ID) {
		return true
	}
	label := domain.LegacyCardPaymentLabel(card.Name)
	if string(tx.Type) == label {
		return true
	}
	return useDescription && card.Name != "" && strings.Contains(tx.Description, label)
}

func hasPaymentMarker(tx *domain.Transaction) bool {
	return strings.Contains(tx.Description, domain.PaymentMarker) ||
		strings.Contains(string(tx.Type), domain.PaymentMarker) ||
		tx.Type.IsPaymentType()
}

func isCardSpend(card domain.CardConfig, tx *domain.Transaction) bool {
	if tx.PaymentMethod != card.ID {
		return false
	}
	return tx.Type == domain.TypeExpense || tx.Type == domain.TypeBNPLPayment
}
