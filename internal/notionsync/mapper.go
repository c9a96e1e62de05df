package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/engine"
)

// Property names used as the identity of a synced page.
const (
	TransactionIDProperty = "Transaction ID"
	CardIDProperty        = "Card ID"
	AccountIDProperty     = "Account ID"
)

func titleProperty(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}},
	}
}

func richTextProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}},
	}
}

func selectProperty(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

func dateProperty(d civil.Date) notionapi.DateProperty {
	start := notionapi.Date(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}
}

// TransactionToNotionProperties maps a ledger entry to a page of the transactions database.
// categories resolves category ids to display names; unknown ids are shown as-is.
func TransactionToNotionProperties(tx domain.Transaction, categories map[string]domain.Category) notionapi.Properties {
	title := tx.Description
	if title == "" {
		title = string(tx.Type)
	}

	props := notionapi.Properties{
		"Description":         titleProperty(title),
		TransactionIDProperty: richTextProperty(tx.ID),
		"Date":                dateProperty(tx.Date),
		"Amount":              notionapi.NumberProperty{Number: tx.Amount},
		"Type":                selectProperty(string(tx.Type)),
		"Payment Method":      selectProperty(tx.PaymentMethod),
		"Installment":         notionapi.CheckboxProperty{Checkbox: tx.IsInstallmentPayment},
	}

	if tx.CategoryID != "" {
		name := tx.CategoryID
		if c, ok := categories[tx.CategoryID]; ok && c.Name != "" {
			name = c.Name
		}
		props["Category"] = selectProperty(name)
	}

	if tx.Settlement != domain.SettlementUnset {
		props["Settlement"] = selectProperty(string(tx.Settlement))
	}

	return props
}

// CardToNotionProperties maps a card and its derived position to a page of the cards database.
func CardToNotionProperties(card engine.CardDetail) notionapi.Properties {
	props := notionapi.Properties{
		CardIDProperty: titleProperty(card.ID),
		"Name":         richTextProperty(card.Name),
		"Limit":        notionapi.NumberProperty{Number: card.Limit},
		"Balance":      notionapi.NumberProperty{Number: card.Balance},
		"Available":    notionapi.NumberProperty{Number: card.Available},
		"Usage %":      notionapi.NumberProperty{Number: card.UsagePercentage},
	}
	if card.DueDay > 0 {
		props["Due Day"] = notionapi.NumberProperty{Number: float64(card.DueDay)}
	}
	if card.StatementDay > 0 {
		props["Statement Day"] = notionapi.NumberProperty{Number: float64(card.StatementDay)}
	}
	return props
}

// BankAccountToNotionProperties maps a bank account and its derived balance to a page.
func BankAccountToNotionProperties(account engine.BankAccountDetail) notionapi.Properties {
	props := notionapi.Properties{
		AccountIDProperty: titleProperty(account.ID),
		"Name":            richTextProperty(account.Name),
		"Balance":         notionapi.NumberProperty{Number: account.Balance},
		"Opening Balance": notionapi.NumberProperty{Number: account.OpeningBalance},
		"Deposits":        notionapi.NumberProperty{Number: account.Deposits},
		"Withdrawals":     notionapi.NumberProperty{Number: account.Withdrawals},
	}
	if account.Currency != "" {
		props["Currency"] = selectProperty(account.Currency)
	}
	return props
}

// pageKey returns the plain text of a title or rich text property, or "".
// Query results carry pointer properties; locally built pages carry values.
func pageKey(page notionapi.Page, property string) string {
	var texts []notionapi.RichText
	switch p := page.Properties[property].(type) {
	case *notionapi.TitleProperty:
		texts = p.Title
	case notionapi.TitleProperty:
		texts = p.Title
	case *notionapi.RichTextProperty:
		texts = p.RichText
	case notionapi.RichTextProperty:
		texts = p.RichText
	}
	if len(texts) == 0 {
		return ""
	}
	if texts[0].PlainText != "" {
		return texts[0].PlainText
	}
	if texts[0].Text != nil {
		return texts[0].Text.Content
	}
	return ""
}
