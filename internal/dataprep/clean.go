package dataprep

import (
	"strings"

	"basket-rules/internal/models"
)

// CreditMarker flags cancelled or credit invoices.
const CreditMarker = "C"

// Clean trims item names, drops rows without an invoice, renders invoices as
// text and removes credit invoices. Clean(Clean(x)) equals Clean(x).
func Clean(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		rec.Item = strings.TrimSpace(rec.Item)
		rec.Country = strings.TrimSpace(rec.Country)

		invoice := normalizeInvoice(rec.Invoice)
		if invoice == "" {
			continue
		}
		if strings.Contains(invoice, CreditMarker) {
			continue
		}
		rec.Invoice = invoice
		out = append(out, rec)
	}
	return out
}

// normalizeInvoice renders numeric invoice cells the way they were keyed in:
// "536365.0" becomes "536365".
func normalizeInvoice(s string) string {
	s = strings.TrimSpace(s)
	whole, frac, found := strings.Cut(s, ".")
	if !found || whole == "" || !isDigits(whole) {
		return s
	}
	if strings.Trim(frac, "0") == "" {
		return whole
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
