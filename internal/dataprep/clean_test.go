package dataprep

import (
	"reflect"
	"strings"
	"testing"

	"basket-rules/internal/models"
)

func TestClean(t *testing.T) {
	in := []models.Record{
		{Invoice: "536365", Item: "  WHITE HANGING HEART  ", Country: "United Kingdom", Quantity: "6"},
		{Invoice: "536365C", Item: "WHITE HANGING HEART", Country: "United Kingdom", Quantity: "-6"},
		{Invoice: "C536379", Item: "Discount", Country: "United Kingdom", Quantity: "-1"},
		{Invoice: "", Item: "ORPHAN", Country: "United Kingdom", Quantity: "1"},
		{Invoice: "   ", Item: "BLANK", Country: "United Kingdom", Quantity: "1"},
		{Invoice: "536366.0", Item: "HAND WARMER", Country: " France ", Quantity: "2"},
	}

	got := Clean(in)

	want := []models.Record{
		{Invoice: "536365", Item: "WHITE HANGING HEART", Country: "United Kingdom", Quantity: "6"},
		{Invoice: "536366", Item: "HAND WARMER", Country: "France", Quantity: "2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Clean() = %+v, want %+v", got, want)
	}
}

func TestClean_DropsEmptyAndCreditInvoices(t *testing.T) {
	in := []models.Record{
		{Invoice: "A1C", Item: "x"},
		{Invoice: "581475", Item: " y"},
		{Invoice: "", Item: "z"},
		{Invoice: "c123", Item: "lower-case marker is kept"},
	}

	got := Clean(in)
	for _, r := range got {
		if r.Invoice == "" {
			t.Error("cleaned record has empty invoice")
		}
		if strings.Contains(r.Invoice, CreditMarker) {
			t.Errorf("cleaned record has credit invoice %q", r.Invoice)
		}
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestClean_Idempotent(t *testing.T) {
	in := []models.Record{
		{Invoice: "536365.00", Item: " a ", Country: "UK", Quantity: "1"},
		{Invoice: "536365C", Item: "b", Country: "UK", Quantity: "1"},
		{Invoice: "536370", Item: "c\t", Country: "UK ", Quantity: "2"},
	}

	once := Clean(in)
	twice := Clean(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Clean is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestNormalizeInvoice(t *testing.T) {
	tests := map[string]string{
		"536365":    "536365",
		"536365.0":  "536365",
		"536365.00": "536365",
		"536365.5":  "536365.5",
		"A-100.0":   "A-100.0",
		" 42 ":      "42",
		".0":        ".0",
	}
	for in, want := range tests {
		if got := normalizeInvoice(in); got != want {
			t.Errorf("normalizeInvoice(%q) = %q, want %q", in, got, want)
		}
	}
}
