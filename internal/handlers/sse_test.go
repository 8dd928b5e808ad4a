package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"basket-rules/internal/errors"
	"basket-rules/internal/models"
)

func TestNewSSEHandlers(t *testing.T) {
	svc := &fakeRules{}
	logger := testLogger()

	handlers := NewSSEHandlers(svc, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.rules != svc {
		t.Error("NewSSEHandlers() should set rules field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderRulesTable(t *testing.T) {
	handlers := NewSSEHandlers(&fakeRules{}, testLogger())

	html, err := handlers.renderRulesTable(sampleResult())
	if err != nil {
		t.Fatalf("renderRulesTable() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="rules-result">`,
		`<table class="modern-table">`,
		"<th>Products Bought</th>",
		"<th>Product Recommended</th>",
		"<th>Lift</th>",
		"United Kingdom",
		"2 baskets",
		"<td>X</td>",
		"<td>Y</td>",
		"1.000",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderRulesTable_Empty(t *testing.T) {
	handlers := NewSSEHandlers(&fakeRules{}, testLogger())

	result := sampleResult()
	result.Rules = nil

	html, err := handlers.renderRulesTable(result)
	if err != nil {
		t.Fatalf("renderRulesTable() failed: %v", err)
	}
	if strings.Contains(html, "<table") {
		t.Error("empty result should not render a table")
	}
	if !strings.Contains(html, "No rules met the thresholds.") {
		t.Error("expected empty-state message")
	}
}

func TestSSEHandlers_renderRulesTable_LargeResult(t *testing.T) {
	handlers := NewSSEHandlers(&fakeRules{}, testLogger())

	result := sampleResult()
	result.Rules = make([]models.Recommendation, maxTableRows+25)
	for i := range result.Rules {
		result.Rules[i] = models.Recommendation{
			ProductsBought:     []string{fmt.Sprintf("item-%03d", i)},
			ProductRecommended: []string{"Z"},
			Lift:               1,
		}
	}

	html, err := handlers.renderRulesTable(result)
	if err != nil {
		t.Fatalf("renderRulesTable() failed: %v", err)
	}

	if rows := strings.Count(html, "<tr>") - 1; rows != maxTableRows {
		t.Errorf("rendered %d rows, want %d", rows, maxTableRows)
	}
	if !strings.Contains(html, fmt.Sprintf("(showing %d)", maxTableRows)) {
		t.Error("expected truncation note")
	}
	if len(result.Rules) != maxTableRows+25 {
		t.Error("rendering must not truncate the caller's result")
	}
}

func TestSSEHandlers_renderRulesTable_EscapesItems(t *testing.T) {
	handlers := NewSSEHandlers(&fakeRules{}, testLogger())

	result := sampleResult()
	result.Rules[0].ProductsBought = []string{"<script>alert(1)</script>"}

	html, err := handlers.renderRulesTable(result)
	if err != nil {
		t.Fatalf("renderRulesTable() failed: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("item names must be HTML-escaped")
	}
}

func TestSSEHandlers_HandleRules(t *testing.T) {
	svc := &fakeRules{result: sampleResult()}
	handlers := NewSSEHandlers(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/sse/rules", strings.NewReader(validBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handlers.HandleRules(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}
	if svc.calls != 1 {
		t.Fatalf("service calls = %d, want 1", svc.calls)
	}
	if svc.got.FilePath != "retail.xlsx" || svc.got.MinThreshold == nil || *svc.got.MinThreshold != 1.0 {
		t.Errorf("signals not decoded: %+v", svc.got)
	}

	body := w.Body.String()
	for _, content := range []string{"rules-result", "modern-table", "loading"} {
		if !strings.Contains(body, content) {
			t.Errorf("expected SSE body to contain %q", content)
		}
	}
}

func TestSSEHandlers_HandleRules_Failure(t *testing.T) {
	svc := &fakeRules{err: errors.New(errors.CodeData, `no basket data for country "Atlantis"`)}
	handlers := NewSSEHandlers(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/sse/rules", strings.NewReader(validBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handlers.HandleRules(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "rules-error") {
		t.Error("expected error panel in SSE body")
	}
	if !strings.Contains(body, "DATA_ERROR") {
		t.Error("expected error code in SSE body")
	}
	if strings.Contains(body, "modern-table") {
		t.Error("failure must not render a rules table")
	}
}

func TestSSEHandlers_HandleRules_BadSignals(t *testing.T) {
	svc := &fakeRules{result: sampleResult()}
	handlers := NewSSEHandlers(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/sse/rules", strings.NewReader(`{"minSupport":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handlers.HandleRules(w, req)

	if svc.calls != 0 {
		t.Errorf("service should not be called for unreadable signals")
	}
	if !strings.Contains(w.Body.String(), "INPUT_ERROR") {
		t.Error("expected INPUT_ERROR panel")
	}
}

func TestSSEHandlers_HandleRules_ContextCancelled(t *testing.T) {
	svc := &fakeRules{result: sampleResult()}
	handlers := NewSSEHandlers(svc, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/sse/rules", strings.NewReader(validBody)).WithContext(ctx)
	w := httptest.NewRecorder()

	// Must not panic on a closed client.
	handlers.HandleRules(w, req)
}
