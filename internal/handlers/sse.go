package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/starfederation/datastar-go/datastar"

	"basket-rules/internal/errors"
	"basket-rules/internal/models"
	"basket-rules/internal/observability"
	"basket-rules/internal/services"
)

const maxTableRows = 100

var rulesTableTemplate = template.Must(template.New("rulesTable").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).Parse(`
<div id="rules-result">
<p class="rules-summary">{{.Message}} {{.Country}}: {{.Baskets}} baskets, {{.Items}} items, {{.Total}} rules{{if gt .Total .MaxRows}} (showing {{.MaxRows}}){{end}}.</p>
{{if .Rules}}<table class="modern-table">
<thead><tr><th>Products Bought</th><th>Product Recommended</th><th>Lift</th><th>Confidence</th><th>Support</th></tr></thead>
<tbody>
{{range .Rules}}<tr>
<td>{{join .ProductsBought}}</td>
<td>{{join .ProductRecommended}}</td>
<td><strong>{{printf "%.3f" .Lift}}</strong></td>
<td>{{printf "%.3f" .Confidence}}</td>
<td>{{printf "%.3f" .Support}}</td>
</tr>{{end}}
</tbody>
</table>{{else}}<p class="rules-empty">No rules met the thresholds.</p>{{end}}
</div>`))

var rulesErrorTemplate = template.Must(template.New("rulesError").Parse(`
<div id="rules-result">
<div class="rules-error" data-code="{{.Code}}">{{.Message}}</div>
</div>`))

type SSEHandlers struct {
	rules  RulesService
	logger *slog.Logger
}

func NewSSEHandlers(rules RulesService, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		rules:  rules,
		logger: logger,
	}
}

type tableData struct {
	*models.RulesResult
	Total   int
	MaxRows int
}

func (h *SSEHandlers) renderRulesTable(result *models.RulesResult) (string, error) {
	var buf strings.Builder

	view := *result
	if len(view.Rules) > maxTableRows {
		view.Rules = view.Rules[:maxTableRows]
	}

	err := rulesTableTemplate.Execute(&buf, tableData{RulesResult: &view, Total: len(result.Rules), MaxRows: maxTableRows})
	return buf.String(), err
}

func (h *SSEHandlers) renderError(appErr *errors.AppError) (string, error) {
	var buf strings.Builder
	err := rulesErrorTemplate.Execute(&buf, appErr)
	return buf.String(), err
}

// HandleRules reads the dashboard form as Datastar signals, runs the pipeline
// and patches the result table (or an error panel) into the page.
func (h *SSEHandlers) HandleRules(w http.ResponseWriter, r *http.Request) {
	var req models.RulesRequest
	readErr := datastar.ReadSignals(r, &req)

	sse := datastar.NewSSE(w, r)

	h.patchSignals(sse, map[string]any{"loading": true})

	var (
		result *models.RulesResult
		err    error
	)
	if readErr != nil {
		err = errors.InputWrap(readErr, "invalid form signals")
	} else {
		result, err = h.rules.Generate(r.Context(), req)
	}

	if err != nil {
		h.patchFailure(sse, r, err)
	} else if html, renderErr := h.renderRulesTable(result); renderErr != nil {
		h.logger.Error("render rules table", "error", renderErr)
	} else if patchErr := sse.PatchElements(html); patchErr != nil {
		h.logger.Warn("patch rules table", "error", patchErr)
	}

	h.patchSignals(sse, map[string]any{"loading": false})

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) patchFailure(sse *datastar.ServerSentEventGenerator, r *http.Request, err error) {
	appErr := services.Classify(err)

	h.logger.Warn("rules request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"request_id", observability.GetRequestID(r.Context()),
	)

	html, renderErr := h.renderError(appErr)
	if renderErr != nil {
		h.logger.Error("render rules error", "error", renderErr)
		return
	}
	if patchErr := sse.PatchElements(html); patchErr != nil {
		h.logger.Warn("patch rules error", "error", patchErr)
	}
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(data); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}
}
