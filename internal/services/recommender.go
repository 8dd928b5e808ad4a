package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"basket-rules/internal/basket"
	"basket-rules/internal/config"
	"basket-rules/internal/dataprep"
	"basket-rules/internal/metrics"
	"basket-rules/internal/mining"
	"basket-rules/internal/models"
	"basket-rules/internal/observability"
	"basket-rules/internal/validation"
)

const (
	SuccessMessage = "Association rules generated successfully."

	// latency histogram range in microseconds: 1µs to 10 minutes
	maxLatencyMicros = int64(10 * time.Minute / time.Microsecond)
)

// Loader produces the cleaned record set for a request.
type Loader interface {
	Load(ctx context.Context, req dataprep.Request) ([]models.Record, error)
}

type Recommender struct {
	loader Loader
	engine mining.Engine
	cfg    config.MiningConfig
	logger *slog.Logger

	requests atomic.Int64
	failures atomic.Int64
	rules    atomic.Int64

	mu       sync.Mutex
	latency  *hdrhistogram.Histogram
	lastRun  time.Time
	lastFail time.Time
}

func NewRecommender(loader Loader, engine mining.Engine, cfg config.MiningConfig, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{
		loader:  loader,
		engine:  engine,
		cfg:     cfg,
		logger:  logger,
		latency: hdrhistogram.New(1, maxLatencyMicros, 3),
	}
}

// Generate runs the full pipeline for one request: load and clean the source,
// build the country basket, mine frequent itemsets and derive rules. Every
// returned error is an *errors.AppError carrying its kind.
func (s *Recommender) Generate(ctx context.Context, req models.RulesRequest) (*models.RulesResult, error) {
	start := time.Now()
	s.requests.Add(1)

	result, err := s.generate(ctx, req)
	duration := time.Since(start)
	s.recordLatency(duration, err)

	if err != nil {
		s.failures.Add(1)
		appErr := Classify(err)
		metrics.RecordPipelineError(string(appErr.Code))
		return nil, appErr
	}

	s.rules.Add(int64(len(result.Rules)))
	s.logger.InfoContext(ctx, "association rules generated",
		"country", req.Country,
		"baskets", result.Baskets,
		"items", result.Items,
		"rules", len(result.Rules),
		"duration", duration,
		"request_id", observability.GetRequestID(ctx),
	)
	return result, nil
}

func (s *Recommender) generate(ctx context.Context, req models.RulesRequest) (*models.RulesResult, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	cols := models.Columns{
		Invoice:  req.InvoiceColumn,
		Item:     req.ItemColumn,
		Country:  firstNonEmpty(req.CountryColumn, s.cfg.CountryColumn),
		Quantity: firstNonEmpty(req.QuantityColumn, s.cfg.QuantityColumn),
	}

	var records []models.Record
	err := s.stage(ctx, "load", func(ctx context.Context, span *observability.Span) error {
		var err error
		records, err = s.loader.Load(ctx, dataprep.Request{Path: req.FilePath, Sheet: req.Sheet, Columns: cols})
		span.SetTag("records", strconv.Itoa(len(records)))
		return err
	})
	if err != nil {
		return nil, err
	}

	var presence *mining.Matrix
	err = s.stage(ctx, "basket", func(ctx context.Context, span *observability.Span) error {
		m, err := basket.Build(records, req.Country)
		if err != nil {
			return err
		}
		presence = m.Binarize().Presence()
		span.SetTag("invoices", strconv.Itoa(m.Rows()))
		span.SetTag("items", strconv.Itoa(m.Cols()))
		metrics.RecordBasket(m.Rows(), m.Cols())
		return nil
	})
	if err != nil {
		return nil, err
	}

	maxLength := req.MaxLength
	if maxLength == 0 {
		maxLength = s.cfg.MaxLength
	}

	var itemsets []mining.Itemset
	err = s.stage(ctx, "mine", func(ctx context.Context, span *observability.Span) error {
		var err error
		itemsets, err = s.engine.Mine(ctx, presence, mining.Options{MinSupport: req.MinSupport, MaxLength: maxLength})
		span.SetTag("itemsets", strconv.Itoa(len(itemsets)))
		return err
	})
	if err != nil {
		return nil, err
	}

	var rules []mining.Rule
	err = s.stage(ctx, "rules", func(ctx context.Context, span *observability.Span) error {
		var err error
		rules, err = s.engine.DeriveRules(ctx, itemsets, *req.MinThreshold)
		span.SetTag("rules", strconv.Itoa(len(rules)))
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMiningOutput(len(itemsets), len(rules))

	return &models.RulesResult{
		Message: SuccessMessage,
		Country: req.Country,
		Baskets: presence.Rows,
		Items:   len(presence.Items),
		Rules:   Project(rules),
	}, nil
}

// stage runs fn inside a child span and records its duration.
func (s *Recommender) stage(ctx context.Context, name string, fn func(context.Context, *observability.Span) error) error {
	ctx, span := observability.StartSpan(ctx, "rules."+name)
	start := time.Now()

	err := fn(ctx, span)
	if err != nil {
		span.SetError(err)
	}

	metrics.RecordStage(name, time.Since(start))
	span.Report(ctx, s.logger)
	return err
}

// Project maps mined rules onto the caller-facing recommendation records.
func Project(rules []mining.Rule) []models.Recommendation {
	out := make([]models.Recommendation, len(rules))
	for i, r := range rules {
		out[i] = models.Recommendation{
			ProductsBought:     r.Antecedents,
			ProductRecommended: r.Consequents,
			Lift:               r.Lift,
			Confidence:         r.Confidence,
			Support:            r.Support,
		}
	}
	return out
}

func (s *Recommender) recordLatency(d time.Duration, err error) {
	micros := min(max(d.Microseconds(), 1), maxLatencyMicros)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latency.RecordValue(micros)
	s.lastRun = time.Now()
	if err != nil {
		s.lastFail = s.lastRun
	}
}

// Stats reports request counters and latency percentiles in milliseconds.
func (s *Recommender) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := func(micros int64) float64 { return float64(micros) / 1000 }

	stats := map[string]any{
		"requests":        s.requests.Load(),
		"failures":        s.failures.Load(),
		"rules_generated": s.rules.Load(),
		"latency_ms": map[string]float64{
			"p50":  ms(s.latency.ValueAtQuantile(50)),
			"p90":  ms(s.latency.ValueAtQuantile(90)),
			"p99":  ms(s.latency.ValueAtQuantile(99)),
			"max":  ms(s.latency.Max()),
			"mean": s.latency.Mean() / 1000,
		},
	}
	if !s.lastRun.IsZero() {
		stats["last_run"] = s.lastRun.UTC().Format(time.RFC3339)
	}
	if !s.lastFail.IsZero() {
		stats["last_failure"] = s.lastFail.UTC().Format(time.RFC3339)
	}
	return stats
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
