// Package linguagw implements the core of the translation gateway: a
// tiered translation service backed by an LLM collaborator, with a
// file-persisted translation memory, named glossaries, language
// auto-detection, and bounded-concurrency batch translation.
package linguagw

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lingua-labs/lingua-gateway/internal/circuitbreaker"
	"github.com/lingua-labs/lingua-gateway/internal/glossary"
	"github.com/lingua-labs/lingua-gateway/internal/logging"
	"github.com/lingua-labs/lingua-gateway/internal/memory"
	"github.com/lingua-labs/lingua-gateway/internal/metrics"
	"github.com/lingua-labs/lingua-gateway/internal/requestlog"
	"github.com/lingua-labs/lingua-gateway/providers"
)

// Detector is the slice of the detection surface the service depends on.
type Detector interface {
	Detect(ctx context.Context, text string) string
	SuggestTarget(sourceLang string) string
}

// Service orchestrates translation requests: language resolution, memory
// lookups, prompt construction, collaborator calls, and persistence. It is
// safe for concurrent use.
type Service struct {
	cfg        Config
	provider   providers.Provider
	memory     memory.Store
	glossaries *glossary.Store
	detector   Detector
	breaker    *circuitbreaker.Breaker
	audit      requestlog.Writer
	log        *slog.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithBreaker guards collaborator calls with a circuit breaker.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

// WithAuditLog records every translation attempt to the given writer.
func WithAuditLog(w requestlog.Writer) Option {
	return func(s *Service) { s.audit = w }
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService wires a Service from its collaborators.
func NewService(cfg Config, provider providers.Provider, mem memory.Store, glossaries *glossary.Store, detector Detector, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		provider:   provider,
		memory:     mem,
		glossaries: glossaries,
		detector:   detector,
		audit:      requestlog.NoopWriter{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate handles a single-text translation for the given tier.
func (s *Service) Translate(ctx context.Context, tier Tier, req TranslateRequest) (*TranslateResult, error) {
	start := time.Now()
	model := s.cfg.ModelForTier(tier)

	if strings.TrimSpace(req.Text) == "" {
		metrics.TranslationsTotal.WithLabelValues(string(tier), "rejected").Inc()
		return nil, validationErrorf("text must not be empty")
	}
	if n := utf8.RuneCountInString(req.Text); n > MaxTextChars {
		metrics.TranslationsTotal.WithLabelValues(string(tier), "rejected").Inc()
		return nil, validationErrorf("text length %d exceeds the %d character limit", n, MaxTextChars)
	}

	entries, err := s.resolveGlossary(req.GlossaryID)
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues(string(tier), "rejected").Inc()
		return nil, err
	}

	from := req.FromLang
	if from == "" {
		from = s.detector.Detect(ctx, req.Text)
	}
	to := req.ToLang
	if to == "" {
		to = s.detector.SuggestTarget(from)
	}

	if translated, ok := s.memory.Lookup(req.Text, to); ok {
		metrics.MemoryLookups.WithLabelValues("hit").Inc()
		metrics.TranslationsTotal.WithLabelValues(string(tier), "success").Inc()
		metrics.TranslationDuration.WithLabelValues(string(tier)).Observe(time.Since(start).Seconds())
		s.auditEntry(ctx, requestlog.Entry{
			Tier: string(tier), Model: model, SourceLang: from, TargetLang: to,
			TextChars: utf8.RuneCountInString(req.Text), Cached: true,
			LatencyMS: time.Since(start).Milliseconds(),
		})
		return &TranslateResult{
			Model:            model,
			Original:         req.Text,
			Translated:       translated,
			DetectedLanguage: from,
			Cached:           true,
		}, nil
	}
	metrics.MemoryLookups.WithLabelValues("miss").Inc()

	prompt := buildPrompt(promptPrefix(from, to, req.Context, entries), req.Text)
	resp, err := s.complete(ctx, model, prompt)
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues(string(tier), "error").Inc()
		s.auditEntry(ctx, requestlog.Entry{
			Tier: string(tier), Model: model, SourceLang: from, TargetLang: to,
			TextChars: utf8.RuneCountInString(req.Text), ErrorMsg: err.Error(),
			LatencyMS: time.Since(start).Milliseconds(),
		})
		return nil, &UpstreamError{Err: err}
	}

	translated := strings.TrimSpace(resp.Content)
	s.memory.Store(req.Text, translated, to)

	metrics.TranslationsTotal.WithLabelValues(string(tier), "success").Inc()
	metrics.TranslationDuration.WithLabelValues(string(tier)).Observe(time.Since(start).Seconds())
	metrics.TokensUsed.WithLabelValues(model, "input").Add(float64(resp.Usage.PromptTokens))
	metrics.TokensUsed.WithLabelValues(model, "output").Add(float64(resp.Usage.CompletionTokens))
	s.auditEntry(ctx, requestlog.Entry{
		Tier: string(tier), Model: model, SourceLang: from, TargetLang: to,
		TextChars: utf8.RuneCountInString(req.Text),
		LatencyMS: time.Since(start).Milliseconds(),
	})

	return &TranslateResult{
		Model:            model,
		Original:         req.Text,
		Translated:       translated,
		DetectedLanguage: from,
		Cached:           false,
	}, nil
}

// TranslateBatch handles a batch translation. Items are processed with
// bounded concurrency; each item succeeds or fails independently, and the
// result lists preserve input order.
func (s *Service) TranslateBatch(ctx context.Context, tier Tier, req BatchRequest) (*BatchResult, error) {
	model := s.cfg.ModelForTier(tier)

	if len(req.Texts) == 0 {
		return nil, validationErrorf("texts must not be empty")
	}
	if len(req.Texts) > s.cfg.Batch.MaxItems {
		return nil, validationErrorf("batch of %d texts exceeds the %d item limit", len(req.Texts), s.cfg.Batch.MaxItems)
	}
	totalChars := 0
	for _, t := range req.Texts {
		totalChars += utf8.RuneCountInString(t)
	}
	if totalChars > s.cfg.Batch.MaxTotalChars {
		return nil, validationErrorf("batch of %d characters exceeds the %d character limit", totalChars, s.cfg.Batch.MaxTotalChars)
	}

	entries, err := s.resolveGlossary(req.GlossaryID)
	if err != nil {
		return nil, err
	}

	// The whole batch shares one language pair, resolved from the first
	// text. A documented simplification, not per-item detection.
	from := req.FromLang
	if from == "" {
		from = s.detector.Detect(ctx, req.Texts[0])
	}
	to := req.ToLang
	if to == "" {
		to = s.detector.SuggestTarget(from)
	}
	prefix := promptPrefix(from, to, req.Context, entries)

	metrics.BatchSize.Observe(float64(len(req.Texts)))

	workers := req.MaxConcurrent
	if workers <= 0 {
		workers = s.cfg.Batch.DefaultConcurrency
	}
	if workers > len(req.Texts) {
		workers = len(req.Texts)
	}

	// Fan out with a semaphore bound; each goroutine writes its own
	// pre-indexed slot, so aggregation needs no re-sort.
	outcomes := make([]batchOutcome, len(req.Texts))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, text := range req.Texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.translateItem(ctx, tier, model, prefix, to, i, text)
		}(i, text)
	}
	wg.Wait()

	result := &BatchResult{
		Model:     model,
		FromLang:  from,
		ToLang:    to,
		Total:     len(req.Texts),
		Successes: make([]BatchItem, 0, len(req.Texts)),
		Failures:  make([]BatchFailure, 0),
	}
	for _, o := range outcomes {
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
			result.FailureCount++
			continue
		}
		result.Successes = append(result.Successes, o.item)
		result.SuccessCount++
		if o.item.Cached {
			result.CacheHits++
		} else {
			result.CacheMisses++
		}
	}
	return result, nil
}

// batchOutcome holds one item's result; exactly one field is set.
type batchOutcome struct {
	item    BatchItem
	failure *BatchFailure
}

func (s *Service) translateItem(ctx context.Context, tier Tier, model, prefix, to string, idx int, text string) batchOutcome {
	start := time.Now()
	fail := func(msg string) batchOutcome {
		metrics.TranslationsTotal.WithLabelValues(string(tier), "error").Inc()
		s.auditEntry(ctx, requestlog.Entry{
			Tier: string(tier), Model: model, TargetLang: to,
			TextChars: utf8.RuneCountInString(text), ErrorMsg: msg,
			LatencyMS: time.Since(start).Milliseconds(),
		})
		return batchOutcome{failure: &BatchFailure{Index: idx, Original: text, Error: msg}}
	}

	if strings.TrimSpace(text) == "" {
		return fail("text must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextChars {
		return fail(validationErrorf("text length %d exceeds the %d character limit", n, MaxTextChars).Error())
	}

	if translated, ok := s.memory.Lookup(text, to); ok {
		metrics.MemoryLookups.WithLabelValues("hit").Inc()
		metrics.TranslationsTotal.WithLabelValues(string(tier), "success").Inc()
		return batchOutcome{item: BatchItem{Index: idx, Original: text, Translated: translated, Cached: true}}
	}
	metrics.MemoryLookups.WithLabelValues("miss").Inc()

	resp, err := s.complete(ctx, model, buildPrompt(prefix, text))
	if err != nil {
		return fail((&UpstreamError{Err: err}).Error())
	}

	translated := strings.TrimSpace(resp.Content)
	s.memory.Store(text, translated, to)
	metrics.TranslationsTotal.WithLabelValues(string(tier), "success").Inc()
	metrics.TokensUsed.WithLabelValues(model, "input").Add(float64(resp.Usage.PromptTokens))
	metrics.TokensUsed.WithLabelValues(model, "output").Add(float64(resp.Usage.CompletionTokens))
	s.auditEntry(ctx, requestlog.Entry{
		Tier: string(tier), Model: model, TargetLang: to,
		TextChars: utf8.RuneCountInString(text),
		LatencyMS: time.Since(start).Milliseconds(),
	})
	return batchOutcome{item: BatchItem{Index: idx, Original: text, Translated: translated}}
}

// complete performs one collaborator call under the configured timeout,
// routed through the circuit breaker when one is configured. Single
// attempt, no retries.
func (s *Service) complete(ctx context.Context, model, prompt string) (*providers.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Backend.Timeout())
	defer cancel()

	req := providers.Request{
		Model: model,
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: prompt},
		},
		Temperature: providers.Float(0.2),
	}

	var resp *providers.Response
	var err error
	if s.breaker != nil {
		err = s.breaker.Do(func() error {
			var callErr error
			resp, callErr = s.provider.Complete(ctx, req)
			return callErr
		})
	} else {
		resp, err = s.provider.Complete(ctx, req)
	}
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(classifyUpstream(err)).Inc()
		return nil, err
	}
	return resp, nil
}

func classifyUpstream(err error) string {
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "provider_error"
	}
}

// resolveGlossary loads the entries for a glossary id. An empty id means no
// glossary; an unknown id is a NotFoundError.
func (s *Service) resolveGlossary(id string) ([]glossary.Entry, error) {
	if id == "" || s.glossaries == nil {
		return nil, nil
	}
	rec, err := s.glossaries.Get(id)
	if err != nil {
		if errors.Is(err, glossary.ErrNotFound) {
			return nil, &NotFoundError{Kind: "glossary", ID: id}
		}
		return nil, err
	}
	return rec.Entries, nil
}

// DetectLanguage resolves the language of a text for the detection
// endpoint. Detection itself never fails; only empty input is rejected.
func (s *Service) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", validationErrorf("text must not be empty")
	}
	return s.detector.Detect(ctx, text), nil
}

// CreateGlossary stores a named glossary and returns its id.
func (s *Service) CreateGlossary(name string, entries []glossary.Entry) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", validationErrorf("glossary name must not be empty")
	}
	for _, e := range entries {
		if e.Source == "" || e.Target == "" {
			return "", validationErrorf("glossary entries must have both source and target")
		}
	}
	return s.glossaries.Create(name, entries), nil
}

// GetGlossary returns a stored glossary or a NotFoundError.
func (s *Service) GetGlossary(id string) (glossary.Record, error) {
	rec, err := s.glossaries.Get(id)
	if err != nil {
		if errors.Is(err, glossary.ErrNotFound) {
			return glossary.Record{}, &NotFoundError{Kind: "glossary", ID: id}
		}
		return glossary.Record{}, err
	}
	return rec, nil
}

// ListGlossaries returns all stored glossary ids.
func (s *Service) ListGlossaries() []string {
	return s.glossaries.List()
}

// MemoryStats reports translation-memory usage.
func (s *Service) MemoryStats() memory.Stats {
	return s.memory.Stats()
}

// ClearMemory empties the translation memory and its persisted file.
func (s *Service) ClearMemory() {
	s.memory.Clear()
}

// HealthStatus is the health endpoint's payload. The endpoint always
// answers 200; Status conveys degradation.
type HealthStatus struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Models  int    `json:"models,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Health probes the collaborator. It never returns an error; failures are
// reported in the payload.
func (s *Service) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "ok", Backend: s.provider.Name()}
	hc, ok := s.provider.(providers.HealthChecker)
	if !ok {
		return status
	}
	models, err := hc.Health(ctx)
	if err != nil {
		status.Status = "degraded"
		status.Detail = err.Error()
		return status
	}
	status.Models = models
	return status
}

// auditEntry records one translation attempt, best effort. The parent
// context may already be done, so the write uses a detached context.
func (s *Service) auditEntry(ctx context.Context, e requestlog.Entry) {
	if s.audit == nil {
		return
	}
	e.TraceID = logging.TraceIDFromContext(ctx)
	if err := s.audit.Write(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn("audit log write failed", "error", err)
	}
}
