package linguagw

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lingua-labs/lingua-gateway/internal/glossary"
	"github.com/lingua-labs/lingua-gateway/internal/memory"
	"github.com/lingua-labs/lingua-gateway/providers"
)

// mockProvider echoes prompts back with a marker, optionally failing or
// sleeping per call.
type mockProvider struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   func(prompt string) (string, error)
	jitter  time.Duration
}

func (m *mockProvider) Name() string              { return "mock" }
func (m *mockProvider) SupportedModels() []string { return []string{"gpt-4o-mini", "gpt-4o"} }
func (m *mockProvider) SupportsModel(string) bool { return true }
func (m *mockProvider) Models() []providers.ModelInfo {
	return providers.ModelsFromList("mock", m.SupportedModels())
}

func (m *mockProvider) Complete(_ context.Context, req providers.Request) (*providers.Response, error) {
	if m.jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(m.jitter))))
	}
	prompt := req.Messages[len(req.Messages)-1].Content

	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	reply := m.reply
	m.mu.Unlock()

	if reply != nil {
		content, err := reply(prompt)
		if err != nil {
			return nil, err
		}
		return &providers.Response{Model: req.Model, Provider: "mock", Content: content}, nil
	}
	return &providers.Response{
		Model:    req.Model,
		Provider: "mock",
		Content:  "translated:" + lastLine(prompt),
		Usage:    providers.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockProvider) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// lastLine extracts the literal text portion of a built prompt.
func lastLine(prompt string) string {
	lines := strings.Split(strings.TrimRight(prompt, "\n"), "\n")
	return lines[len(lines)-1]
}

// fixedDetector avoids whatlanggo variance in service tests.
type fixedDetector struct {
	source string
	target string
}

func (d fixedDetector) Detect(context.Context, string) string { return d.source }
func (d fixedDetector) SuggestTarget(string) string           { return d.target }

func newTestService(t *testing.T, p providers.Provider) *Service {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	mem := memory.NewFileStore(filepath.Join(dir, "memory.json"), nil)
	glos := glossary.NewStore(filepath.Join(dir, "glossaries.json"), nil)
	return NewService(cfg, p, mem, glos, fixedDetector{source: "en", target: "zh"})
}

func TestTranslate_MissThenHit(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)
	ctx := context.Background()

	req := TranslateRequest{Text: "Hello", ToLang: "zh"}
	res, err := svc.Translate(ctx, TierFree, req)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Cached {
		t.Fatal("first call should not be cached")
	}
	if res.Translated != "translated:Hello" {
		t.Fatalf("Translated = %q", res.Translated)
	}
	if res.Model != "gpt-4o-mini" {
		t.Fatalf("Model = %q, want free-tier model", res.Model)
	}
	if p.callCount() != 1 {
		t.Fatalf("collaborator calls = %d, want 1", p.callCount())
	}

	res2, err := svc.Translate(ctx, TierFree, req)
	if err != nil {
		t.Fatalf("Translate (repeat): %v", err)
	}
	if !res2.Cached {
		t.Fatal("repeat call should be cached")
	}
	if res2.Translated != res.Translated {
		t.Fatalf("cached translation %q differs from original %q", res2.Translated, res.Translated)
	}
	if p.callCount() != 1 {
		t.Fatalf("collaborator calls after cache hit = %d, want 1", p.callCount())
	}
}

func TestTranslate_ProTierSelectsStrongerModel(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)

	res, err := svc.Translate(context.Background(), TierPro, TranslateRequest{Text: "Hello", ToLang: "zh"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Model != "gpt-4o" {
		t.Fatalf("Model = %q, want pro-tier model", res.Model)
	}
}

func TestTranslate_RejectsOverlongText(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)

	_, err := svc.Translate(context.Background(), TierFree, TranslateRequest{
		Text:   strings.Repeat("x", MaxTextChars+1),
		ToLang: "zh",
	})
	if !IsValidation(err) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if p.callCount() != 0 {
		t.Fatalf("collaborator calls = %d, want 0", p.callCount())
	}
}

func TestTranslate_RejectsEmptyText(t *testing.T) {
	svc := newTestService(t, &mockProvider{})
	if _, err := svc.Translate(context.Background(), TierFree, TranslateRequest{Text: "  "}); !IsValidation(err) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestTranslate_GlossaryHintInPrompt(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)

	id, err := svc.CreateGlossary("tech", []glossary.Entry{{Source: "API", Target: "接口"}})
	if err != nil {
		t.Fatalf("CreateGlossary: %v", err)
	}

	_, err = svc.Translate(context.Background(), TierFree, TranslateRequest{
		Text:       "The API is stable",
		ToLang:     "zh",
		GlossaryID: id,
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if want := `"API" -> "接口"`; !strings.Contains(p.lastPrompt(), want) {
		t.Fatalf("prompt missing substitution hint %q:\n%s", want, p.lastPrompt())
	}
}

func TestTranslate_UnknownGlossaryIsNotFound(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)

	_, err := svc.Translate(context.Background(), TierFree, TranslateRequest{
		Text:       "Hello",
		ToLang:     "zh",
		GlossaryID: "gl-missing",
	})
	if !IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if p.callCount() != 0 {
		t.Fatalf("collaborator calls = %d, want 0", p.callCount())
	}
}

func TestTranslate_UpstreamFailureNotCached(t *testing.T) {
	p := &mockProvider{reply: func(string) (string, error) {
		return "", errors.New("rate limited")
	}}
	svc := newTestService(t, p)
	ctx := context.Background()

	_, err := svc.Translate(ctx, TierFree, TranslateRequest{Text: "Hello", ToLang: "zh"})
	if !IsUpstream(err) {
		t.Fatalf("got %v, want UpstreamError", err)
	}

	// Failure must not be cached: the next attempt calls the collaborator again.
	p.mu.Lock()
	p.reply = nil
	p.mu.Unlock()
	res, err := svc.Translate(ctx, TierFree, TranslateRequest{Text: "Hello", ToLang: "zh"})
	if err != nil {
		t.Fatalf("Translate (retry): %v", err)
	}
	if res.Cached {
		t.Fatal("retry after failure should not be a cache hit")
	}
	if p.callCount() != 2 {
		t.Fatalf("collaborator calls = %d, want 2", p.callCount())
	}
}

func TestTranslate_DetectionFillsLanguages(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)

	res, err := svc.Translate(context.Background(), TierFree, TranslateRequest{Text: "Hello"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.DetectedLanguage != "en" {
		t.Fatalf("DetectedLanguage = %q, want en", res.DetectedLanguage)
	}
	if !strings.Contains(p.lastPrompt(), "from en to zh") {
		t.Fatalf("prompt missing resolved language pair:\n%s", p.lastPrompt())
	}
}

func TestBatch_OrderPreserved(t *testing.T) {
	p := &mockProvider{jitter: 3 * time.Millisecond}
	svc := newTestService(t, p)

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%02d", i)
	}

	res, err := svc.TranslateBatch(context.Background(), TierFree, BatchRequest{
		Texts:         texts,
		ToLang:        "zh",
		MaxConcurrent: 8,
	})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if res.SuccessCount != len(texts) || res.FailureCount != 0 {
		t.Fatalf("successes=%d failures=%d, want %d/0", res.SuccessCount, res.FailureCount, len(texts))
	}
	for i, item := range res.Successes {
		if item.Index != i {
			t.Fatalf("Successes[%d].Index = %d, want %d", i, item.Index, i)
		}
		if item.Original != texts[i] {
			t.Fatalf("Successes[%d].Original = %q, want %q", i, item.Original, texts[i])
		}
	}
}

func TestBatch_ItemFailureIsIndependent(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)

	texts := []string{"ok text", strings.Repeat("x", MaxTextChars+1), "another ok"}
	res, err := svc.TranslateBatch(context.Background(), TierFree, BatchRequest{Texts: texts, ToLang: "zh"})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if res.SuccessCount != 2 || res.FailureCount != 1 {
		t.Fatalf("successes=%d failures=%d, want 2/1", res.SuccessCount, res.FailureCount)
	}
	if res.Total != res.SuccessCount+res.FailureCount {
		t.Fatalf("total %d != successes+failures %d", res.Total, res.SuccessCount+res.FailureCount)
	}
	if res.Failures[0].Index != 1 {
		t.Fatalf("Failures[0].Index = %d, want 1", res.Failures[0].Index)
	}
	if res.Successes[0].Index != 0 || res.Successes[1].Index != 2 {
		t.Fatalf("success indexes = %d,%d, want 0,2", res.Successes[0].Index, res.Successes[1].Index)
	}
}

func TestBatch_ValidationBoundaries(t *testing.T) {
	svc := newTestService(t, &mockProvider{})
	ctx := context.Background()

	cases := []struct {
		name  string
		texts []string
	}{
		{"empty", nil},
		{"too many items", make([]string, 101)},
		{"too many chars", []string{strings.Repeat("a", 5000), strings.Repeat("b", 5001)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TranslateBatch(ctx, TierFree, BatchRequest{Texts: tc.texts, ToLang: "zh"})
			if !IsValidation(err) {
				t.Fatalf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestBatch_CacheHitsCounted(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(t, p)
	ctx := context.Background()

	if _, err := svc.Translate(ctx, TierFree, TranslateRequest{Text: "warm", ToLang: "zh"}); err != nil {
		t.Fatalf("warm-up Translate: %v", err)
	}

	res, err := svc.TranslateBatch(ctx, TierFree, BatchRequest{Texts: []string{"warm", "cold"}, ToLang: "zh"})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if res.CacheHits != 1 || res.CacheMisses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", res.CacheHits, res.CacheMisses)
	}
	if p.callCount() != 2 {
		t.Fatalf("collaborator calls = %d, want 2 (warm-up + cold item)", p.callCount())
	}
}

func TestDetectLanguage(t *testing.T) {
	svc := newTestService(t, &mockProvider{})

	code, err := svc.DetectLanguage(context.Background(), "Hello world")
	if err != nil {
		t.Fatalf("DetectLanguage: %v", err)
	}
	if code != "en" {
		t.Fatalf("code = %q, want en", code)
	}

	if _, err := svc.DetectLanguage(context.Background(), ""); !IsValidation(err) {
		t.Fatalf("got %v, want ValidationError for empty text", err)
	}
}

func TestGlossaryRoundTripThroughService(t *testing.T) {
	svc := newTestService(t, &mockProvider{})

	id, err := svc.CreateGlossary("ui", []glossary.Entry{{Source: "button", Target: "按钮"}})
	if err != nil {
		t.Fatalf("CreateGlossary: %v", err)
	}
	rec, err := svc.GetGlossary(id)
	if err != nil {
		t.Fatalf("GetGlossary: %v", err)
	}
	if rec.Name != "ui" || len(rec.Entries) != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
	ids := svc.ListGlossaries()
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("ListGlossaries = %v, want [%s]", ids, id)
	}

	if _, err := svc.GetGlossary("gl-nope"); !IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if _, err := svc.CreateGlossary(" ", nil); !IsValidation(err) {
		t.Fatalf("got %v, want ValidationError for empty name", err)
	}
}

func TestMemoryStatsAndClear(t *testing.T) {
	svc := newTestService(t, &mockProvider{})
	ctx := context.Background()

	if _, err := svc.Translate(ctx, TierFree, TranslateRequest{Text: "Hello", ToLang: "zh"}); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got := svc.MemoryStats().Entries; got != 1 {
		t.Fatalf("Entries = %d, want 1", got)
	}

	svc.ClearMemory()
	if got := svc.MemoryStats().Entries; got != 0 {
		t.Fatalf("Entries after clear = %d, want 0", got)
	}
}

func TestHealth_ProviderWithoutChecker(t *testing.T) {
	svc := newTestService(t, &mockProvider{})
	status := svc.Health(context.Background())
	if status.Status != "ok" || status.Backend != "mock" {
		t.Fatalf("unexpected health %+v", status)
	}
}
