// Package detect implements best-effort language detection and target
// language suggestion.
//
// Detection tries a local statistical pass first (whatlanggo); only when
// that is unreliable does it ask the collaborator to classify the text.
// Detection never fails: any error falls back to the configured default
// code, because detection must never block translation.
package detect

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/lingua-labs/lingua-gateway/internal/metrics"
	"github.com/lingua-labs/lingua-gateway/providers"
)

// Completer is the slice of the provider surface the detector needs.
type Completer interface {
	Complete(ctx context.Context, req providers.Request) (*providers.Response, error)
}

// classifyPrompt is the fixed instruction for the collaborator pass.
const classifyPrompt = "Identify the language of the following text. Respond with only the ISO 639-1 two-letter language code, nothing else.\n\n"

// codeTable normalizes free-form model output (full language names,
// regional variants) to canonical 2-letter codes. Unmapped outputs pass
// through lowercased; leniency beats a hard failure here.
var codeTable = map[string]string{
	"english":             "en",
	"chinese":             "zh",
	"simplified chinese":  "zh",
	"traditional chinese": "zh",
	"mandarin":            "zh",
	"zh-cn":               "zh",
	"zh-tw":               "zh",
	"japanese":            "ja",
	"korean":              "ko",
	"french":              "fr",
	"german":              "de",
	"spanish":             "es",
	"portuguese":          "pt",
	"pt-br":               "pt",
	"italian":             "it",
	"russian":             "ru",
	"arabic":              "ar",
	"hindi":               "hi",
	"dutch":               "nl",
	"polish":              "pl",
	"turkish":             "tr",
	"vietnamese":          "vi",
	"thai":                "th",
	"indonesian":          "id",
	"ukrainian":           "uk",
	"swedish":             "sv",
	"en-us":               "en",
	"en-gb":               "en",
}

// pairTable maps a source language to its statistically most common
// translation target. A deliberately simple static heuristic, not an
// inference engine.
var pairTable = map[string]string{
	"en": "zh",
	"zh": "en",
	"ja": "en",
	"ko": "en",
	"fr": "en",
	"de": "en",
	"es": "en",
	"pt": "en",
	"it": "en",
	"ru": "en",
	"ar": "en",
	"hi": "en",
}

// Detector resolves the language of a text.
type Detector struct {
	completer     Completer
	model         string
	defaultSource string
	defaultTarget string
	timeout       time.Duration
	log           *slog.Logger
}

// New creates a Detector. completer may be nil, in which case only the
// local pass runs. model selects the classification model for the
// collaborator pass (typically the free tier's).
func New(completer Completer, model, defaultSource, defaultTarget string, timeout time.Duration, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Detector{
		completer:     completer,
		model:         model,
		defaultSource: defaultSource,
		defaultTarget: defaultTarget,
		timeout:       timeout,
		log:           log,
	}
}

// Detect returns the 2-letter language code for text. It never returns an
// error: on any failure it falls back to the configured default code.
func (d *Detector) Detect(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		metrics.DetectionsTotal.WithLabelValues("default").Inc()
		return d.defaultSource
	}

	// Local pass: free and fast, good enough for most scripts.
	info := whatlanggo.Detect(text)
	if info.IsReliable() {
		if code := info.Lang.Iso6391(); code != "" {
			metrics.DetectionsTotal.WithLabelValues("local").Inc()
			return code
		}
	}

	if d.completer == nil {
		metrics.DetectionsTotal.WithLabelValues("default").Inc()
		return d.defaultSource
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.completer.Complete(ctx, providers.Request{
		Model: d.model,
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: classifyPrompt + text},
		},
		Temperature: providers.Float(0.1),
		MaxTokens:   providers.Int(10),
	})
	if err != nil {
		d.log.Warn("language detection failed, using default", "error", err, "default", d.defaultSource)
		metrics.DetectionsTotal.WithLabelValues("default").Inc()
		return d.defaultSource
	}

	code := Normalize(resp.Content)
	if code == "" {
		d.log.Warn("language detection returned empty response, using default", "default", d.defaultSource)
		metrics.DetectionsTotal.WithLabelValues("default").Inc()
		return d.defaultSource
	}
	metrics.DetectionsTotal.WithLabelValues("llm").Inc()
	return code
}

// Normalize maps free-form model output to a canonical 2-letter code.
// Unmapped values pass through lowercased and trimmed.
func Normalize(raw string) string {
	code := strings.ToLower(strings.TrimSpace(raw))
	code = strings.Trim(code, ".\"'`")
	if mapped, ok := codeTable[code]; ok {
		return mapped
	}
	return code
}

// SuggestTarget maps a source language to the most likely translation
// target, falling back to the configured default when unmapped.
func (d *Detector) SuggestTarget(sourceLang string) string {
	if target, ok := pairTable[sourceLang]; ok {
		return target
	}
	return d.defaultTarget
}
