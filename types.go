package linguagw

// Tier is a named service level selecting model strength.
type Tier string

// Service tiers.
const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ModelForTier resolves the model identifier backing a tier.
func (c Config) ModelForTier(t Tier) string {
	if t == TierPro {
		return c.Tiers.Pro
	}
	return c.Tiers.Free
}

// TranslateRequest is the body of the single-text translation endpoints.
type TranslateRequest struct {
	Text       string `json:"text"`
	FromLang   string `json:"from_lang,omitempty"`
	ToLang     string `json:"to_lang,omitempty"`
	Context    string `json:"context,omitempty"`
	GlossaryID string `json:"glossary_id,omitempty"`
}

// TranslateResult is the response of the single-text translation endpoints.
type TranslateResult struct {
	Model            string `json:"model"`
	Original         string `json:"original"`
	Translated       string `json:"translated"`
	DetectedLanguage string `json:"detected_language"`
	Cached           bool   `json:"cached"`
}

// BatchRequest is the body of the batch translation endpoints.
type BatchRequest struct {
	Texts         []string `json:"texts"`
	FromLang      string   `json:"from_lang,omitempty"`
	ToLang        string   `json:"to_lang,omitempty"`
	Context       string   `json:"context,omitempty"`
	GlossaryID    string   `json:"glossary_id,omitempty"`
	MaxConcurrent int      `json:"max_concurrent,omitempty"`
}

// BatchItem is one successfully translated batch entry.
type BatchItem struct {
	Index      int    `json:"index"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Cached     bool   `json:"cached"`
}

// BatchFailure is one failed batch entry. Failures are per-item and never
// abort the rest of the batch.
type BatchFailure struct {
	Index    int    `json:"index"`
	Original string `json:"original"`
	Error    string `json:"error"`
}

// BatchResult aggregates a completed batch. Successes and Failures are each
// sorted by original input index regardless of completion order.
type BatchResult struct {
	Model        string         `json:"model"`
	FromLang     string         `json:"from_lang"`
	ToLang       string         `json:"to_lang"`
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	FailureCount int            `json:"failure_count"`
	CacheHits    int            `json:"cache_hits"`
	CacheMisses  int            `json:"cache_misses"`
	Successes    []BatchItem    `json:"successes"`
	Failures     []BatchFailure `json:"failures"`
}
