package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lingua-labs/lingua-gateway/providers"
)

// stubCompleter is a test double for the collaborator.
type stubCompleter struct {
	content string
	err     error
	calls   int
}

func (s *stubCompleter) Complete(_ context.Context, _ providers.Request) (*providers.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &providers.Response{Content: s.content}, nil
}

func newTestDetector(c Completer) *Detector {
	return New(c, "gpt-4o-mini", "en", "zh", time.Second, nil)
}

func TestDetect_LocalPassSkipsCollaborator(t *testing.T) {
	stub := &stubCompleter{content: "fr"}
	d := newTestDetector(stub)

	// Long unambiguous English: the local detector handles it alone.
	code := d.Detect(context.Background(), "The quick brown fox jumps over the lazy dog and keeps on running through the field.")
	if code != "en" {
		t.Errorf("code = %q, want en", code)
	}
	if stub.calls != 0 {
		t.Errorf("collaborator called %d times, want 0", stub.calls)
	}
}

func TestDetect_FallsBackToCollaborator(t *testing.T) {
	stub := &stubCompleter{content: " Chinese.\n"}
	d := newTestDetector(stub)

	// Too short for a reliable local call.
	code := d.Detect(context.Background(), "ok")
	if code != "zh" {
		t.Errorf("code = %q, want zh", code)
	}
	if stub.calls != 1 {
		t.Errorf("collaborator called %d times, want 1", stub.calls)
	}
}

func TestDetect_CollaboratorErrorUsesDefault(t *testing.T) {
	stub := &stubCompleter{err: errors.New("upstream down")}
	d := newTestDetector(stub)

	if code := d.Detect(context.Background(), "xq"); code != "en" {
		t.Errorf("code = %q, want default en", code)
	}
}

func TestDetect_EmptyText(t *testing.T) {
	stub := &stubCompleter{content: "fr"}
	d := newTestDetector(stub)
	if code := d.Detect(context.Background(), "   "); code != "en" {
		t.Errorf("code = %q, want default en", code)
	}
	if stub.calls != 0 {
		t.Error("empty text must not reach the collaborator")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{" EN \n", "en"},
		{"English", "en"},
		{"Simplified Chinese", "zh"},
		{"zh-CN", "zh"},
		{`"ja"`, "ja"},
		{"pt-BR", "pt"},
		{"klingon", "klingon"}, // lenient pass-through
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSuggestTarget(t *testing.T) {
	d := newTestDetector(nil)
	if got := d.SuggestTarget("en"); got != "zh" {
		t.Errorf("SuggestTarget(en) = %q, want zh", got)
	}
	if got := d.SuggestTarget("ja"); got != "en" {
		t.Errorf("SuggestTarget(ja) = %q, want en", got)
	}
	if got := d.SuggestTarget("xx"); got != "zh" {
		t.Errorf("SuggestTarget(xx) = %q, want configured default zh", got)
	}
}
