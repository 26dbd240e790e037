package linguagw

import (
	"fmt"
	"strings"

	"github.com/lingua-labs/lingua-gateway/internal/glossary"
)

// promptPrefix builds the instruction portion of a translation prompt:
// language pair, optional caller context, and glossary substitution hints.
// Batches build the prefix once and reuse it for every item.
func promptPrefix(fromLang, toLang, context string, entries []glossary.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following text from %s to %s.\n", fromLang, toLang)
	if context != "" {
		fmt.Fprintf(&b, "Context: %s\n", context)
	}
	if len(entries) > 0 {
		b.WriteString("Use these exact term translations:\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "- %q -> %q\n", e.Source, e.Target)
		}
	}
	b.WriteString("Return only the translated text, with no explanation.\n\n")
	return b.String()
}

// buildPrompt appends the literal text to an instruction prefix.
func buildPrompt(prefix, text string) string {
	return prefix + text
}
