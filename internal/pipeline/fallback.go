package pipeline

import (
	"strings"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

const (
	fallbackStatementMax = 140
	fallbackProofMax     = 600

	fallbackHints = "Start from the definitions: write out exactly what is given and what must be shown. " +
		"Try small or boundary cases before attempting the general argument."

	fallbackProofNote = "Imported from the source discussion; review and tighten before relying on it."
)

// fallbackTags satisfy the exactly-three-tags contract when the transformer
// output is unusable.
var fallbackTags = []string{"mathematics", "imported", "needs-review"}

// FallbackDraft builds a deterministic card draft straight from the
// candidate, used once per run when the transformer returns a malformed
// draft. The statement is the truncated title, the proof the truncated
// answer or body, hints and tags are fixed boilerplate.
func FallbackDraft(c *domain.Candidate) *domain.CardDraft {
	proofSource := c.AnswerText
	if strings.TrimSpace(proofSource) == "" {
		proofSource = c.Body
	}

	proof := truncate(strings.TrimSpace(proofSource), fallbackProofMax)
	if proof == "" {
		proof = fallbackProofNote
	} else {
		proof += "\n\n" + fallbackProofNote
	}

	statement := truncate(strings.TrimSpace(c.Title), fallbackStatementMax)
	if statement == "" {
		statement = "Imported practice problem"
	}

	tags := make([]string, domain.CardTagCount)
	copy(tags, fallbackTags)

	return &domain.CardDraft{
		Statement:    statement,
		Hints:        fallbackHints,
		Proof:        proof,
		Tags:         tags,
		FallbackUsed: true,
	}
}

// truncate cuts s to at most max runes, appending "..." when it had to cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
