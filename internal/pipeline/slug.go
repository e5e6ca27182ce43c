package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

const (
	// slugMaxLen bounds the base slug before any collision suffix.
	slugMaxLen = 60
	// slugMaxAttempts bounds the existence checks per publish. The base slug
	// counts as the first attempt.
	slugMaxAttempts = 5
)

// Slugify derives a URL slug from a card statement: case-folded, runs of
// non-alphanumerics collapsed to single hyphens, truncated to slugMaxLen.
// A statement with no usable characters yields "card".
func Slugify(statement string) string {
	var b strings.Builder
	b.Grow(len(statement))

	lastHyphen := true
	for _, r := range strings.ToLower(statement) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if r > unicode.MaxASCII {
				continue
			}
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > slugMaxLen {
		slug = strings.TrimRight(slug[:slugMaxLen], "-")
	}
	if slug == "" {
		return "card"
	}
	return slug
}

// uniqueSlug finds a free slug for the statement, appending -2, -3, ... on
// collision. Returns domain.ErrSlugExhausted when every attempt is taken.
func (o *Orchestrator) uniqueSlug(ctx context.Context, statement string) (string, error) {
	base := Slugify(statement)

	for attempt := 1; attempt <= slugMaxAttempts; attempt++ {
		slug := base
		if attempt > 1 {
			suffix := fmt.Sprintf("-%d", attempt)
			trimmed := base
			if len(trimmed)+len(suffix) > slugMaxLen {
				trimmed = strings.TrimRight(trimmed[:slugMaxLen-len(suffix)], "-")
			}
			slug = trimmed + suffix
		}

		taken, err := o.sink.Exists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
	}

	return "", fmt.Errorf("%w: %q after %d attempts", domain.ErrSlugExhausted, base, slugMaxAttempts)
}
