package pipeline

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		want      string
	}{
		{
			name:      "simple statement",
			statement: "Every Cauchy sequence converges",
			want:      "every-cauchy-sequence-converges",
		},
		{
			name:      "case folded",
			statement: "The Riemann Hypothesis",
			want:      "the-riemann-hypothesis",
		},
		{
			name:      "punctuation stripped",
			statement: "Prove that √2 is irrational!",
			want:      "prove-that-2-is-irrational",
		},
		{
			name:      "symbol runs collapse to one hyphen",
			statement: "f(x) = x^2 + 1",
			want:      "f-x-x-2-1",
		},
		{
			name:      "non-ascii letters dropped",
			statement: "Galois theory après café",
			want:      "galois-theory-aprs-caf",
		},
		{
			name:      "leading and trailing symbols trimmed",
			statement: "  (a) prove the lemma (b)  ",
			want:      "a-prove-the-lemma-b",
		},
		{
			name:      "truncated to limit",
			statement: strings.Repeat("a", 80),
			want:      strings.Repeat("a", 60),
		},
		{
			name:      "no trailing hyphen after truncation",
			statement: strings.Repeat("a", 59) + " bbbb",
			want:      strings.Repeat("a", 59),
		},
		{
			name:      "empty statement",
			statement: "",
			want:      "card",
		},
		{
			name:      "only symbols",
			statement: "∀∃ → ⊢ ∎",
			want:      "card",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.statement); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.statement, got, tt.want)
			}
		})
	}
}
