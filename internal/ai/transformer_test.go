package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

const validReply = `{
	"statement": "Every Cauchy sequence of real numbers converges.",
	"hints": "Show the sequence is bounded, then extract a convergent subsequence.",
	"proof": "Boundedness follows from the Cauchy property. Bolzano-Weierstrass gives a convergent subsequence, and the Cauchy property forces the whole sequence to its limit.",
	"tags": ["real-analysis", "sequences", "convergence"]
}`

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "bare JSON", text: validReply},
		{name: "markdown fenced", text: "```json\n" + validReply + "\n```"},
		{name: "prose wrapped", text: "Here is the card:\n" + validReply + "\nLet me know if it works."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseDraft(tt.text)
			if err != nil {
				t.Fatalf("ParseDraft() error = %v", err)
			}
			if draft.Statement != "Every Cauchy sequence of real numbers converges." {
				t.Errorf("ParseDraft() statement = %q", draft.Statement)
			}
			if len(draft.Tags) != 3 || draft.Tags[0] != "real-analysis" {
				t.Errorf("ParseDraft() tags = %v", draft.Tags)
			}
			if draft.FallbackUsed {
				t.Error("ParseDraft() set FallbackUsed on a model draft")
			}
		})
	}
}

func TestParseDraftMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty reply", text: ""},
		{name: "no JSON", text: "I could not transform this problem."},
		{name: "invalid JSON", text: `{"statement": "x", "hints":`},
		{
			name: "missing proof",
			text: `{"statement": "s", "hints": "h", "tags": ["a", "b", "c"]}`,
		},
		{
			name: "two tags",
			text: `{"statement": "s", "hints": "h", "proof": "p", "tags": ["a", "b"]}`,
		},
		{
			name: "four tags",
			text: `{"statement": "s", "hints": "h", "proof": "p", "tags": ["a", "b", "c", "d"]}`,
		},
		{
			name: "empty tag",
			text: `{"statement": "s", "hints": "h", "proof": "p", "tags": ["a", "", "c"]}`,
		},
		{
			name: "empty statement",
			text: `{"statement": "", "hints": "h", "proof": "p", "tags": ["a", "b", "c"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDraft(tt.text)
			if !errors.Is(err, domain.ErrMalformedDraft) {
				t.Errorf("ParseDraft() error = %v, want ErrMalformedDraft", err)
			}
		})
	}
}

func TestParseDraftClearsFallbackFlag(t *testing.T) {
	text := `{"statement": "s", "hints": "h", "proof": "p", "tags": ["a", "b", "c"], "fallback_used": true}`

	draft, err := ParseDraft(text)
	if err != nil {
		t.Fatalf("ParseDraft() error = %v", err)
	}
	if draft.FallbackUsed {
		t.Error("ParseDraft() kept model-supplied fallback_used flag")
	}
}

func TestBuildPrompt(t *testing.T) {
	candidate := &domain.Candidate{
		Title:      "Show that every Cauchy sequence in R converges",
		Body:       "I am stuck on proving completeness of the reals.",
		AnswerText: "Use boundedness plus Bolzano-Weierstrass.",
		Tags:       []string{"real-analysis", "sequences"},
	}

	prompt := buildPrompt(candidate)

	for _, want := range []string{
		"Show that every Cauchy sequence in R converges",
		"proving completeness",
		"Accepted answer:",
		"real-analysis, sequences",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("buildPrompt() missing %q", want)
		}
	}
}

func TestBuildPromptWithoutAnswer(t *testing.T) {
	candidate := &domain.Candidate{
		Title: "Compute the fundamental group of the circle",
		Body:  "What is pi_1(S^1)?",
	}

	prompt := buildPrompt(candidate)

	if strings.Contains(prompt, "Accepted answer:") {
		t.Error("buildPrompt() rendered an empty answer section")
	}
	if strings.Contains(prompt, "Archive tags:") {
		t.Error("buildPrompt() rendered an empty tag section")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "bare object", text: `{"a": 1}`, want: `{"a": 1}`},
		{name: "surrounding prose", text: `sure: {"a": 1} done`, want: `{"a": 1}`},
		{name: "nested braces", text: `{"a": {"b": 2}}`, want: `{"a": {"b": 2}}`},
		{name: "no object", text: "nothing here", want: ""},
		{name: "unbalanced", text: "}{", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.text); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
