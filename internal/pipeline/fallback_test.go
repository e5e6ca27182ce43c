package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/amirb101/three-sided-sub001/internal/domain"
)

func testCandidate() *domain.Candidate {
	return &domain.Candidate{
		ID:                "9041522",
		Title:             "Show that every Cauchy sequence in R converges",
		Body:              "I am stuck showing completeness from the Cauchy criterion.",
		Tags:              []string{"real-analysis", "sequences-and-series"},
		Score:             57,
		AnswerText:        "Bound the sequence, extract a convergent subsequence, then squeeze.",
		HasAcceptedAnswer: true,
		Source:            "archive",
		SourceRef:         "archive:9041522",
		AskedAt:           time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFallbackDraft(t *testing.T) {
	draft := FallbackDraft(testCandidate())

	if err := draft.Validate(); err != nil {
		t.Fatalf("FallbackDraft() produced invalid draft: %v", err)
	}
	if !draft.FallbackUsed {
		t.Error("FallbackDraft() FallbackUsed = false, want true")
	}
	if draft.Statement != "Show that every Cauchy sequence in R converges" {
		t.Errorf("FallbackDraft() Statement = %q", draft.Statement)
	}
	if !strings.HasPrefix(draft.Proof, "Bound the sequence") {
		t.Errorf("FallbackDraft() Proof should start from the answer text, got %q", draft.Proof)
	}
	if !strings.Contains(draft.Proof, fallbackProofNote) {
		t.Errorf("FallbackDraft() Proof missing review note: %q", draft.Proof)
	}
	if len(draft.Tags) != domain.CardTagCount {
		t.Errorf("FallbackDraft() tag count = %d, want %d", len(draft.Tags), domain.CardTagCount)
	}
}

func TestFallbackDraftUsesBodyWithoutAnswer(t *testing.T) {
	c := testCandidate()
	c.AnswerText = "  "

	draft := FallbackDraft(c)
	if !strings.HasPrefix(draft.Proof, "I am stuck showing completeness") {
		t.Errorf("FallbackDraft() Proof should fall back to the body, got %q", draft.Proof)
	}
}

func TestFallbackDraftTruncatesLongFields(t *testing.T) {
	c := testCandidate()
	c.Title = strings.Repeat("long title ", 30)
	c.AnswerText = strings.Repeat("long answer ", 100)

	draft := FallbackDraft(c)
	if got := len([]rune(draft.Statement)); got > fallbackStatementMax {
		t.Errorf("FallbackDraft() statement length = %d, want <= %d", got, fallbackStatementMax)
	}
	if !strings.HasSuffix(draft.Statement, "...") {
		t.Errorf("FallbackDraft() truncated statement missing ellipsis: %q", draft.Statement)
	}
	if got := len([]rune(draft.Proof)); got > fallbackProofMax+len(fallbackProofNote)+2 {
		t.Errorf("FallbackDraft() proof length = %d over budget", got)
	}
}

func TestFallbackDraftEmptyCandidate(t *testing.T) {
	draft := FallbackDraft(&domain.Candidate{})

	if err := draft.Validate(); err != nil {
		t.Fatalf("FallbackDraft() on empty candidate invalid: %v", err)
	}
	if draft.Statement != "Imported practice problem" {
		t.Errorf("FallbackDraft() Statement = %q", draft.Statement)
	}
	if draft.Proof != fallbackProofNote {
		t.Errorf("FallbackDraft() Proof = %q", draft.Proof)
	}
}

func TestFallbackDraftDeterministic(t *testing.T) {
	a := FallbackDraft(testCandidate())
	b := FallbackDraft(testCandidate())

	if a.Statement != b.Statement || a.Hints != b.Hints || a.Proof != b.Proof {
		t.Error("FallbackDraft() is not deterministic for identical candidates")
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			t.Errorf("FallbackDraft() tags differ at %d: %q vs %q", i, a.Tags[i], b.Tags[i])
		}
	}
}
