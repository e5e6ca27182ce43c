package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CardTagCount is the exact number of tags a card draft must carry.
const CardTagCount = 3

// Candidate is one archived problem selected as transformation input.
type Candidate struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Body              string    `json:"body"`
	Tags              []string  `json:"tags"`
	Score             int       `json:"score"`
	AnswerText        string    `json:"answer_text"`
	HasAcceptedAnswer bool      `json:"has_accepted_answer"`
	IsClosed          bool      `json:"is_closed"`
	Source            string    `json:"source"`
	SourceRef         string    `json:"source_ref"`
	AskedAt           time.Time `json:"asked_at"`
}

// FetchCriteria constrains candidate selection. MustHaveAcceptedAnswer and
// ExcludeClosed are always true for automation fetches.
type FetchCriteria struct {
	TagGroup               []string
	RecencyWindow          time.Duration
	ScoreMin               int
	ScoreMax               int
	MustHaveAcceptedAnswer bool
	ExcludeClosed          bool
}

// CardDraft is the structured transformer output: the three sides of a card
// plus its tags.
type CardDraft struct {
	Statement    string   `json:"statement"`
	Hints        string   `json:"hints"`
	Proof        string   `json:"proof"`
	Tags         []string `json:"tags"`
	FallbackUsed bool     `json:"fallback_used,omitempty"`
}

// Validate enforces the strict draft schema. A draft failing validation is
// malformed transformer output.
func (d CardDraft) Validate() error {
	if d.Statement == "" {
		return fmt.Errorf("%w: statement is required", ErrMalformedDraft)
	}
	if d.Hints == "" {
		return fmt.Errorf("%w: hints are required", ErrMalformedDraft)
	}
	if d.Proof == "" {
		return fmt.Errorf("%w: proof is required", ErrMalformedDraft)
	}
	if len(d.Tags) != CardTagCount {
		return fmt.Errorf("%w: expected %d tags, got %d", ErrMalformedDraft, CardTagCount, len(d.Tags))
	}
	for _, tag := range d.Tags {
		if tag == "" {
			return fmt.Errorf("%w: empty tag", ErrMalformedDraft)
		}
	}
	return nil
}

// Card is a published three-sided card.
type Card struct {
	ID               uuid.UUID `db:"id"                json:"id"`
	Slug             string    `db:"slug"              json:"slug"`
	Statement        string    `db:"statement"         json:"statement"`
	Hints            string    `db:"hints"             json:"hints"`
	Proof            string    `db:"proof"             json:"proof"`
	Tags             []string  `db:"tags"              json:"tags"`
	PublisherID      uuid.UUID `db:"publisher_id"      json:"publisher_id"`
	SourceRef        string    `db:"source_ref"        json:"source_ref"`
	EndorsementCount int       `db:"endorsement_count" json:"endorsement_count"`
	FallbackUsed     bool      `db:"fallback_used"     json:"fallback_used"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
}
