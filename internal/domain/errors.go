package domain

import "errors"

// ErrNotFound is returned when an entity is not found in the database.
var ErrNotFound = errors.New("entity not found")

// ErrNoSettings is returned when the automation settings row has not been
// created yet. Terminal: operator intervention required.
var ErrNoSettings = errors.New("no automation settings record")

// ErrNoActivePublishers is returned when the bot directory holds no active
// publisher identities. Terminal: operator intervention required.
var ErrNoActivePublishers = errors.New("no active publishers")

// ErrNoCandidate is returned when the content source has no candidate matching
// the fetch criteria. Transient: the archive refills over time.
var ErrNoCandidate = errors.New("no content candidate matched criteria")

// ErrMalformedDraft is returned when transformer output violates the draft
// schema.
var ErrMalformedDraft = errors.New("malformed card draft")

// ErrSlugExhausted is returned when slug collision resolution runs out of
// attempts.
var ErrSlugExhausted = errors.New("slug candidates exhausted")

// ErrRunInProgress is returned when the settings claim is already held by
// another run.
var ErrRunInProgress = errors.New("automation run already in progress")

// FailureKind buckets a run failure for reporting and HTTP mapping.
type FailureKind string

const (
	// FailureConfiguration covers missing settings and empty publisher sets.
	FailureConfiguration FailureKind = "configuration"
	// FailureValidation covers malformed-argument and permission failures.
	FailureValidation FailureKind = "validation"
	// FailureTransient covers timeouts, rate limits, and upstream errors,
	// including unclassified failures.
	FailureTransient FailureKind = "transient"
)
