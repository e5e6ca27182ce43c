// Package pipeline runs the content-acquisition sequence: fetch one archive
// problem, transform it into a three-sided card, publish it under a chosen
// publisher identity, and update the automation bookkeeping. Runs execute
// strictly in step order; a step failure ends the run and hands the cause to
// the retry decision.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/amirb101/three-sided-sub001/internal/classify"
	"github.com/amirb101/three-sided-sub001/internal/domain"
	"github.com/amirb101/three-sided-sub001/internal/logger"
	"github.com/amirb101/three-sided-sub001/internal/schedule"
)

// Config carries the quality band applied to every fetch.
type Config struct {
	RecencyWindow time.Duration
	ScoreMin      int
	ScoreMax      int
}

// Deps wires the orchestrator's collaborators. Now and Intn default to the
// real clock and math/rand when nil; tests inject both.
type Deps struct {
	Store       SettingsStore
	Directory   BotDirectory
	Source      ContentSource
	Transformer Transformer
	Sink        PublishSink
	Recorder    Recorder
	Logger      logger.Logger
	Config      Config
	Now         func() time.Time
	Intn        func(n int) int
}

// Orchestrator executes one full automation run per Run call. It holds no
// per-run state; concurrent callers are serialized by the settings claim,
// not by the orchestrator itself.
type Orchestrator struct {
	store       SettingsStore
	directory   BotDirectory
	source      ContentSource
	transformer Transformer
	sink        PublishSink
	rec         Recorder
	log         logger.Logger
	cfg         Config
	now         func() time.Time
	intn        func(n int) int
}

func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		store:       deps.Store,
		directory:   deps.Directory,
		source:      deps.Source,
		transformer: deps.Transformer,
		sink:        deps.Sink,
		rec:         deps.Recorder,
		log:         deps.Logger,
		cfg:         deps.Config,
		now:         deps.Now,
		intn:        deps.Intn,
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.intn == nil {
		o.intn = rand.Intn
	}
	return o
}

// Run executes the step sequence once and returns the outcome. Scheduled
// runs re-validate the gate as their timing check; manual runs bypass it.
// Every run first claims the settings row, so at most one run is in flight
// at a time; a lost claim race returns a skipped result carrying
// domain.ErrRunInProgress and leaves no audit trail.
func (o *Orchestrator) Run(ctx context.Context, trigger Trigger) RunResult {
	runID := uuid.New()
	start := o.now()
	res := RunResult{RunID: runID, Trigger: trigger, StartedAt: start}

	log := o.log.With(
		logger.String("run_id", runID.String()),
		logger.String("trigger", string(trigger)),
	)

	// Claim before the first audit row: a run that lost the claim race never
	// started as far as the trail is concerned.
	if err := o.store.Claim(ctx, runID, start); err != nil {
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			log.Warn("run refused, another run holds the claim")
			return o.finish(res, domain.RunStatusSkipped, "run already in progress", err)
		case errors.Is(err, domain.ErrNoSettings):
			// No settings row means no transition writes are possible, but
			// the audit trail still records the attempt.
			o.rec.RecordRun(ctx, runID, domain.RunStatusStarted, "trigger="+string(trigger))
			o.rec.RecordStep(ctx, runID, domain.StepLoadSettings, domain.StepOutcomeFailure, err.Error())
			o.rec.RecordRun(ctx, runID, domain.RunStatusFailed, err.Error())
			log.Error("automation settings missing", logger.Error(err))
			res.FailedStep = domain.StepLoadSettings
			res.Kind = domain.FailureConfiguration
			return o.finish(res, domain.RunStatusFailed, err.Error(), err)
		default:
			log.Error("failed to claim settings row", logger.Error(err))
			res.Kind = domain.FailureTransient
			return o.finish(res, domain.RunStatusFailed, "failed to claim run: "+err.Error(), err)
		}
	}

	o.rec.RecordRun(ctx, runID, domain.RunStatusStarted, "trigger="+string(trigger))
	log.Info("run started")

	// load_settings
	settings, err := o.store.Get(ctx)
	if err != nil {
		return o.fail(ctx, log, res, domain.Settings{}, domain.StepLoadSettings, err)
	}
	o.rec.RecordStep(ctx, runID, domain.StepLoadSettings, domain.StepOutcomeSuccess,
		fmt.Sprintf("enabled=%t interval=%dm retry_count=%d", settings.Enabled, settings.IntervalMinutes, settings.CurrentRetryCount))

	// timing_check
	now := o.now()
	if trigger == TriggerManual {
		o.rec.RecordStep(ctx, runID, domain.StepTimingCheck, domain.StepOutcomeSuccess, "manual trigger, gate bypassed")
	} else {
		decision := schedule.Decide(settings, now)
		o.rec.RecordStep(ctx, runID, domain.StepTimingCheck, domain.StepOutcomeSuccess, decision.Describe())
		if !decision.ShouldRun {
			if err := o.store.ReleaseClaim(ctx, runID); err != nil {
				log.Error("failed to release claim after gate refusal", logger.Error(err))
			}
			o.rec.RecordRun(ctx, runID, domain.RunStatusSkipped, decision.Describe())
			log.Info("run skipped", logger.String("reason", decision.Reason))
			return o.finish(res, domain.RunStatusSkipped, decision.Reason, nil)
		}
	}

	// A run executing with a pending retry is the attempt that retry booked;
	// the retrying event links it back to the failure that scheduled it.
	if settings.RetryPending() {
		reason := ""
		if settings.LastRetryReason != nil {
			reason = *settings.LastRetryReason
		}
		o.rec.RecordRun(ctx, runID, domain.RunStatusRetrying,
			fmt.Sprintf("attempt %d of %d after: %s", settings.CurrentRetryCount, settings.MaxRetries, reason))
	}

	// load_publishers
	publishers, err := o.directory.ListActive(ctx)
	if err != nil {
		return o.fail(ctx, log, res, settings, domain.StepLoadPublishers, err)
	}
	if len(publishers) == 0 {
		return o.fail(ctx, log, res, settings, domain.StepLoadPublishers, domain.ErrNoActivePublishers)
	}
	o.rec.RecordStep(ctx, runID, domain.StepLoadPublishers, domain.StepOutcomeSuccess,
		fmt.Sprintf("%d active publishers", len(publishers)))

	// select_publisher
	publisher := publishers[o.intn(len(publishers))]
	res.Publisher = &publisher
	o.rec.RecordStep(ctx, runID, domain.StepSelectPublisher, domain.StepOutcomeSuccess,
		fmt.Sprintf("selected %s (%s)", publisher.DisplayName, publisher.ID))
	log = log.With(logger.String("publisher", publisher.DisplayName))

	// fetch_content
	criteria := o.pickCriteria()
	candidate, err := o.source.FetchCandidate(ctx, criteria)
	if err != nil {
		return o.fail(ctx, log, res, settings, domain.StepFetchContent, err)
	}
	if candidate == nil {
		err = fmt.Errorf("%w: tags=%v", domain.ErrNoCandidate, criteria.TagGroup)
		return o.fail(ctx, log, res, settings, domain.StepFetchContent, err)
	}
	res.SourceRef = candidate.SourceRef
	o.rec.RecordStep(ctx, runID, domain.StepFetchContent, domain.StepOutcomeSuccess,
		fmt.Sprintf("candidate %s score=%d tags=%v", candidate.SourceRef, candidate.Score, criteria.TagGroup))

	// transform_content, with one deterministic fallback on a malformed
	// draft. Transport failures go to the retry decision instead.
	draft, err := o.transformer.Transform(ctx, candidate)
	if err == nil && draft == nil {
		err = fmt.Errorf("%w: transformer returned no draft", domain.ErrMalformedDraft)
	}
	if err == nil {
		err = draft.Validate()
	}
	transformMsg := "transformed into statement, hints and proof"
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedDraft) {
			return o.fail(ctx, log, res, settings, domain.StepTransformContent, err)
		}
		log.Warn("malformed draft, applying fallback transformation", logger.Error(err))
		draft = FallbackDraft(candidate)
		transformMsg = "fallback transformation applied: " + err.Error()
	}
	res.FallbackUsed = draft.FallbackUsed
	o.rec.RecordStep(ctx, runID, domain.StepTransformContent, domain.StepOutcomeSuccess, transformMsg)

	// publish_content
	slug, err := o.uniqueSlug(ctx, draft.Statement)
	if err != nil {
		return o.fail(ctx, log, res, settings, domain.StepPublishContent, err)
	}
	card := &domain.Card{
		ID:           uuid.New(),
		Slug:         slug,
		Statement:    draft.Statement,
		Hints:        draft.Hints,
		Proof:        draft.Proof,
		Tags:         draft.Tags,
		PublisherID:  publisher.ID,
		SourceRef:    candidate.SourceRef,
		FallbackUsed: draft.FallbackUsed,
		CreatedAt:    o.now(),
	}
	if err := o.sink.Publish(ctx, card); err != nil {
		return o.fail(ctx, log, res, settings, domain.StepPublishContent, err)
	}
	res.Card = card
	o.rec.RecordStep(ctx, runID, domain.StepPublishContent, domain.StepOutcomeSuccess,
		fmt.Sprintf("published card %s slug=%s", card.ID, slug))

	// self_endorse is non-critical: a failure is recorded and logged but
	// never ends the run or reaches the retry decision.
	if err := o.sink.Endorse(ctx, card.ID, publisher.ID); err != nil {
		o.rec.RecordStep(ctx, runID, domain.StepSelfEndorse, domain.StepOutcomeFailure,
			"endorsement failed: "+err.Error())
		log.Warn("self endorsement failed, continuing", logger.Error(err))
	} else {
		card.EndorsementCount = 1
		o.rec.RecordStep(ctx, runID, domain.StepSelfEndorse, domain.StepOutcomeSuccess,
			"publisher endorsed own card")
	}

	// update_stats
	completed := o.now()
	stats := domain.SuccessStats{
		CompletedAt: completed,
		NextRun:     completed.Add(settings.Interval()),
		PostID:      card.ID.String(),
		PublisherID: publisher.ID,
	}
	if err := o.store.RecordSuccess(ctx, runID, stats); err != nil {
		return o.fail(ctx, log, res, settings, domain.StepUpdateStats, err)
	}
	o.rec.RecordStep(ctx, runID, domain.StepUpdateStats, domain.StepOutcomeSuccess,
		fmt.Sprintf("total_posts=%d next_run=%s", settings.TotalPosts+1, stats.NextRun.Format(time.RFC3339)))

	summary := fmt.Sprintf("published %q as %s", slug, publisher.DisplayName)
	if res.FallbackUsed {
		summary += " (fallback transform)"
	}
	o.rec.RecordRun(ctx, runID, domain.RunStatusSuccess, summary)
	log.Info("run succeeded",
		logger.String("slug", slug),
		logger.Bool("fallback_used", res.FallbackUsed),
		logger.Duration("duration", o.now().Sub(start)),
	)
	return o.finish(res, domain.RunStatusSuccess, summary, nil)
}

// fail records the step failure and applies the retry decision: terminal
// failure for non-retryable causes or an exhausted budget, otherwise a
// scheduled retry with exponential backoff. Steps after the failed one emit
// nothing.
func (o *Orchestrator) fail(ctx context.Context, log logger.Logger, res RunResult, s domain.Settings, step domain.StepName, cause error) RunResult {
	o.rec.RecordStep(ctx, res.RunID, step, domain.StepOutcomeFailure, cause.Error())

	now := o.now()
	kind, rule := failureKind(cause)
	res.FailedStep = step
	res.Kind = kind
	res.Retryable = kind == domain.FailureTransient
	log = log.With(
		logger.String("step", string(step)),
		logger.String("classifier_rule", rule),
		logger.String("failure_kind", string(kind)),
	)

	if kind != domain.FailureTransient || s.CurrentRetryCount >= s.MaxRetries {
		reason := cause.Error()
		msg := reason
		if kind == domain.FailureTransient {
			msg = fmt.Sprintf("retry budget exhausted after %d attempts: %s", s.CurrentRetryCount, reason)
		}
		if err := o.store.RecordTerminalFailure(ctx, res.RunID, reason, now); err != nil {
			log.Error("failed to record terminal failure", logger.Error(err))
		}
		o.rec.RecordRun(ctx, res.RunID, domain.RunStatusFailed, msg)
		log.Error("run failed", logger.Error(cause))
		return o.finish(res, domain.RunStatusFailed, msg, cause)
	}

	attempt := s.CurrentRetryCount + 1
	retryAt := schedule.NextRetry(attempt, now)
	if err := o.store.ScheduleRetry(ctx, res.RunID, attempt, cause.Error(), retryAt, now); err != nil {
		log.Error("failed to schedule retry", logger.Error(err))
	}
	msg := fmt.Sprintf("retry %d of %d at %s: %s", attempt, s.MaxRetries, retryAt.Format(time.RFC3339), cause.Error())
	o.rec.RecordRun(ctx, res.RunID, domain.RunStatusRetryScheduled, msg)
	log.Warn("retry scheduled",
		logger.Int("attempt", attempt),
		logger.Time("retry_at", retryAt),
		logger.Error(cause),
	)
	res.RetryAt = &retryAt
	return o.finish(res, domain.RunStatusRetryScheduled, msg, cause)
}

func (o *Orchestrator) finish(res RunResult, status domain.RunStatus, reason string, err error) RunResult {
	res.Status = status
	res.Reason = reason
	res.Err = err
	res.FinishedAt = o.now()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)
	return res
}

// failureKind folds the configuration sentinels and the classifier verdict
// into the failure taxonomy. Missing settings and an empty publisher set are
// operator problems; retrying cannot fix them no matter what the message
// classifier would say.
func failureKind(err error) (domain.FailureKind, string) {
	if errors.Is(err, domain.ErrNoSettings) || errors.Is(err, domain.ErrNoActivePublishers) {
		return domain.FailureConfiguration, "configuration"
	}
	v := classify.Error(err)
	if v.Retryable {
		return domain.FailureTransient, v.Rule
	}
	return domain.FailureValidation, v.Rule
}
