package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joblens/jobcorpus/internal/corpus"
	"github.com/joblens/jobcorpus/internal/metrics"
	"github.com/joblens/jobcorpus/internal/normalize"
)

// ExtractorLookup resolves an extractor capability name.
type ExtractorLookup interface {
	Lookup(name string) (corpus.Extractor, error)
}

// Runner executes observation cycles. Each Runner owns its own in-flight
// registry, so two Runners never share overlap state.
type Runner struct {
	store      corpus.Store
	fetcher    corpus.Fetcher
	extractors ExtractorLookup
	clock      corpus.Clock
	log        *zap.Logger
	inflight   *inflight
}

// NewRunner wires a cycle runner.
func NewRunner(store corpus.Store, fetcher corpus.Fetcher, extractors ExtractorLookup, clock corpus.Clock, log *zap.Logger) *Runner {
	return &Runner{
		store:      store,
		fetcher:    fetcher,
		extractors: extractors,
		clock:      clock,
		log:        log,
		inflight:   newInflight(),
	}
}

// RunCycle observes one company once: fetch, extract, normalize, diff
// against active keys, and apply transactionally. A failed fetch or
// extraction aborts before any store write, so failures never close
// postings. Returns corpus.ErrCycleInFlight when a cycle for the company
// is already running.
func (r *Runner) RunCycle(ctx context.Context, companyID string) (corpus.CycleResult, error) {
	if !r.inflight.tryAcquire(companyID) {
		metrics.CyclesSkipped.Inc()
		r.log.Info("cycle skipped, already in flight", zap.String("company_id", companyID))
		return corpus.CycleResult{}, corpus.ErrCycleInFlight
	}
	defer r.inflight.release(companyID)

	result, err := r.runLocked(ctx, companyID)
	if err != nil {
		metrics.CyclesFailed.Inc()
		r.log.Error("cycle failed", zap.String("company_id", companyID), zap.Error(err))
		return corpus.CycleResult{}, err
	}

	metrics.CyclesSucceeded.Inc()
	metrics.PostingsCreated.Add(float64(result.Created))
	metrics.PostingsClosed.Add(float64(result.Closed))
	r.log.Info("cycle committed",
		zap.String("company_id", companyID),
		zap.Int("created", result.Created),
		zap.Int("renewed", result.Renewed),
		zap.Int("reopened", result.Reopened),
		zap.Int("closed", result.Closed),
		zap.Int("discarded", result.Discarded))
	return result, nil
}

func (r *Runner) runLocked(ctx context.Context, companyID string) (corpus.CycleResult, error) {
	company, err := r.store.GetCompany(ctx, companyID)
	if err != nil {
		return corpus.CycleResult{}, fmt.Errorf("load company %s: %w", companyID, err)
	}

	content, err := r.fetcher.Fetch(ctx, company.Source)
	if err != nil {
		return corpus.CycleResult{}, err
	}

	extractor, err := r.extractors.Lookup(company.Source.Extractor)
	if err != nil {
		return corpus.CycleResult{}, err
	}
	candidates, err := extractor.Extract(content)
	if err != nil {
		return corpus.CycleResult{}, err
	}

	// A successful fetch with zero candidates is an empty board and
	// legitimately closes everything still active.
	observed, discarded := normalize.Candidates(candidates, company.Source)
	metrics.NormalizeDiscards.Add(float64(discarded))

	existing, err := r.store.ActiveKeys(ctx, companyID)
	if err != nil {
		return corpus.CycleResult{}, err
	}

	diff := DiffKeys(observed, existing)
	result, err := r.store.ApplyCycle(ctx, companyID, diff, observed, r.clock.Now())
	if err != nil {
		return corpus.CycleResult{}, err
	}
	result.Discarded = discarded
	return result, nil
}
