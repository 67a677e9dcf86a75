// Package scheduler triggers ingestion sweeps on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// CycleRunner runs one company observation cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, companyID string) (corpus.CycleResult, error)
}

// CompanyLister enumerates the companies to sweep.
type CompanyLister interface {
	ListCompanies(ctx context.Context) ([]corpus.Company, error)
}

// Scheduler sweeps all companies on a cron schedule through a bounded
// worker pool. Per-company overlap is the runner's concern; a sweep that
// hits an in-flight company just moves on.
type Scheduler struct {
	runner    CycleRunner
	companies CompanyLister
	schedule  string
	workers   int
	log       *zap.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// New builds a scheduler. workers bounds how many cycles run at once.
func New(runner CycleRunner, companies CompanyLister, schedule string, workers int, log *zap.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		runner:    runner,
		companies: companies,
		schedule:  schedule,
		workers:   workers,
		log:       log,
	}
}

// Start validates the schedule and begins ticking. A Scheduler with an
// empty schedule is a no-op; cycles then run only on demand.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.log.Info("scheduler disabled, no cron schedule configured")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.String("schedule", s.schedule), zap.Int("workers", s.workers))
	return nil
}

// Sweep runs one cycle per company through the worker pool and blocks
// until the sweep completes.
func (s *Scheduler) Sweep(ctx context.Context) {
	companies, err := s.companies.ListCompanies(ctx)
	if err != nil {
		s.log.Error("sweep aborted, cannot list companies", zap.Error(err))
		return
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, company := range companies {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			// failures and in-flight skips are logged by the runner
			_, _ = s.runner.RunCycle(ctx, id)
		}(company.ID)
	}
	wg.Wait()
}

// Stop halts ticking and waits for in-flight cycles started by the cron.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.log.Info("scheduler stopped")
	}
}
