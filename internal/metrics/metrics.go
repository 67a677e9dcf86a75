// Package metrics exposes Prometheus counters for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesSucceeded counts ingestion cycles that committed.
	CyclesSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobcorpus_cycles_succeeded_total",
		Help: "The total number of ingestion cycles that committed.",
	})
	// CyclesFailed counts cycles aborted by fetch, extraction or persistence errors.
	CyclesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobcorpus_cycles_failed_total",
		Help: "The total number of ingestion cycles that failed.",
	})
	// CyclesSkipped counts cycles skipped because one was already in flight.
	CyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobcorpus_cycles_skipped_total",
		Help: "The total number of ingestion cycles skipped due to overlap.",
	})
	// PostingsCreated counts postings created on first observation.
	PostingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobcorpus_postings_created_total",
		Help: "The total number of postings created.",
	})
	// PostingsClosed counts postings transitioned to inactive.
	PostingsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobcorpus_postings_closed_total",
		Help: "The total number of postings closed.",
	})
	// FetchRetries counts retried fetch attempts.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobcorpus_fetch_retries_total",
		Help: "The total number of retried fetch attempts.",
	})
	// NormalizeDiscards counts candidates dropped during normalization.
	NormalizeDiscards = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobcorpus_normalize_discards_total",
		Help: "The total number of candidates discarded during normalization.",
	})
)
