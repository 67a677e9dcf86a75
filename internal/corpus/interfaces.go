package corpus

import (
	"context"
	"time"
)

// Store is the persistence boundary for companies and postings.
// ApplyCycle runs in a single transaction; a failure leaves the
// company's postings untouched.
type Store interface {
	UpsertCompany(ctx context.Context, company Company) error
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)

	// ActiveKeys returns the identity keys of the company's active
	// postings, the "existing" side of a diff.
	ActiveKeys(ctx context.Context, companyID string) ([]string, error)

	// ApplyCycle persists a diff: creates (or reopens), renews, and
	// closes, all stamped with now.
	ApplyCycle(ctx context.Context, companyID string, diff Diff, byKey map[string]NormalizedPosting, now time.Time) (CycleResult, error)

	// Search applies the plain filters in SQL order (most recently
	// seen first) and the match callback per row before the limit.
	Search(ctx context.Context, params SearchParams, match func(text string) bool) ([]JobPosting, error)
	GetPosting(ctx context.Context, id string) (JobPosting, error)
}

// Fetcher retrieves a source's page, honoring per-domain rate limits.
type Fetcher interface {
	Fetch(ctx context.Context, src SourceConfig) (RawContent, error)
}

// Extractor parses fetched content into posting candidates.
type Extractor interface {
	Extract(content RawContent) ([]Candidate, error)
}

// Clock abstracts time for deterministic lifecycle tests.
type Clock interface {
	Now() time.Time
}
