// Package memory provides an in-memory corpus store for tests and
// DSN-less development runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// Store implements corpus.Store with maps guarded by one mutex. ApplyCycle
// mutates a scratch copy and swaps it in at the end, mirroring the
// transactional all-or-nothing of the Postgres store.
type Store struct {
	mu        sync.Mutex
	companies map[string]corpus.Company
	// postings indexed company -> identity key
	postings map[string]map[string]corpus.JobPosting
}

// New returns an empty store.
func New() *Store {
	return &Store{
		companies: make(map[string]corpus.Company),
		postings:  make(map[string]map[string]corpus.JobPosting),
	}
}

func (s *Store) UpsertCompany(_ context.Context, c corpus.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
	return nil
}

func (s *Store) GetCompany(_ context.Context, id string) (corpus.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return corpus.Company{}, corpus.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCompanies(_ context.Context) ([]corpus.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]corpus.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ActiveKeys(_ context.Context, companyID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key, p := range s.postings[companyID] {
		if p.IsActive {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) ApplyCycle(_ context.Context, companyID string, diff corpus.Diff, byKey map[string]corpus.NormalizedPosting, now time.Time) (corpus.CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.postings[companyID]
	next := make(map[string]corpus.JobPosting, len(current)+len(diff.ToCreate))
	for k, p := range current {
		next[k] = p
	}

	result := corpus.CycleResult{CompanyID: companyID}

	for _, key := range diff.ToCreate {
		np := byKey[key]
		if prev, ok := next[key]; ok {
			// closed key came back: revive in place, first_seen preserved
			result.Reopened++
			next[key] = fill(prev, np, now)
			result.Created++
			continue
		}
		next[key] = fill(corpus.JobPosting{
			ID:          uuid.NewString(),
			CompanyID:   companyID,
			IdentityKey: key,
			FirstSeenAt: now,
		}, np, now)
		result.Created++
	}

	for _, key := range diff.ToRenew {
		prev, ok := next[key]
		if !ok {
			continue
		}
		next[key] = fill(prev, byKey[key], now)
		result.Renewed++
	}

	for _, key := range diff.ToClose {
		prev, ok := next[key]
		if !ok || !prev.IsActive {
			continue
		}
		closedAt := now
		prev.IsActive = false
		prev.ClosedAt = &closedAt
		next[key] = prev
		result.Closed++
	}

	s.postings[companyID] = next
	return result, nil
}

// fill overwrites the observable fields from np and stamps the sighting.
func fill(p corpus.JobPosting, np corpus.NormalizedPosting, now time.Time) corpus.JobPosting {
	p.Title = np.Title
	p.LocationText = np.LocationText
	p.DatePostedRaw = np.DatePostedRaw
	p.DescriptionText = np.DescriptionText
	p.SourceURL = np.SourceURL
	p.CanonicalURL = np.CanonicalURL
	p.IsActive = true
	p.LastSeenAt = now
	p.ClosedAt = nil
	return p
}

func (s *Store) Search(_ context.Context, params corpus.SearchParams, match func(text string) bool) ([]corpus.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []corpus.JobPosting
	for companyID, byKey := range s.postings {
		if params.CompanyID != "" && companyID != params.CompanyID {
			continue
		}
		for _, p := range byKey {
			if params.Active != nil && p.IsActive != *params.Active {
				continue
			}
			if params.Since != nil && p.LastSeenAt.Before(*params.Since) {
				continue
			}
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastSeenAt.After(all[j].LastSeenAt) })

	var out []corpus.JobPosting
	for _, p := range all {
		if match != nil && !match(p.SearchText()) {
			continue
		}
		out = append(out, p)
		if params.Limit > 0 && len(out) >= params.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetPosting(_ context.Context, id string) (corpus.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, byKey := range s.postings {
		for _, p := range byKey {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return corpus.JobPosting{}, corpus.ErrNotFound
}
