package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joblens/jobcorpus/internal/corpus"
)

func np(key, title string) corpus.NormalizedPosting {
	return corpus.NormalizedPosting{IdentityKey: key, Title: title, CanonicalURL: key}
}

func byKey(nps ...corpus.NormalizedPosting) map[string]corpus.NormalizedPosting {
	m := make(map[string]corpus.NormalizedPosting, len(nps))
	for _, n := range nps {
		m[n.IdentityKey] = n
	}
	return m
}

func TestApplyCycleLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)
	t2 := t1.Add(24 * time.Hour)

	// first observation: A and B appear
	res, err := s.ApplyCycle(ctx, "acme",
		corpus.Diff{ToCreate: []string{"A", "B"}},
		byKey(np("A", "Engineer"), np("B", "Designer")), t0)
	require.NoError(t, err)
	require.Equal(t, corpus.CycleResult{CompanyID: "acme", Created: 2}, res)

	keys, err := s.ActiveKeys(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, keys)

	// second observation: B renews, D appears, A vanishes
	res, err = s.ApplyCycle(ctx, "acme",
		corpus.Diff{ToCreate: []string{"D"}, ToRenew: []string{"B"}, ToClose: []string{"A"}},
		byKey(np("B", "Senior Designer"), np("D", "Analyst")), t1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	require.Equal(t, 1, res.Renewed)
	require.Equal(t, 1, res.Closed)
	require.Zero(t, res.Reopened)

	keys, err = s.ActiveKeys(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, []string{"B", "D"}, keys)

	active := false
	closed, err := s.Search(ctx, corpus.SearchParams{CompanyID: "acme", Active: &active}, nil)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	require.Equal(t, "A", closed[0].IdentityKey)
	require.NotNil(t, closed[0].ClosedAt)
	require.Equal(t, t1, *closed[0].ClosedAt)
	require.Equal(t, t0, closed[0].FirstSeenAt, "closing leaves sightings untouched")
	require.Equal(t, t0, closed[0].LastSeenAt)
	firstID := closed[0].ID

	// third observation: A reappears
	res, err = s.ApplyCycle(ctx, "acme",
		corpus.Diff{ToCreate: []string{"A"}, ToRenew: []string{"B", "D"}},
		byKey(np("A", "Engineer II"), np("B", "Senior Designer"), np("D", "Analyst")), t2)
	require.NoError(t, err)
	require.Equal(t, 1, res.Reopened)

	reopened, err := s.GetPosting(ctx, firstID)
	require.NoError(t, err)
	require.True(t, reopened.IsActive)
	require.Nil(t, reopened.ClosedAt, "reopening clears the close timestamp")
	require.Equal(t, t0, reopened.FirstSeenAt, "reopening preserves first sighting")
	require.Equal(t, t2, reopened.LastSeenAt)
	require.Equal(t, "Engineer II", reopened.Title)
}

func TestApplyCycleIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.ApplyCycle(ctx, "acme", corpus.Diff{ToCreate: []string{"A"}}, byKey(np("A", "Engineer")), now)
	require.NoError(t, err)

	// same observation again: pure renew, nothing created or closed
	res, err := s.ApplyCycle(ctx, "acme", corpus.Diff{ToRenew: []string{"A"}}, byKey(np("A", "Engineer")), now.Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, res.Created)
	require.Zero(t, res.Closed)
	require.Equal(t, 1, res.Renewed)

	keys, err := s.ActiveKeys(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, keys)
}

func TestSearchFiltersAndOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.ApplyCycle(ctx, "acme", corpus.Diff{ToCreate: []string{"A"}}, byKey(np("A", "Backend Engineer")), t0)
	require.NoError(t, err)
	_, err = s.ApplyCycle(ctx, "globex", corpus.Diff{ToCreate: []string{"B"}}, byKey(np("B", "Frontend Engineer")), t0.Add(time.Hour))
	require.NoError(t, err)

	all, err := s.Search(ctx, corpus.SearchParams{}, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Frontend Engineer", all[0].Title, "most recently seen first")

	scoped, err := s.Search(ctx, corpus.SearchParams{CompanyID: "acme"}, nil)
	require.NoError(t, err)
	require.Len(t, scoped, 1)

	since := t0.Add(30 * time.Minute)
	recent, err := s.Search(ctx, corpus.SearchParams{Since: &since}, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "B", recent[0].IdentityKey)

	matched, err := s.Search(ctx, corpus.SearchParams{}, func(text string) bool {
		return text == "Backend Engineer\n"
	})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, "A", matched[0].IdentityKey)

	limited, err := s.Search(ctx, corpus.SearchParams{Limit: 1}, nil)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestCompanies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	_, err := s.GetCompany(ctx, "acme")
	require.ErrorIs(t, err, corpus.ErrNotFound)

	require.NoError(t, s.UpsertCompany(ctx, corpus.Company{ID: "globex", Name: "Globex"}))
	require.NoError(t, s.UpsertCompany(ctx, corpus.Company{ID: "acme", Name: "Acme"}))
	require.NoError(t, s.UpsertCompany(ctx, corpus.Company{ID: "acme", Name: "Acme Corp"}))

	list, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Acme Corp", list[0].Name)
	require.Equal(t, "globex", list[1].ID)
}
