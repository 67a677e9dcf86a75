package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joblens/jobcorpus/internal/corpus"
	"github.com/joblens/jobcorpus/internal/store/memory"
)

type stubRunner struct {
	result corpus.CycleResult
	err    error
}

func (r *stubRunner) RunCycle(_ context.Context, companyID string) (corpus.CycleResult, error) {
	if r.err != nil {
		return corpus.CycleResult{}, r.err
	}
	res := r.result
	res.CompanyID = companyID
	return res, nil
}

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

func seededServer(t *testing.T, runner CycleRunner) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.UpsertCompany(ctx, corpus.Company{ID: "acme", Name: "Acme"}))

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	_, err := store.ApplyCycle(ctx, "acme",
		corpus.Diff{ToCreate: []string{"k1", "k2"}},
		map[string]corpus.NormalizedPosting{
			"k1": {IdentityKey: "k1", Title: "Backend Engineer", DescriptionText: "Go services"},
			"k2": {IdentityKey: "k2", Title: "Recruiter", DescriptionText: "internal recruiter note"},
		}, now)
	require.NoError(t, err)

	return NewServer(store, runner, nil, zap.NewNop()), store
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t, &stubRunner{})
	rec := doRequest(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyzReportsStoreState(t *testing.T) {
	t.Parallel()

	store := memory.New()
	ready := NewServer(store, &stubRunner{}, &stubPinger{}, zap.NewNop())
	rec := doRequest(t, ready, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	down := NewServer(store, &stubRunner{}, &stubPinger{err: errors.New("no route")}, zap.NewNop())
	rec = doRequest(t, down, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t, &stubRunner{})
	rec := doRequest(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunCycle(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t, &stubRunner{result: corpus.CycleResult{Created: 2, Closed: 1}})
	rec := doRequest(t, s, http.MethodPost, "/v1/companies/acme/cycle")
	require.Equal(t, http.StatusOK, rec.Code)

	var result corpus.CycleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "acme", result.CompanyID)
	require.Equal(t, 2, result.Created)
}

func TestRunCycleErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"in flight", corpus.ErrCycleInFlight, http.StatusConflict},
		{"unknown company", corpus.ErrNotFound, http.StatusNotFound},
		{"fetch failure", &corpus.FetchError{URL: "https://x", Status: 503, Err: errors.New("down")}, http.StatusBadGateway},
		{"extractor failure", &corpus.ExtractionError{Capability: "board", Err: errors.New("bad html")}, http.StatusBadGateway},
		{"store failure", &corpus.PersistenceError{Op: "commit cycle", Err: errors.New("tx")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, _ := seededServer(t, &stubRunner{err: tc.err})
			rec := doRequest(t, s, http.MethodPost, "/v1/companies/acme/cycle")
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestSearchWithQuery(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t, &stubRunner{})
	rec := doRequest(t, s, http.MethodGet, "/v1/postings/?company_id=acme&q=backend+-recruiter")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Postings []corpus.JobPosting `json:"postings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Postings, 1)
	require.Equal(t, "Backend Engineer", body.Postings[0].Title)
}

func TestSearchMalformedQuery(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t, &stubRunner{})
	rec := doRequest(t, s, http.MethodGet, `/v1/postings/?q=%28unclosed`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error    string `json:"error"`
		Position int    `json:"position"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "malformed query", body.Error)
	require.Equal(t, 9, body.Position)
}

func TestSearchBadFilters(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t, &stubRunner{})
	require.Equal(t, http.StatusBadRequest, doRequest(t, s, http.MethodGet, "/v1/postings/?active=perhaps").Code)
	require.Equal(t, http.StatusBadRequest, doRequest(t, s, http.MethodGet, "/v1/postings/?since=yesterday").Code)
	require.Equal(t, http.StatusBadRequest, doRequest(t, s, http.MethodGet, "/v1/postings/?limit=-5").Code)
}

func TestSearchEmptyResultIsJSONArray(t *testing.T) {
	t.Parallel()

	s, _ := seededServer(t, &stubRunner{})
	rec := doRequest(t, s, http.MethodGet, "/v1/postings/?q=astronaut")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"postings":[]}`, rec.Body.String())
}

func TestGetPosting(t *testing.T) {
	t.Parallel()

	s, store := seededServer(t, &stubRunner{})
	postings, err := store.Search(context.Background(), corpus.SearchParams{}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, postings)

	rec := doRequest(t, s, http.MethodGet, "/v1/postings/"+postings[0].ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var got corpus.JobPosting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, postings[0].ID, got.ID)

	rec = doRequest(t, s, http.MethodGet, "/v1/postings/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
