package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joblens/jobcorpus/internal/corpus"
	"github.com/joblens/jobcorpus/internal/query"
)

const defaultSearchLimit = 100

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		s.log.Error("list companies failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list companies failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (s *Server) runCycle(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "company_id")
	result, err := s.runner.RunCycle(r.Context(), companyID)
	if err != nil {
		s.writeCycleError(w, companyID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeCycleError(w http.ResponseWriter, companyID string, err error) {
	var (
		ferr *corpus.FetchError
		xerr *corpus.ExtractionError
		perr *corpus.PersistenceError
	)
	switch {
	case errors.Is(err, corpus.ErrCycleInFlight):
		writeError(w, http.StatusConflict, "cycle already in flight for "+companyID)
	case errors.Is(err, corpus.ErrNotFound):
		writeError(w, http.StatusNotFound, "company not found")
	case errors.As(err, &ferr), errors.As(err, &xerr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &perr):
		writeError(w, http.StatusInternalServerError, "cycle persistence failed")
	default:
		writeError(w, http.StatusInternalServerError, "cycle failed")
	}
}

func (s *Server) searchPostings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var match func(text string) bool
	if raw := q.Get("q"); raw != "" {
		expr, err := query.Parse(raw)
		if err != nil {
			var perr *query.ParseError
			if errors.As(err, &perr) {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":    "malformed query",
					"message":  perr.Msg,
					"position": perr.Pos,
				})
				return
			}
			writeError(w, http.StatusBadRequest, "malformed query")
			return
		}
		match = expr.Match
	}

	params := corpus.SearchParams{
		CompanyID: q.Get("company_id"),
		Limit:     defaultSearchLimit,
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active must be a boolean")
			return
		}
		params.Active = &active
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		params.Since = &since
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		params.Limit = limit
	}

	postings, err := s.store.Search(r.Context(), params, match)
	if err != nil {
		s.log.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if postings == nil {
		postings = []corpus.JobPosting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"postings": postings})
}

func (s *Server) getPosting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "posting_id")
	posting, err := s.store.GetPosting(r.Context(), id)
	if errors.Is(err, corpus.ErrNotFound) {
		writeError(w, http.StatusNotFound, "posting not found")
		return
	}
	if err != nil {
		s.log.Error("get posting failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get posting failed")
		return
	}
	writeJSON(w, http.StatusOK, posting)
}
