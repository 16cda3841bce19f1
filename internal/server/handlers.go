package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/Sternrassler/gh-user-sync/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// ListResponse is the body of GET /users.
type ListResponse struct {
	Items       []client.User `json:"items"`
	Cursor      int64         `json:"cursor"`
	Count       int           `json:"count"`
	Fetching    bool          `json:"fetching"`
	Hydrated    bool          `json:"hydrated"`
	Prefetching bool          `json:"prefetching"`
	PrefetchID  string        `json:"prefetch_id,omitempty"`
}

// NextResponse is the body of POST /users/next.
type NextResponse struct {
	Appended int   `json:"appended"`
	Cursor   int64 `json:"cursor"`
	Count    int   `json:"count"`
	Skipped  bool  `json:"skipped"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"status,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	resp := ListResponse{}

	if v := r.URL.Query().Get("visible"); v != "" {
		visible, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "visible must be an integer"})
			return
		}
		if s.sync.ShouldPrefetch(visible) {
			resp.Prefetching = true
			resp.PrefetchID = s.prefetch()
		}
	}

	resp.Items = s.sync.Items()
	resp.Cursor = s.sync.Cursor()
	resp.Count = len(resp.Items)
	resp.Fetching = s.sync.Phase() == pagination.PhaseFetching
	resp.Hydrated = s.sync.Hydrated()

	writeJSON(w, http.StatusOK, resp)
}

// prefetch starts an asynchronous LoadNext bound to the server lifetime.
func (s *Server) prefetch() string {
	id := xid.New().String()
	outcome := s.sync.LoadNextAsync(s.bgCtx)

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		out := <-outcome
		logger := s.logger.With().Str("prefetch_id", id).Logger()
		switch {
		case out.Err != nil:
			logger.Warn().Err(out.Err).Msg("Prefetch failed")
		case out.Result.Skipped:
			logger.Debug().Msg("Prefetch skipped, fetch already in flight")
		default:
			logger.Debug().
				Int("appended", out.Result.Appended).
				Int64("cursor", out.Result.Cursor).
				Msg("Prefetch complete")
		}
	}()

	return id
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	res, err := s.sync.LoadNext(r.Context())
	if err != nil {
		writeFetchError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, NextResponse{
		Appended: res.Appended,
		Cursor:   res.Cursor,
		Count:    s.sync.Len(),
		Skipped:  res.Skipped,
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	d, err := s.details.FetchDetail(r.Context(), login)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case client.IsKind(err, client.KindInvalidRequest):
			status = http.StatusBadRequest
		case client.IsKind(err, client.KindServerError) && client.StatusCode(err) == http.StatusNotFound:
			status = http.StatusNotFound
		}
		writeFetchError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.sync.ClearCache(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; all we can do is log.
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeFetchError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var fe *client.FetchError
	if errors.As(err, &fe) {
		resp.Kind = string(fe.Kind)
		resp.Status = fe.StatusCode
	}
	writeJSON(w, status, resp)
}
