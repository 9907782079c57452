package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/couchcryptid/galaxia/internal/adapter/impact"
	"github.com/couchcryptid/galaxia/internal/adapter/iss"
	"github.com/couchcryptid/galaxia/internal/adapter/nasa"
	"github.com/couchcryptid/galaxia/internal/adapter/news"
	"github.com/couchcryptid/galaxia/internal/adapter/spacex"
	"github.com/couchcryptid/galaxia/internal/chat"
	"github.com/couchcryptid/galaxia/internal/dashboard"
	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

const maxBodyBytes = 64 << 10

// statusFor maps a failed cell's error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	case upstream.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// writeState renders a cell state as a widget. Invalid input is reported
// with its validation message instead of the cell's generic one.
func writeState[T any](w http.ResponseWriter, st fetch.State[T]) {
	wg := dashboard.FromState(st)
	if st.Status == fetch.StatusReady {
		writeJSON(w, http.StatusOK, wg)
		return
	}
	code := statusFor(st.Err)
	if code == http.StatusBadRequest {
		wg.Message = st.Err.Error()
	}
	writeJSON(w, code, wg)
}

func serveCell[T any](s *Server, w http.ResponseWriter, r *http.Request, req upstream.Requester, d fetch.Descriptor[T]) {
	cell := fetch.NewCell(req, d, s.cellOptions()...)
	defer cell.Close()
	writeState(w, cell.Fetch(r.Context()))
}

// queryInt parses an optional integer query parameter. Missing or malformed
// values yield def.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dashboard.Build(r.Context()))
}

func (s *Server) handleLatestLaunch(w http.ResponseWriter, r *http.Request) {
	writeState(w, spacex.LaunchWithCrew(r.Context(), s.deps.SpaceX, spacex.LatestLaunch(), s.cellOptions()...))
}

func (s *Server) handleNextLaunch(w http.ResponseWriter, r *http.Request) {
	writeState(w, spacex.LaunchWithCrew(r.Context(), s.deps.SpaceX, spacex.NextLaunch(), s.cellOptions()...))
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	d := spacex.Launch(chi.URLParam(r, "id"))
	writeState(w, spacex.LaunchWithCrew(r.Context(), s.deps.SpaceX, d, s.cellOptions()...))
}

func (s *Server) handlePayloads(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	serveCell(s, w, r, s.deps.SpaceX, spacex.Payloads(limit))
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	serveCell(s, w, r, s.deps.SpaceX, spacex.Payload(chi.URLParam(r, "id")))
}

func (s *Server) handleLaunchpads(w http.ResponseWriter, r *http.Request) {
	serveCell(s, w, r, s.deps.SpaceX, spacex.Launchpads())
}

func (s *Server) handleLaunchpad(w http.ResponseWriter, r *http.Request) {
	serveCell(s, w, r, s.deps.SpaceX, spacex.Launchpad(chi.URLParam(r, "id")))
}

func (s *Server) handleAPOD(w http.ResponseWriter, r *http.Request) {
	serveCell(s, w, r, s.deps.NASA, nasa.APOD(s.deps.NASAAPIKey))
}

func (s *Server) handleNEO(w http.ResponseWriter, r *http.Request) {
	q := domain.RangeQuery{Start: r.URL.Query().Get("start_date"), End: r.URL.Query().Get("end_date")}
	serveCell(s, w, r, s.deps.NASA, nasa.NEOFeed(s.deps.NASAAPIKey, q))
}

func (s *Server) handleCME(w http.ResponseWriter, r *http.Request) {
	q := domain.RangeQuery{Start: r.URL.Query().Get("startDate"), End: r.URL.Query().Get("endDate")}
	serveCell(s, w, r, s.deps.NASA, nasa.CME(s.deps.NASAAPIKey, q))
}

func (s *Server) handleISS(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.deps.Tracker.Snapshot()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, dashboard.Widget[*domain.ISSState]{
			Status:  fetch.StatusLoading,
			Message: "Waiting for the first ISS position.",
		})
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Widget[domain.ISSState]{Status: fetch.StatusReady, Data: snap})
}

func (s *Server) handleAstronauts(w http.ResponseWriter, r *http.Request) {
	cell := fetch.NewCell(s.deps.OpenNotify, iss.Astronauts(), s.cellOptions()...)
	defer cell.Close()

	st := cell.Fetch(r.Context())
	if st.Status == fetch.StatusReady && r.URL.Query().Get("details") == "true" {
		st.Data = iss.DescribeAstronauts(r.Context(), s.deps.Generator, st.Data)
	}
	writeState(w, st)
}

func (s *Server) handleISSFacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, iss.LoadFacts(r.Context(), s.deps.Generator))
}

func (s *Server) handleISSModules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.ISSModules())
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	serveCell(s, w, r, s.deps.News, news.Articles(queryInt(r, "limit", domain.DefaultArticleLimit)))
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	serveCell(s, w, r, s.deps.Generator, s.deps.Generator.RecentEvents())
}

func (s *Server) handlePlanets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Planets())
}

// handlePredict accepts orbital parameters. An empty body predicts the
// sample asteroid.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	params := domain.DefaultOrbitalParameters()
	if err := decodeBody(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serveCell(s, w, r, s.deps.Impact, impact.Predict(params))
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Appended []chat.Message `json:"appended"`
	Session  chat.Session   `json:"session"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id, a := s.deps.Sessions.Create()
	writeJSON(w, http.StatusCreated, chat.View(id, a))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.deps.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "chat session not found")
		return
	}
	writeJSON(w, http.StatusOK, chat.View(id, a))
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.deps.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "chat session not found")
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appended, err := a.Ask(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("chat message failed", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Appended: appended, Session: chat.View(id, a)})
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.New("reading request body failed")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("request body is not valid JSON")
	}
	return nil
}
