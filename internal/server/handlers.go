package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/sandbox"
	"github.com/michaelbrown/conceptloop/internal/value"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"active_runs": s.runs.Active(),
	})
}

// --- Catalog handlers ---

type categoryInfo struct {
	Name       string `json:"name"`
	Challenges int    `json:"challenges"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := make([]categoryInfo, 0, len(s.catalog.Categories))
	for _, name := range s.catalog.Categories {
		categories = append(categories, categoryInfo{
			Name:       name,
			Challenges: len(s.catalog.ByCategory(name)),
		})
	}
	writeJSON(w, http.StatusOK, categories)
}

type challengeSummary struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Category   string               `json:"category"`
	Difficulty challenge.Difficulty `json:"difficulty"`
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	list := s.catalog.ByCategory(r.URL.Query().Get("category"))
	out := make([]challengeSummary, 0, len(list))
	for _, ch := range list {
		out = append(out, challengeSummary{
			ID:         ch.ID,
			Title:      ch.Title,
			Category:   ch.Category,
			Difficulty: ch.Difficulty,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// lookup resolves the {id} URL parameter, writing a 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*challenge.Challenge, bool) {
	ch, err := s.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return ch, true
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	ch, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if solution, _ := strconv.ParseBool(r.URL.Query().Get("solution")); !solution {
		ch = ch.Public()
	}
	writeJSON(w, http.StatusOK, ch)
}

// --- Run handlers ---

type runChallengeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRunChallenge(w http.ResponseWriter, r *http.Request) {
	ch, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req runChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	rep := s.report(r.Context(), s.newRunner(), req.Code, ch.EntryPoint, ch.Cases)
	writeJSON(w, http.StatusOK, rep)
}

type runRequest struct {
	Code       string               `json:"code"`
	EntryPoint string               `json:"entry_point"`
	Cases      []challenge.TestCase `json:"cases"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if !challenge.ValidIdentifier(req.EntryPoint) {
		writeError(w, http.StatusBadRequest, "entry_point must be a JavaScript identifier")
		return
	}
	if req.Cases == nil {
		req.Cases = []challenge.TestCase{}
	}
	if err := challenge.PrepareCases(req.Cases); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep := s.report(r.Context(), s.newRunner(), req.Code, req.EntryPoint, req.Cases)
	writeJSON(w, http.StatusOK, rep)
}

type evalRequest struct {
	Code string `json:"code"`
}

type evalResponse struct {
	Logs   []string           `json:"logs"`
	Result string             `json:"result,omitempty"`
	Error  *sandbox.ExecError `json:"error,omitempty"`
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	var req evalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx, _, done := s.runs.Start(r.Context())
	defer done()

	out, err := s.sandbox.Eval(ctx, req.Code)
	if err != nil {
		s.logger.Error("eval failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := evalResponse{Logs: out.Logs, Error: out.Err}
	if resp.Logs == nil {
		resp.Logs = []string{}
	}
	if out.Err == nil {
		resp.Result = value.Format(out.Value)
	}
	writeJSON(w, http.StatusOK, resp)
}
