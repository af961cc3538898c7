package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/slskdsync/internal/http/dto"
	"github.com/cesargomez89/slskdsync/internal/store"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, errs := dto.ParseLimit(r.URL.Query().Get("limit"), defaultRunsLimit, maxRunsLimit)
	if len(errs) > 0 {
		h.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.ToResponse(errs), Fields: dto.ToMap(errs)})
		return
	}

	runs, err := h.Runs.ListRuns(limit)
	if err != nil {
		h.serverError(w, "list runs", err)
		return
	}
	h.writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.Runs.GetRun(id)
	if errors.Is(err, store.ErrNotFound) {
		h.writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "run not found"})
		return
	}
	if err != nil {
		h.serverError(w, "get run", err)
		return
	}

	attempts, err := h.Runs.ListAttempts(id)
	if err != nil {
		h.serverError(w, "list attempts", err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.RunDetail{Run: *run, Attempts: attempts})
}

func (h *Handler) ListDuplicates(w http.ResponseWriter, r *http.Request) {
	keys, dupes, err := h.FindDuplicates(r.Context())
	if err != nil {
		h.serverError(w, "build index", err)
		return
	}

	resp := dto.DuplicatesResponse{Keys: keys, Groups: []dto.DuplicateGroup{}}
	for k, similar := range dupes {
		resp.Groups = append(resp.Groups, dto.DuplicateGroup{Key: k, Similar: similar})
	}
	sort.Slice(resp.Groups, func(i, j int) bool { return resp.Groups[i].Key < resp.Groups[j].Key })
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("Request failed", "op", op, "error", err)
	h.writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Warn("Failed to encode response", "error", err)
	}
}
