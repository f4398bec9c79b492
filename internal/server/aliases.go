package server

import (
	"errors"
	"net/http"

	"github.com/MrWong99/gymvox/internal/observe"
	"github.com/MrWong99/gymvox/pkg/lexicon"
)

type aliasesResponse struct {
	Version   uint64            `json:"version"`
	Exercises []string          `json:"exercises"`
	Aliases   map[string]string `json:"aliases"`
}

type teachRequest struct {
	Canonical string `json:"canonical"`
}

type aliasResponse struct {
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
}

func (s *Server) handleListAliases(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, aliasesResponse{
		Version:   snap.Version(),
		Exercises: snap.Exercises(),
		Aliases:   snap.Aliases(),
	})
}

func (s *Server) handleTeachAlias(w http.ResponseWriter, r *http.Request) {
	var req teachRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	alias := r.PathValue("alias")
	err := s.store.TeachContext(r.Context(), alias, req.Canonical)
	s.metrics.RecordAliasChange(r.Context(), "teach", observe.Status(err))
	if err != nil {
		writeError(w, r, aliasErrorStatus(err), err)
		return
	}

	key := lexicon.NormalizeKey(alias)
	canonical, _ := s.store.Snapshot().Canonical(key)
	writeJSON(w, http.StatusOK, aliasResponse{Alias: key, Canonical: canonical})
}

func (s *Server) handleForgetAlias(w http.ResponseWriter, r *http.Request) {
	err := s.store.ForgetContext(r.Context(), r.PathValue("alias"))
	s.metrics.RecordAliasChange(r.Context(), "forget", observe.Status(err))
	if err != nil {
		writeError(w, r, aliasErrorStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func aliasErrorStatus(err error) int {
	switch {
	case errors.Is(err, lexicon.ErrEmptyAlias), errors.Is(err, lexicon.ErrEmptyCanonical):
		return http.StatusBadRequest
	case errors.Is(err, lexicon.ErrUnknownAlias):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
