package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
)

func (h *AdminHandler) CreateCompilation(w http.ResponseWriter, r *http.Request) {
	var body newCompilationRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	comp, err := h.Compilations.Create(r.Context(), compilations.NewCompilation{
		Title:    body.Title,
		Pinned:   body.Pinned,
		EventIDs: body.Events,
	})
	var id int64
	if comp != nil {
		id = comp.ID
	}
	h.audit(r, "compilation.create", "compilation", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toCompilation(comp))
}

func (h *AdminHandler) GetCompilation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "compId", h.Env)
	if !ok {
		return
	}

	comp, err := h.Compilations.Get(r.Context(), id)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toCompilation(comp))
}

func (h *AdminHandler) UpdateCompilation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "compId", h.Env)
	if !ok {
		return
	}
	var body updateCompilationRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	comp, err := h.Compilations.Update(r.Context(), id, body.toDomain())
	h.audit(r, "compilation.update", "compilation", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toCompilation(comp))
}

func (h *AdminHandler) DeleteCompilation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "compId", h.Env)
	if !ok {
		return
	}

	err := h.Compilations.Delete(r.Context(), id)
	h.audit(r, "compilation.delete", "compilation", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
