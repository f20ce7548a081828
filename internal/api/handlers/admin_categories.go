package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/problem"
)

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	category, err := h.Categories.Create(r.Context(), body.Name)
	var id int64
	if category != nil {
		id = category.ID
	}
	h.audit(r, "category.create", "category", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toCategory(category))
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.Env)
	if !ok {
		return
	}
	var body categoryRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	category, err := h.Categories.Update(r.Context(), id, body.Name)
	h.audit(r, "category.update", "category", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toCategory(category))
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.Env)
	if !ok {
		return
	}

	err := h.Categories.Delete(r.Context(), id)
	h.audit(r, "category.delete", "category", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
