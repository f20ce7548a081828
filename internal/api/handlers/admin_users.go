package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/pagination"
	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
)

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body newUserRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	user, err := h.Users.Create(r.Context(), users.NewUser{Name: body.Name, Email: body.Email})
	var id int64
	if user != nil {
		id = user.ID
	}
	h.audit(r, "user.create", "user", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(user))
}

// ListUsers returns the users named by ids, or every user when ids is absent.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userIDs, err := queryIDs(r, "ids")
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Users.List(r.Context(), userIDs, page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	out := make([]userDTO, 0, len(items))
	for i := range items {
		out = append(out, toUser(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.Env)
	if !ok {
		return
	}

	err := h.Users.Delete(r.Context(), id)
	h.audit(r, "user.delete", "user", id, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
