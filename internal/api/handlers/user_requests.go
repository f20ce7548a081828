package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
)

type UserRequestsHandler struct {
	Requests *requests.Service
	Env      string
}

func NewUserRequestsHandler(reqs *requests.Service, env string) *UserRequestsHandler {
	return &UserRequestsHandler{Requests: reqs, Env: env}
}

func (h *UserRequestsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	eventID, ok := queryID(w, r, "eventId", h.Env)
	if !ok {
		return
	}

	req, err := h.Requests.Submit(r.Context(), userID, eventID)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toRequest(req))
}

func (h *UserRequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}

	items, err := h.Requests.ListOwn(r.Context(), userID)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toRequestList(items))
}

func (h *UserRequestsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId", h.Env)
	if !ok {
		return
	}

	req, err := h.Requests.Cancel(r.Context(), userID, requestID)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toRequest(req))
}
