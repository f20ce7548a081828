package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/pagination"
	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
)

// UserEventsHandler serves an initiator's own events and the participation
// requests filed against them.
type UserEventsHandler struct {
	Events   *events.LifecycleService
	Requests *requests.Service
	Env      string
}

func NewUserEventsHandler(lifecycle *events.LifecycleService, reqs *requests.Service, env string) *UserEventsHandler {
	return &UserEventsHandler{Events: lifecycle, Requests: reqs, Env: env}
}

func (h *UserEventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	var body newEventRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	event, err := h.Events.Create(r.Context(), userID, body.toDomain())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toEventFull(event))
}

func (h *UserEventsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Events.ListByInitiator(r.Context(), userID, page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventShortList(items))
}

func (h *UserEventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", h.Env)
	if !ok {
		return
	}

	event, err := h.Events.Get(r.Context(), userID, eventID)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventFull(event))
}

func (h *UserEventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", h.Env)
	if !ok {
		return
	}
	var body updateEventRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	event, err := h.Events.UpdateByInitiator(r.Context(), eventID, userID, body.toDomain())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventFull(event))
}

func (h *UserEventsHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", h.Env)
	if !ok {
		return
	}

	items, err := h.Requests.ListForEvent(r.Context(), userID, eventID)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toRequestList(items))
}

func (h *UserEventsHandler) UpdateRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId", h.Env)
	if !ok {
		return
	}
	var body statusUpdateRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	status, err := requests.ParseStatus(body.Status)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	result, err := h.Requests.BatchUpdateStatus(r.Context(), userID, eventID, requests.StatusUpdate{
		RequestIDs: body.RequestIDs,
		Status:     status,
	})
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, statusUpdateResultDTO{
		ConfirmedRequests: toRequestList(result.Confirmed),
		RejectedRequests:  toRequestList(result.Rejected),
	})
}
