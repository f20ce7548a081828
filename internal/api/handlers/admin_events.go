package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/pagination"
	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
)

func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filters, err := adminFilters(r)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Events.ListAdmin(r.Context(), filters, page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventFullList(items))
}

func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventId", h.Env)
	if !ok {
		return
	}
	var body updateEventRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	event, err := h.Events.UpdateByAdmin(r.Context(), eventID, body.toDomain())
	action := "event.update"
	if body.StateAction != nil {
		action = "event." + *body.StateAction
	}
	h.audit(r, action, "event", eventID, err)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventFull(event))
}

func adminFilters(r *http.Request) (events.AdminFilters, error) {
	var (
		filters events.AdminFilters
		err     error
	)
	if filters.Users, err = queryIDs(r, "users"); err != nil {
		return filters, err
	}
	if filters.Categories, err = queryIDs(r, "categories"); err != nil {
		return filters, err
	}
	if filters.States, err = events.ParseStates(splitList(r.URL.Query()["states"])); err != nil {
		return filters, err
	}
	if filters.RangeStart, err = queryTime(r, "rangeStart"); err != nil {
		return filters, err
	}
	if filters.RangeEnd, err = queryTime(r, "rangeEnd"); err != nil {
		return filters, err
	}
	return filters, nil
}
