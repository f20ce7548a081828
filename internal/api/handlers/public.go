package handlers

import (
	"net/http"
	"strings"

	"github.com/Togather-Foundation/meetups/internal/api/middleware"
	"github.com/Togather-Foundation/meetups/internal/api/pagination"
	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/categories"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
)

// PublicHandler serves anonymous reads. Event reads are reported to the
// statistics service with the caller's address.
type PublicHandler struct {
	Events       *events.PublicService
	Categories   *categories.Service
	Compilations *compilations.Service
	// TrustedProxies decides whether forwarding headers name the visitor.
	TrustedProxies []string
	Env            string
}

func NewPublicHandler(
	public *events.PublicService,
	categoriesSvc *categories.Service,
	compilationsSvc *compilations.Service,
	trustedProxies []string,
	env string,
) *PublicHandler {
	return &PublicHandler{
		Events:         public,
		Categories:     categoriesSvc,
		Compilations:   compilationsSvc,
		TrustedProxies: trustedProxies,
		Env:            env,
	}
}

func (h *PublicHandler) visit(r *http.Request) events.Visit {
	return events.Visit{
		URI: r.URL.Path,
		IP:  middleware.ClientIP(r, h.TrustedProxies),
	}
}

func (h *PublicHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	filters, err := publicFilters(r)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Events.Search(r.Context(), filters, page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	h.Events.RecordVisit(r.Context(), h.visit(r))
	writeJSON(w, http.StatusOK, toEventShortList(items))
}

func (h *PublicHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.Env)
	if !ok {
		return
	}

	event, err := h.Events.GetPublished(r.Context(), id, h.visit(r))
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventFull(event))
}

func (h *PublicHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Categories.List(r.Context(), page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	out := make([]categoryDTO, 0, len(items))
	for i := range items {
		out = append(out, toCategory(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PublicHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "catId", h.Env)
	if !ok {
		return
	}

	category, err := h.Categories.Get(r.Context(), id)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toCategory(category))
}

func (h *PublicHandler) ListCompilations(w http.ResponseWriter, r *http.Request) {
	pinned, err := queryBool(r, "pinned")
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Compilations.List(r.Context(), pinned, page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	out := make([]compilationDTO, 0, len(items))
	for i := range items {
		out = append(out, toCompilation(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PublicHandler) GetCompilation(w http.ResponseWriter, r *http.Request) {
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

func publicFilters(r *http.Request) (events.PublicFilters, error) {
	q := r.URL.Query()
	filters := events.PublicFilters{
		Text:          strings.TrimSpace(q.Get("text")),
		OnlyAvailable: strings.EqualFold(strings.TrimSpace(q.Get("onlyAvailable")), "true"),
	}

	var err error
	if filters.Categories, err = queryIDs(r, "categories"); err != nil {
		return filters, err
	}
	if filters.Paid, err = queryBool(r, "paid"); err != nil {
		return filters, err
	}
	if filters.RangeStart, err = queryTime(r, "rangeStart"); err != nil {
		return filters, err
	}
	if filters.RangeEnd, err = queryTime(r, "rangeEnd"); err != nil {
		return filters, err
	}
	if filters.Sort, err = events.ParseSort(q.Get("sort")); err != nil {
		return filters, err
	}
	return filters, nil
}
