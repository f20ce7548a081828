package handlers

import (
	"net/http"
	"strconv"

	"github.com/Togather-Foundation/meetups/internal/api/middleware"
	"github.com/Togather-Foundation/meetups/internal/audit"
	"github.com/Togather-Foundation/meetups/internal/domain/categories"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
)

// AdminHandler serves the /admin routes. Every mutation is written to the
// audit log with the token subject as actor.
type AdminHandler struct {
	Users        *users.Service
	Categories   *categories.Service
	Events       *events.LifecycleService
	Compilations *compilations.Service
	Audit        *audit.Logger
	Env          string
}

func NewAdminHandler(
	usersSvc *users.Service,
	categoriesSvc *categories.Service,
	lifecycle *events.LifecycleService,
	compilationsSvc *compilations.Service,
	auditLogger *audit.Logger,
	env string,
) *AdminHandler {
	return &AdminHandler{
		Users:        usersSvc,
		Categories:   categoriesSvc,
		Events:       lifecycle,
		Compilations: compilationsSvc,
		Audit:        auditLogger,
		Env:          env,
	}
}

func (h *AdminHandler) audit(r *http.Request, action, resourceType string, resourceID int64, err error) {
	actor := ""
	if claims := middleware.Claims(r.Context()); claims != nil {
		actor = claims.Subject
	}
	id := ""
	if resourceID > 0 {
		id = strconv.FormatInt(resourceID, 10)
	}
	h.Audit.LogFromRequest(r, actor, action, resourceType, id, err)
}
