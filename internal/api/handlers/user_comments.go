package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/api/pagination"
	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/comments"
)

type UserCommentsHandler struct {
	Comments *comments.Service
	Env      string
}

func NewUserCommentsHandler(svc *comments.Service, env string) *UserCommentsHandler {
	return &UserCommentsHandler{Comments: svc, Env: env}
}

// eventPath reads the userId and eventId path values shared by every
// comment route.
func (h *UserCommentsHandler) eventPath(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return 0, 0, false
	}
	eventID, ok := pathID(w, r, "eventId", h.Env)
	if !ok {
		return 0, 0, false
	}
	return userID, eventID, true
}

func (h *UserCommentsHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.eventPath(w, r)
	if !ok {
		return
	}
	var body commentRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	comment, err := h.Comments.Add(r.Context(), userID, eventID, comments.NewComment{Text: body.Text})
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toComment(comment))
}

func (h *UserCommentsHandler) Reply(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.eventPath(w, r)
	if !ok {
		return
	}
	parentID, ok := pathID(w, r, "commentId", h.Env)
	if !ok {
		return
	}
	var body commentRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	comment, err := h.Comments.Reply(r.Context(), userID, eventID, parentID, comments.NewComment{Text: body.Text})
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toComment(comment))
}

func (h *UserCommentsHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.eventPath(w, r)
	if !ok {
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Comments.ListByEvent(r.Context(), userID, eventID, page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toCommentList(items))
}

func (h *UserCommentsHandler) UpdateText(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.eventPath(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId", h.Env)
	if !ok {
		return
	}
	var body commentRequest
	if !decodeJSON(w, r, h.Env, &body) {
		return
	}

	comment, err := h.Comments.UpdateText(r.Context(), userID, eventID, commentID, body.Text)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toComment(comment))
}

func (h *UserCommentsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.eventPath(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId", h.Env)
	if !ok {
		return
	}
	command, err := comments.ParseStatusCommand(r.URL.Query().Get("command"))
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	comment, err := h.Comments.SetStatus(r.Context(), userID, eventID, commentID, command)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toComment(comment))
}

func (h *UserCommentsHandler) Settings(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.eventPath(w, r)
	if !ok {
		return
	}
	setting, err := comments.ParseSetting(r.URL.Query().Get("command"))
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	event, err := h.Comments.SetEventCommentsSetting(r.Context(), userID, eventID, setting)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, eventCommentsDTO{
		ID:              event.ID,
		Title:           event.Title,
		CommentDisabled: event.CommentsDisabled,
	})
}

func (h *UserCommentsHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", h.Env)
	if !ok {
		return
	}
	visibility, err := comments.ParseVisibility(r.URL.Query().Get("param"))
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}

	items, err := h.Comments.ListByAuthor(r.Context(), userID, visibility, page)
	if err != nil {
		problem.Error(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toCommentList(items))
}
