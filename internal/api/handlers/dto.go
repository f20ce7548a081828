package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/categories"
	"github.com/Togather-Foundation/meetups/internal/domain/comments"
	"github.com/Togather-Foundation/meetups/internal/domain/compilations"
	"github.com/Togather-Foundation/meetups/internal/domain/events"
	"github.com/Togather-Foundation/meetups/internal/domain/requests"
	"github.com/Togather-Foundation/meetups/internal/domain/users"
)

// DateTimeLayout is the wire format of every timestamp, always in UTC.
const DateTimeLayout = "2006-01-02 15:04:05"

type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC()}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string in format yyyy-MM-dd HH:mm:ss")
	}
	t, err := time.ParseInLocation(DateTimeLayout, raw, time.UTC)
	if err != nil {
		return fmt.Errorf("date %q must match yyyy-MM-dd HH:mm:ss", raw)
	}
	d.Time = t
	return nil
}

func optionalDateTime(t *time.Time) *DateTime {
	if t == nil {
		return nil
	}
	d := NewDateTime(*t)
	return &d
}

// Requests

type locationDTO struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

type newEventRequest struct {
	Annotation        string       `json:"annotation" validate:"required,notblank,min=20,max=2000"`
	Category          int64        `json:"category" validate:"required,gte=1"`
	Description       string       `json:"description" validate:"required,notblank,min=20,max=7000"`
	EventDate         *DateTime    `json:"eventDate" validate:"required"`
	Location          *locationDTO `json:"location" validate:"required"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participantLimit" validate:"gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	CommentsDisabled  bool         `json:"commentsDisabled"`
	Title             string       `json:"title" validate:"required,notblank,min=3,max=120"`
}

func (req newEventRequest) toDomain() events.NewEvent {
	moderation := true
	if req.RequestModeration != nil {
		moderation = *req.RequestModeration
	}
	return events.NewEvent{
		CategoryID:        req.Category,
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		Location:          events.Location{Lat: req.Location.Lat, Lon: req.Location.Lon},
		Paid:              req.Paid,
		EventDate:         req.EventDate.Time,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: moderation,
		CommentsDisabled:  req.CommentsDisabled,
	}
}

// updateEventRequest serves both the initiator and the admin patch. Absent
// fields stay untouched.
type updateEventRequest struct {
	Annotation        *string      `json:"annotation" validate:"omitempty,notblank,min=20,max=2000"`
	Category          *int64       `json:"category" validate:"omitempty,gte=1"`
	Description       *string      `json:"description" validate:"omitempty,notblank,min=20,max=7000"`
	EventDate         *DateTime    `json:"eventDate"`
	Location          *locationDTO `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participantLimit" validate:"omitempty,gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	CommentsDisabled  *bool        `json:"commentsDisabled"`
	StateAction       *string      `json:"stateAction" validate:"omitempty,oneof=SEND_TO_REVIEW CANCEL_REVIEW PUBLISH_EVENT REJECT_EVENT"`
	Title             *string      `json:"title" validate:"omitempty,notblank,min=3,max=120"`
}

// normalize drops blank text fields so they leave the stored value alone.
func (req *updateEventRequest) normalize() {
	for _, field := range []**string{&req.Title, &req.Annotation, &req.Description} {
		if *field != nil && strings.TrimSpace(**field) == "" {
			*field = nil
		}
	}
}

func (req updateEventRequest) toDomain() events.Patch {
	patch := events.Patch{
		CategoryID:        ptrOption(req.Category),
		Title:             ptrOption(req.Title),
		Annotation:        ptrOption(req.Annotation),
		Description:       ptrOption(req.Description),
		Paid:              ptrOption(req.Paid),
		ParticipantLimit:  ptrOption(req.ParticipantLimit),
		RequestModeration: ptrOption(req.RequestModeration),
		CommentsDisabled:  ptrOption(req.CommentsDisabled),
	}
	if req.EventDate != nil {
		patch.EventDate = ptrOption(&req.EventDate.Time)
	}
	if req.Location != nil {
		loc := events.Location{Lat: req.Location.Lat, Lon: req.Location.Lon}
		patch.Location = ptrOption(&loc)
	}
	if req.StateAction != nil {
		action := events.StateAction(*req.StateAction)
		patch.StateAction = ptrOption(&action)
	}
	return patch
}

type statusUpdateRequest struct {
	RequestIDs []int64 `json:"requestIds" validate:"required,min=1,dive,gte=1"`
	Status     string  `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,notblank,max=1000"`
}

type newUserRequest struct {
	Email string `json:"email" validate:"required,notblank,email,max=254"`
	Name  string `json:"name" validate:"required,notblank,min=2,max=250"`
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

type newCompilationRequest struct {
	Events []int64 `json:"events" validate:"omitempty,dive,gte=1"`
	Pinned bool    `json:"pinned"`
	Title  string  `json:"title" validate:"required,notblank,max=50"`
}

type updateCompilationRequest struct {
	Events *[]int64 `json:"events"`
	Pinned *bool    `json:"pinned"`
	Title  *string  `json:"title" validate:"omitempty,notblank,max=50"`
}

func (req updateCompilationRequest) toDomain() compilations.Patch {
	return compilations.Patch{
		Title:    ptrOption(req.Title),
		Pinned:   ptrOption(req.Pinned),
		EventIDs: ptrOption(req.Events),
	}
}

// Responses

type categoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type userShortDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type userDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type eventFullDTO struct {
	Annotation        string       `json:"annotation"`
	Category          categoryDTO  `json:"category"`
	ConfirmedRequests int          `json:"confirmedRequests"`
	CreatedOn         DateTime     `json:"createdOn"`
	Description       string       `json:"description"`
	EventDate         DateTime     `json:"eventDate"`
	ID                int64        `json:"id"`
	Initiator         userShortDTO `json:"initiator"`
	Location          locationDTO  `json:"location"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participantLimit"`
	PublishedOn       *DateTime    `json:"publishedOn"`
	RequestModeration bool         `json:"requestModeration"`
	CommentsDisabled  bool         `json:"commentsDisabled"`
	State             string       `json:"state"`
	Title             string       `json:"title"`
	Views             int64        `json:"views"`
}

type eventShortDTO struct {
	Annotation        string       `json:"annotation"`
	Category          categoryDTO  `json:"category"`
	ConfirmedRequests int          `json:"confirmedRequests"`
	EventDate         DateTime     `json:"eventDate"`
	ID                int64        `json:"id"`
	Initiator         userShortDTO `json:"initiator"`
	Paid              bool         `json:"paid"`
	Title             string       `json:"title"`
	Views             int64        `json:"views"`
}

// eventCommentsDTO answers a comment setting change.
type eventCommentsDTO struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	CommentDisabled bool   `json:"commentDisabled"`
}

type requestDTO struct {
	Created   DateTime `json:"created"`
	Event     int64    `json:"event"`
	ID        int64    `json:"id"`
	Requester int64    `json:"requester"`
	Status    string   `json:"status"`
}

type statusUpdateResultDTO struct {
	ConfirmedRequests []requestDTO `json:"confirmedRequests"`
	RejectedRequests  []requestDTO `json:"rejectedRequests"`
}

type commentDTO struct {
	ID            int64    `json:"id"`
	EventID       int64    `json:"eventId"`
	Text          string   `json:"text"`
	ParentComment *int64   `json:"parentComment"`
	Author        string   `json:"author"`
	CreationDate  DateTime `json:"creationDate"`
	Edited        bool     `json:"edited"`
	Deleted       bool     `json:"deleted"`
}

type compilationDTO struct {
	Events []eventShortDTO `json:"events"`
	ID     int64           `json:"id"`
	Pinned bool            `json:"pinned"`
	Title  string          `json:"title"`
}

func toEventFull(e *events.Event) eventFullDTO {
	return eventFullDTO{
		Annotation:        e.Annotation,
		Category:          categoryDTO{ID: e.CategoryID, Name: e.CategoryName},
		ConfirmedRequests: e.ConfirmedRequests,
		CreatedOn:         NewDateTime(e.CreatedOn),
		Description:       e.Description,
		EventDate:         NewDateTime(e.EventDate),
		ID:                e.ID,
		Initiator:         userShortDTO{ID: e.InitiatorID, Name: e.InitiatorName},
		Location:          locationDTO{Lat: e.Location.Lat, Lon: e.Location.Lon},
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		PublishedOn:       optionalDateTime(e.PublishedOn),
		RequestModeration: e.RequestModeration,
		CommentsDisabled:  e.CommentsDisabled,
		State:             string(e.State),
		Title:             e.Title,
		Views:             e.Views,
	}
}

func toEventShort(e *events.Event) eventShortDTO {
	return eventShortDTO{
		Annotation:        e.Annotation,
		Category:          categoryDTO{ID: e.CategoryID, Name: e.CategoryName},
		ConfirmedRequests: e.ConfirmedRequests,
		EventDate:         NewDateTime(e.EventDate),
		ID:                e.ID,
		Initiator:         userShortDTO{ID: e.InitiatorID, Name: e.InitiatorName},
		Paid:              e.Paid,
		Title:             e.Title,
		Views:             e.Views,
	}
}

func toEventFullList(items []events.Event) []eventFullDTO {
	out := make([]eventFullDTO, 0, len(items))
	for i := range items {
		out = append(out, toEventFull(&items[i]))
	}
	return out
}

func toEventShortList(items []events.Event) []eventShortDTO {
	out := make([]eventShortDTO, 0, len(items))
	for i := range items {
		out = append(out, toEventShort(&items[i]))
	}
	return out
}

func toRequest(req *requests.Request) requestDTO {
	return requestDTO{
		Created:   NewDateTime(req.Created),
		Event:     req.EventID,
		ID:        req.ID,
		Requester: req.RequesterID,
		Status:    string(req.Status),
	}
}

func toRequestList(items []requests.Request) []requestDTO {
	out := make([]requestDTO, 0, len(items))
	for i := range items {
		out = append(out, toRequest(&items[i]))
	}
	return out
}

func toComment(c *comments.Comment) commentDTO {
	return commentDTO{
		ID:            c.ID,
		EventID:       c.EventID,
		Text:          c.Text,
		ParentComment: c.ParentID,
		Author:        c.AuthorName,
		CreationDate:  NewDateTime(c.CreatedOn),
		Edited:        c.Edited,
		Deleted:       c.Deleted,
	}
}

func toCommentList(items []comments.Comment) []commentDTO {
	out := make([]commentDTO, 0, len(items))
	for i := range items {
		out = append(out, toComment(&items[i]))
	}
	return out
}

func toUser(u *users.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toCategory(c *categories.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name}
}

func toCompilation(c *compilations.Compilation) compilationDTO {
	return compilationDTO{
		Events: toEventShortList(c.Events),
		ID:     c.ID,
		Pinned: c.Pinned,
		Title:  c.Title,
	}
}
