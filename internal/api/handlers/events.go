package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/ids"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type userRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type commentResponse struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Author    userRefResponse `json:"author"`
	CreatedAt time.Time       `json:"createdAt"`
}

type eventResponse struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Date         time.Time         `json:"date"`
	Location     string            `json:"location"`
	MaxAttendees int               `json:"maxAttendees"`
	Creator      userRefResponse   `json:"creator"`
	Attendees    []userRefResponse `json:"attendees"`
	Comments     []commentResponse `json:"comments"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type createEventRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location"`
	MaxAttendees int       `json:"maxAttendees"`
}

type updateEventRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Date         *time.Time `json:"date"`
	Location     *string    `json:"location"`
	MaxAttendees *int       `json:"maxAttendees"`
}

type commentRequest struct {
	Content string `json:"content"`
}

// renderEvent projects an event for the wire. Public reads blank attendee
// and creator emails so the unauthenticated listing leaks no contact data.
func renderEvent(event *events.Event, includeEmails bool) eventResponse {
	renderRef := func(ref events.UserRef) userRefResponse {
		out := userRefResponse{ID: ref.ID, Name: ref.Name}
		if includeEmails {
			out.Email = ref.Email
		}
		return out
	}

	attendees := make([]userRefResponse, 0, len(event.Attendees))
	for _, attendee := range event.Attendees {
		attendees = append(attendees, renderRef(attendee))
	}

	comments := make([]commentResponse, 0, len(event.Comments))
	for _, comment := range event.Comments {
		comments = append(comments, commentResponse{
			ID:        comment.ID,
			Content:   comment.Content,
			Author:    renderRef(comment.Author),
			CreatedAt: comment.CreatedAt,
		})
	}

	return eventResponse{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		Date:         event.Date,
		Location:     event.Location,
		MaxAttendees: event.MaxAttendees,
		Creator:      renderRef(event.Creator),
		Attendees:    attendees,
		Comments:     comments,
		CreatedAt:    event.CreatedAt,
		UpdatedAt:    event.UpdatedAt,
	}
}

func renderEvents(list []events.Event, includeEmails bool) []eventResponse {
	out := make([]eventResponse, 0, len(list))
	for i := range list {
		out = append(out, renderEvent(&list[i], includeEmails))
	}
	return out
}

// writeEventError maps lifecycle errors onto the problem taxonomy. Attendance
// rule violations surface as 400s to match the client contract.
func (h *EventsHandler) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr events.ValidationError
	switch {
	case errors.As(err, &vErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(map[string]interface{}{vErr.Field: vErr.Message}))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	case errors.Is(err, events.ErrCommentNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Comment not found", err, h.Env)
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, h.Env)
	case errors.Is(err, events.ErrSelfAttend):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail("cannot attend your own event"))
	case errors.Is(err, events.ErrAlreadyAttend):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail("already attending this event"))
	case errors.Is(err, events.ErrEventFull):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail("event is full"))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
	}
}

func (h *EventsHandler) eventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		return "", false
	}
	return id, true
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderEvents(list, true))
}

// ListPublic serves the unauthenticated listing with emails blanked.
func (h *EventsHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderEvents(list, false))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}
	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderEvent(event, true))
}

func (h *EventsHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}
	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderEvent(event, false))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var input createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), caller.ID, events.CreateParams{
		Title:        input.Title,
		Description:  input.Description,
		Date:         input.Date,
		Location:     input.Location,
		MaxAttendees: input.MaxAttendees,
	})
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderEvent(event, true))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var input updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), caller.ID, id, events.UpdateParams{
		Title:        input.Title,
		Description:  input.Description,
		Date:         input.Date,
		Location:     input.Location,
		MaxAttendees: input.MaxAttendees,
	})
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, renderEvent(event, true))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), caller.ID, id); err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "event deleted"})
}

func (h *EventsHandler) Attend(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	event, err := h.Service.Attend(r.Context(), caller.ID, id)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, renderEvent(event, true))
}

func (h *EventsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var input commentRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.AddComment(r.Context(), caller.ID, id, input.Content)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderEvent(event, true))
}

func (h *EventsHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	commentID := strings.TrimSpace(pathParam(r, "commentId"))
	if err := ids.ValidateULID(commentID); err != nil {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Comment not found", err, h.Env)
		return
	}

	if err := h.Service.DeleteComment(r.Context(), caller.ID, id, commentID); err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "comment deleted"})
}
