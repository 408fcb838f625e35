package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/users"
)

type AuthHandler struct {
	Users  *users.Service
	Events *events.Service
	Tokens *auth.JWTManager
	Env    string
}

func NewAuthHandler(service *users.Service, eventsService *events.Service, tokens *auth.JWTManager, env string) *AuthHandler {
	return &AuthHandler{Users: service, Events: eventsService, Tokens: tokens, Env: env}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is returned by both register and login: the user identity
// plus a fresh token. The password hash never leaves the service layer.
type sessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type profileResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	CreatedEvents   []eventResponse `json:"createdEvents"`
	AttendingEvents []eventResponse `json:"attendingEvents"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	user, err := h.Users.Register(r.Context(), users.RegisterParams{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		var vErr users.ValidationError
		switch {
		case errors.As(err, &vErr):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
				problem.WithErrors(map[string]interface{}{vErr.Field: vErr.Message}))
		case errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email already registered", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		}
		return
	}

	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuth, "Unauthorized", err, h.Env,
				problem.WithDetail("invalid credentials"))
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		return
	}

	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	})
}

// Me returns the caller's profile with the events they created and attend
// embedded in full.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuth, "Unauthorized", nil, h.Env)
		return
	}

	profile, err := h.Users.Profile(r.Context(), caller.ID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		return
	}

	created, attending, err := h.profileEvents(r, profile)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:              profile.ID,
		Name:            profile.Name,
		Email:           profile.Email,
		CreatedEvents:   created,
		AttendingEvents: attending,
	})
}

// profileEvents resolves the profile's event id lists into full projections.
func (h *AuthHandler) profileEvents(r *http.Request, profile *users.Profile) ([]eventResponse, []eventResponse, error) {
	created := []eventResponse{}
	attending := []eventResponse{}
	if len(profile.CreatedEvents) == 0 && len(profile.AttendingEvents) == 0 {
		return created, attending, nil
	}

	createdIDs := make(map[string]bool, len(profile.CreatedEvents))
	for _, id := range profile.CreatedEvents {
		createdIDs[id] = true
	}
	attendingIDs := make(map[string]bool, len(profile.AttendingEvents))
	for _, id := range profile.AttendingEvents {
		attendingIDs[id] = true
	}

	list, err := h.Events.List(r.Context())
	if err != nil {
		return nil, nil, err
	}
	for i := range list {
		if createdIDs[list[i].ID] {
			created = append(created, renderEvent(&list[i], true))
		}
		if attendingIDs[list[i].ID] {
			attending = append(attending, renderEvent(&list[i], true))
		}
	}
	return created, attending, nil
}
