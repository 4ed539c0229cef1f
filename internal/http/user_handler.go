package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/weekly-planner/internal/application"
	"github.com/example/weekly-planner/internal/domain"
)

type userService interface {
	CreateUser(ctx context.Context, params application.CreateUserParams) (domain.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (domain.User, error)
	GetUser(ctx context.Context, principal application.Principal, userID string) (domain.User, error)
	DeleteUser(ctx context.Context, principal application.Principal, userID string) error
	ListUsers(ctx context.Context, principal application.Principal) ([]domain.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	user, err := h.service.CreateUser(r.Context(), application.CreateUserParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		UserID:    userID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), principal, userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.DeleteUser(r.Context(), principal, userID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Me returns the record backing the authenticated session.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || principal.UserID == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	user, err := h.service.GetUser(r.Context(), principal, principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: toUserDTOs(users)})
}

type userRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	IsAdmin     bool   `json:"is_admin"`
}

func (r userRequest) toInput() application.UserInput {
	return application.UserInput{
		Email:       strings.TrimSpace(r.Email),
		DisplayName: strings.TrimSpace(r.DisplayName),
		Password:    r.Password,
		IsAdmin:     r.IsAdmin,
	}
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toUserDTO(user domain.User) userDTO {
	return userDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
		CreatedAt:   user.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toUserDTOs(users []domain.User) []userDTO {
	if len(users) == 0 {
		return nil
	}
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}
