package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/weekly-planner/internal/application"
	"github.com/example/weekly-planner/internal/domain"
)

type overrideService interface {
	CreateOverride(ctx context.Context, params application.CreateOverrideParams) (domain.Override, error)
	UpdateOverride(ctx context.Context, params application.UpdateOverrideParams) (domain.Override, error)
	DeleteOverride(ctx context.Context, principal application.Principal, scheduleID, overrideID string) error
	ListOverrides(ctx context.Context, principal application.Principal, scheduleID string) ([]domain.Override, error)
	ValidateOverride(ctx context.Context, params application.ValidateOverrideParams) (application.OverrideValidation, error)
}

// OverrideInvalidator lets the handler drop cached agenda days after a write.
type OverrideInvalidator interface {
	Invalidate(scheduleID string)
}

type OverrideHandler struct {
	service   overrideService
	agenda    OverrideInvalidator
	responder responder
}

func NewOverrideHandler(service overrideService, agenda OverrideInvalidator, logger *slog.Logger) *OverrideHandler {
	return &OverrideHandler{service: service, agenda: agenda, responder: newResponder(defaultLogger(logger))}
}

func (h *OverrideHandler) invalidate(scheduleID string) {
	if h.agenda != nil {
		h.agenda.Invalidate(scheduleID)
	}
}

func (h *OverrideHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	override, err := h.service.CreateOverride(r.Context(), application.CreateOverrideParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toOverrideDTO(override))
}

func (h *OverrideHandler) Update(w http.ResponseWriter, r *http.Request, overrideID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}
	if strings.TrimSpace(overrideID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOverrideID)
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	override, err := h.service.UpdateOverride(r.Context(), application.UpdateOverrideParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		OverrideID: overrideID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toOverrideDTO(override))
}

func (h *OverrideHandler) Delete(w http.ResponseWriter, r *http.Request, overrideID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}
	if strings.TrimSpace(overrideID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOverrideID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.DeleteOverride(r.Context(), principal, scheduleID, overrideID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *OverrideHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	overrides, err := h.service.ListOverrides(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOverridesResponse{Overrides: toOverrideDTOs(overrides)})
}

func (h *OverrideHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	validation, err := h.service.ValidateOverride(r.Context(), application.ValidateOverrideParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, overrideValidationResponse{
		Valid:     validation.Valid,
		Conflicts: toMaterializedEntryDTOs(validation.Conflicts),
	})
}

type overrideRequest struct {
	Date             string  `json:"date"`
	Type             string  `json:"type"`
	BaseEntryID      string  `json:"base_entry_id"`
	Name             *string `json:"name"`
	StartTimeMinutes *int    `json:"start_time_minutes"`
	DurationMinutes  *int    `json:"duration_minutes"`
}

func (r overrideRequest) toInput() application.OverrideInput {
	return application.OverrideInput{
		Date:             strings.TrimSpace(r.Date),
		Type:             domain.OverrideType(strings.TrimSpace(strings.ToUpper(r.Type))),
		BaseEntryID:      strings.TrimSpace(r.BaseEntryID),
		Name:             r.Name,
		StartTimeMinutes: r.StartTimeMinutes,
		DurationMinutes:  r.DurationMinutes,
	}
}

type listOverridesResponse struct {
	Overrides []overrideDTO `json:"overrides"`
}

type overrideValidationResponse struct {
	Valid     bool                   `json:"valid"`
	Conflicts []materializedEntryDTO `json:"conflicts,omitempty"`
}

type overrideDTO struct {
	ID               string  `json:"id"`
	ScheduleID       string  `json:"schedule_id"`
	Date             string  `json:"date"`
	Type             string  `json:"type"`
	BaseEntryID      string  `json:"base_entry_id,omitempty"`
	Name             *string `json:"name,omitempty"`
	StartTimeMinutes *int    `json:"start_time_minutes,omitempty"`
	DurationMinutes  *int    `json:"duration_minutes,omitempty"`
}

func toOverrideDTO(override domain.Override) overrideDTO {
	dto := overrideDTO{
		ID:          override.ID,
		ScheduleID:  override.ScheduleID,
		Date:        override.Date,
		Type:        string(override.Type),
		BaseEntryID: override.BaseEntryID,
	}
	if override.Data != nil {
		dto.Name = override.Data.Name
		dto.StartTimeMinutes = override.Data.StartTimeMinutes
		dto.DurationMinutes = override.Data.DurationMinutes
	}
	return dto
}

func toOverrideDTOs(overrides []domain.Override) []overrideDTO {
	if len(overrides) == 0 {
		return nil
	}
	out := make([]overrideDTO, 0, len(overrides))
	for _, override := range overrides {
		out = append(out, toOverrideDTO(override))
	}
	return out
}
