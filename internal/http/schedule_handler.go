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

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (*domain.Schedule, error)
	GetSchedule(ctx context.Context, principal application.Principal, scheduleID string) (*domain.Schedule, error)
	ListSchedules(ctx context.Context, principal application.Principal) ([]*domain.Schedule, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, scheduleID string) error
	ShareSchedule(ctx context.Context, params application.ShareScheduleParams) (*domain.Schedule, error)
	UnshareSchedule(ctx context.Context, params application.ShareScheduleParams) (*domain.Schedule, error)
	CreatePhase(ctx context.Context, params application.CreatePhaseParams) (*domain.Schedule, error)
	UpdatePhase(ctx context.Context, params application.UpdatePhaseParams) (*domain.Schedule, error)
	DeletePhase(ctx context.Context, principal application.Principal, scheduleID, phaseID string) (*domain.Schedule, error)
	CreateEntry(ctx context.Context, params application.CreateEntryParams) (*domain.Schedule, error)
	UpdateEntry(ctx context.Context, params application.UpdateEntryParams) (*domain.Schedule, error)
	RemoveEntry(ctx context.Context, params application.RemoveEntryParams) (*domain.Schedule, error)
}

type ScheduleHandler struct {
	service   scheduleService
	agenda    OverrideInvalidator
	responder responder
}

func NewScheduleHandler(service scheduleService, agenda OverrideInvalidator, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, agenda: agenda, responder: newResponder(defaultLogger(logger))}
}

func (h *ScheduleHandler) invalidate(scheduleID string) {
	if h.agenda != nil {
		h.agenda.Invalidate(scheduleID)
	}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	schedule, err := h.service.GetSchedule(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedules, err := h.service.ListSchedules(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSchedulesResponse{Schedules: toScheduleDTOs(schedules)})
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteSchedule(r.Context(), principal, scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ScheduleHandler) Share(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.ShareSchedule(r.Context(), application.ShareScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		UserID:     strings.TrimSpace(req.UserID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) Unshare(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}
	if strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.UnshareSchedule(r.Context(), application.ShareScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		UserID:     userID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req phaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.CreatePhase(r.Context(), application.CreatePhaseParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) UpdatePhase(w http.ResponseWriter, r *http.Request, phaseID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req phaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.UpdatePhase(r.Context(), application.UpdatePhaseParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		PhaseID:    phaseID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) DeletePhase(w http.ResponseWriter, r *http.Request, phaseID string) {
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

	schedule, err := h.service.DeletePhase(r.Context(), principal, scheduleID, phaseID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.CreateEntry(r.Context(), application.CreateEntryParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		PhaseID:    strings.TrimSpace(req.PhaseID),
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) UpdateEntry(w http.ResponseWriter, r *http.Request, index int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.UpdateEntry(r.Context(), application.UpdateEntryParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		PhaseID:    strings.TrimSpace(req.PhaseID),
		Index:      index,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *ScheduleHandler) RemoveEntry(w http.ResponseWriter, r *http.Request, index int) {
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

	schedule, err := h.service.RemoveEntry(r.Context(), application.RemoveEntryParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		PhaseID:    strings.TrimSpace(r.URL.Query().Get("phase_id")),
		Index:      index,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidate(scheduleID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(schedule))
}

type scheduleRequest struct {
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
}

func (r scheduleRequest) toInput() application.ScheduleInput {
	return application.ScheduleInput{
		Name:     strings.TrimSpace(r.Name),
		TimeZone: strings.TrimSpace(r.TimeZone),
	}
}

type shareRequest struct {
	UserID string `json:"user_id"`
}

type phaseRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r phaseRequest) toInput() application.PhaseInput {
	return application.PhaseInput{
		Name:      strings.TrimSpace(r.Name),
		StartDate: strings.TrimSpace(r.StartDate),
		EndDate:   strings.TrimSpace(r.EndDate),
	}
}

type entryRequest struct {
	PhaseID          string `json:"phase_id"`
	Name             string `json:"name"`
	DayOfWeek        int    `json:"day_of_week"`
	StartTimeMinutes int    `json:"start_time_minutes"`
	DurationMinutes  int    `json:"duration_minutes"`
}

func (r entryRequest) toInput() application.EntryInput {
	return application.EntryInput{
		Name:             strings.TrimSpace(r.Name),
		DayOfWeek:        r.DayOfWeek,
		StartTimeMinutes: r.StartTimeMinutes,
		DurationMinutes:  r.DurationMinutes,
	}
}

type listSchedulesResponse struct {
	Schedules []scheduleDTO `json:"schedules"`
}

type scheduleDTO struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	SharedUserIDs []string   `json:"shared_user_ids,omitempty"`
	Name          string     `json:"name"`
	TimeZone      string     `json:"time_zone"`
	ICalURL       string     `json:"ical_url"`
	Phases        []phaseDTO `json:"phases"`
}

type phaseDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate string     `json:"start_date,omitempty"`
	EndDate   string     `json:"end_date,omitempty"`
	Entries   []entryDTO `json:"entries"`
}

type entryDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DayOfWeek        int    `json:"day_of_week"`
	StartTimeMinutes int    `json:"start_time_minutes"`
	DurationMinutes  int    `json:"duration_minutes"`
}

func toScheduleDTO(schedule *domain.Schedule) scheduleDTO {
	if schedule == nil {
		return scheduleDTO{}
	}

	phases := make([]phaseDTO, 0, len(schedule.Phases))
	for _, phase := range schedule.Phases {
		phases = append(phases, toPhaseDTO(phase))
	}

	return scheduleDTO{
		ID:            schedule.ID,
		OwnerID:       schedule.OwnerID,
		SharedUserIDs: append([]string(nil), schedule.SharedUserIDs...),
		Name:          schedule.Name,
		TimeZone:      schedule.TimeZone,
		ICalURL:       schedule.ICalURL,
		Phases:        phases,
	}
}

func toPhaseDTO(phase *domain.Phase) phaseDTO {
	if phase == nil {
		return phaseDTO{}
	}

	entries := make([]entryDTO, 0, len(phase.Entries))
	for _, entry := range phase.Entries {
		entries = append(entries, entryDTO{
			ID:               entry.ID,
			Name:             entry.Name,
			DayOfWeek:        entry.DayOfWeek,
			StartTimeMinutes: entry.StartTimeMinutes,
			DurationMinutes:  entry.DurationMinutes,
		})
	}

	return phaseDTO{
		ID:        phase.ID,
		Name:      phase.Name,
		StartDate: phase.StartDate,
		EndDate:   phase.EndDate,
		Entries:   entries,
	}
}

func toScheduleDTOs(schedules []*domain.Schedule) []scheduleDTO {
	if len(schedules) == 0 {
		return nil
	}
	out := make([]scheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toScheduleDTO(schedule))
	}
	return out
}
