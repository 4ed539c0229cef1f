package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/weekly-planner/internal/application"
	"github.com/example/weekly-planner/internal/calendar"
)

type agendaService interface {
	GetDay(ctx context.Context, principal application.Principal, scheduleID, date string) (application.AgendaDay, error)
	GetRange(ctx context.Context, params application.AgendaParams) ([]application.AgendaDay, error)
}

type AgendaHandler struct {
	service   agendaService
	responder responder
}

func NewAgendaHandler(service agendaService, logger *slog.Logger) *AgendaHandler {
	return &AgendaHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// Get serves either a single day (date=) or an inclusive range (start= and
// end=) of materialized agenda days.
func (h *AgendaHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	query := r.URL.Query()

	if date := strings.TrimSpace(query.Get("date")); date != "" {
		day, err := h.service.GetDay(r.Context(), principal, scheduleID, date)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, agendaResponse{Days: []agendaDayDTO{toAgendaDayDTO(day)}})
		return
	}

	days, err := h.service.GetRange(r.Context(), application.AgendaParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		StartDate:  strings.TrimSpace(query.Get("start")),
		EndDate:    strings.TrimSpace(query.Get("end")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, agendaResponse{Days: toAgendaDayDTOs(days)})
}

type agendaResponse struct {
	Days []agendaDayDTO `json:"days"`
}

type agendaDayDTO struct {
	Date     string                 `json:"date"`
	Entries  []materializedEntryDTO `json:"entries"`
	Warnings []conflictWarningDTO   `json:"warnings,omitempty"`
}

type materializedEntryDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Date             string `json:"date"`
	DayOfWeek        int    `json:"day_of_week"`
	StartTimeMinutes int    `json:"start_time_minutes"`
	DurationMinutes  int    `json:"duration_minutes"`
	IsOverride       bool   `json:"is_override,omitempty"`
	OverrideType     string `json:"override_type,omitempty"`
	BaseEntryID      string `json:"base_entry_id,omitempty"`
	PhaseID          string `json:"phase_id,omitempty"`
}

type conflictWarningDTO struct {
	Date        string `json:"date"`
	FirstID     string `json:"first_id"`
	FirstName   string `json:"first_name"`
	SecondID    string `json:"second_id"`
	SecondName  string `json:"second_name"`
	OverlapFrom int    `json:"overlap_from"`
	OverlapTo   int    `json:"overlap_to"`
}

func toAgendaDayDTO(day application.AgendaDay) agendaDayDTO {
	return agendaDayDTO{
		Date:     day.Date,
		Entries:  toMaterializedEntryDTOs(day.Entries),
		Warnings: toConflictWarningDTOs(day.Warnings),
	}
}

func toAgendaDayDTOs(days []application.AgendaDay) []agendaDayDTO {
	if len(days) == 0 {
		return nil
	}
	out := make([]agendaDayDTO, 0, len(days))
	for _, day := range days {
		out = append(out, toAgendaDayDTO(day))
	}
	return out
}

func toMaterializedEntryDTOs(entries []calendar.MaterializedEntry) []materializedEntryDTO {
	out := make([]materializedEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, materializedEntryDTO{
			ID:               entry.ID,
			Name:             entry.Name,
			Date:             entry.Date,
			DayOfWeek:        entry.DayOfWeek,
			StartTimeMinutes: entry.StartTimeMinutes,
			DurationMinutes:  entry.DurationMinutes,
			IsOverride:       entry.IsOverride,
			OverrideType:     string(entry.OverrideType),
			BaseEntryID:      entry.BaseEntryID,
			PhaseID:          entry.PhaseID,
		})
	}
	return out
}

func toConflictWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			Date:        warning.Date,
			FirstID:     warning.FirstID,
			FirstName:   warning.FirstName,
			SecondID:    warning.SecondID,
			SecondName:  warning.SecondName,
			OverlapFrom: warning.OverlapFrom,
			OverlapTo:   warning.OverlapTo,
		})
	}
	return out
}
