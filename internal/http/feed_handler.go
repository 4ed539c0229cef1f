package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/weekly-planner/internal/application"
)

type feedService interface {
	RenderFeed(ctx context.Context, params application.FeedParams) (string, error)
}

// FeedHandler serves iCalendar exports. The feed is addressed by an opaque
// token minted with the schedule, so requests carry no session.
type FeedHandler struct {
	service   feedService
	responder responder
	now       func() time.Time
}

func NewFeedHandler(service feedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{service: service, responder: newResponder(defaultLogger(logger)), now: time.Now}
}

func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request, token string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(token) == "" {
		http.NotFound(w, r)
		return
	}

	now := time.Now
	if h.now != nil {
		now = h.now
	}

	feed, err := h.service.RenderFeed(r.Context(), application.FeedParams{
		Token:     strings.TrimSpace(token),
		Reference: now(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, feed); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to write feed", "error", err)
	}
}
