package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"rally/calendar"
	"rally/persist"
	"rally/tripapi"
	"rally/trips"
)

const (
	sessionHeader    = "X-Rally-Session"
	defaultSession   = "default"
	maxSessionLength = 64
)

// TripService is the remote trip service as the handlers use it.
type TripService interface {
	CreateTrip(ctx context.Context, inputs trips.TripFormInputs) (trips.TripPlan, error)
	GetTrip(ctx context.Context, tripID string) (trips.TripPlan, error)
	SkipBlock(ctx context.Context, tripID, blockID string) (trips.TripPlan, error)
	ChangeBlock(ctx context.Context, tripID, blockID string, payload trips.ChangeBlockPayload) (trips.TripPlan, error)
	VoiceIntent(ctx context.Context, tripID string, audio tripapi.VoiceAudio) (trips.VoiceIntentResponse, error)
	DownloadCalendar(ctx context.Context, tripID string) ([]byte, error)
}

type Rally struct {
	service  TripService
	sessions *persist.Sessions
	exporter *calendar.Exporter
	logger   *slog.Logger
}

func NewRally(service TripService, sessions *persist.Sessions, exporter *calendar.Exporter, logger *slog.Logger) *Rally {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rally{
		service:  service,
		sessions: sessions,
		exporter: exporter,
		logger:   logger,
	}
}

func (h *Rally) Register(se *core.ServeEvent) {
	g := se.Router.Group("/api/rally")

	g.POST("/trips", h.CreateTrip)
	g.GET("/trip", h.CurrentTrip)
	g.GET("/trips/{tripId}", h.GetTrip)
	g.GET("/trips/{tripId}/calendar.ics", h.ExportCalendar)
	g.POST("/trips/{tripId}/blocks/{blockId}/skip", h.SkipBlock)
	g.POST("/trips/{tripId}/blocks/{blockId}/change", h.ChangeBlock)
	g.POST("/trips/{tripId}/blocks/{blockId}/like", h.ToggleLike)
	g.POST("/voice/intent", h.VoiceIntent)
	g.GET("/session", h.GetSession)
	g.DELETE("/session", h.ClearSession)
}

func (h *Rally) session(e *core.RequestEvent) *persist.Session {
	name := strings.TrimSpace(e.Request.Header.Get(sessionHeader))
	if name == "" {
		name = defaultSession
	}
	if len(name) > maxSessionLength {
		name = name[:maxSessionLength]
	}
	return h.sessions.Get(name)
}

// remember saves the trip id of a plan the service just returned. A failure
// is logged and not surfaced, since the plan itself is valid.
func (h *Rally) remember(session *persist.Session, plan trips.TripPlan) {
	if plan.TripID == "" {
		return
	}
	if err := session.SetTripID(plan.TripID); err != nil {
		h.logger.Warn("Unable to save trip id", "error", err, "tripId", plan.TripID)
	}
}

// logBlockUpdate records how a block looks in the plan the service returned
// after a skip or change.
func (h *Rally) logBlockUpdate(msg string, plan trips.TripPlan, blockID string) {
	block, date, ok := plan.FindBlock(blockID)
	if !ok {
		h.logger.Warn(msg+", block missing from returned trip", "tripId", plan.TripID, "blockId", blockID)
		return
	}
	h.logger.Info(msg, "tripId", plan.TripID, "blockId", blockID, "date", date, "title", block.Title, "status", block.Status)
}

func pathIDs(e *core.RequestEvent) (string, string) {
	return strings.TrimSpace(e.Request.PathValue("tripId")), strings.TrimSpace(e.Request.PathValue("blockId"))
}

func badRequest(e *core.RequestEvent, msg string) error {
	return e.JSON(http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

// serviceError logs a failed trip service call and answers with a status
// that matches the kind of failure.
func (h *Rally) serviceError(e *core.RequestEvent, op string, err error, tripID string) error {
	var apiErr *tripapi.APIError
	errors.As(err, &apiErr)

	switch {
	case errors.Is(err, trips.ErrInvalidInputs), errors.Is(err, trips.ErrInvalidChange):
		return badRequest(e, err.Error())
	case tripapi.IsNotFound(err):
		return e.JSON(http.StatusNotFound, map[string]string{
			"error": apiErr.Message,
		})
	case apiErr != nil:
		h.logger.Error(op+" failed", "error", err, "tripId", tripID, "status", apiErr.StatusCode)
		return e.JSON(http.StatusBadGateway, map[string]string{
			"error": fmt.Sprintf("trip service request failed: %s", apiErr.Message),
		})
	case errors.Is(err, trips.ErrInvalidResponseShape), errors.Is(err, trips.ErrMissingTransitStart):
		h.logger.Error(op+" returned an unusable trip", "error", err, "tripId", tripID)
		return e.JSON(http.StatusBadGateway, map[string]string{
			"error": "trip service returned an unusable trip",
		})
	default:
		h.logger.Error(op+" failed", "error", err, "tripId", tripID)
		return e.JSON(http.StatusBadGateway, map[string]string{
			"error": fmt.Sprintf("trip service request failed: %s", err.Error()),
		})
	}
}

func (h *Rally) storeError(e *core.RequestEvent, op string, err error) error {
	h.logger.Error(op+" failed", "error", err)
	return e.JSON(http.StatusInternalServerError, map[string]string{
		"error": "unable to access saved trip state",
	})
}
