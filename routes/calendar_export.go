package routes

import (
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"rally/calendar"
	"rally/trips"
)

// ExportCalendar serves a trip as an .ics download. The trip service's own
// export is used unless ?source=local is given or the download fails, in
// which case the trip is fetched and rendered here.
func (h *Rally) ExportCalendar(e *core.RequestEvent) error {
	tripID, _ := pathIDs(e)
	if tripID == "" {
		return badRequest(e, "trip id is required")
	}

	ctx := e.Request.Context()
	if e.Request.URL.Query().Get("source") != "local" {
		data, err := h.service.DownloadCalendar(ctx, tripID)
		if err == nil {
			return sendCalendar(e, trips.TripPlan{TripID: tripID}, data)
		}
		h.logger.Warn("Calendar download failed, rendering locally", "error", err, "tripId", tripID)
	}

	plan, err := h.service.GetTrip(ctx, tripID)
	if err != nil {
		return h.serviceError(e, "ExportCalendar", err, tripID)
	}
	return sendCalendar(e, plan, h.exporter.Export(plan))
}

func sendCalendar(e *core.RequestEvent, plan trips.TripPlan, data []byte) error {
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", calendar.Filename(plan)))
	return e.Blob(http.StatusOK, "text/calendar; charset=utf-8", data)
}
