package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"rally/tripapi"
)

const maxVoiceUploadBytes = 16 << 20

// VoiceIntent forwards a recorded voice command to the trip service. The
// trip id comes from the form, falling back to the session's saved trip.
func (h *Rally) VoiceIntent(e *core.RequestEvent) error {
	if err := e.Request.ParseMultipartForm(maxVoiceUploadBytes); err != nil {
		return badRequest(e, "invalid multipart body")
	}

	session := h.session(e)

	tripID := strings.TrimSpace(e.Request.FormValue("trip_id"))
	if tripID == "" {
		saved, ok, err := session.TripID()
		if err != nil {
			return h.storeError(e, "VoiceIntent", err)
		}
		if !ok {
			return badRequest(e, "trip_id is required")
		}
		tripID = saved
	}

	file, header, err := e.Request.FormFile("audio")
	if errors.Is(err, http.ErrMissingFile) {
		return badRequest(e, "audio is required")
	}
	if err != nil {
		return badRequest(e, "unable to read audio upload")
	}
	defer file.Close()

	res, err := h.service.VoiceIntent(e.Request.Context(), tripID, tripapi.VoiceAudio{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		return h.serviceError(e, "VoiceIntent", err, tripID)
	}

	h.remember(session, res.Trip)
	h.logger.Info("Voice intent handled", "tripId", tripID, "action", res.Decision.Action, "blockId", res.Decision.BlockID)
	return e.JSON(http.StatusOK, res)
}
