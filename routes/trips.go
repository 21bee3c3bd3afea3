package routes

import (
	"encoding/json"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"rally/trips"
)

type sessionResponse struct {
	TripID string                `json:"trip_id,omitempty"`
	Prefs  trips.TripPrefs       `json:"prefs"`
	Inputs *trips.TripFormInputs `json:"inputs,omitempty"`
}

func (h *Rally) CreateTrip(e *core.RequestEvent) error {
	var inputs trips.TripFormInputs
	if err := json.NewDecoder(e.Request.Body).Decode(&inputs); err != nil {
		return badRequest(e, "invalid request body")
	}

	inputs = inputs.Normalize()
	if err := inputs.Validate(); err != nil {
		return badRequest(e, err.Error())
	}

	plan, err := h.service.CreateTrip(e.Request.Context(), inputs)
	if err != nil {
		return h.serviceError(e, "CreateTrip", err, "")
	}

	session := h.session(e)
	h.remember(session, plan)
	if err := session.SaveInputs(inputs); err != nil {
		h.logger.Warn("Unable to save trip inputs", "error", err, "tripId", plan.TripID)
	}

	h.logger.Info("Trip generated", "tripId", plan.TripID, "days", len(plan.Days), "blocks", plan.BlockCount())
	return e.JSON(http.StatusOK, plan)
}

// CurrentTrip re-fetches the trip saved for this session.
func (h *Rally) CurrentTrip(e *core.RequestEvent) error {
	tripID, ok, err := h.session(e).TripID()
	if err != nil {
		return h.storeError(e, "CurrentTrip", err)
	}
	if !ok {
		return e.JSON(http.StatusNotFound, map[string]string{
			"error": "no saved trip",
		})
	}

	plan, err := h.service.GetTrip(e.Request.Context(), tripID)
	if err != nil {
		return h.serviceError(e, "CurrentTrip", err, tripID)
	}
	return e.JSON(http.StatusOK, plan)
}

func (h *Rally) GetTrip(e *core.RequestEvent) error {
	tripID, _ := pathIDs(e)
	if tripID == "" {
		return badRequest(e, "trip id is required")
	}

	plan, err := h.service.GetTrip(e.Request.Context(), tripID)
	if err != nil {
		return h.serviceError(e, "GetTrip", err, tripID)
	}
	return e.JSON(http.StatusOK, plan)
}

// SkipBlock marks a block skipped and answers with the trip as the service
// now has it.
func (h *Rally) SkipBlock(e *core.RequestEvent) error {
	tripID, blockID := pathIDs(e)
	if tripID == "" || blockID == "" {
		return badRequest(e, "trip id and block id are required")
	}

	plan, err := h.service.SkipBlock(e.Request.Context(), tripID, blockID)
	if err != nil {
		return h.serviceError(e, "SkipBlock", err, tripID)
	}

	h.remember(h.session(e), plan)
	h.logBlockUpdate("Block skipped", plan, blockID)
	return e.JSON(http.StatusOK, plan)
}

func (h *Rally) ChangeBlock(e *core.RequestEvent) error {
	tripID, blockID := pathIDs(e)
	if tripID == "" || blockID == "" {
		return badRequest(e, "trip id and block id are required")
	}

	var payload trips.ChangeBlockPayload
	if err := json.NewDecoder(e.Request.Body).Decode(&payload); err != nil {
		return badRequest(e, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return badRequest(e, err.Error())
	}

	plan, err := h.service.ChangeBlock(e.Request.Context(), tripID, blockID, payload)
	if err != nil {
		return h.serviceError(e, "ChangeBlock", err, tripID)
	}

	h.remember(h.session(e), plan)
	h.logBlockUpdate("Block changed", plan, blockID)
	return e.JSON(http.StatusOK, plan)
}

func (h *Rally) ToggleLike(e *core.RequestEvent) error {
	_, blockID := pathIDs(e)
	if blockID == "" {
		return badRequest(e, "block id is required")
	}

	prefs, err := h.session(e).ToggleLike(blockID)
	if err != nil {
		return h.storeError(e, "ToggleLike", err)
	}
	return e.JSON(http.StatusOK, prefs)
}

func (h *Rally) GetSession(e *core.RequestEvent) error {
	session := h.session(e)

	tripID, _, err := session.TripID()
	if err != nil {
		return h.storeError(e, "GetSession", err)
	}
	prefs, err := session.Prefs()
	if err != nil {
		return h.storeError(e, "GetSession", err)
	}
	inputs, ok, err := session.Inputs()
	if err != nil {
		return h.storeError(e, "GetSession", err)
	}

	resp := sessionResponse{TripID: tripID, Prefs: prefs}
	if ok {
		resp.Inputs = &inputs
	}
	return e.JSON(http.StatusOK, resp)
}

func (h *Rally) ClearSession(e *core.RequestEvent) error {
	if err := h.session(e).Clear(); err != nil {
		return h.storeError(e, "ClearSession", err)
	}
	return e.NoContent(http.StatusNoContent)
}
