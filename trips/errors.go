package trips

import "errors"

var (
	// ErrInvalidResponseShape is returned when a trip payload is not a JSON
	// object or one of its day or block lists is not a list.
	ErrInvalidResponseShape = errors.New("invalid trip response shape")

	// ErrMissingTransitStart is returned when a transit entry has neither
	// start_time nor start_at, so it cannot be placed on a day.
	ErrMissingTransitStart = errors.New("transit entry has no start time")
)
