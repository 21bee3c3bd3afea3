package trips

import (
	"bytes"
	"encoding/json"

	"github.com/samber/lo"
)

// RawTripResponse is the trip payload as the trip service sends it. Every
// leaf field is optional and a value of the wrong JSON type counts as absent.
// Only the day and block lists are structural: when one of them is present
// but not a list, decoding fails.
type RawTripResponse struct {
	TripID        OptString      `json:"trip_id"`
	Timezone      OptString      `json:"timezone"`
	Origin        OptString      `json:"origin"`
	Destinations  OptStrings     `json:"destinations"`
	StartDate     OptString      `json:"start_date"`
	EndDate       OptString      `json:"end_date"`
	BudgetLevel   OptString      `json:"budget_level"`
	Interests     OptStrings     `json:"interests"`
	Neighborhoods OptStrings     `json:"neighborhoods"`
	Inputs        *RawTripInputs `json:"inputs"`
	Itinerary     []RawDay       `json:"itinerary"`
	Days          []RawDay       `json:"days"`
	Transit       []RawBlock     `json:"transit"`
}

// RawTripInputs mirrors the form inputs the server echoes back with a trip.
type RawTripInputs struct {
	TripID        OptString  `json:"trip_id"`
	Timezone      OptString  `json:"timezone"`
	Origin        OptString  `json:"origin"`
	Destinations  OptStrings `json:"destinations"`
	StartDate     OptString  `json:"start_date"`
	EndDate       OptString  `json:"end_date"`
	BudgetLevel   OptString  `json:"budget_level"`
	Interests     OptStrings `json:"interests"`
	Neighborhoods OptStrings `json:"neighborhoods"`
}

// UnmarshalJSON treats inputs that are not an object as empty.
func (in *RawTripInputs) UnmarshalJSON(data []byte) error {
	type plain RawTripInputs
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		*in = RawTripInputs{}
		return nil
	}
	*in = RawTripInputs(v)
	return nil
}

type RawDay struct {
	Date   OptString  `json:"date"`
	Blocks []RawBlock `json:"blocks"`
}

// RawBlock accepts both time field spellings: start_time/end_time and the
// older start_at/end_at.
type RawBlock struct {
	BlockID   OptString `json:"block_id"`
	Title     OptString `json:"title"`
	Kind      OptString `json:"kind"`
	Status    OptString `json:"status"`
	StartTime OptString `json:"start_time"`
	StartAt   OptString `json:"start_at"`
	EndTime   OptString `json:"end_time"`
	EndAt     OptString `json:"end_at"`
	PlaceRef  RawPlace  `json:"place_ref"`
	Meta      BlockMeta `json:"meta"`
	Notes     OptString `json:"notes"`
}

// RawPlace is a place reference as sent. Valid is false when place_ref was
// absent, null or not an object.
type RawPlace struct {
	Name    OptString `json:"name"`
	Address OptString `json:"address"`
	MapsURL OptString `json:"maps_url"`
	Lat     OptFloat  `json:"lat"`
	Lng     OptFloat  `json:"lng"`
	Valid   bool      `json:"-"`
}

func (p *RawPlace) UnmarshalJSON(data []byte) error {
	type plain RawPlace
	var v plain
	*p = RawPlace{}
	if isNull(data) || json.Unmarshal(data, &v) != nil {
		return nil
	}
	*p = RawPlace(v)
	p.Valid = true
	return nil
}

// PlaceRef returns a new canonical place, or nil when none was sent.
func (p RawPlace) PlaceRef() *PlaceRef {
	if !p.Valid {
		return nil
	}
	return &PlaceRef{
		Name:    p.Name.Value,
		Address: p.Address.Value,
		MapsURL: p.MapsURL.Value,
		Lat:     p.Lat.Ptr(),
		Lng:     p.Lng.Ptr(),
	}
}

// OptString is a string field that may be missing from the payload.
type OptString struct {
	Value string
	Valid bool
}

func (s *OptString) UnmarshalJSON(data []byte) error {
	*s = OptString{}
	var v string
	if !isNull(data) && json.Unmarshal(data, &v) == nil {
		*s = OptString{Value: v, Valid: true}
	}
	return nil
}

// Ptr returns a pointer to a copy of the value, or nil when it is missing.
func (s OptString) Ptr() *string {
	if !s.Valid {
		return nil
	}
	return &s.Value
}

// OptStrings is a list of strings that may be missing from the payload.
// Items that are not strings are dropped.
type OptStrings struct {
	Values []string
	Valid  bool
}

func (l *OptStrings) UnmarshalJSON(data []byte) error {
	*l = OptStrings{}
	var items []json.RawMessage
	if isNull(data) || json.Unmarshal(data, &items) != nil {
		return nil
	}
	l.Valid = true
	l.Values = lo.FilterMap(items, func(item json.RawMessage, _ int) (string, bool) {
		var s string
		return s, !isNull(item) && json.Unmarshal(item, &s) == nil
	})
	return nil
}

type OptFloat struct {
	Value float64
	Valid bool
}

func (f *OptFloat) UnmarshalJSON(data []byte) error {
	*f = OptFloat{}
	var v float64
	if !isNull(data) && json.Unmarshal(data, &v) == nil {
		*f = OptFloat{Value: v, Valid: true}
	}
	return nil
}

func (f OptFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Value
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
