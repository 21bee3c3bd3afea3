package trips

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"

	"github.com/samber/lo"
)

// ParseTripPlan decodes a trip service response body and normalizes it.
func ParseTripPlan(data []byte) (TripPlan, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		return TripPlan{}, err
	}
	return Normalize(raw)
}

// DecodeRaw decodes a response body into the raw trip schema. Anything but a
// JSON object is rejected with ErrInvalidResponseShape, and so is a day or
// block list that is not a list. Leaf fields of the wrong type are dropped.
func DecodeRaw(data []byte) (*RawTripResponse, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponseShape, err)
	}
	if probe == nil {
		return nil, fmt.Errorf("%w: payload is null", ErrInvalidResponseShape)
	}

	var raw RawTripResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponseShape, err)
	}
	return &raw, nil
}

// Normalize builds a TripPlan from a raw response. Days come out ordered by
// date and blocks by start time, with transit entries merged into the day of
// their start date. Dates and times are compared as strings, which is correct
// for zero-padded ISO-8601 values.
func Normalize(raw *RawTripResponse) (TripPlan, error) {
	if raw == nil {
		return TripPlan{}, ErrInvalidResponseShape
	}

	rawDays := raw.Itinerary
	if rawDays == nil {
		rawDays = raw.Days
	}

	days := lo.Map(rawDays, func(d RawDay, _ int) Day {
		return Day{
			Date:   d.Date.Value,
			Blocks: lo.Map(d.Blocks, canonicalBlock),
		}
	})

	for _, tb := range lo.Map(raw.Transit, canonicalBlock) {
		if tb.StartTime == "" {
			return TripPlan{}, fmt.Errorf("%w: block %q", ErrMissingTransitStart, tb.BlockID)
		}

		date := datePrefix(tb.StartTime)
		_, idx, found := lo.FindIndexOf(days, func(d Day) bool {
			return d.Date == date
		})
		if !found {
			days = append(days, Day{Date: date, Blocks: []Block{}})
			idx = len(days) - 1
		}

		exists := lo.ContainsBy(days[idx].Blocks, func(b Block) bool {
			return b.BlockID == tb.BlockID
		})
		if !exists {
			days[idx].Blocks = append(days[idx].Blocks, tb)
		}
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	for _, day := range days {
		blocks := day.Blocks
		sort.SliceStable(blocks, func(i, j int) bool {
			return blocks[i].StartTime < blocks[j].StartTime
		})
	}

	in := lo.FromPtr(raw.Inputs)
	budget := lo.FromPtrOr(firstString(in.BudgetLevel, raw.BudgetLevel), string(BudgetMid))

	return TripPlan{
		TripID:        lo.FromPtr(firstString(in.TripID, raw.TripID)),
		Timezone:      lo.FromPtr(firstString(in.Timezone, raw.Timezone)),
		Origin:        lo.FromPtr(firstString(in.Origin, raw.Origin)),
		Destinations:  firstList(in.Destinations, raw.Destinations),
		StartDate:     lo.FromPtr(firstString(in.StartDate, raw.StartDate)),
		EndDate:       lo.FromPtr(firstString(in.EndDate, raw.EndDate)),
		BudgetLevel:   BudgetLevel(budget),
		Interests:     firstList(in.Interests, raw.Interests),
		Neighborhoods: firstList(in.Neighborhoods, raw.Neighborhoods),
		Days:          days,
	}, nil
}

// canonicalBlock maps a raw block onto the canonical field names, preferring
// start_time/end_time over start_at/end_at. An empty time counts as missing.
func canonicalBlock(b RawBlock, _ int) Block {
	return Block{
		BlockID:   b.BlockID.Value,
		Title:     b.Title.Value,
		Kind:      b.Kind.Value,
		Status:    BlockStatus(b.Status.Value),
		StartTime: lo.CoalesceOrEmpty(b.StartTime.Value, b.StartAt.Value),
		EndTime:   lo.CoalesceOrEmpty(b.EndTime.Value, b.EndAt.Value),
		PlaceRef:  b.PlaceRef.PlaceRef(),
		Meta:      maps.Clone(b.Meta),
		Notes:     b.Notes.Value,
	}
}

func datePrefix(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

// firstString returns the first value that was present in the payload, even
// when it is empty.
func firstString(values ...OptString) *string {
	for _, v := range values {
		if v.Valid {
			return v.Ptr()
		}
	}
	return nil
}

// firstList returns the first list that was present in the payload, or an
// empty list.
func firstList(lists ...OptStrings) []string {
	for _, l := range lists {
		if l.Valid {
			return append([]string{}, l.Values...)
		}
	}
	return []string{}
}
