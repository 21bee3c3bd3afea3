package calendar

import (
	"sync"

	"github.com/ringsaturn/tzf"

	"rally/trips"
)

// TimezoneFinder resolves an IANA timezone name from coordinates.
type TimezoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// lazyFinder loads the tzf polygon data on first use.
type lazyFinder struct {
	once   sync.Once
	finder tzf.F
	err    error
}

func (l *lazyFinder) GetTimezoneName(lng float64, lat float64) string {
	l.once.Do(func() {
		l.finder, l.err = tzf.NewDefaultFinder()
	})
	if l.err != nil {
		return ""
	}
	return l.finder.GetTimezoneName(lng, lat)
}

var defaultFinder TimezoneFinder = &lazyFinder{}

// ResolveTimezone picks the zone a plan's events are shown in: the plan's own
// timezone, then the zone of the first block with coordinates, then fallback.
func ResolveTimezone(plan trips.TripPlan, finder TimezoneFinder, fallback string) string {
	if plan.Timezone != "" {
		return plan.Timezone
	}

	if finder != nil {
		for _, day := range plan.Days {
			for _, block := range day.Blocks {
				if !block.PlaceRef.HasCoordinates() {
					continue
				}
				if name := finder.GetTimezoneName(*block.PlaceRef.Lng, *block.PlaceRef.Lat); name != "" {
					return name
				}
			}
		}
	}

	if fallback != "" {
		return fallback
	}
	return "UTC"
}
