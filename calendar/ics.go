// Package calendar renders trip plans as iCalendar files.
package calendar

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	pbtypes "github.com/pocketbase/pocketbase/tools/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"rally/trips"
)

const (
	productID       = "-//Rally//Trip Planner//EN"
	defaultDuration = time.Hour
)

type Options struct {
	// DefaultTimezone is used when neither the plan nor its places say where
	// the trip happens.
	DefaultTimezone string
	// SkipSkipped leaves skipped blocks out instead of exporting them as
	// cancelled events.
	SkipSkipped bool
}

type Exporter struct {
	opts   Options
	finder TimezoneFinder
	logger *slog.Logger
	now    func() time.Time
}

func NewExporter(opts Options, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		opts:   opts,
		finder: defaultFinder,
		logger: logger,
		now:    time.Now,
	}
}

// Filename is the download name of a plan's calendar.
func Filename(plan trips.TripPlan) string {
	return fmt.Sprintf("trip-%s.ics", plan.TripID)
}

// Export renders one event per block. Blocks without a usable start time are
// left out.
func (x *Exporter) Export(plan trips.TripPlan) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(fmt.Sprintf("Trip %s", plan.TripID))
	cal.SetXWRTimezone(ResolveTimezone(plan, x.finder, x.opts.DefaultTimezone))

	stamp := x.now().UTC()
	for _, day := range plan.Days {
		for _, block := range day.Blocks {
			if block.Status == trips.StatusSkipped && x.opts.SkipSkipped {
				continue
			}

			start, ok := parseTime(block.StartTime)
			if !ok {
				x.logger.Warn("Calendar export skipped block without start time",
					"tripId", plan.TripID, "blockId", block.BlockID, "startTime", block.StartTime)
				continue
			}
			end, ok := parseTime(block.EndTime)
			if !ok || end.Before(start) {
				end = start.Add(defaultDuration)
			}

			event := cal.AddEvent(fmt.Sprintf("%s-%s@rally", plan.TripID, block.BlockID))
			event.SetDtStampTime(stamp)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(summary(block))

			if block.Kind != "" {
				event.SetProperty(ics.ComponentPropertyCategories, KindLabel(block.Kind))
			}
			if block.Status == trips.StatusSkipped {
				event.SetStatus(ics.ObjectStatusCancelled)
			} else {
				event.SetStatus(ics.ObjectStatusConfirmed)
			}

			if place := block.PlaceRef; place != nil {
				if loc := location(place); loc != "" {
					event.SetLocation(loc)
				}
				if place.MapsURL != "" {
					event.SetURL(place.MapsURL)
				}
				if place.HasCoordinates() {
					event.SetProperty(ics.ComponentPropertyGeo, fmt.Sprintf("%.6f;%.6f", *place.Lat, *place.Lng))
				}
			}

			if desc := description(block); desc != "" {
				event.SetDescription(desc)
			}
		}
	}

	return []byte(cal.Serialize())
}

// KindLabel turns a block kind such as "free_time" into "Free Time".
func KindLabel(kind string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(kind, "_", " "))
}

func summary(block trips.Block) string {
	if strings.TrimSpace(block.Title) != "" {
		return block.Title
	}
	if block.Kind != "" {
		return KindLabel(block.Kind)
	}
	return "Trip block"
}

func location(place *trips.PlaceRef) string {
	parts := make([]string, 0, 2)
	if place.Name != "" {
		parts = append(parts, place.Name)
	}
	if place.Address != "" && place.Address != place.Name {
		parts = append(parts, place.Address)
	}
	return strings.Join(parts, ", ")
}

func description(block trips.Block) string {
	lines := make([]string, 0, 3)

	if rating, ok := block.Meta.Rating(); ok {
		line := fmt.Sprintf("Rating: %.1f", rating)
		if count, ok := block.Meta.ReviewCount(); ok {
			line += fmt.Sprintf(" (%d reviews)", count)
		}
		lines = append(lines, line)
	}
	if tier := block.Meta.PriceTier(); tier != "" {
		lines = append(lines, "Price: "+tier)
	}
	if notes := strings.TrimSpace(block.Notes); notes != "" {
		lines = append(lines, notes)
	}

	return strings.Join(lines, "\n")
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	dt, err := pbtypes.ParseDateTime(value)
	if err != nil || dt.IsZero() {
		return time.Time{}, false
	}
	return dt.Time(), true
}
