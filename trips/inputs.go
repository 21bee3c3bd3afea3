package trips

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var (
	ErrInvalidInputs = errors.New("invalid trip inputs")
	ErrInvalidChange = errors.New("invalid change request")
)

// Interests offered by the trip form.
var Interests = []string{"art", "food", "nightlife", "history", "outdoors", "shopping"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("interest", func(fl validator.FieldLevel) bool {
		return lo.Contains(Interests, fl.Field().String())
	})
	return v
}

type TripFormInputs struct {
	StartDate     string      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string      `json:"end_date" validate:"required,datetime=2006-01-02"`
	Origin        string      `json:"origin" validate:"required"`
	Destinations  []string    `json:"destinations" validate:"min=1,dive,required"`
	BudgetLevel   BudgetLevel `json:"budget_level" validate:"oneof=low mid high"`
	Interests     []string    `json:"interests" validate:"dive,interest"`
	Neighborhoods []string    `json:"neighborhoods"`
}

// Normalize upper-cases the location codes, drops blank destinations and
// neighborhoods, and fills in the default budget level.
func (in TripFormInputs) Normalize() TripFormInputs {
	out := in
	out.Origin = strings.ToUpper(strings.TrimSpace(in.Origin))
	out.Destinations = lo.FilterMap(in.Destinations, func(d string, _ int) (string, bool) {
		d = strings.ToUpper(strings.TrimSpace(d))
		return d, d != ""
	})
	out.Neighborhoods = lo.FilterMap(in.Neighborhoods, func(n string, _ int) (string, bool) {
		n = strings.TrimSpace(n)
		return n, n != ""
	})
	out.Interests = append([]string{}, in.Interests...)
	if out.BudgetLevel == "" {
		out.BudgetLevel = BudgetMid
	}
	return out
}

// Validate checks the inputs before they are sent to the trip service.
func (in TripFormInputs) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInputs, err)
	}
	if in.EndDate < in.StartDate {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidInputs, in.EndDate, in.StartDate)
	}
	return nil
}

// ParseNeighborhoods splits a comma separated neighborhood filter.
func ParseNeighborhoods(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(n string, _ int) (string, bool) {
		n = strings.TrimSpace(n)
		return n, n != ""
	})
}

type ChangeDirection string

const (
	DirectionCheaper     ChangeDirection = "cheaper"
	DirectionCloser      ChangeDirection = "closer"
	DirectionHigherRated ChangeDirection = "higher_rated"
)

type ChangeBlockPayload struct {
	PreferenceText string          `json:"preference_text" validate:"required"`
	Direction      ChangeDirection `json:"direction,omitempty" validate:"omitempty,oneof=cheaper closer higher_rated"`
}

func (p ChangeBlockPayload) Validate() error {
	trimmed := p
	trimmed.PreferenceText = strings.TrimSpace(p.PreferenceText)
	if err := validate.Struct(trimmed); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidChange, err)
	}
	return nil
}
