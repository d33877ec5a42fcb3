package dashboardhttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

const (
	defaultWindowDays = 7
	maxRangeDays      = 3 * 366
)

// Filters is the validated query of a dashboard request.
type Filters struct {
	Range     dashboard.DateRange
	HotelIDs  []string
	MaxPoints int
}

type filterInput struct {
	From      string   `validate:"omitempty,datetime=2006-01-02"`
	To        string   `validate:"omitempty,datetime=2006-01-02"`
	MaxPoints int      `validate:"min=0,max=31"`
	Hotels    []string `validate:"max=50,dive,max=64"`
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

func (h *Handler) parseFilters(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	input := filterInput{
		From:   strings.TrimSpace(q.Get("from")),
		To:     strings.TrimSpace(q.Get("to")),
		Hotels: splitList(q.Get("hotels")),
	}
	if raw := strings.TrimSpace(q.Get("max_points")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Filters{}, validationError{field: "max_points"}
		}
		input.MaxPoints = n
	}
	if err := h.validate.Struct(input); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			return Filters{}, validationError{field: strings.ToLower(vErrs[0].Field())}
		}
		return Filters{}, err
	}

	today := h.now().UTC().Truncate(24 * time.Hour)
	to := today
	if input.To != "" {
		parsed, err := dashboard.ParseDay(input.To)
		if err != nil {
			return Filters{}, validationError{field: "to"}
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -defaultWindowDays)
	if input.From != "" {
		parsed, err := dashboard.ParseDay(input.From)
		if err != nil {
			return Filters{}, validationError{field: "from"}
		}
		from = parsed
	}
	rng, err := dashboard.NewDateRange(from, to)
	if err != nil || rng.Days() > maxRangeDays {
		return Filters{}, validationError{field: "range"}
	}
	maxPoints := input.MaxPoints
	if maxPoints == 0 {
		maxPoints = h.maxPoints
	}
	return Filters{Range: rng, HotelIDs: input.Hotels, MaxPoints: maxPoints}, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
