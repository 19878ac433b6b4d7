// Package parsing converts raw query parameters into typed report inputs. Every
// failure is a *models.ValidationError naming the offending parameter.
package parsing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kscout/runboard-api/models"
)

// DateLayout is the format of date parameters
const DateLayout = "2006-01-02"

// dateExp matches a date in DateLayout, no other forms are accepted
var dateExp *regexp.Regexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a YYYY-MM-DD calendar date in loc. The result is midnight of
// that date.
func ParseDate(field, value string, loc *time.Location) (time.Time, error) {
	if !dateExp.MatchString(value) {
		return time.Time{}, models.NewValidationError(field,
			"date is required and must be in YYYY-MM-DD format")
	}

	date, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, models.NewValidationError(field,
			"%s is not a valid calendar date", value)
	}

	return date, nil
}

// Period is a trailing report window
type Period string

// PeriodWeek is the last 7 days
const PeriodWeek Period = "week"

// PeriodMonth is the last month
const PeriodMonth Period = "month"

// PeriodQuarter is the last 3 months
const PeriodQuarter Period = "quarter"

// PeriodYear is the last year
const PeriodYear Period = "year"

// ParsePeriod returns the period named by token. Unknown or empty tokens mean a week.
func ParsePeriod(token string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(token))) {
	case PeriodMonth:
		return PeriodMonth
	case PeriodQuarter:
		return PeriodQuarter
	case PeriodYear:
		return PeriodYear
	default:
		return PeriodWeek
	}
}

// Start returns the calendar instant one period before t
func (p Period) Start(t time.Time) time.Time {
	switch p {
	case PeriodMonth:
		return t.AddDate(0, -1, 0)
	case PeriodQuarter:
		return t.AddDate(0, -3, 0)
	case PeriodYear:
		return t.AddDate(-1, 0, 0)
	default:
		return t.AddDate(0, 0, -7)
	}
}

// ParsePositiveInt parses an optional positive integer parameter. Empty values
// yield def, values above max are rejected when max > 0.
func ParsePositiveInt(field, value string, def, max int) (int, error) {
	if len(value) == 0 {
		return def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, models.NewValidationError(field, "must be a positive integer")
	}

	if max > 0 && n > max {
		return 0, models.NewValidationError(field, "must be between 1 and %d", max)
	}

	return n, nil
}

// Page is a pagination request
type Page struct {
	// Number of the page, starts at 1
	Number int

	// Limit is the page size
	Limit int
}

// Skip returns how many records precede the page
func (p Page) Skip() int64 {
	return int64(p.Number-1) * int64(p.Limit)
}

// ParsePage parses page and limit parameters
func ParsePage(page, limit string, defLimit, maxLimit int) (Page, error) {
	number, err := ParsePositiveInt("page", page, 1, 0)
	if err != nil {
		return Page{}, err
	}

	size, err := ParsePositiveInt("limit", limit, defLimit, maxLimit)
	if err != nil {
		return Page{}, err
	}

	if int64(number-1) > math.MaxInt64/int64(size) {
		return Page{}, models.NewValidationError("page", "is too large")
	}

	return Page{
		Number: number,
		Limit:  size,
	}, nil
}

// ParseSearch trims a search term and checks it is at most 200 characters
func ParseSearch(value string) (string, error) {
	value = strings.TrimSpace(value)
	if len([]rune(value)) > 200 {
		return "", models.NewValidationError("search",
			"search term must be between 1 and 200 characters")
	}

	return value, nil
}

// ParseTeam trims an optional team filter and checks it is at most 100 characters
func ParseTeam(value string) (string, error) {
	value = strings.TrimSpace(value)
	if len([]rune(value)) > 100 {
		return "", models.NewValidationError("team",
			"team name must be between 1 and 100 characters")
	}

	return value, nil
}
