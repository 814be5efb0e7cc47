package contracts

import (
	"fmt"
	"time"
)

// PeriodStart returns the first calendar day covered by a period code such as
// "6mo" or "ytd", counted back from now. "max" returns the zero time.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case "1d":
		return day.AddDate(0, 0, -1), nil
	case "5d":
		return day.AddDate(0, 0, -5), nil
	case "1mo":
		return day.AddDate(0, -1, 0), nil
	case "3mo":
		return day.AddDate(0, -3, 0), nil
	case "6mo":
		return day.AddDate(0, -6, 0), nil
	case "", "1y":
		return day.AddDate(-1, 0, 0), nil
	case "2y":
		return day.AddDate(-2, 0, 0), nil
	case "5y":
		return day.AddDate(-5, 0, 0), nil
	case "10y":
		return day.AddDate(-10, 0, 0), nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case "max":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}
