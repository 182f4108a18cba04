// Package datetime provides month arithmetic for ledger dates.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-montecarlo/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// ValidateMonth checks that date is a well-formed YYYY-MM month.
func ValidateMonth(date string) error {
	if _, err := time.Parse(DateTimeLayout, date); err != nil {
		return fmt.Errorf("invalid month %q, expected format %s", date, DateTimeLayout)
	}
	return nil
}

// CurrentMonth formats the month containing fixedTime.
func CurrentMonth(fixedTime time.Time) string {
	return fixedTime.Format(DateTimeLayout)
}

// MonthLabels returns count consecutive month labels beginning at start. An
// empty start yields empty labels so callers can render undated ledgers.
func MonthLabels(start string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	labels := make([]string, count)
	if start == "" {
		return labels, nil
	}
	t, err := time.Parse(DateTimeLayout, start)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start date %s: %w", start, err)
	}
	for i := range labels {
		labels[i] = t.AddDate(0, i, 0).Format(DateTimeLayout)
	}
	return labels, nil
}
