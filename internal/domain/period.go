package domain

import (
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

// AllMonths selects every month of Period.Year.
const AllMonths time.Month = 0

// Period scopes aggregate reporting to a year, or to a single month of it.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d civil.Date) bool {
	if d.Year != p.Year {
		return false
	}
	return p.Month == AllMonths || d.Month == p.Month
}

// String renders "2024" or "2024-03".
func (p Period) String() string {
	if p.Month == AllMonths {
		return strconv.Itoa(p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriod builds a period from query-style values. An empty or "all" month
// selects the whole year; an empty year defaults to the year of now.
func ParsePeriod(year, month string, now time.Time) (Period, error) {
	p := Period{Year: now.Year(), Month: AllMonths}
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return Period{}, fmt.Errorf("invalid year %q: %w", year, err)
		}
		p.Year = y
	}
	if month == "" || month == "all" {
		return p, nil
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("invalid month %q", month)
	}
	p.Month = time.Month(m)
	return p, nil
}
