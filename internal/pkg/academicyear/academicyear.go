// Package academicyear resolves and validates academic year labels.
//
// An academic year starts in June and is written as "YYYY-YYYY", e.g. a date
// in September 2024 belongs to "2024-2025" while May 2024 still belongs to
// "2023-2024".
package academicyear

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartMonth is the first month of an academic year.
const StartMonth = time.June

// DefaultOptionCount is the number of labels returned by Options when the
// caller does not ask for a specific count.
const DefaultOptionCount = 5

// Year is a parsed academic year label.
type Year struct {
	Start int
}

// End returns the calendar year the academic year finishes in.
func (y Year) End() int {
	return y.Start + 1
}

// String formats the year as "YYYY-YYYY".
func (y Year) String() string {
	return fmt.Sprintf("%04d-%04d", y.Start, y.End())
}

// Previous returns the academic year before y.
func (y Year) Previous() Year {
	return Year{Start: y.Start - 1}
}

// Contains reports whether t falls inside the academic year.
func (y Year) Contains(t time.Time) bool {
	return For(t) == y
}

// For returns the academic year that t belongs to.
func For(t time.Time) Year {
	if t.Month() >= StartMonth {
		return Year{Start: t.Year()}
	}
	return Year{Start: t.Year() - 1}
}

// Current returns the label of the academic year containing now.
func Current(now time.Time) string {
	return For(now).String()
}

// Options returns count consecutive labels in descending order, starting with
// the academic year containing now. A count below one falls back to
// DefaultOptionCount.
func Options(now time.Time, count int) []string {
	if count < 1 {
		count = DefaultOptionCount
	}
	year := For(now)
	labels := make([]string, 0, count)
	for i := 0; i < count; i++ {
		labels = append(labels, year.String())
		year = year.Previous()
	}
	return labels
}

// Parse parses a "YYYY-YYYY" label whose second year immediately follows the
// first one.
func Parse(label string) (Year, error) {
	label = strings.TrimSpace(label)
	first, second, ok := strings.Cut(label, "-")
	if !ok || len(first) != 4 || len(second) != 4 {
		return Year{}, fmt.Errorf("academic year %q must have the form YYYY-YYYY", label)
	}
	start, err := strconv.Atoi(first)
	if err != nil {
		return Year{}, fmt.Errorf("academic year %q has a non-numeric start year", label)
	}
	end, err := strconv.Atoi(second)
	if err != nil {
		return Year{}, fmt.Errorf("academic year %q has a non-numeric end year", label)
	}
	if end != start+1 {
		return Year{}, fmt.Errorf("academic year %q must span two consecutive years", label)
	}
	return Year{Start: start}, nil
}

// Valid reports whether label is a well-formed academic year.
func Valid(label string) bool {
	_, err := Parse(label)
	return err == nil
}
