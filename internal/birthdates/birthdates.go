package birthdates

import (
	"regexp"
	"strconv"
	"time"

	"quote-engine/internal/ageband"
)

const (
	minYear = 1900
	maxYear = 2100
)

var (
	separators  = regexp.MustCompile(`[,\s]+`)
	datePattern = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// Result is the outcome of converting a list of birth dates.
type Result struct {
	ValidDates   []string       `json:"valid_dates"`
	InvalidDates []string       `json:"invalid_dates"`
	Ledger       ageband.Ledger `json:"ledger"`

	counts map[ageband.Band]int
}

// Committable reports whether the ledger may replace the current one.
func (r Result) Committable() bool {
	return len(r.InvalidDates) == 0 && len(r.ValidDates) > 0
}

// Counts returns how many valid dates fell into each band.
func (r Result) Counts() map[ageband.Band]int {
	out := make(map[ageband.Band]int, len(r.counts))
	for b, c := range r.counts {
		out[b] = c
	}
	return out
}

// Convert parses a free-text list of dd/mm/yyyy dates and buckets each valid date into
// an age band as of now. An empty input leaves current untouched.
func Convert(text string, current ageband.Ledger, now time.Time) Result {
	res := Result{
		ValidDates:   []string{},
		InvalidDates: []string{},
		Ledger:       current,
		counts:       map[ageband.Band]int{},
	}

	for _, token := range separators.Split(text, -1) {
		if token == "" {
			continue
		}
		birth, ok := Parse(token)
		if !ok {
			res.InvalidDates = append(res.InvalidDates, token)
			continue
		}
		res.ValidDates = append(res.ValidDates, token)
		res.counts[ageband.ForAge(Age(birth, now))]++
	}

	if len(res.ValidDates) == 0 && len(res.InvalidDates) == 0 {
		return res
	}

	res.Ledger = ageband.Ledger{}.Replace(res.counts)
	return res
}

// Parse validates a dd/mm/yyyy token as a real calendar date.
func Parse(token string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if day < 1 || day > 31 || month < 1 || month > 12 || year < minYear || year > maxYear {
		return time.Time{}, false
	}

	// time.Date normalizes overflow (31/02 becomes 02/03), so a round trip catches it
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// Age returns whole years between birth and now, floored at zero.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
