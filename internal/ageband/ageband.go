package ageband

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Band is one of the ten fixed age brackets a quote distributes lives into.
type Band int

const (
	Band0To18 Band = iota
	Band19To23
	Band24To28
	Band29To33
	Band34To38
	Band39To43
	Band44To48
	Band49To53
	Band54To58
	Band59Plus
)

// Count is the number of bands.
const Count = 10

// MaxLives is the upper bound for a single band.
const MaxLives = 999

type bandInfo struct {
	key        string
	wireSuffix string
	upperAge   int // inclusive; -1 for the open-ended band
}

var bands = [Count]bandInfo{
	Band0To18:  {key: "0-18", wireSuffix: "018", upperAge: 18},
	Band19To23: {key: "19-23", wireSuffix: "1923", upperAge: 23},
	Band24To28: {key: "24-28", wireSuffix: "2428", upperAge: 28},
	Band29To33: {key: "29-33", wireSuffix: "2933", upperAge: 33},
	Band34To38: {key: "34-38", wireSuffix: "3438", upperAge: 38},
	Band39To43: {key: "39-43", wireSuffix: "3943", upperAge: 43},
	Band44To48: {key: "44-48", wireSuffix: "4448", upperAge: 48},
	Band49To53: {key: "49-53", wireSuffix: "4953", upperAge: 53},
	Band54To58: {key: "54-58", wireSuffix: "5458", upperAge: 58},
	Band59Plus: {key: "59+", wireSuffix: "59Upper", upperAge: -1},
}

var byKey = map[string]Band{}

func init() {
	for i, b := range bands {
		byKey[b.key] = Band(i)
	}
}

// Bands returns every band in display order.
func Bands() []Band {
	out := make([]Band, Count)
	for i := range out {
		out[i] = Band(i)
	}
	return out
}

func (b Band) Valid() bool { return b >= 0 && b < Count }

// Key is the canonical key used in payloads.
func (b Band) Key() string {
	if !b.Valid() {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return bands[b].key
}

func (b Band) String() string { return b.Key() }

// WireSuffix is the suffix the catalog appends to priceAgeGroup/discountAgeGroup fields.
func (b Band) WireSuffix() string {
	if !b.Valid() {
		return ""
	}
	return bands[b].wireSuffix
}

// Parse resolves a canonical band key.
func Parse(key string) (Band, bool) {
	b, ok := byKey[key]
	return b, ok
}

// ForAge maps an age in whole years to its band.
func ForAge(age int) Band {
	for i, b := range bands {
		if b.upperAge >= 0 && age <= b.upperAge {
			return Band(i)
		}
	}
	return Band59Plus
}

func (b Band) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("ageband: invalid band %d", int(b))
	}
	return []byte(b.Key()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("ageband: unknown band %q", string(text))
	}
	*b = parsed
	return nil
}

// Ledger holds the number of insured lives per band. The zero value is an empty ledger.
// Ledger is a value type: every mutation returns a new ledger.
type Ledger struct {
	counts [Count]int
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxLives {
		return MaxLives
	}
	return v
}

// Adjust adds delta to a band, saturating at 0 and MaxLives. Unknown bands are ignored.
func (l Ledger) Adjust(b Band, delta int) Ledger {
	if !b.Valid() {
		return l
	}
	// bounded so the sum cannot overflow
	if delta > MaxLives {
		delta = MaxLives
	} else if delta < -MaxLives {
		delta = -MaxLives
	}
	l.counts[b] = clamp(l.counts[b] + delta)
	return l
}

func (l Ledger) Count(b Band) int {
	if !b.Valid() {
		return 0
	}
	return l.counts[b]
}

func (l Ledger) Total() int {
	total := 0
	for _, c := range l.counts {
		total += c
	}
	return total
}

// Replace swaps the whole ledger. Bands absent from counts become zero.
func (l Ledger) Replace(counts map[Band]int) Ledger {
	var next Ledger
	for b, c := range counts {
		if b.Valid() {
			next.counts[b] = clamp(c)
		}
	}
	return next
}

func (l Ledger) IsEmpty() bool { return l.Total() == 0 }

// Positive returns the counts of the bands holding at least one life.
func (l Ledger) Positive() map[string]int {
	out := make(map[string]int)
	for i, c := range l.counts {
		if c > 0 {
			out[Band(i).Key()] = c
		}
	}
	return out
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, Count)
	for i, c := range l.counts {
		m[Band(i).Key()] = c
	}
	return json.Marshal(m)
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	counts := make(map[Band]int, len(m))
	for k, v := range m {
		b, ok := Parse(k)
		if !ok {
			return fmt.Errorf("ageband: unknown band %q", k)
		}
		counts[b] = v
	}
	*l = Ledger{}.Replace(counts)
	return nil
}
