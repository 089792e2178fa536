package budget

import (
	"math"
	"strconv"
	"strings"
)

const (
	Min  = 0
	Max  = 10000
	Step = 50
)

// Range is a two-handle budget filter. Min never exceeds Max.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Default spans the whole domain.
func Default() Range {
	return Range{Min: Min, Max: Max}
}

// Sanitize snaps v to the step grid and clamps it into the domain.
func Sanitize(v float64) int {
	if math.IsNaN(v) {
		return Min
	}
	snapped := math.Round(v/Step) * Step
	if snapped < Min {
		return Min
	}
	if snapped > Max {
		return Max
	}
	return int(snapped)
}

func (r Range) SetMin(v float64) Range {
	s := Sanitize(v)
	if s > r.Max {
		s = r.Max
	}
	r.Min = s
	return r
}

func (r Range) SetMax(v float64) Range {
	s := Sanitize(v)
	if s < r.Min {
		s = r.Min
	}
	r.Max = s
	return r
}

// FromInputs commits two manually typed values. Unlike the handles, out of order values
// swap instead of clamping.
func FromInputs(a, b float64) Range {
	lo, hi := Sanitize(a), Sanitize(b)
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi}
}

// ValueToPosition maps a domain value onto a track of the given length.
func ValueToPosition(v int, trackLength float64) float64 {
	if trackLength <= 0 {
		return 0
	}
	return float64(v-Min) / float64(Max-Min) * trackLength
}

// PositionToValue maps a track position back into the domain.
func PositionToValue(pos, trackLength float64) int {
	if trackLength <= 0 {
		return Min
	}
	return Sanitize(pos/trackLength*float64(Max-Min) + Min)
}

// ParseAmount reads a manually typed amount keeping only its digits.
func ParseAmount(text string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return Max
	}
	return v
}
