// Package filter parses the query strings typed into the dashboard.
package filter

import (
	"sort"
	"strconv"
	"strings"
)

const (
	argumentSeparator = " "
	rangeSeparator    = ":"
)

type interval struct {
	min, max int
}

// LengthSet is a set of directed packet lengths.
type LengthSet struct {
	// sorted, non-overlapping, non-adjacent
	intervals []interval
	// set when parsed from non-empty text, even if nothing in it parsed
	active bool
}

// ParseLengths parses space separated tokens, each an integer or an
// inclusive min:max range. Tokens that do not parse are ignored, and a
// reversed range contributes nothing. Any non-empty s yields an active set,
// so "abc" filters out every packet.
func ParseLengths(s string) LengthSet {
	var ivs []interval
	for _, tok := range strings.Split(s, argumentSeparator) {
		if tok == "" {
			continue
		}
		if strings.Contains(tok, rangeSeparator) {
			parts := strings.Split(tok, rangeSeparator)
			if len(parts) != 2 {
				continue
			}
			lo, err1 := strconv.Atoi(parts[0])
			hi, err2 := strconv.Atoi(parts[1])
			if err1 != nil || err2 != nil || lo > hi {
				continue
			}
			ivs = append(ivs, interval{lo, hi})
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		ivs = append(ivs, interval{v, v})
	}
	return LengthSet{intervals: merge(ivs), active: s != ""}
}

func merge(ivs []interval) []interval {
	if len(ivs) == 0 {
		return nil
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].min < ivs[j].min })
	out := ivs[:1]
	for _, iv := range ivs[1:] {
		last := &out[len(out)-1]
		if iv.min <= last.max || iv.min-1 == last.max {
			if iv.max > last.max {
				last.max = iv.max
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Empty reports whether the set accepts nothing.
func (s LengthSet) Empty() bool {
	return len(s.intervals) == 0
}

// Active reports whether the set should be applied at all. The zero
// LengthSet and ParseLengths("") are inactive and mean "no filter".
func (s LengthSet) Active() bool {
	return s.active
}

// Contains reports whether n is in the set.
func (s LengthSet) Contains(n int) bool {
	i := sort.Search(len(s.intervals), func(i int) bool { return s.intervals[i].max >= n })
	return i < len(s.intervals) && s.intervals[i].min <= n
}

// Values expands the set into a sorted slice.
func (s LengthSet) Values() []int {
	var out []int
	for _, iv := range s.intervals {
		for v := iv.min; v <= iv.max; v++ {
			out = append(out, v)
			if v == iv.max {
				break
			}
		}
	}
	return out
}

// String renders the set back in the query grammar.
func (s LengthSet) String() string {
	parts := make([]string, 0, len(s.intervals))
	for _, iv := range s.intervals {
		if iv.min == iv.max {
			parts = append(parts, strconv.Itoa(iv.min))
		} else {
			parts = append(parts, strconv.Itoa(iv.min)+rangeSeparator+strconv.Itoa(iv.max))
		}
	}
	return strings.Join(parts, argumentSeparator)
}

// MatchSession reports whether a session legend matches the session query.
// An empty query matches everything.
func MatchSession(legend, query string) bool {
	return query == "" || strings.Contains(legend, query)
}
