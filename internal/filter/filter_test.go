package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLengths(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"100 200:202", []int{100, 200, 201, 202}},
		{"abc 5", []int{5}},
		{"", nil},
		{"5 5 3:6", []int{3, 4, 5, 6}},
		{"-300 -2:0", []int{-300, -2, -1, 0}},
		{"7:5 8", []int{8}},
		{"1:2:3 x:1 4", []int{4}},
		{"10  11", []int{10, 11}},
		{"1:3 4:5", []int{1, 2, 3, 4, 5}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseLengths(tc.in).Values(), "%q", tc.in)
	}
}

func TestLengthSetContains(t *testing.T) {
	s := ParseLengths("-300 100 200:202 0:1000000000")
	assert.True(t, s.Contains(-300))
	assert.True(t, s.Contains(999999))
	assert.False(t, s.Contains(-299))
	assert.False(t, s.Contains(-1))
	assert.False(t, s.Empty())
	assert.Equal(t, "-300 0:1000000000", s.String())

	assert.True(t, ParseLengths("junk").Empty())
	assert.False(t, ParseLengths("junk").Contains(0))
}

func TestLengthSetActive(t *testing.T) {
	assert.False(t, LengthSet{}.Active())
	assert.False(t, ParseLengths("").Active())
	assert.True(t, ParseLengths("100").Active())
	assert.True(t, ParseLengths("junk").Active(), "text that parses to nothing still filters")
	assert.True(t, ParseLengths(" ").Active())
}

func TestMatchSession(t *testing.T) {
	legend := ":51000<->93.184.216.34:443 (example.com)"
	assert.True(t, MatchSession(legend, ""))
	assert.True(t, MatchSession(legend, "example"))
	assert.True(t, MatchSession(legend, ":443"))
	assert.False(t, MatchSession(legend, "google"))
}
