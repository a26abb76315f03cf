package common

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate_LocaleVariants(t *testing.T) {
	inputs := []string{
		"46,5191",
		"46.5191",
		" 46.5191 ",
		" 46,5191 ",
		" 46.5191",
		"46 ,5191",
		"\t46.5191\n",
	}
	for _, in := range inputs {
		got, err := ParseCoordinate(in)
		require.NoError(t, err, "input %q", in)
		assert.InDelta(t, 46.5191, got, 1e-12, "input %q", in)
	}
}

func TestParseCoordinate_Negative(t *testing.T) {
	got, err := ParseCoordinate("-6,6323")
	require.NoError(t, err)
	assert.InDelta(t, -6.6323, got, 1e-12)
}

func TestParseCoordinate_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "46,51,91", "NaN", "Inf", "-inf", "1e400"} {
		_, err := ParseCoordinate(in)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "input %q", in)
	}
}

func TestFormatCoordinate_RoundTrip(t *testing.T) {
	s := FormatCoordinate(46.519100)
	assert.Equal(t, "46.519100", s)

	back, err := ParseCoordinate(s)
	require.NoError(t, err)
	assert.InDelta(t, 46.5191, back, 1e-9)
}

func TestSeasons_RoundTrip(t *testing.T) {
	cases := [][]string{
		{},
		{"automne"},
		{"printemps", "été"},
		{"hiver", "automne", "été", "printemps"},
		{"late summer", "early autumn"},
	}
	for _, seasons := range cases {
		got := ParseSeasons(SerializeSeasons(seasons))
		assert.Equal(t, seasons, got)
	}
}

func TestSerializeSeasons(t *testing.T) {
	assert.Equal(t, "", SerializeSeasons(nil))
	assert.Equal(t, "", SerializeSeasons([]string{}))
	assert.Equal(t, "été|automne", SerializeSeasons([]string{"été", "automne"}))
}

func TestParseSeasons_BlankAndPadded(t *testing.T) {
	for _, in := range []string{"", "   ", "|", " | "} {
		got := ParseSeasons(in)
		assert.NotNil(t, got, "input %q", in)
		assert.Empty(t, got, "input %q", in)
	}

	assert.Equal(t, []string{"été", "automne"}, ParseSeasons(" été | automne "))
	assert.Equal(t, []string{"été", "automne"}, ParseSeasons("été||automne"))
}

func TestNormalizeDeletedFlag(t *testing.T) {
	tests := map[string]string{
		"":      "0",
		"0":     "0",
		"0.0":   "0",
		" 0 ":   "0",
		"0,0":   "0",
		"1":     "1",
		"1,0":   "1",
		"1 ":    "1",
		"1.0":   "1",
		" 1":    "1",
		"2":     "1",
		"-1":    "1",
		"TRUE":  "1",
		"true":  "1",
		"FALSE": "0",
		"yes":   "0",
		"abc":   "0",
		"NaN":   "0",
		"1'000": "1",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDeletedFlag(in), "input %q", in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 9, 21, 14, 3, 7, 987654321, time.FixedZone("CEST", 2*60*60))
	assert.Equal(t, "2024-09-21T12:03:07Z", FormatTimestamp(ts))
}

func TestParseCoordinate_AlwaysFinite(t *testing.T) {
	for _, in := range []string{"0", "-0", "90", "-180", "179.999999"} {
		got, err := ParseCoordinate(in)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
	}
}
