package dateformat

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDefaultLocale(t *testing.T) {
	f, err := New("")
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"2021-03-10T00:00:00Z", "10 Mar 2021"},
		{"2021-03-10T19:25:28+0000", "10 Mar 2021"},
		{"2021-12-01T08:00:00.123Z", "01 Dec 2021"},
		{"2021-03-10", "10 Mar 2021"},
		{"2021-03-10T23:30:00-03:00", "11 Mar 2021"},
	}
	for _, tt := range tests {
		got, err := f.Format(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	f, err := New("en_US")
	require.NoError(t, err)

	first, err := f.Format("2021-03-10T00:00:00Z")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.Format("2021-03-10T00:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFormatPortugueseMonthNames(t *testing.T) {
	f, err := New("pt_BR")
	require.NoError(t, err)

	got, err := f.Format("2021-08-15T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "15 ago 2021", strings.ToLower(got))
	assert.True(t, strings.HasPrefix(got, "15 "), "day must come first: %q", got)
	assert.True(t, strings.HasSuffix(got, " 2021"), "year must come last: %q", got)
}

func TestFormatWithLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	f, err := New("en_US", WithLocation(loc))
	require.NoError(t, err)

	got, err := f.Format("2021-03-10T01:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "09 Mar 2021", got)
}

func TestFormatInvalid(t *testing.T) {
	f, err := New("")
	require.NoError(t, err)

	for _, in := range []string{"", "   ", "not a date", "2021-13-40", "10/03/2021"} {
		got, err := f.Format(in)
		assert.Empty(t, got, in)
		var invalid *InvalidDateError
		require.True(t, errors.As(err, &invalid), "input %q: want InvalidDateError, got %v", in, err)
		assert.Equal(t, in, invalid.Value)
	}
}

func TestNewUnsupportedLocale(t *testing.T) {
	_, err := New("xx_YY")
	assert.Error(t, err)
}
