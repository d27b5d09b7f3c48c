package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	assert.Empty(t, EncodeCursor(""))

	c := EncodeCursor("e:BOAT:00000000000000000042")
	key, err := DecodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, "e:BOAT:00000000000000000042", key)

	key, err = DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, c := range []string{"!!!", "a b", "===="} {
		_, err := DecodeCursor(c)
		assert.ErrorIs(t, err, ErrInvalidCursor, c)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"sub-a", "sub-a"},
		{true, "true"},
		{-1, "-1"},
		{int64(-1), "-1"},
		{float64(-1), "-1"},
		{json.Number("-1"), "-1"},
		{json.Number("28.50"), "28.5"},
		{28.5, "28.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonical(tt.in), "%#v", tt.in)
	}
}

func TestScalar(t *testing.T) {
	assert.Equal(t, int64(12), Scalar(json.Number("12")))
	assert.Equal(t, 12.5, Scalar(json.Number("12.5")))
	assert.Equal(t, int64(3), Scalar(3))
	assert.Equal(t, "x", Scalar("x"))
}

func TestMatches(t *testing.T) {
	attrs := Attributes{"owner": "sub-a", "carrier": json.Number("-1")}

	assert.True(t, Matches(attrs, nil))
	assert.True(t, Matches(attrs, []Filter{{Field: "owner", Value: "sub-a"}, {Field: "carrier", Value: int64(-1)}}))
	assert.False(t, Matches(attrs, []Filter{{Field: "owner", Value: "sub-b"}}))
	assert.False(t, Matches(attrs, []Filter{{Field: "missing", Value: ""}}))
}

func TestErrorIsByCode(t *testing.T) {
	wrapped := ErrUnavailable.WithCause(assert.AnError)

	assert.ErrorIs(t, wrapped, ErrUnavailable)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, 503, wrapped.HTTPCode())
}
