package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	orig := Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ID:        "3f1c6a2e-9d2b-4c8a-b1e0-5a7d9f4c2e81",
	}

	s, err := EncodeCursor(orig)
	require.NoError(t, err)
	require.NotEmpty(t, s)

	got, err := DecodeCursor(s)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CreatedAt.Equal(orig.CreatedAt))
	assert.Equal(t, orig.ID, got.ID)
}

func TestDecodeCursorEmpty(t *testing.T) {
	got, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeCursorInvalid(t *testing.T) {
	for _, s := range []string{"%%%", "bm90LWpzb24"} {
		_, err := DecodeCursor(s)
		assert.ErrorIs(t, err, ErrInvalidCursor, s)
	}
}
