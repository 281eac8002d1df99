package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeader = Header{"id", "email", "score", "notes"}

func TestHeader_GetSet_RoundTrip(t *testing.T) {
	r := testHeader.New()

	require.NoError(t, testHeader.Set(&r, "email", "ab@cs.cmu.edu"))
	got, err := testHeader.Get(r, "email")
	require.NoError(t, err)
	assert.Equal(t, "ab@cs.cmu.edu", got)

	// Overwrite round-trips too.
	require.NoError(t, testHeader.Set(&r, "email", "cd@cs.cmu.edu"))
	got, err = testHeader.Get(r, "email")
	require.NoError(t, err)
	assert.Equal(t, "cd@cs.cmu.edu", got)
}

func TestHeader_UnknownColumn(t *testing.T) {
	r := testHeader.New()

	_, err := testHeader.Get(r, "nope")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	err = testHeader.Set(&r, "nope", "x")
	assert.ErrorIs(t, err, ErrColumnNotFound)
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestHeader_Get_ShortRecord(t *testing.T) {
	// The backend elides trailing empty cells; reads past the end are empty.
	r := Record{"ab"}
	got, err := testHeader.Get(r, "notes")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestHeader_Set_GrowsShortRecord(t *testing.T) {
	r := Record{"ab"}
	require.NoError(t, testHeader.Set(&r, "score", "10"))
	assert.Equal(t, Record{"ab", "", "10"}, r)
}

func TestHeader_GetAcross_PreservesHeaderOrder(t *testing.T) {
	r := Record{"ab", "ab@cs.cmu.edu", "10", "late"}
	// Request out of header order; values come back in header order.
	got := testHeader.GetAcross(r, []string{"notes", "id"})
	assert.Equal(t, []string{"ab", "late"}, got)
}

func TestHeader_SetAcross(t *testing.T) {
	r := testHeader.New()
	require.NoError(t, testHeader.SetAcross(&r, map[string]string{
		"id":    "ab",
		"score": "7.5",
	}))
	assert.Equal(t, Record{"ab", "", "7.5", ""}, r)
}

func TestHeader_Column(t *testing.T) {
	rows := []Record{
		{"ab", "ab@x.edu"},
		{"cd"},
	}
	got, err := testHeader.Column(rows, "email")
	require.NoError(t, err)
	assert.Equal(t, []string{"ab@x.edu", ""}, got)
}

func TestHeader_Truncate(t *testing.T) {
	h := Header{"a", "b"}
	rows := []Record{
		{"1", "2", "3", "4"},
		{"5"},
		{},
	}
	got := h.Truncate(rows)

	require.Len(t, got, 3)
	// Never longer than the header, retained cells untouched.
	assert.Equal(t, Record{"1", "2"}, got[0])
	assert.Equal(t, Record{"5"}, got[1])
	assert.Equal(t, Record{}, got[2])
	for _, r := range got {
		assert.LessOrEqual(t, len(r), len(h))
	}
}
