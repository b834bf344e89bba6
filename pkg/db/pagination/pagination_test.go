package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10_000}.Limit())
}

func TestTrim(t *testing.T) {
	rows := []int{9, 8, 7}
	page, info, err := Trim(rows, 2, strconv.Itoa)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 8}, page)
	assert.True(t, info.HasMore)

	c, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "8", c.ID)

	page, info, err = Trim(rows, 3, strconv.Itoa)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)

	_, err = DecodeCursor("e30") // {}
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}
