package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_Generate(t *testing.T) {
	g, err := NewIDGenerator(1)
	require.NoError(t, err)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}

		sid, err := ParseID(id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), sid.Node())
	}
}

func TestNewIDGenerator_InvalidNode(t *testing.T) {
	g, err := NewIDGenerator(5000)

	assert.ErrorIs(t, err, ErrInvalidNode)
	assert.Nil(t, g)
}

func TestParseID_Errors(t *testing.T) {
	_, err := ParseID("")
	assert.ErrorIs(t, err, ErrIDIsRequired)

	_, err = ParseID("not-a-number")
	assert.ErrorIs(t, err, ErrInvalidID)
}
