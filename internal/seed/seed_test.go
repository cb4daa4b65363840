package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentIDDeterministic(t *testing.T) {
	input := []byte("crash me if you can")
	first := ContentID(input)
	for range 10 {
		require.Equal(t, first, ContentID(input))
	}
}

func TestContentIDLength(t *testing.T) {
	assert.Len(t, ContentID([]byte("a")), IDLength)
	assert.Len(t, ContentID(nil), IDLength)
}

func TestContentIDDistinguishesInputs(t *testing.T) {
	assert.NotEqual(t, ContentID([]byte("a")), ContentID([]byte("b")))
	assert.NotEqual(t, ContentID([]byte("ab")), ContentID([]byte("a b")))
}

func TestEstimateSize(t *testing.T) {
	s := &Seed{
		Input:    make([]byte, 64),
		Coverage: []uint32{1, 2, 3},
	}
	assert.Equal(t, 64+3*4+100, EstimateSize(s))
}

func TestEstimateSizeEmptySeed(t *testing.T) {
	s := &Seed{}
	assert.Equal(t, 100, EstimateSize(s))
}

func TestNewStampsIdentityAndTime(t *testing.T) {
	before := time.Now()
	s := New([]byte("input"), []uint32{7, 9}, &Metadata{Origin: OriginMutation})
	require.Equal(t, ContentID([]byte("input")), s.ID)
	assert.Equal(t, []uint32{7, 9}, s.Coverage)
	assert.Equal(t, OriginMutation, s.Metadata.Origin)
	assert.False(t, s.Timestamp.Before(before))
}
