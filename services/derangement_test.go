package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeParticipants(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

// The generator is intentionally non-deterministic, so every assertion here
// is structural: bijection, no self-assignment, all inputs covered.
func TestGenerateDerangementProperties(t *testing.T) {
	for n := 2; n <= 12; n++ {
		ids := makeParticipants(n)
		for run := 0; run < 200; run++ {
			recipientOf, err := GenerateDerangement(ids)
			require.NoError(t, err, "n=%d run=%d", n, run)
			require.Len(t, recipientOf, n, "every participant must be a giver")

			seen := make(map[uuid.UUID]bool, n)
			for santa, recipient := range recipientOf {
				assert.NotEqual(t, santa, recipient, "n=%d: self-assignment", n)
				assert.False(t, seen[recipient], "n=%d: recipient drawn twice", n)
				seen[recipient] = true
			}
			for _, id := range ids {
				assert.True(t, seen[id], "n=%d: participant never receives", n)
			}
		}
	}
}

func TestGenerateDerangementTwoParticipants(t *testing.T) {
	ids := makeParticipants(2)
	// With two people the only derangement is the swap.
	for run := 0; run < 50; run++ {
		recipientOf, err := GenerateDerangement(ids)
		require.NoError(t, err)
		assert.Equal(t, ids[1], recipientOf[ids[0]])
		assert.Equal(t, ids[0], recipientOf[ids[1]])
	}
}

func TestGenerateDerangementInsufficientParticipants(t *testing.T) {
	_, err := GenerateDerangement(nil)
	assert.ErrorIs(t, err, ErrInsufficientParticipants)

	_, err = GenerateDerangement(makeParticipants(1))
	assert.ErrorIs(t, err, ErrInsufficientParticipants)
}
