package services

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// GenerateDerangement pairs every participant with another participant so
// that giving is a bijection and nobody draws themselves.
//
// A uniform Fisher–Yates shuffle is corrected afterwards: a single leftover
// fixed point is swapped out, several are rotated among themselves. The
// correction skews the distribution slightly away from uniform over all
// derangements, which is acceptable for drawing gift pairs. Randomness is
// deliberately unseeded, so callers must only assert structural properties.
func GenerateDerangement(participants []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	n := len(participants)
	if n < 2 {
		return nil, ErrInsufficientParticipants
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	var fixed []int
	for i, v := range perm {
		if v == i {
			fixed = append(fixed, i)
		}
	}

	switch {
	case len(fixed) == 1:
		// Swap the lone fixed point with position 0 (or 1 when the fixed
		// point is 0 itself). Neither swap can create a new fixed point.
		i := fixed[0]
		other := 0
		if i == 0 {
			other = 1
		}
		perm[i], perm[other] = perm[other], perm[i]
	case len(fixed) > 1:
		// Rotate the values at the fixed positions by one. Every one of
		// them ends up holding a different fixed position's value, and
		// non-fixed positions are untouched.
		last := perm[fixed[len(fixed)-1]]
		for k := len(fixed) - 1; k > 0; k-- {
			perm[fixed[k]] = perm[fixed[k-1]]
		}
		perm[fixed[0]] = last
	}

	recipientOf := make(map[uuid.UUID]uuid.UUID, n)
	for i, v := range perm {
		recipientOf[participants[i]] = participants[v]
	}
	return recipientOf, nil
}
