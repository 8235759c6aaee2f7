package domain

import (
	"math"
	"math/rand/v2"
)

// Rand is the subset of *rand.Rand the game needs. Tests inject seeded sources.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the auto-seeded math/rand/v2 source
var DefaultRand Rand = globalRand{}

// MirrorCount is floor(n * ratio).
func MirrorCount(n int, ratio float64) int {
	if n <= 0 || ratio <= 0 {
		return 0
	}
	// 1e-9 absorbs float error such as 10*0.7 = 6.9999...
	count := int(math.Floor(float64(n)*ratio + 1e-9))
	if count > n {
		return n
	}
	return count
}

// AssignRoles returns n roles with exactly MirrorCount(n, ratio) mirrors, in an
// order drawn uniformly at random.
func AssignRoles(n int, ratio float64, rnd Rand) []Role {
	if n <= 0 {
		return nil
	}
	mirrors := MirrorCount(n, ratio)

	roles := make([]Role, n)
	for i := range roles {
		if i < mirrors {
			roles[i] = RoleMirror
		} else {
			roles[i] = RoleOriginal
		}
	}

	// Fisher-Yates
	for i := n - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}
	return roles
}
