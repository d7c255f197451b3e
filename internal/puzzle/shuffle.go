package puzzle

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// lcg is the shared pseudo-random generator every client recomputes a
// shuffle from. The recurrence and the float draw have to stay exactly
// as they are: peers only exchange the seed, never the permutation.
type lcg struct {
	state int64
}

// newLCG reduces the seed into [0, modulus) before use. Congruent
// seeds draw the same sequence, so this changes nothing for clock
// seeds, and the recurrence can never overflow or go negative on an
// out-of-range seed arriving over the wire.
func newLCG(seed int64) *lcg {
	s := seed % lcgModulus
	if s < 0 {
		s += lcgModulus
	}
	return &lcg{state: s}
}

// next advances the generator and returns a draw in [0, 1).
func (g *lcg) next() float64 {
	g.state = (g.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(g.state) / lcgModulus
}

// Shuffle returns a permutation of 0..n-1 derived from seed. Any two
// clients calling Shuffle with the same (seed, n) get the same slice.
// The result is never the identity permutation for n >= 2: if the
// Fisher-Yates pass happens to produce it, the sequence is reversed.
func Shuffle(n int, seed int64) []int {
	order := Identity(n)
	if n < 2 {
		return order
	}

	g := newLCG(seed)
	for i := n - 1; i >= 1; i-- {
		j := int(g.next() * float64(i+1))
		order[i], order[j] = order[j], order[i]
	}

	if isIdentity(order) {
		for l, r := 0, n-1; l < r; l, r = l+1, r-1 {
			order[l], order[r] = order[r], order[l]
		}
	}
	return order
}

// Identity returns the solved order 0..n-1.
func Identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func isIdentity(order []int) bool {
	for i, v := range order {
		if v != i {
			return false
		}
	}
	return true
}
