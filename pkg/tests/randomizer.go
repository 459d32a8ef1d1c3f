package tests

import (
	"math/rand"
	"time"
)

type Randomizer struct {
	Float64 func() float64
	Bool    func() bool
	Intn    func(n int) int
}

func NewRandomizer() Randomizer {
	random := rand.New(rand.NewSource(time.Now().Unix())) //nolint:gosec // for tests

	return Randomizer{
		Float64: random.Float64,
		Bool:    func() bool { return random.Intn(2) == 0 }, //nolint:mnd // skip
		Intn:    random.Intn,
	}
}

const hexAlphabet = "0123456789abcdef"

// RandomString returns n random lowercase hex characters.
func RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexAlphabet[rand.Intn(len(hexAlphabet))] //nolint:gosec // for tests
	}

	return string(b)
}
