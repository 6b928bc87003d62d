package tetris

import (
	"math/rand"

	"lukechampine.com/frand"
)

// Rand is the randomness the package needs. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a reproducible generator for a non-zero seed and a fast
// cryptographic one otherwise.
func NewRand(seed int64) Rand {
	if seed != 0 {
		return rand.New(rand.NewSource(seed))
	}
	return fastRand{frand.New()}
}

type fastRand struct {
	*frand.RNG
}

// Float64 returns a value in [0, 1) with 53 bits of precision.
func (r fastRand) Float64() float64 {
	return float64(r.Uint64n(1<<53)) / (1 << 53)
}

// Source hands out the sequence of pieces a game or a search sees.
type Source interface {
	Next() PieceType
}

// UniformSource draws every piece independently and uniformly. Training
// simulations and beam search lookahead use it.
type UniformSource struct {
	random Rand
}

func NewUniformSource(r Rand) *UniformSource {
	return &UniformSource{random: r}
}

func (s *UniformSource) Next() PieceType {
	return PieceType(s.random.Intn(numPieces))
}

// bagCopies is how many of each piece a bag holds.
const bagCopies = 4

// Bag is the live game's generator. It holds four of every piece and draws
// them at random without replacement, refilling once empty, so droughts are
// bounded.
type Bag struct {
	random Rand
	pieces []PieceType
}

func NewBag(r Rand) *Bag {
	return &Bag{random: r, pieces: make([]PieceType, 0, numPieces*bagCopies)}
}

func (b *Bag) refill() {
	b.pieces = b.pieces[:0]
	for _, p := range AllPieces {
		for i := 0; i < bagCopies; i++ {
			b.pieces = append(b.pieces, p)
		}
	}
}

func (b *Bag) Next() PieceType {
	if len(b.pieces) == 0 {
		b.refill()
	}
	i := b.random.Intn(len(b.pieces))
	p := b.pieces[i]
	b.pieces = append(b.pieces[:i], b.pieces[i+1:]...)
	return p
}

// Remaining returns how many pieces are left before the next refill.
func (b *Bag) Remaining() int {
	return len(b.pieces)
}
