package tetris

import (
	"math/rand"
	"testing"
)

func TestBagDealsEveryPieceEvenly(t *testing.T) {
	bag := NewBag(rand.New(rand.NewSource(3)))
	for round := 0; round < 3; round++ {
		var counts [numPieces]int
		for i := 0; i < numPieces*bagCopies; i++ {
			counts[bag.Next()]++
		}
		for p, n := range counts {
			if n != bagCopies {
				t.Errorf("round %d: %v dealt %d times, want %d", round, PieceType(p), n, bagCopies)
			}
		}
		if bag.Remaining() != 0 {
			t.Errorf("round %d: %d pieces left in bag", round, bag.Remaining())
		}
	}
	bag.Next()
	if got, want := bag.Remaining(), numPieces*bagCopies-1; got != want {
		t.Errorf("Remaining() after refill = %d, want %d", got, want)
	}
}

func TestUniformSource(t *testing.T) {
	src := NewUniformSource(rand.New(rand.NewSource(11)))
	var seen [numPieces]bool
	for i := 0; i < 1000; i++ {
		p := src.Next()
		if int(p) >= numPieces {
			t.Fatalf("piece %d out of range", p)
		}
		seen[p] = true
	}
	for p, ok := range seen {
		if !ok {
			t.Errorf("%v never dealt", PieceType(p))
		}
	}
}

func TestNewRand(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 10; i++ {
		if x, y := a.Intn(1000), b.Intn(1000); x != y {
			t.Fatalf("seeded generators diverged: %d != %d", x, y)
		}
	}
	r := NewRand(0)
	for i := 0; i < 1000; i++ {
		if f := r.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64() = %v out of range", f)
		}
		if n := r.Intn(7); n < 0 || n >= 7 {
			t.Fatalf("Intn(7) = %d out of range", n)
		}
	}
}
