// Package random provides the injected cryptographic randomness source
// required by spec.md §6.3 ("Random interface: cryptographic 64-bit
// uniform"). The teacher's Fisher-Yates winner shuffle drew from
// math/rand; this package keeps that shuffle but draws from crypto/rand,
// behind an injectable interface so winner selection is testable without
// being predictable in production.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
)

// Random abstracts a cryptographically secure randomness source.
type Random interface {
	// Uint64 returns a uniformly distributed 64-bit value.
	Uint64() uint64
	// Shuffle performs an in-place Fisher-Yates shuffle of n elements,
	// calling swap(i, j) for each transposition, matching the signature
	// of math/rand.Shuffle so callers can drop in either implementation.
	Shuffle(n int, swap func(i, j int))
}

// Secure is the production Random, backed by crypto/rand.
type Secure struct{}

func (Secure) Uint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("random: crypto/rand failed: %v", err))
	}
	return binary.BigEndian.Uint64(buf[:])
}

// Shuffle implements Fisher-Yates using a crypto/rand-seeded source for
// each draw, rejecting bias via a uniform modulo-free draw.
func (s Secure) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(s.uintn(uint64(i + 1)))
		swap(i, j)
	}
}

// uintn returns a uniform random value in [0, n) without modulo bias,
// via rejection sampling.
func (s Secure) uintn(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	max := (^uint64(0)) - (^uint64(0))%n
	for {
		v := s.Uint64()
		if v < max || max == 0 {
			return v % n
		}
	}
}

// Deterministic is a test double seeded from a fixed value, NOT for
// production use (not cryptographically secure) — it exists so winner
// selection tests can assert on a reproducible draw order.
type Deterministic struct {
	r *mathrand.Rand
}

func NewDeterministic(seed int64) *Deterministic {
	return &Deterministic{r: mathrand.New(mathrand.NewSource(seed))}
}

func (d *Deterministic) Uint64() uint64 { return d.r.Uint64() }

func (d *Deterministic) Shuffle(n int, swap func(i, j int)) {
	d.r.Shuffle(n, swap)
}
