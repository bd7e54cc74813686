package outcome

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/bits"
)

// hashRNG is a deterministic byte stream derived from sha256(seed || counter).
// It is consensus-safe and does not depend on platform RNGs.
type hashRNG struct {
	seed    [32]byte
	counter uint64
	buf     [32]byte
	bufPos  int
}

func newHashRNG(seed [32]byte) *hashRNG {
	return &hashRNG{seed: seed, bufPos: len([32]byte{})}
}

func (r *hashRNG) Read(p []byte) {
	for len(p) > 0 {
		if r.bufPos >= len(r.buf) {
			r.refill()
		}
		n := copy(p, r.buf[r.bufPos:])
		r.bufPos += n
		p = p[n:]
	}
}

func (r *hashRNG) refill() {
	var in [32 + 8]byte
	copy(in[:32], r.seed[:])
	binary.LittleEndian.PutUint64(in[32:], r.counter)
	r.counter++
	r.buf = sha256.Sum256(in[:])
	r.bufPos = 0
}

// Uint64n draws uniformly from [0, n) by rejection sampling: draw from the
// smallest power-of-two range covering n and reject values >= n, so no value
// is favored by modulo bias.
func (r *hashRNG) Uint64n(n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("n must be > 0")
	}
	if n == 1 {
		return 0, nil
	}

	shift := uint(64 - bits.Len64(n-1))
	var buf [8]byte
	for tries := 0; tries < 1_000_000; tries++ {
		r.Read(buf[:])
		v := binary.LittleEndian.Uint64(buf[:]) >> shift
		if v < n {
			return v, nil
		}
	}
	return 0, fmt.Errorf("failed to draw Uint64n after many tries (n=%d)", n)
}
