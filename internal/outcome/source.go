// Package outcome draws the unpredictable values games settle against. The
// Source interface keeps the provider out of the game rules: settlement asks
// for a draw and never cares where the entropy came from.
package outcome

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const (
	// Keep these domains stable; they become part of consensus-critical derivations.
	outcomeSeedDomain = "gh/v1/outcome/seed"
)

// Context carries the consensus inputs an outcome is derived from. The
// bettor's choice is deliberately absent: the draw must not depend on it.
type Context struct {
	BeaconSeed    []byte // 32-byte genesis randomness commitment
	Height        int64
	LastBlockHash []byte
	GameSeq       uint64 // global settlement sequence number
	Player        string
	Game          string
}

// Source produces one uniform draw from [lo, hi] per settlement.
type Source interface {
	Draw(ctx Context, lo, hi uint64) (uint64, error)
}

// BeaconSource derives draws deterministically from the beacon seed and block
// context via a domain-separated hash stream.
//
// Security note: block-derived entropy is proposer-influenceable. Production
// replaces this with a verifiable randomness beacon or a commit-reveal feed
// behind the same Source interface; the settlement path does not change.
type BeaconSource struct{}

var _ Source = BeaconSource{}

func (BeaconSource) Draw(ctx Context, lo, hi uint64) (uint64, error) {
	if hi < lo {
		return 0, fmt.Errorf("invalid draw range [%d,%d]", lo, hi)
	}
	if len(ctx.BeaconSeed) != 32 {
		return 0, fmt.Errorf("beaconSeed must be 32 bytes")
	}

	var h8, s8 [8]byte
	binary.LittleEndian.PutUint64(h8[:], uint64(ctx.Height))
	binary.LittleEndian.PutUint64(s8[:], ctx.GameSeq)
	seed := hashDomain(outcomeSeedDomain,
		ctx.BeaconSeed,
		h8[:],
		ctx.LastBlockHash,
		s8[:],
		[]byte(ctx.Player),
		[]byte(ctx.Game),
	)

	rng := newHashRNG(seed)
	v, err := rng.Uint64n(hi - lo + 1)
	if err != nil {
		return 0, err
	}
	return lo + v, nil
}

func hashDomain(domain string, parts ...[]byte) [32]byte {
	h := sha256.New()
	_, _ = h.Write([]byte(domain))

	// Length-prefix each part to avoid ambiguous concatenations.
	var lenBuf [4]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(p)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
