package ghcrypto

import (
	"crypto/sha512"
	"fmt"
	"hash"
)

var hashToScalarPrefix = []byte("GHv1|hash_to_scalar|")

func updateLenBytes(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

// HashToScalar derives a scalar from length-prefixed messages under a domain
// separator. Used for deterministic encryption randomness and Fiat-Shamir
// challenges, so the framing must stay stable.
func HashToScalar(domainSep string, msgs ...[]byte) (Scalar, error) {
	h := sha512.New()
	h.Write(hashToScalarPrefix)
	updateLenBytes(h, []byte(domainSep))
	for _, m := range msgs {
		if m == nil {
			return Scalar{}, fmt.Errorf("hashToScalar: nil msg")
		}
		updateLenBytes(h, m)
	}
	digest := h.Sum(nil) // 64 bytes
	return ScalarFromUniformBytes(digest)
}

// HashToNonzeroScalar retries HashToScalar with a counter suffix until the
// result is non-zero. Encryption randomness must never be zero.
func HashToNonzeroScalar(domainSep string, msgs ...[]byte) (Scalar, error) {
	for counter := uint32(0); counter < 256; counter++ {
		all := msgs
		if counter != 0 {
			all = append(append([][]byte(nil), msgs...), []byte{byte(counter)})
		}
		s, err := HashToScalar(domainSep, all...)
		if err != nil {
			return Scalar{}, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
	return Scalar{}, fmt.Errorf("hashToNonzeroScalar: failed to find non-zero scalar")
}
