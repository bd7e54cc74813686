package ghcrypto

import "fmt"

const CiphertextBytes = 2 * PointBytes

// Ciphertext is an exponential ElGamal ciphertext in additive notation:
//
//	PK = Y = x*G
//	Enc(Y, m; r) = (r*G, m*G + r*Y)
//
// Ciphertexts over the same key are additively homomorphic: componentwise
// addition of Enc(m1) and Enc(m2) decrypts to (m1+m2)*G.
type Ciphertext struct {
	C1 Point
	C2 Point
}

// EncryptAmount encrypts a balance amount under pk with randomness r.
func EncryptAmount(pk Point, amount uint64, r Scalar) (Ciphertext, error) {
	return EncryptPoint(pk, AmountPoint(amount), r)
}

// EncryptPoint encrypts an arbitrary group element under pk with randomness r.
func EncryptPoint(pk Point, m Point, r Scalar) (Ciphertext, error) {
	if r.IsZero() {
		// Zero randomness is valid mathematically but leaks the plaintext.
		return Ciphertext{}, fmt.Errorf("elgamal: r must be non-zero")
	}
	c1 := MulBase(r)
	c2 := PointAdd(m, MulPoint(pk, r))
	return Ciphertext{C1: c1, C2: c2}, nil
}

// Dec(x, (c1,c2)) = c2 - x*c1, yielding the plaintext element m*G.
func DecryptPoint(sk Scalar, ct Ciphertext) Point {
	return PointSub(ct.C2, MulPoint(ct.C1, sk))
}

// CiphertextAdd is the homomorphic sum Enc(m1) + Enc(m2) = Enc(m1+m2).
func CiphertextAdd(a, b Ciphertext) Ciphertext {
	return Ciphertext{C1: PointAdd(a.C1, b.C1), C2: PointAdd(a.C2, b.C2)}
}

// CiphertextSub is the homomorphic difference Enc(m1) - Enc(m2) = Enc(m1-m2).
func CiphertextSub(a, b Ciphertext) Ciphertext {
	return Ciphertext{C1: PointSub(a.C1, b.C1), C2: PointSub(a.C2, b.C2)}
}

// SignedDeltaPoint maps a signed balance delta onto the group: delta*G, with
// negative deltas encoded as the inverse element. Owners recovering a delta
// walk outward from zero in both directions.
func SignedDeltaPoint(delta int64) Point {
	if delta >= 0 {
		return AmountPoint(uint64(delta))
	}
	return MulBase(ScalarNeg(ScalarFromUint64(uint64(-delta))))
}

// Encoding: C1(32) || C2(32).
func (ct Ciphertext) Bytes() []byte {
	return concatBytes(ct.C1.Bytes(), ct.C2.Bytes())
}

func CiphertextFromBytes(b []byte) (Ciphertext, error) {
	if len(b) != CiphertextBytes {
		return Ciphertext{}, fmt.Errorf("elgamal: expected %d bytes", CiphertextBytes)
	}
	c1, err := PointFromBytesCanonical(b[:PointBytes])
	if err != nil {
		return Ciphertext{}, err
	}
	c2, err := PointFromBytesCanonical(b[PointBytes:])
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C1: c1, C2: c2}, nil
}

// KeyFromSeed derives a deterministic ElGamal keypair from a seed. Used by the
// reveal oracle and by tests; production deployments provision the secret key
// out of band.
func KeyFromSeed(domainSep string, seed []byte) (Scalar, Point, error) {
	sk, err := HashToNonzeroScalar(domainSep, seed)
	if err != nil {
		return Scalar{}, Point{}, err
	}
	return sk, MulBase(sk), nil
}
