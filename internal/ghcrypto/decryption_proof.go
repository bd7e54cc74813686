package ghcrypto

import "fmt"

// DecryptionProof is a Chaum-Pedersen equal-discrete-log proof that a claimed
// plaintext amount is the correct decryption of a ciphertext: it shows
// knowledge of sk with PK = sk*G and (C2 - amount*G) = sk*C1, without
// revealing sk. The verifier recomputes the challenge from a transcript, so
// the proof is bound to the exact (pk, ciphertext, amount) triple.
type DecryptionProof struct {
	// a = w*G
	A Point
	// b = w*c1
	B Point
	// s = w + e*sk
	S Scalar
}

const (
	decryptionProofDomain = "gh/v1/reveal/eqdl"
	decryptionNonceDomain = "gh/v1/reveal/nonce"
)

// DecryptionProofBytes is the encoded size: A(32) || B(32) || s(32).
const DecryptionProofBytes = 96

func decryptionChallenge(pk Point, ct Ciphertext, d Point, a Point, b Point) (Scalar, error) {
	tr := NewTranscript(decryptionProofDomain)
	_ = tr.AppendMessage("pk", pk.Bytes())
	_ = tr.AppendMessage("c1", ct.C1.Bytes())
	_ = tr.AppendMessage("c2", ct.C2.Bytes())
	_ = tr.AppendMessage("d", d.Bytes())
	_ = tr.AppendMessage("a", a.Bytes())
	_ = tr.AppendMessage("b", b.Bytes())
	return tr.ChallengeScalar("e")
}

// ProveDecryption produces a proof that amount is the plaintext of ct under
// the key pair (sk, pk). The proof nonce is derived deterministically from the
// witness and statement, so proving never needs an external RNG.
func ProveDecryption(pk Point, ct Ciphertext, amount uint64, sk Scalar) (DecryptionProof, error) {
	d := PointSub(ct.C2, AmountPoint(amount))
	if !PointEq(d, MulPoint(ct.C1, sk)) {
		return DecryptionProof{}, fmt.Errorf("decryption proof: amount is not the plaintext of ct")
	}

	w, err := HashToNonzeroScalar(decryptionNonceDomain,
		sk.Bytes(), ct.C1.Bytes(), ct.C2.Bytes(), u64le(amount))
	if err != nil {
		return DecryptionProof{}, err
	}

	a := MulBase(w)
	b := MulPoint(ct.C1, w)
	e, err := decryptionChallenge(pk, ct, d, a, b)
	if err != nil {
		return DecryptionProof{}, err
	}

	s := ScalarAdd(w, ScalarMul(e, sk))
	return DecryptionProof{A: a, B: b, S: s}, nil
}

// VerifyDecryption checks that amount is the correct decryption of ct under pk.
func VerifyDecryption(pk Point, ct Ciphertext, amount uint64, proof DecryptionProof) (bool, error) {
	d := PointSub(ct.C2, AmountPoint(amount))
	e, err := decryptionChallenge(pk, ct, d, proof.A, proof.B)
	if err != nil {
		return false, err
	}

	// Check: s*G == a + e*pk
	lhs1 := MulBase(proof.S)
	rhs1 := PointAdd(proof.A, MulPoint(pk, e))
	if !PointEq(lhs1, rhs1) {
		return false, nil
	}

	// Check: s*c1 == b + e*d
	lhs2 := MulPoint(ct.C1, proof.S)
	rhs2 := PointAdd(proof.B, MulPoint(d, e))
	if !PointEq(lhs2, rhs2) {
		return false, nil
	}
	return true, nil
}

// Encoding: A(32) || B(32) || s(32 le)
func EncodeDecryptionProof(p DecryptionProof) []byte {
	return concatBytes(p.A.Bytes(), p.B.Bytes(), p.S.Bytes())
}

func DecodeDecryptionProof(b []byte) (DecryptionProof, error) {
	if len(b) != DecryptionProofBytes {
		return DecryptionProof{}, fmt.Errorf("decryption proof: expected %d bytes", DecryptionProofBytes)
	}
	a, err := PointFromBytesCanonical(b[0:32])
	if err != nil {
		return DecryptionProof{}, err
	}
	bl, err := PointFromBytesCanonical(b[32:64])
	if err != nil {
		return DecryptionProof{}, err
	}
	s, err := ScalarFromBytesCanonical(b[64:96])
	if err != nil {
		return DecryptionProof{}, err
	}
	return DecryptionProof{A: a, B: bl, S: s}, nil
}
