// Package oracle implements the off-ledger reveal service. The oracle holds
// the vault's ElGamal secret key; it answers balance-reveal requests by
// recovering the plaintext from the ciphertext snapshot and producing a
// Chaum-Pedersen proof the ledger can verify, so the chain never has to trust
// a bare claimed amount.
package oracle

import (
	"fmt"

	"gamehouse/internal/ghcrypto"
)

const keyDomain = "gh/v1/oracle/vault_key"

// DefaultMaxWalk bounds the discrete-log recovery walk around the hint. A
// reveal whose true balance drifts further than this from the requester's hint
// fails and must be retried with a better hint.
const DefaultMaxWalk = 1 << 22

// Oracle holds the vault decryption key.
type Oracle struct {
	sk ghcrypto.Scalar
	pk ghcrypto.Point
}

// FromSeed derives the vault key pair from a seed. The ledger is initialized
// with the matching public key in its genesis params.
func FromSeed(seed []byte) (*Oracle, error) {
	sk, pk, err := ghcrypto.KeyFromSeed(keyDomain, seed)
	if err != nil {
		return nil, err
	}
	return &Oracle{sk: sk, pk: pk}, nil
}

// PubKey is the encoded ElGamal public key balances are encrypted under.
func (o *Oracle) PubKey() []byte {
	return o.pk.Bytes()
}

// Reveal decrypts a balance ciphertext and proves the result. hint anchors the
// discrete-log walk; the returned proof is bound to (pubkey, ciphertext,
// amount) and verifies under the oracle's public key.
func (o *Oracle) Reveal(ctBytes []byte, hint uint64) (uint64, []byte, error) {
	ct, err := ghcrypto.CiphertextFromBytes(ctBytes)
	if err != nil {
		return 0, nil, fmt.Errorf("reveal: %w", err)
	}

	amount, err := ghcrypto.RecoverAmount(ghcrypto.DecryptPoint(o.sk, ct), hint, DefaultMaxWalk)
	if err != nil {
		return 0, nil, fmt.Errorf("reveal: %w", err)
	}

	proof, err := ghcrypto.ProveDecryption(o.pk, ct, amount, o.sk)
	if err != nil {
		return 0, nil, fmt.Errorf("reveal: %w", err)
	}
	return amount, ghcrypto.EncodeDecryptionProof(proof), nil
}
