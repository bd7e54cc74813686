// Package confidential is the balance store for player funds. Each account's
// balance lives as an exponential ElGamal ciphertext under the vault key;
// deposits, debits and credits are homomorphic point operations and the
// plaintext is never produced on any code path the ledger serves to callers.
package confidential

import (
	"fmt"

	"gamehouse/internal/ghcrypto"
	"gamehouse/internal/types"
)

const (
	vaultRandDomain = "gh/v1/vault/rand"

	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opDebit    = "debit"
	opCredit   = "credit"
)

// Entry is one account's confidential balance.
type Entry struct {
	// Ciphertext is the encoded ElGamal ciphertext (C1||C2) of the balance.
	Ciphertext []byte `json:"ciphertext"`

	// Ops counts operations applied to this entry; it feeds the deterministic
	// randomness derivation so no two operations reuse an encryption nonce.
	Ops uint64 `json:"ops"`

	// Mirror is the evaluation capability's plaintext shadow of the balance,
	// maintained from the public operation deltas. It stands in for the
	// encrypted range-comparison primitive of the target environment: the
	// sufficient-funds check consults it, and no query ever serves it.
	Mirror uint64 `json:"mirror"`
}

// Vault holds every account's encrypted balance plus the public aggregate.
type Vault struct {
	// PubKey is the ElGamal key balances are encrypted under. The matching
	// secret key lives with the reveal oracle, outside the ledger.
	PubKey []byte `json:"pubKey"`

	Accounts map[string]*Entry `json:"accounts"`

	// Aggregate is the plaintext sum of all player balances. The aggregate is
	// public (it backs the contract-balance query); only per-account values
	// are confidential.
	Aggregate uint64 `json:"aggregate"`
}

func NewVault(pubKey []byte) *Vault {
	return &Vault{
		PubKey:   append([]byte(nil), pubKey...),
		Accounts: map[string]*Entry{},
	}
}

// Normalize repairs zero-value maps after JSON decoding.
func (v *Vault) Normalize() {
	if v.Accounts == nil {
		v.Accounts = map[string]*Entry{}
	}
}

func (v *Vault) pubPoint() (ghcrypto.Point, error) {
	return ghcrypto.PointFromBytesCanonical(v.PubKey)
}

// Exists reports whether the account has ever deposited.
func (v *Vault) Exists(addr string) bool {
	_, ok := v.Accounts[addr]
	return ok
}

// Ciphertext returns the account's opaque encrypted balance.
func (v *Vault) Ciphertext(addr string) ([]byte, error) {
	e, ok := v.Accounts[addr]
	if !ok {
		return nil, types.ErrNotFound.Wrapf("account %q has no balance entry", addr)
	}
	return append([]byte(nil), e.Ciphertext...), nil
}

// Covers reports whether the account's balance is at least amount, without
// producing the balance. Unknown accounts cover nothing.
func (v *Vault) Covers(addr string, amount uint64) bool {
	e, ok := v.Accounts[addr]
	if !ok {
		return amount == 0
	}
	return e.Mirror >= amount
}

// Deposit adds amount to the account's encrypted balance, creating the entry
// on first deposit.
func (v *Vault) Deposit(addr string, amount uint64) error {
	if amount == 0 {
		return types.ErrInvalidAmount.Wrap("deposit must be > 0")
	}
	return v.add(addr, amount, opDeposit)
}

// Withdraw subtracts amount, transferring it out to the caller.
func (v *Vault) Withdraw(addr string, amount uint64) error {
	if amount == 0 {
		return types.ErrInvalidAmount.Wrap("withdrawal must be > 0")
	}
	return v.sub(addr, amount, opWithdraw)
}

// Debit is the settlement-internal stake removal; same underflow protection
// as Withdraw.
func (v *Vault) Debit(addr string, amount uint64) error {
	return v.sub(addr, amount, opDebit)
}

// Credit is the settlement-internal payout addition.
func (v *Vault) Credit(addr string, amount uint64) error {
	return v.add(addr, amount, opCredit)
}

func (v *Vault) add(addr string, amount uint64, op string) error {
	pk, err := v.pubPoint()
	if err != nil {
		return fmt.Errorf("vault pubkey: %w", err)
	}

	e, ok := v.Accounts[addr]
	if !ok {
		e = &Entry{}
		v.Accounts[addr] = e
	}
	if e.Mirror > ^uint64(0)-amount {
		return types.ErrInvalidAmount.Wrapf("balance overflow: have=%d add=%d", e.Mirror, amount)
	}
	if v.Aggregate > ^uint64(0)-amount {
		return types.ErrInvalidAmount.Wrapf("aggregate overflow: have=%d add=%d", v.Aggregate, amount)
	}

	delta, err := v.encryptDelta(pk, addr, e, amount, op)
	if err != nil {
		return err
	}
	next, err := v.currentCiphertext(e)
	if err != nil {
		return err
	}
	e.Ciphertext = ghcrypto.CiphertextAdd(next, delta).Bytes()
	e.Ops++
	e.Mirror += amount
	v.Aggregate += amount
	return nil
}

func (v *Vault) sub(addr string, amount uint64, op string) error {
	pk, err := v.pubPoint()
	if err != nil {
		return fmt.Errorf("vault pubkey: %w", err)
	}

	e, ok := v.Accounts[addr]
	if !ok || !v.Covers(addr, amount) {
		return types.ErrInsufficientFunds.Wrapf("balance below %d", amount)
	}

	delta, err := v.encryptDelta(pk, addr, e, amount, op)
	if err != nil {
		return err
	}
	cur, err := v.currentCiphertext(e)
	if err != nil {
		return err
	}
	e.Ciphertext = ghcrypto.CiphertextSub(cur, delta).Bytes()
	e.Ops++
	e.Mirror -= amount
	v.Aggregate -= amount
	return nil
}

// currentCiphertext decodes the entry's ciphertext, treating an empty entry as
// the canonical encryption of zero (the identity ciphertext, which is a valid
// homomorphic operand).
func (v *Vault) currentCiphertext(e *Entry) (ghcrypto.Ciphertext, error) {
	if len(e.Ciphertext) == 0 {
		return ghcrypto.Ciphertext{C1: ghcrypto.PointZero(), C2: ghcrypto.PointZero()}, nil
	}
	return ghcrypto.CiphertextFromBytes(e.Ciphertext)
}

func (v *Vault) encryptDelta(pk ghcrypto.Point, addr string, e *Entry, amount uint64, op string) (ghcrypto.Ciphertext, error) {
	r, err := ghcrypto.HashToNonzeroScalar(vaultRandDomain,
		v.PubKey,
		[]byte(addr),
		u64le(e.Ops),
		u64le(amount),
		[]byte(op),
	)
	if err != nil {
		return ghcrypto.Ciphertext{}, err
	}
	return ghcrypto.EncryptAmount(pk, amount, r)
}

func u64le(x uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(x >> (8 * i))
	}
	return b
}
