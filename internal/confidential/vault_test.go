package confidential

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"gamehouse/internal/ghcrypto"
	"gamehouse/internal/types"
)

func testKeys(t *testing.T) (ghcrypto.Scalar, []byte) {
	t.Helper()
	sk, pk, err := ghcrypto.KeyFromSeed("gh/v1/test/vault", []byte("vault-test-seed"))
	require.NoError(t, err)
	return sk, pk.Bytes()
}

func decryptedAmount(t *testing.T, sk ghcrypto.Scalar, ctBytes []byte, hint uint64) uint64 {
	t.Helper()
	ct, err := ghcrypto.CiphertextFromBytes(ctBytes)
	require.NoError(t, err)
	amount, err := ghcrypto.RecoverAmount(ghcrypto.DecryptPoint(sk, ct), hint, 1_000_000)
	require.NoError(t, err)
	return amount
}

func TestDepositWithdrawRoundtrip(t *testing.T) {
	sk, pk := testKeys(t)
	v := NewVault(pk)

	require.False(t, v.Exists("alice"))
	require.NoError(t, v.Deposit("alice", 500))
	require.True(t, v.Exists("alice"))
	require.Equal(t, uint64(500), v.Aggregate)

	ct, err := v.Ciphertext("alice")
	require.NoError(t, err)
	require.Equal(t, uint64(500), decryptedAmount(t, sk, ct, 500))

	require.NoError(t, v.Withdraw("alice", 200))
	ct, err = v.Ciphertext("alice")
	require.NoError(t, err)
	require.Equal(t, uint64(300), decryptedAmount(t, sk, ct, 300))
	require.Equal(t, uint64(300), v.Aggregate)
}

func TestZeroAmountRejected(t *testing.T) {
	_, pk := testKeys(t)
	v := NewVault(pk)

	require.Error(t, v.Deposit("alice", 0))
	require.NoError(t, v.Deposit("alice", 10))
	require.Error(t, v.Withdraw("alice", 0))
}

func TestWithdrawBeyondBalance(t *testing.T) {
	_, pk := testKeys(t)
	v := NewVault(pk)

	require.NoError(t, v.Deposit("alice", 100))
	require.Error(t, v.Withdraw("alice", 101))
	require.Error(t, v.Withdraw("bob", 1))

	// Failed withdrawal leaves the balance intact.
	require.True(t, v.Covers("alice", 100))
	require.Equal(t, uint64(100), v.Aggregate)
}

func TestCovers(t *testing.T) {
	_, pk := testKeys(t)
	v := NewVault(pk)

	require.True(t, v.Covers("ghost", 0))
	require.False(t, v.Covers("ghost", 1))

	require.NoError(t, v.Deposit("alice", 75))
	require.True(t, v.Covers("alice", 75))
	require.False(t, v.Covers("alice", 76))
}

func TestWithdrawAgreesWithCovers(t *testing.T) {
	_, pk := testKeys(t)
	v := NewVault(pk)

	require.NoError(t, v.Deposit("alice", 60))
	for _, amt := range []uint64{1, 59, 60, 61} {
		covered := v.Covers("alice", amt)
		w := NewVault(pk)
		require.NoError(t, w.Deposit("alice", 60))
		err := w.Withdraw("alice", amt)
		if covered {
			require.NoError(t, err, "amount %d", amt)
		} else {
			require.ErrorIs(t, err, types.ErrInsufficientFunds, "amount %d", amt)
		}
	}
	require.ErrorIs(t, v.Debit("bob", 1), types.ErrInsufficientFunds)
}

func TestDebitCreditSettlementFlow(t *testing.T) {
	sk, pk := testKeys(t)
	v := NewVault(pk)

	require.NoError(t, v.Deposit("alice", 1000))
	require.NoError(t, v.Debit("alice", 100))
	require.NoError(t, v.Credit("alice", 200))

	ct, err := v.Ciphertext("alice")
	require.NoError(t, err)
	require.Equal(t, uint64(1100), decryptedAmount(t, sk, ct, 1100))
	require.Equal(t, uint64(1100), v.Aggregate)
}

func TestWithdrawToZeroKeepsAccount(t *testing.T) {
	sk, pk := testKeys(t)
	v := NewVault(pk)

	require.NoError(t, v.Deposit("alice", 40))
	require.NoError(t, v.Withdraw("alice", 40))

	require.True(t, v.Exists("alice"))
	ct, err := v.Ciphertext("alice")
	require.NoError(t, err)
	require.Equal(t, uint64(0), decryptedAmount(t, sk, ct, 0))
	require.NoError(t, v.Deposit("alice", 7))
}

func TestCiphertextChangesPerOperation(t *testing.T) {
	_, pk := testKeys(t)
	v := NewVault(pk)

	require.NoError(t, v.Deposit("alice", 50))
	first, err := v.Ciphertext("alice")
	require.NoError(t, err)

	require.NoError(t, v.Deposit("alice", 50))
	require.NoError(t, v.Withdraw("alice", 50))
	second, err := v.Ciphertext("alice")
	require.NoError(t, err)

	// Same plaintext, different randomness: the wire form must not repeat.
	require.NotEqual(t, first, second)
}

func TestVaultJSONRoundtrip(t *testing.T) {
	sk, pk := testKeys(t)
	v := NewVault(pk)
	require.NoError(t, v.Deposit("alice", 123))
	require.NoError(t, v.Deposit("bob", 456))

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var got Vault
	require.NoError(t, json.Unmarshal(raw, &got))
	got.Normalize()

	require.Equal(t, v.Aggregate, got.Aggregate)
	ct, err := got.Ciphertext("bob")
	require.NoError(t, err)
	require.Equal(t, uint64(456), decryptedAmount(t, sk, ct, 456))

	// Operations keep working on the decoded copy.
	require.NoError(t, got.Withdraw("alice", 23))
	require.True(t, got.Covers("alice", 100))
	require.False(t, got.Covers("alice", 101))
}
