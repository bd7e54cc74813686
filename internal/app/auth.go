package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"strconv"

	"gamehouse/internal/codec"
	"gamehouse/internal/state"
	"gamehouse/internal/types"
)

const txAuthDomainV0 = "gamehouse/tx/v0"

func txAuthSignBytesV0(typ string, value []byte, nonce string, signer string) []byte {
	// signBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomainV0)+1+len(typ)+1+len(nonce)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomainV0)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return types.ErrUnauthorized.Wrap("missing tx.nonce")
	}
	if env.Signer == "" {
		return types.ErrUnauthorized.Wrap("missing tx.signer")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return types.ErrUnauthorized.Wrapf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

// bumpNonce enforces strictly-increasing numeric nonces per signer. Runs
// against staged state, so a failed tx does not consume its nonce.
func bumpNonce(st *state.State, env codec.TxEnvelope) error {
	n, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return types.ErrUnauthorized.Wrapf("invalid tx.nonce %q", env.Nonce)
	}
	if last, ok := st.NonceMax[env.Signer]; ok && n <= last {
		return types.ErrUnauthorized.Wrapf("replayed tx.nonce %d (last %d)", n, last)
	}
	st.NonceMax[env.Signer] = n
	return nil
}

// requireRegisterAccountAuth checks a registration self-signed by the key
// being registered.
func requireRegisterAccountAuth(env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return types.ErrInvalidRequest.Wrap("missing account")
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return types.ErrInvalidRequest.Wrapf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return types.ErrUnauthorized.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	msgBytes := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(msg.PubKey), msgBytes, env.Sig) {
		return types.ErrUnauthorized.Wrap("invalid signature")
	}
	return nil
}

// requireAccountAuth verifies a tx signed by a previously registered account.
func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if account == "" {
		return types.ErrInvalidRequest.Wrap("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return types.ErrUnauthorized.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return types.ErrUnauthorized.Wrapf("account %q missing pubKey (auth/register_account required)", account)
	}
	msg := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return types.ErrUnauthorized.Wrap("invalid signature")
	}
	return nil
}

// requireOperatorAuth gates house treasury operations to the genesis operator.
func requireOperatorAuth(st *state.State, env codec.TxEnvelope, operator string) error {
	if operator != st.Params.Operator {
		return types.ErrUnauthorized.Wrapf("%q is not the house operator", operator)
	}
	return requireAccountAuth(st, env, operator)
}

// requireOracleAuth verifies a reveal completion signed by the genesis oracle
// identity. The oracle key comes from params, not the account registry.
func requireOracleAuth(st *state.State, env codec.TxEnvelope, oracleID string) error {
	if oracleID != st.Params.OracleID {
		return types.ErrUnauthorized.Wrapf("%q is not the reveal oracle", oracleID)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != oracleID {
		return types.ErrUnauthorized.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, oracleID)
	}
	msg := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(st.Params.OraclePubKey), msg, env.Sig) {
		return types.ErrUnauthorized.Wrap("invalid signature")
	}
	return nil
}
