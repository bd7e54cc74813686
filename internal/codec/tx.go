package codec

import (
	"encoding/json"
	"fmt"

	"gamehouse/internal/types"
)

// TxEnvelope is the v0 transaction container.
//
// CometBFT transactions are opaque bytes. For v0 localnet we use JSON-encoded
// txs to move fast; this is NOT the final protocol encoding.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Tx auth:
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: logical signer id (account address, operator, or oracle id).
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Auth ----

// Account pubkey registration for tx authentication. First registration for an
// address must be self-signed by the registered key.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)

	// RevealPk is an optional ristretto255 point. When registered, settlement
	// deltas and reveal completions are additionally sealed under this key so
	// the owner can reconstruct them client-side.
	RevealPk []byte `json:"revealPk,omitempty"` // base64 (32 bytes)
}

// ---- Bank ----

type BankDepositTx struct {
	From   string `json:"from"`
	Amount uint64 `json:"amount"`
}

type BankWithdrawTx struct {
	From   string `json:"from"`
	Amount uint64 `json:"amount"`
}

// ---- House ----

// Operator-only treasury funding.
type HouseDepositTx struct {
	Operator string `json:"operator"`
	Amount   uint64 `json:"amount"`
}

type HouseWithdrawTx struct {
	Operator string `json:"operator"`
	Amount   uint64 `json:"amount"`
}

// ---- Casino ----

type CasinoPlayTx struct {
	Player string         `json:"player"`
	Game   types.GameType `json:"game"`
	Bet    uint64         `json:"bet"`

	// Choice is game-specific:
	//   coinflip:       0 = heads, 1 = tails
	//   rangepredictor: 0 = below the midpoint, 1 = above
	//   diceroller:     1..6, the predicted face
	Choice uint64 `json:"choice"`
}

type CasinoRequestRevealTx struct {
	Account string `json:"account"`

	// Hint anchors the oracle's bounded plaintext recovery. A requester who
	// lies about the hint can only make their own reveal fail.
	Hint uint64 `json:"hint"`
}

// Oracle-signed completion of a pending reveal.
type CasinoSubmitRevealTx struct {
	OracleID  string `json:"oracleId"`
	RequestID uint64 `json:"requestId"`
	Amount    uint64 `json:"amount"`
	Proof     []byte `json:"proof"` // base64 (96 bytes)
}
