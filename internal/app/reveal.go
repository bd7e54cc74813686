package app

import (
	"encoding/base64"
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"gamehouse/internal/codec"
	"gamehouse/internal/ghcrypto"
	"gamehouse/internal/state"
	"gamehouse/internal/types"
)

const revealSealDomain = "gh/v1/reveal/amount_seal"

func (a *GameHouseApp) handleRequestReveal(st *state.State, env codec.TxEnvelope, msg codec.CasinoRequestRevealTx, blk blockCtx) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.Account); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}

	// Snapshot the ciphertext now: later games must not change what the
	// oracle is asked to open.
	ct, err := st.Vault.Ciphertext(msg.Account)
	if err != nil {
		return nil, err
	}

	st.RevealSeq++
	id := st.RevealSeq
	st.PendingReveals = append(st.PendingReveals, &state.PendingReveal{
		ID:         id,
		Account:    msg.Account,
		Ciphertext: ct,
		Hint:       msg.Hint,
		Height:     blk.Height,
		Time:       blk.Time,
	})

	a.logger.Info("reveal requested", "account", msg.Account, "requestId", id)
	return okEvent(types.EventTypeRevealRequested, map[string]string{
		"account":   msg.Account,
		"requestId": fmt.Sprintf("%d", id),
	}), nil
}

func (a *GameHouseApp) handleSubmitReveal(st *state.State, env codec.TxEnvelope, msg codec.CasinoSubmitRevealTx, blk blockCtx) (*abci.ExecTxResult, error) {
	if err := requireOracleAuth(st, env, msg.OracleID); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}

	pending := st.PendingByID(msg.RequestID)
	if pending == nil {
		return nil, types.ErrNotFound.Wrapf("no pending reveal with id %d", msg.RequestID)
	}
	// Completions are serialized per account so cached reveals never go
	// backwards in request order.
	if oldest := st.PendingFor(pending.Account); oldest != nil && oldest.ID != pending.ID {
		return nil, types.ErrInvalidRequest.Wrapf("reveal %d for %q must complete before %d", oldest.ID, pending.Account, pending.ID)
	}

	pk, err := ghcrypto.PointFromBytesCanonical(st.Params.VaultPubKey)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("vault pubkey: %v", err)
	}
	ct, err := ghcrypto.CiphertextFromBytes(pending.Ciphertext)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("pending ciphertext: %v", err)
	}
	proof, err := ghcrypto.DecodeDecryptionProof(msg.Proof)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("decryption proof: %v", err)
	}

	// The claimed amount is never trusted; only a verifying proof binds it to
	// the snapshot.
	ok, err := ghcrypto.VerifyDecryption(pk, ct, msg.Amount, proof)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("verify decryption: %v", err)
	}
	if !ok {
		return nil, types.ErrInvalidRequest.Wrap("decryption proof does not verify for claimed amount")
	}

	st.Revealed[pending.Account] = &state.RevealedBalance{
		RevealID: pending.ID,
		Amount:   msg.Amount,
		Height:   blk.Height,
		Time:     blk.Time,
	}
	st.RemovePending(pending.ID)

	a.logger.Info("balance revealed", "account", pending.Account, "requestId", pending.ID)

	res := okEvent(types.EventTypeBalanceRevealed, map[string]string{
		"account":   pending.Account,
		"requestId": fmt.Sprintf("%d", pending.ID),
	})
	// The amount itself goes into the event only sealed under the owner's
	// reveal key; everyone else just learns a reveal completed.
	if revealPk, ok := st.RevealPks[pending.Account]; ok {
		sealed, err := sealRevealAmount(revealPk, pending.Account, pending.ID, msg.Amount)
		if err != nil {
			return nil, types.ErrInvalidRequest.Wrapf("seal amount: %v", err)
		}
		res.Events[0].Attributes = append(res.Events[0].Attributes, abci.EventAttribute{
			Key: "sealedAmount", Value: base64.StdEncoding.EncodeToString(sealed), Index: false,
		})
	}
	return res, nil
}

func sealRevealAmount(revealPk []byte, account string, requestID uint64, amount uint64) ([]byte, error) {
	pk, err := ghcrypto.PointFromBytesCanonical(revealPk)
	if err != nil {
		return nil, err
	}
	r, err := ghcrypto.HashToNonzeroScalar(revealSealDomain, revealPk, []byte(account), u64le(requestID))
	if err != nil {
		return nil, err
	}
	ct, err := ghcrypto.EncryptAmount(pk, amount, r)
	if err != nil {
		return nil, err
	}
	return ct.Bytes(), nil
}
