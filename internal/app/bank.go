package app

import (
	"bytes"
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"gamehouse/internal/codec"
	"gamehouse/internal/ghcrypto"
	"gamehouse/internal/state"
	"gamehouse/internal/types"
)

func (a *GameHouseApp) handleRegisterAccount(st *state.State, env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) (*abci.ExecTxResult, error) {
	if err := requireRegisterAccountAuth(env, msg); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}

	// Re-registration with a different key would let an attacker hijack an
	// account; only idempotent re-registration is allowed.
	if existing, ok := st.AccountKeys[msg.Account]; ok && !bytes.Equal(existing, msg.PubKey) {
		return nil, types.ErrUnauthorized.Wrapf("account %q already registered with a different key", msg.Account)
	}

	if len(msg.RevealPk) > 0 {
		if _, err := ghcrypto.PointFromBytesCanonical(msg.RevealPk); err != nil {
			return nil, types.ErrInvalidRequest.Wrapf("invalid revealPk: %v", err)
		}
		st.RevealPks[msg.Account] = append([]byte(nil), msg.RevealPk...)
	}
	st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)

	return okEvent(types.EventTypeAccountRegistered, map[string]string{
		"account":     msg.Account,
		"hasRevealPk": fmt.Sprintf("%t", len(msg.RevealPk) > 0),
	}), nil
}

func (a *GameHouseApp) handleDeposit(st *state.State, env codec.TxEnvelope, msg codec.BankDepositTx) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.From); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}
	if err := st.Vault.Deposit(msg.From, msg.Amount); err != nil {
		return nil, err
	}

	a.logger.Info("deposit", "account", msg.From, "amount", msg.Amount)
	return okEvent(types.EventTypeFundsDeposited, map[string]string{
		"account": msg.From,
		"amount":  fmt.Sprintf("%d", msg.Amount),
	}), nil
}

func (a *GameHouseApp) handleWithdraw(st *state.State, env codec.TxEnvelope, msg codec.BankWithdrawTx) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.From); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}
	if err := st.Vault.Withdraw(msg.From, msg.Amount); err != nil {
		return nil, err
	}

	// The actual outbound transfer is settled off-ledger; the event is the
	// signal the payout rail acts on.
	a.logger.Info("withdrawal", "account", msg.From, "amount", msg.Amount)
	return okEvent(types.EventTypeFundsWithdrawn, map[string]string{
		"account": msg.From,
		"amount":  fmt.Sprintf("%d", msg.Amount),
	}), nil
}
