package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"gamehouse/internal/codec"
	"gamehouse/internal/state"
	"gamehouse/internal/types"
)

func (a *GameHouseApp) handleHouseDeposit(st *state.State, env codec.TxEnvelope, msg codec.HouseDepositTx) (*abci.ExecTxResult, error) {
	if err := requireOperatorAuth(st, env, msg.Operator); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}
	if msg.Amount == 0 {
		return nil, types.ErrInvalidAmount.Wrap("house deposit must be > 0")
	}
	if err := st.TreasuryCredit(msg.Amount); err != nil {
		return nil, err
	}

	a.logger.Info("house funds deposited", "amount", msg.Amount, "treasury", st.Treasury)
	return okEvent(types.EventTypeHouseFundsDeposited, map[string]string{
		"amount":   fmt.Sprintf("%d", msg.Amount),
		"treasury": fmt.Sprintf("%d", st.Treasury),
	}), nil
}

func (a *GameHouseApp) handleHouseWithdraw(st *state.State, env codec.TxEnvelope, msg codec.HouseWithdrawTx) (*abci.ExecTxResult, error) {
	if err := requireOperatorAuth(st, env, msg.Operator); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}
	if msg.Amount == 0 {
		return nil, types.ErrInvalidAmount.Wrap("house withdrawal must be > 0")
	}
	// An operator withdrawal is an ordinary funds shortage, not a settlement
	// failure; TreasuryInsufficient is reserved for payout coverage.
	if st.Treasury < msg.Amount {
		return nil, types.ErrInsufficientFunds.Wrapf("treasury has %d, need %d", st.Treasury, msg.Amount)
	}
	if err := st.TreasuryDebit(msg.Amount); err != nil {
		return nil, err
	}

	a.logger.Info("house funds withdrawn", "amount", msg.Amount, "treasury", st.Treasury)
	return okEvent(types.EventTypeHouseFundsWithdrawn, map[string]string{
		"amount":   fmt.Sprintf("%d", msg.Amount),
		"treasury": fmt.Sprintf("%d", st.Treasury),
	}), nil
}
