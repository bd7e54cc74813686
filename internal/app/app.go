package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"gamehouse/internal/codec"
	"gamehouse/internal/outcome"
	"gamehouse/internal/state"
	"gamehouse/internal/types"
)

const (
	AppVersion uint64 = 1
)

type GameHouseApp struct {
	*abci.BaseApplication

	home   string
	logger log.Logger

	// source provides settlement draws; swapped for a scripted source in tests.
	source outcome.Source

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(home string, logger log.Logger) (*GameHouseApp, error) {
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome)
	if err != nil {
		return nil, err
	}
	a := &GameHouseApp{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		logger:          logger,
		source:          outcome.BeaconSource{},
		st:              st,
		lastHash:        st.AppHash(),
	}
	return a, nil
}

func (a *GameHouseApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "gamehouse (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *GameHouseApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	// Structural validation only; auth and semantics run at FinalizeBlock.
	_, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

// GenesisState is the app-side genesis document carried in
// InitChainRequest.AppStateBytes.
type GenesisState struct {
	Params   types.Params `json:"params"`
	Treasury uint64       `json:"treasury,omitempty"`
}

func (a *GameHouseApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(req.AppStateBytes) == 0 {
		return nil, fmt.Errorf("genesis app state is required")
	}
	var gen GenesisState
	if err := json.Unmarshal(req.AppStateBytes, &gen); err != nil {
		return nil, fmt.Errorf("decode genesis app state: %w", err)
	}
	if err := a.applyGenesis(gen); err != nil {
		return nil, err
	}

	a.lastHash = a.st.AppHash()
	a.logger.Info("chain initialized",
		"operator", gen.Params.Operator,
		"oracle", gen.Params.OracleID,
		"maxBet", gen.Params.MaxBet,
		"treasury", gen.Treasury,
	)
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func (a *GameHouseApp) applyGenesis(gen GenesisState) error {
	if gen.Params.MaxBet == 0 {
		gen.Params.MaxBet = types.DefaultMaxBet
	}
	def := types.DefaultParams()
	if gen.Params.CoinFlipMultiplier == 0 {
		gen.Params.CoinFlipMultiplier = def.CoinFlipMultiplier
	}
	if gen.Params.RangeMultiplier == 0 {
		gen.Params.RangeMultiplier = def.RangeMultiplier
	}
	if gen.Params.DiceMultiplier == 0 {
		gen.Params.DiceMultiplier = def.DiceMultiplier
	}
	if err := gen.Params.Validate(); err != nil {
		return fmt.Errorf("invalid genesis params: %w", err)
	}

	st := state.NewState()
	st.Params = gen.Params
	st.Vault.PubKey = append([]byte(nil), gen.Params.VaultPubKey...)
	st.Treasury = gen.Treasury
	a.st = st
	return nil
}

func (a *GameHouseApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	blk := blockCtx{
		Height:   req.Height,
		Time:     req.Time.Unix(),
		LastHash: a.lastHash,
	}

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, blk)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *GameHouseApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Persist after each block for devnet durability.
	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		// CometBFT expects Commit to not crash; return error so node halts loudly.
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

// blockCtx is the per-block context threaded through tx execution.
type blockCtx struct {
	Height   int64
	Time     int64 // unix seconds
	LastHash []byte
}

// deliverTx executes one transaction against a staged copy of state. The copy
// replaces live state only on success, so every failure rolls back completely.
func (a *GameHouseApp) deliverTx(txBytes []byte, blk blockCtx) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	staged, err := a.st.Clone()
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: "stage state: " + err.Error()}
	}

	res, err := a.routeTx(staged, env, blk)
	if err != nil {
		a.logger.Debug("tx rejected", "type", env.Type, "signer", env.Signer, "err", err)
		return errResult(err)
	}

	a.st = staged
	a.logger.Debug("tx applied", "type", env.Type, "signer", env.Signer)
	return res
}

func (a *GameHouseApp) routeTx(st *state.State, env codec.TxEnvelope, blk blockCtx) (*abci.ExecTxResult, error) {
	switch env.Type {
	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad auth/register_account value")
		}
		return a.handleRegisterAccount(st, env, msg)

	case "bank/deposit":
		var msg codec.BankDepositTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad bank/deposit value")
		}
		return a.handleDeposit(st, env, msg)

	case "bank/withdraw":
		var msg codec.BankWithdrawTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad bank/withdraw value")
		}
		return a.handleWithdraw(st, env, msg)

	case "house/deposit":
		var msg codec.HouseDepositTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad house/deposit value")
		}
		return a.handleHouseDeposit(st, env, msg)

	case "house/withdraw":
		var msg codec.HouseWithdrawTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad house/withdraw value")
		}
		return a.handleHouseWithdraw(st, env, msg)

	case "casino/play":
		var msg codec.CasinoPlayTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad casino/play value")
		}
		return a.handlePlay(st, env, msg, blk)

	case "casino/request_reveal":
		var msg codec.CasinoRequestRevealTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad casino/request_reveal value")
		}
		return a.handleRequestReveal(st, env, msg, blk)

	case "casino/submit_reveal":
		var msg codec.CasinoSubmitRevealTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, types.ErrInvalidRequest.Wrap("bad casino/submit_reveal value")
		}
		return a.handleSubmitReveal(st, env, msg, blk)

	default:
		return nil, types.ErrInvalidRequest.Wrapf("unknown tx type %q", env.Type)
	}
}

func errResult(err error) *abci.ExecTxResult {
	codespace, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Code: code, Codespace: codespace, Log: logMsg}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{ev},
	}
}
