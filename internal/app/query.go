package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"gamehouse/internal/types"
)

// Query serves the read surface. Where an endpoint is owner- or
// operator-gated, the caller identity arrives pre-verified in req.Data;
// request authentication itself happens outside the ledger.
//
// Paths:
//   - /contract/balance
//   - /balance/encrypted/<addr>
//   - /balance/revealed/<addr>      (owner only)
//   - /house/funds                  (operator only)
//   - /history/<addr>/length
//   - /history/<addr>/<index>
//   - /stats/<addr>
//   - /leaderboard/<n>
func (a *GameHouseApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.st
	caller := strings.TrimSpace(string(req.Data))
	path := strings.TrimSpace(req.Path)

	switch {
	case path == "/contract/balance":
		total, err := addU64Checked(st.Treasury, st.Vault.Aggregate, "contract balance")
		if err != nil {
			return a.queryErr(types.ErrInvalidAmount.Wrap(err.Error()))
		}
		return a.queryOK(map[string]any{
			"treasury":       st.Treasury,
			"vaultAggregate": st.Vault.Aggregate,
			"total":          total,
		})

	case path == "/house/funds":
		if caller != st.Params.Operator {
			return a.queryErr(types.ErrUnauthorized.Wrap("house funds are operator-only"))
		}
		return a.queryOK(map[string]any{"treasury": st.Treasury})

	case strings.HasPrefix(path, "/balance/encrypted/"):
		addr := strings.TrimPrefix(path, "/balance/encrypted/")
		ct, err := st.Vault.Ciphertext(addr)
		if err != nil {
			return a.queryErr(err)
		}
		return a.queryOK(map[string]any{"addr": addr, "ciphertext": ct})

	case strings.HasPrefix(path, "/balance/revealed/"):
		addr := strings.TrimPrefix(path, "/balance/revealed/")
		if caller != addr {
			return a.queryErr(types.ErrUnauthorized.Wrap("revealed balance is owner-only"))
		}
		rb, ok := st.Revealed[addr]
		if !ok {
			return a.queryErr(types.ErrNotFound.Wrapf("no completed reveal for %q", addr))
		}
		return a.queryOK(rb)

	case strings.HasPrefix(path, "/history/"):
		rest := strings.TrimPrefix(path, "/history/")
		addr, sel, found := strings.Cut(rest, "/")
		if !found || addr == "" || sel == "" {
			return a.queryErr(types.ErrInvalidRequest.Wrap("want /history/<addr>/length or /history/<addr>/<index>"))
		}
		if sel == "length" {
			return a.queryOK(map[string]any{"addr": addr, "length": st.HistoryLength(addr)})
		}
		index, err := strconv.Atoi(sel)
		if err != nil {
			return a.queryErr(types.ErrInvalidRequest.Wrapf("invalid history index %q", sel))
		}
		rec, err := st.RecordAt(addr, index)
		if err != nil {
			return a.queryErr(err)
		}
		return a.queryOK(rec)

	case strings.HasPrefix(path, "/stats/"):
		addr := strings.TrimPrefix(path, "/stats/")
		stats, ok := st.Stats[addr]
		if !ok {
			return a.queryErr(types.ErrNotFound.Wrapf("account %q has never played", addr))
		}
		return a.queryOK(stats)

	case strings.HasPrefix(path, "/leaderboard/"):
		raw := strings.TrimPrefix(path, "/leaderboard/")
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return a.queryErr(types.ErrInvalidRequest.Wrapf("invalid leaderboard size %q", raw))
		}
		entries := make([]types.LeaderboardEntry, 0, len(st.Stats))
		for addr, stats := range st.Stats {
			entries = append(entries, types.LeaderboardEntry{Account: addr, Stats: *stats})
		}
		types.SortLeaderboard(entries)
		if n < len(entries) {
			entries = entries[:n]
		}
		return a.queryOK(entries)

	default:
		return a.queryErr(types.ErrInvalidRequest.Wrapf("unknown query path %q", path))
	}
}

func (a *GameHouseApp) queryOK(v any) (*abci.QueryResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return a.queryErr(types.ErrInvalidRequest.Wrapf("encode response: %v", err))
	}
	return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
}

func (a *GameHouseApp) queryErr(err error) (*abci.QueryResponse, error) {
	codespace, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.QueryResponse{Code: code, Codespace: codespace, Log: logMsg, Height: a.st.Height}, nil
}
