package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"

	"gamehouse/internal/ghcrypto"
	"gamehouse/internal/types"
)

func playTx(t *testing.T, player, game string, bet, choice uint64) []byte {
	t.Helper()
	return txBytesSigned(t, "casino/play", map[string]any{
		"player": player, "game": game, "bet": bet, "choice": choice,
	}, player)
}

func conservedTotal(a *GameHouseApp) uint64 {
	return a.st.Treasury + a.st.Vault.Aggregate
}

func TestPlayCoinFlipWin(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 100)

	a.source = fixedSource{draw: 0} // heads
	res := mustOk(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 0), blk))

	ev := findEvent(res.Events, types.EventTypeGameSettled)
	if ev == nil || attr(ev, "won") != "true" || attr(ev, "betAmount") != "10" {
		t.Fatalf("unexpected GameSettled event: %+v", res.Events)
	}

	if got := vaultBalance(t, a, "alice", 110); got != 110 {
		t.Fatalf("balance after win: got %d want 110", got)
	}
	if a.st.Treasury != testGenesisPot-10 {
		t.Fatalf("treasury after win: got %d want %d", a.st.Treasury, testGenesisPot-10)
	}

	stats := a.st.Stats["alice"]
	if stats == nil || stats.TotalGames != 1 || stats.TotalWins != 1 || stats.TotalLosses != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.TotalProfit.Equal(statsInt(10)) {
		t.Fatalf("profit after win: got %s want 10", stats.TotalProfit)
	}
	if stats.LargestWin != 10 || stats.LastGameTime != testBlockTime {
		t.Fatalf("unexpected stats extrema: %+v", stats)
	}
	if a.st.HistoryLength("alice") != 1 {
		t.Fatalf("expected one history record")
	}
}

func TestPlayCoinFlipLoss(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 100)

	a.source = fixedSource{draw: 1} // tails; alice called heads
	mustOk(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 0), blk))

	if got := vaultBalance(t, a, "alice", 90); got != 90 {
		t.Fatalf("balance after loss: got %d want 90", got)
	}
	if a.st.Treasury != testGenesisPot+10 {
		t.Fatalf("treasury after loss: got %d want %d", a.st.Treasury, testGenesisPot+10)
	}

	stats := a.st.Stats["alice"]
	if stats.TotalLosses != 1 || stats.LargestLoss != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.TotalProfit.Equal(statsInt(-10)) {
		t.Fatalf("profit after loss: got %s want -10", stats.TotalProfit)
	}
}

func TestPlayDiceWinPaysSixfold(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 100)

	a.source = fixedSource{draw: 3}
	mustOk(t, a.deliverTx(playTx(t, "alice", "diceroller", 10, 3), blk))

	// Payout 60 on a 10 stake; house is down exactly payout minus bet.
	if got := vaultBalance(t, a, "alice", 150); got != 150 {
		t.Fatalf("balance after dice win: got %d want 150", got)
	}
	if a.st.Treasury != testGenesisPot-50 {
		t.Fatalf("treasury after dice win: got %d want %d", a.st.Treasury, testGenesisPot-50)
	}
}

func TestRangePredictorMidpoint(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 100)

	// A draw of exactly 50 belongs to the upper half.
	a.source = fixedSource{draw: 50}
	res := mustOk(t, a.deliverTx(playTx(t, "alice", "rangepredictor", 10, 1), blk))
	if attr(findEvent(res.Events, types.EventTypeGameSettled), "won") != "true" {
		t.Fatalf("expected draw 50 to win for above")
	}

	a.source = fixedSource{draw: 49}
	res = mustOk(t, a.deliverTx(playTx(t, "alice", "rangepredictor", 10, 0), blk))
	if attr(findEvent(res.Events, types.EventTypeGameSettled), "won") != "true" {
		t.Fatalf("expected draw 49 to win for below")
	}
}

func TestPlayValidation(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 100)

	mustFail(t, a.deliverTx(playTx(t, "alice", "coinflip", 0, 0), blk), types.ErrInvalidBet)
	mustFail(t, a.deliverTx(playTx(t, "alice", "coinflip", testMaxBet+1, 0), blk), types.ErrInvalidBet)
	mustFail(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 2), blk), types.ErrInvalidChoice)
	mustFail(t, a.deliverTx(playTx(t, "alice", "diceroller", 10, 0), blk), types.ErrInvalidChoice)
	mustFail(t, a.deliverTx(playTx(t, "alice", "diceroller", 10, 7), blk), types.ErrInvalidChoice)
	mustFail(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 300), blk), types.ErrInvalidChoice)
	mustFail(t, a.deliverTx(playTx(t, "alice", "blackjack", 10, 0), blk), types.ErrInvalidRequest)

	if a.st.HistoryLength("alice") != 0 {
		t.Fatalf("rejected plays must not create records")
	}
	if got := vaultBalance(t, a, "alice", 100); got != 100 {
		t.Fatalf("rejected plays must not move funds: got %d", got)
	}
}

func TestPlayInsufficientFunds(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 5)

	before := a.st.AppHash()
	mustFail(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 0), blk), types.ErrInsufficientFunds)
	if !bytes.Equal(before, a.st.AppHash()) {
		t.Fatalf("failed play mutated state")
	}
}

func TestTreasuryInsufficientRollsBackStake(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, testOperator, nil)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 100)

	// Drain the treasury below the winning payout's net cost.
	mustOk(t, a.deliverTx(txBytesSigned(t, "house/withdraw", map[string]any{
		"operator": testOperator, "amount": a.st.Treasury - 5,
	}, testOperator), blk))

	a.source = fixedSource{draw: 0} // would win 2x
	before := a.st.AppHash()
	mustFail(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 0), blk), types.ErrTreasuryInsufficient)

	// The stake debit must have been rolled back with everything else.
	if !bytes.Equal(before, a.st.AppHash()) {
		t.Fatalf("failed settlement left residue in state")
	}
	if got := vaultBalance(t, a, "alice", 100); got != 100 {
		t.Fatalf("stake not restored: got %d want 100", got)
	}
	if a.st.HistoryLength("alice") != 0 {
		t.Fatalf("failed settlement must not append a record")
	}
}

func TestConservationAcrossPlays(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	registerTestAccount(t, a, blk, "bob", nil)
	depositFunds(t, a, blk, "alice", 500)
	depositFunds(t, a, blk, "bob", 500)

	total := conservedTotal(a)
	for i, draw := range []uint64{0, 1, 3, 6, 50, 2} {
		a.source = fixedSource{draw: draw}
		mustOk(t, a.deliverTx(playTx(t, "alice", "diceroller", 10, 3), testBlk(int64(2+i))))
		mustOk(t, a.deliverTx(playTx(t, "bob", "coinflip", 20, 1), testBlk(int64(2+i))))
		if got := conservedTotal(a); got != total {
			t.Fatalf("conservation broken after draw %d: got %d want %d", draw, got, total)
		}
	}
}

func TestBalanceDeltaSealedForRegisteredRevealPk(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)

	ownerSk := ghcrypto.ScalarFromUint64(12345)
	ownerPk := ghcrypto.MulBase(ownerSk)
	registerTestAccount(t, a, blk, "alice", ownerPk.Bytes())
	depositFunds(t, a, blk, "alice", 100)

	a.source = fixedSource{draw: 0}
	res := mustOk(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 0), blk))

	ev := findEvent(res.Events, types.EventTypeBalanceDeltaSealed)
	if ev == nil {
		t.Fatalf("expected BalanceDeltaSealed event")
	}
	raw, err := base64.StdEncoding.DecodeString(attr(ev, "sealedDelta"))
	if err != nil {
		t.Fatalf("decode sealedDelta: %v", err)
	}
	ct, err := ghcrypto.CiphertextFromBytes(raw)
	if err != nil {
		t.Fatalf("parse sealedDelta: %v", err)
	}

	// Only the owner key opens the delta: win of 10 on a 2x coinflip.
	got := ghcrypto.DecryptPoint(ownerSk, ct)
	if !ghcrypto.PointEq(got, ghcrypto.SignedDeltaPoint(10)) {
		t.Fatalf("sealed delta does not open to +10")
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	for _, id := range []string{"alice", "bob", "carol"} {
		registerTestAccount(t, a, blk, id, nil)
		depositFunds(t, a, blk, id, 100)
	}

	// Profits land at +10, +5, -2.
	a.source = fixedSource{draw: 0}
	mustOk(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 0), blk)) // +10
	mustOk(t, a.deliverTx(playTx(t, "bob", "coinflip", 5, 0), blk))   // +5
	a.source = fixedSource{draw: 1}
	mustOk(t, a.deliverTx(playTx(t, "carol", "coinflip", 2, 0), blk)) // -2

	resp, err := a.Query(context.Background(), &abci.QueryRequest{Path: "/leaderboard/3"})
	if err != nil || resp.Code != 0 {
		t.Fatalf("leaderboard query failed: %v %+v", err, resp)
	}
	var entries []types.LeaderboardEntry
	if err := json.Unmarshal(resp.Value, &entries); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantOrder := []string{"alice", "bob", "carol"}
	for i, want := range wantOrder {
		if entries[i].Account != want {
			t.Fatalf("leaderboard[%d]: got %q want %q", i, entries[i].Account, want)
		}
	}

	// Truncation keeps the top of the same ordering.
	resp, err = a.Query(context.Background(), &abci.QueryRequest{Path: "/leaderboard/2"})
	if err != nil || resp.Code != 0 {
		t.Fatalf("leaderboard query failed: %v %+v", err, resp)
	}
	if err := json.Unmarshal(resp.Value, &entries); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(entries) != 2 || entries[0].Account != "alice" || entries[1].Account != "bob" {
		t.Fatalf("unexpected truncated leaderboard: %+v", entries)
	}
}

func TestHistoryAndStatsQueries(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 100)

	a.source = fixedSource{draw: 0}
	mustOk(t, a.deliverTx(playTx(t, "alice", "coinflip", 10, 0), blk))
	a.source = fixedSource{draw: 5}
	mustOk(t, a.deliverTx(playTx(t, "alice", "diceroller", 5, 2), blk))

	resp, _ := a.Query(context.Background(), &abci.QueryRequest{Path: "/history/alice/length"})
	if resp.Code != 0 {
		t.Fatalf("length query failed: %+v", resp)
	}
	var lengthResp struct {
		Length int `json:"length"`
	}
	if err := json.Unmarshal(resp.Value, &lengthResp); err != nil || lengthResp.Length != 2 {
		t.Fatalf("unexpected history length: %s", resp.Value)
	}

	resp, _ = a.Query(context.Background(), &abci.QueryRequest{Path: "/history/alice/1"})
	if resp.Code != 0 {
		t.Fatalf("record query failed: %+v", resp)
	}
	var rec types.GameRecord
	if err := json.Unmarshal(resp.Value, &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Game != types.GameDiceRoller || rec.Won || rec.BetAmount != 5 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.EncryptedOutcome) == 0 {
		t.Fatalf("expected sealed outcome in record")
	}

	resp, _ = a.Query(context.Background(), &abci.QueryRequest{Path: "/history/alice/2"})
	if _, wantCode, _ := abciInfoOf(types.ErrIndexOutOfRange); resp.Code != wantCode {
		t.Fatalf("expected IndexOutOfRange, got %+v", resp)
	}

	resp, _ = a.Query(context.Background(), &abci.QueryRequest{Path: "/stats/alice"})
	if resp.Code != 0 {
		t.Fatalf("stats query failed: %+v", resp)
	}
	var stats types.PlayerStats
	if err := json.Unmarshal(resp.Value, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalGames != 2 || stats.TotalWins != 1 || stats.TotalLosses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.TotalProfit.Equal(statsInt(5)) {
		t.Fatalf("profit: got %s want 5", stats.TotalProfit)
	}

	resp, _ = a.Query(context.Background(), &abci.QueryRequest{Path: "/stats/ghost"})
	if _, wantCode, _ := abciInfoOf(types.ErrNotFound); resp.Code != wantCode {
		t.Fatalf("expected NotFound for never-played account, got %+v", resp)
	}
}

func TestContractBalanceQuery(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 250)

	resp, _ := a.Query(context.Background(), &abci.QueryRequest{Path: "/contract/balance"})
	if resp.Code != 0 {
		t.Fatalf("contract balance query failed: %+v", resp)
	}
	var out struct {
		Treasury       uint64 `json:"treasury"`
		VaultAggregate uint64 `json:"vaultAggregate"`
		Total          uint64 `json:"total"`
	}
	if err := json.Unmarshal(resp.Value, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Treasury != testGenesisPot || out.VaultAggregate != 250 || out.Total != testGenesisPot+250 {
		t.Fatalf("unexpected contract balance: %+v", out)
	}
}

func TestContractBalanceQueryOverflow(t *testing.T) {
	blk := testBlk(1)
	a := newTestApp(t)
	registerTestAccount(t, a, blk, "alice", nil)
	depositFunds(t, a, blk, "alice", 1)

	a.st.Treasury = ^uint64(0)
	resp, _ := a.Query(context.Background(), &abci.QueryRequest{Path: "/contract/balance"})
	if resp.Code == 0 {
		t.Fatal("treasury plus aggregate past uint64 must not be reported")
	}
}

func TestHouseFundsQueryOperatorOnly(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.Query(context.Background(), &abci.QueryRequest{
		Path: "/house/funds", Data: []byte(testOperator),
	})
	if resp.Code != 0 {
		t.Fatalf("operator query failed: %+v", resp)
	}

	resp, _ = a.Query(context.Background(), &abci.QueryRequest{
		Path: "/house/funds", Data: []byte("alice"),
	})
	if _, wantCode, _ := abciInfoOf(types.ErrUnauthorized); resp.Code != wantCode {
		t.Fatalf("expected Unauthorized for non-operator, got %+v", resp)
	}
}
