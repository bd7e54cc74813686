package types

import (
	"sort"

	sdkmath "cosmossdk.io/math"
)

// GameRecord is one settled wager. Immutable once appended; it lives in the
// global sequence and is referenced by the player's own index.
type GameRecord struct {
	Player    string   `json:"player"`
	Game      GameType `json:"game"`
	BetAmount uint64   `json:"betAmount"`
	Won       bool     `json:"won"`
	Time      int64    `json:"time"` // unix seconds, block time

	// EncryptedOutcome is the drawn value sealed under the vault key; the
	// plaintext draw is not part of the public record.
	EncryptedOutcome []byte `json:"encryptedOutcome,omitempty"`
}

// PlayerStats is the running aggregate for one account, updated in the same
// transaction as each GameRecord append and never mutated independently.
type PlayerStats struct {
	TotalGames  uint64 `json:"totalGames"`
	TotalWins   uint64 `json:"totalWins"`
	TotalLosses uint64 `json:"totalLosses"`

	// TotalProfit is signed: wins add payout-bet, losses subtract bet.
	TotalProfit sdkmath.Int `json:"totalProfit"`

	LastGameTime int64  `json:"lastGameTime"`
	LargestWin   uint64 `json:"largestWin"`
	LargestLoss  uint64 `json:"largestLoss"`
}

func NewPlayerStats() PlayerStats {
	return PlayerStats{TotalProfit: sdkmath.ZeroInt()}
}

// LeaderboardEntry is a read-only projection of PlayerStats; computed on
// query, never stored.
type LeaderboardEntry struct {
	Account string      `json:"account"`
	Stats   PlayerStats `json:"stats"`
}

// SortLeaderboard orders entries descending by profit, ties broken by higher
// totalGames, then ascending account id so the order is deterministic.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		pi, pj := entries[i].Stats.TotalProfit, entries[j].Stats.TotalProfit
		if !pi.Equal(pj) {
			return pi.GT(pj)
		}
		if entries[i].Stats.TotalGames != entries[j].Stats.TotalGames {
			return entries[i].Stats.TotalGames > entries[j].Stats.TotalGames
		}
		return entries[i].Account < entries[j].Account
	})
}
