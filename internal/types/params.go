package types

import (
	"crypto/ed25519"
	"fmt"
)

const (
	ModuleName = "casino"

	// DefaultMaxBet is a sanity ceiling on a single wager, in base units.
	DefaultMaxBet uint64 = 100_000

	// maxMultiplier bounds configured payout multipliers so that
	// maxBet*multiplier can never overflow uint64 arithmetic downstream.
	maxMultiplier uint64 = 1_000
)

// Params holds the chain-level configuration fixed at genesis.
type Params struct {
	// Operator is the single identity allowed to move house funds.
	Operator string `json:"operator"`

	// OracleID / OraclePubKey identify the reveal oracle: the external
	// decryption capability that completes reveal requests.
	OracleID     string `json:"oracleId"`
	OraclePubKey []byte `json:"oraclePubKey,omitempty"` // 32-byte ed25519 key

	// VaultPubKey is the ElGamal public key confidential balances are
	// encrypted under. The matching secret key lives with the oracle.
	VaultPubKey []byte `json:"vaultPubKey"` // 32-byte ristretto point

	// BeaconSeed is the 32-byte genesis randomness commitment mixed into every
	// outcome derivation.
	BeaconSeed []byte `json:"beaconSeed"`

	MaxBet uint64 `json:"maxBet"`

	// Payout multipliers per game, as whole multiples of the bet.
	CoinFlipMultiplier uint64 `json:"coinFlipMultiplier"`
	RangeMultiplier    uint64 `json:"rangeMultiplier"`
	DiceMultiplier     uint64 `json:"diceMultiplier"`
}

func DefaultParams() Params {
	return Params{
		MaxBet:             DefaultMaxBet,
		CoinFlipMultiplier: 2,
		RangeMultiplier:    2,
		DiceMultiplier:     6,
	}
}

func (p Params) Validate() error {
	if p.Operator == "" {
		return fmt.Errorf("operator must be set")
	}
	if p.OracleID == "" {
		return fmt.Errorf("oracleId must be set")
	}
	if len(p.OraclePubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("oraclePubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if len(p.VaultPubKey) != 32 {
		return fmt.Errorf("vaultPubKey must be 32 bytes")
	}
	if len(p.BeaconSeed) != 32 {
		return fmt.Errorf("beaconSeed must be 32 bytes")
	}
	if p.MaxBet == 0 {
		return fmt.Errorf("maxBet must be > 0")
	}
	for _, m := range []struct {
		name string
		val  uint64
	}{
		{"coinFlipMultiplier", p.CoinFlipMultiplier},
		{"rangeMultiplier", p.RangeMultiplier},
		{"diceMultiplier", p.DiceMultiplier},
	} {
		if m.val < 2 {
			return fmt.Errorf("%s must be >= 2 (winners are paid more than their stake)", m.name)
		}
		if m.val > maxMultiplier {
			return fmt.Errorf("%s too large: %d > %d", m.name, m.val, maxMultiplier)
		}
	}
	return nil
}

// Multiplier returns the configured payout multiple for a game.
func (p Params) Multiplier(game GameType) (uint64, error) {
	switch game {
	case GameCoinFlip:
		return p.CoinFlipMultiplier, nil
	case GameRangePredictor:
		return p.RangeMultiplier, nil
	case GameDiceRoller:
		return p.DiceMultiplier, nil
	default:
		return 0, fmt.Errorf("unknown game type %q", game)
	}
}
