// Package games is the stateless rule set for the supported wager variants.
// It validates a wager, and decides win/loss from an already-drawn outcome; it
// never touches balances and never draws outcomes itself.
package games

import (
	"fmt"

	"gamehouse/internal/types"
)

// DrawRange returns the inclusive domain a game's outcome is drawn from.
func DrawRange(game types.GameType) (lo, hi uint64, err error) {
	switch game {
	case types.GameCoinFlip:
		return 0, 1, nil
	case types.GameRangePredictor:
		return 1, 100, nil
	case types.GameDiceRoller:
		return 1, 6, nil
	default:
		return 0, 0, fmt.Errorf("unknown game type %q", game)
	}
}

// ValidateBet enforces the shared bet bounds before any state change.
func ValidateBet(bet, maxBet uint64) error {
	if bet == 0 {
		return types.ErrInvalidBet.Wrap("bet must be > 0")
	}
	if bet > maxBet {
		return types.ErrInvalidBet.Wrapf("bet %d exceeds max %d", bet, maxBet)
	}
	return nil
}

// ValidateChoice checks the choice against the game's domain.
func ValidateChoice(game types.GameType, choice uint8) error {
	switch game {
	case types.GameCoinFlip:
		if choice != types.CoinFlipHeads && choice != types.CoinFlipTails {
			return types.ErrInvalidChoice.Wrapf("coinflip choice must be 0 or 1, got %d", choice)
		}
	case types.GameRangePredictor:
		if choice != types.RangeBelow && choice != types.RangeAbove {
			return types.ErrInvalidChoice.Wrapf("range choice must be 0 (below) or 1 (above), got %d", choice)
		}
	case types.GameDiceRoller:
		if choice < 1 || choice > 6 {
			return types.ErrInvalidChoice.Wrapf("dice choice must be 1..6, got %d", choice)
		}
	default:
		return types.ErrInvalidRequest.Wrapf("unknown game type %q", game)
	}
	return nil
}

// Resolve decides win/loss for a validated choice and a drawn value.
//
// RangePredictor midpoint rule: draws 1..49 are "below" and 50..100 are
// "above". A draw of exactly 50 counts as above, so the two halves cover the
// domain with no dead value.
func Resolve(game types.GameType, choice uint8, draw uint64) (bool, error) {
	switch game {
	case types.GameCoinFlip:
		return draw == uint64(choice), nil
	case types.GameRangePredictor:
		if choice == types.RangeBelow {
			return draw <= 49, nil
		}
		return draw >= 50, nil
	case types.GameDiceRoller:
		return draw == uint64(choice), nil
	default:
		return false, fmt.Errorf("unknown game type %q", game)
	}
}
