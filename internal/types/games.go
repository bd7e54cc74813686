package types

import "fmt"

// GameType identifies a wager variant.
type GameType string

const (
	GameCoinFlip       GameType = "coinflip"
	GameRangePredictor GameType = "rangepredictor"
	GameDiceRoller     GameType = "diceroller"
)

// CoinFlip choices.
const (
	CoinFlipHeads uint8 = 0
	CoinFlipTails uint8 = 1
)

// RangePredictor choices, relative to the midpoint of [1,100].
const (
	RangeBelow uint8 = 0
	RangeAbove uint8 = 1
)

func ParseGameType(s string) (GameType, error) {
	switch GameType(s) {
	case GameCoinFlip, GameRangePredictor, GameDiceRoller:
		return GameType(s), nil
	default:
		return "", fmt.Errorf("unknown game type %q", s)
	}
}
