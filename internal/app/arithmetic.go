package app

import (
	"fmt"
	"math"
)

func addU64Checked(a, b uint64, field string) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%s overflows uint64", field)
	}
	return a + b, nil
}

func mulU64Checked(a, b uint64, field string) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, fmt.Errorf("%s overflows uint64", field)
	}
	return a * b, nil
}

// signedDelta returns payout-bet for a win and -bet for a loss, guarding the
// int64 conversion.
func signedDelta(won bool, bet, payout uint64, field string) (int64, error) {
	if won {
		net := payout - bet
		if net > uint64(math.MaxInt64) {
			return 0, fmt.Errorf("%s overflows int64", field)
		}
		return int64(net), nil
	}
	if bet > uint64(math.MaxInt64) {
		return 0, fmt.Errorf("%s overflows int64", field)
	}
	return -int64(bet), nil
}
