package ghcrypto

import "fmt"

// RecoverAmount finds the amount m with m*G == target by linear walk from a
// hint, checking hint, hint±1, hint±2, ... up to maxDistance steps away.
// Balance plaintexts drift by bounded public deltas between reveals, so the
// oracle seeds the walk with its last known value and recovery is cheap in
// practice. Pass hint 0 to search outward from zero.
func RecoverAmount(target Point, hint uint64, maxDistance uint64) (uint64, error) {
	if VerifyAmount(target, hint) {
		return hint, nil
	}

	base := AmountPoint(hint)
	g := PointBase()
	up := base
	down := base
	for d := uint64(1); d <= maxDistance; d++ {
		up = PointAdd(up, g)
		if PointEq(up, target) {
			return hint + d, nil
		}
		down = PointSub(down, g)
		if d <= hint && PointEq(down, target) {
			return hint - d, nil
		}
	}
	return 0, fmt.Errorf("dlog: amount not within %d of hint %d", maxDistance, hint)
}

// VerifyAmount reports whether amount*G == target. Cheaper than recovery when
// the caller already tracks the expected plaintext.
func VerifyAmount(target Point, amount uint64) bool {
	return PointEq(AmountPoint(amount), target)
}
