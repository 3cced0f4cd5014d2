package commitment

import "math/big"

var hundred = big.NewInt(100)

// DrawdownPercent computes max(0, (amount-newValue)*100/amount) with
// truncating integer division, per spec.md §4.2's update_value formula. A
// non-positive amount (never expected in practice, since amount is the
// commitment's locked principal) yields zero rather than dividing by zero.
// Exported so the Attestation Engine can derive the same figure from a
// commitment's amount/current_value without duplicating the formula.
func DrawdownPercent(amount, newValue *big.Int) uint32 {
	if amount == nil || amount.Sign() <= 0 {
		return 0
	}
	diff := new(big.Int).Sub(amount, newValue)
	if diff.Sign() <= 0 {
		return 0
	}
	scaled := new(big.Int).Mul(diff, hundred)
	scaled.Quo(scaled, amount)
	if !scaled.IsUint64() || scaled.Uint64() > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(scaled.Uint64())
}

// earlyExitPenalty computes (max(currentValue,0)*penaltyPercent)/100,
// truncating, per spec.md §4.2 and B7 (current_value == 0 yields penalty 0
// without special-casing).
func earlyExitPenalty(currentValue *big.Int, penaltyPercent uint32) *big.Int {
	if currentValue == nil || currentValue.Sign() <= 0 {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(currentValue, big.NewInt(int64(penaltyPercent)))
	scaled.Quo(scaled, hundred)
	return scaled
}

// returnedAfterPenalty computes currentValue-penalty, floored at zero.
func returnedAfterPenalty(currentValue, penalty *big.Int) *big.Int {
	if currentValue == nil {
		return big.NewInt(0)
	}
	returned := new(big.Int).Sub(currentValue, penalty)
	if returned.Sign() < 0 {
		return big.NewInt(0)
	}
	return returned
}
