package service

import (
	"math"
	"math/bits"

	"chariledger/internal/ledger"
)

// FeeFor computes the platform fee with integer floor division:
// floor(amount * rateBps / 10000). The multiply goes through a 128-bit
// intermediate so it cannot overflow; with rateBps capped at 1000 the
// high word is always below the divisor, which bits.Div64 requires.
func FeeFor(amount, rateBps uint64) uint64 {
	if rateBps == 0 {
		return 0
	}
	hi, lo := bits.Mul64(amount, rateBps)
	fee, _ := bits.Div64(hi, lo, ledger.FeeRateDenominator)
	return fee
}

// progressPercentage computes floor(raised * 100 / target) with the
// same floor rule as fee computation. The quotient can exceed 64 bits
// only for degenerate tiny targets against near-max raised totals; it
// saturates rather than panic.
func progressPercentage(raised, target uint64) uint64 {
	if target == 0 {
		return 0
	}
	hi, lo := bits.Mul64(raised, 100)
	if hi >= target {
		return math.MaxUint64
	}
	pct, _ := bits.Div64(hi, lo, target)
	return pct
}
