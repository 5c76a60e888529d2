package kernel

import "math/bits"

// ilog2Plus1 returns floor(log2(n)) + 1 for n >= 1. This is exactly what
// bits.Len64 computes, and it is deliberately not a ceiling: when n is
// already an exact power of two, floor(log2(n)) + 1 still adds one full
// step beyond what a ceiling-based rounding would, reproducing the fee
// formula's documented double-rounding quirk (§4.7, Open Question #1 —
// see DESIGN.md) rather than "fixing" it.
func ilog2Plus1(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	return uint64(bits.Len64(n))
}

// ComputeFee computes the transaction's fee: verification_base_fee times
// the rounded log2 of the estimated total cycle count (current cycles
// already spent plus the estimated remainder of the epilogue), per §4.7.
func ComputeFee(verificationBaseFee uint32, currentCycles, estimatedAfterComputeFeeCycles uint64) uint64 {
	total := currentCycles + estimatedAfterComputeFeeCycles
	return uint64(verificationBaseFee) * ilog2Plus1(total)
}
