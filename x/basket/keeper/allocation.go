package keeper

import (
	"cosmossdk.io/math"

	"github.com/paw-chain/basket/x/basket/types"
)

// Allocate splits total into one sub-amount per weight. Every component but
// the last gets floor(total*w/100); the last gets what remains, so the
// sub-amounts always sum to total.
func Allocate(total math.Int, weights []uint64) ([]math.Int, error) {
	if len(weights) == 0 {
		return nil, nil
	}

	hundred := math.NewIntFromUint64(types.WeightTotal)
	out := make([]math.Int, len(weights))
	allocated := math.ZeroInt()
	for i, w := range weights[:len(weights)-1] {
		sub, err := SafeMulDiv(total, math.NewIntFromUint64(w), hundred)
		if err != nil {
			return nil, err
		}
		out[i] = sub
		if allocated, err = SafeAdd(allocated, sub); err != nil {
			return nil, err
		}
	}

	last, err := SafeSub(total, allocated)
	if err != nil {
		return nil, err
	}
	out[len(weights)-1] = last
	return out, nil
}
