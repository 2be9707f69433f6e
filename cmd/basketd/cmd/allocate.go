package cmd

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/paw-chain/basket/x/basket/keeper"
	"github.com/paw-chain/basket/x/basket/types"
)

// Allocation is the split of an amount across weights.
type Allocation struct {
	Total   math.Int   `json:"total"`
	Weights []uint64   `json:"weights"`
	Amounts []math.Int `json:"amounts"`
}

// AllocateCmd prints how an intermediate amount is split across weights.
func AllocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "allocate [amount] [weight]...",
		Short:   "Split an amount across percentage weights the way deposits are allocated",
		Example: "basketd allocate 100 33 67",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			alloc, err := ComputeAllocation(args[0], args[1:])
			if err != nil {
				return err
			}
			return writeResult(cmd, v, alloc)
		},
	}
}

// ComputeAllocation parses the amount and weights and applies keeper.Allocate.
func ComputeAllocation(amount string, rawWeights []string) (*Allocation, error) {
	total, ok := math.NewIntFromString(amount)
	if !ok || total.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}

	weights := make([]uint64, len(rawWeights))
	var sum uint64
	for i, raw := range rawWeights {
		w, err := cast.ToUint64E(raw)
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", i, err)
		}
		weights[i] = w
		sum += w
	}
	if sum != types.WeightTotal {
		return nil, fmt.Errorf("%w: weights sum to %d, want %d", types.ErrInvalidRatio, sum, types.WeightTotal)
	}

	amounts, err := keeper.Allocate(total, weights)
	if err != nil {
		return nil, err
	}
	return &Allocation{Total: total, Weights: weights, Amounts: amounts}, nil
}
