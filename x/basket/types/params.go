package types

import (
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// DenomOsmo is the native entry asset.
	DenomOsmo = "uosmo"
	// DenomUSDC is the stable entry asset.
	DenomUSDC = "usdc"
	// DenomAxlUSDC is the bridged USDC produced by the uosmo entry route.
	DenomAxlUSDC = "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"

	// DefaultMaxOperationsPerAction bounds the number of operations a single
	// top-level action may execute before it is aborted.
	DefaultMaxOperationsPerAction = 512
)

// EntryRoute maps a supported deposit denom to the intermediate denom produced
// by the first swap leg and the pool that performs it.
type EntryRoute struct {
	DepositDenom      string `json:"deposit_denom"`
	IntermediateDenom string `json:"intermediate_denom"`
	PoolID            uint64 `json:"pool_id"`
}

// Params defines the basket module parameters
type Params struct {
	EntryRoutes []EntryRoute `json:"entry_routes"`
	// MinOutput is sent as the minimum output of every exchange. There is no
	// price discovery, so it stays a placeholder.
	MinOutput              math.Int `json:"min_output"`
	MaxOperationsPerAction uint32   `json:"max_operations_per_action"`
}

// DefaultParams returns default parameters for the basket module
func DefaultParams() Params {
	return Params{
		EntryRoutes: []EntryRoute{
			{DepositDenom: DenomOsmo, IntermediateDenom: DenomAxlUSDC, PoolID: 1},
			{DepositDenom: DenomUSDC, IntermediateDenom: DenomOsmo, PoolID: 678},
		},
		MinOutput:              math.OneInt(),
		MaxOperationsPerAction: DefaultMaxOperationsPerAction,
	}
}

// EntryRouteFor returns the entry route for a deposit denom.
func (p Params) EntryRouteFor(depositDenom string) (EntryRoute, bool) {
	for _, r := range p.EntryRoutes {
		if r.DepositDenom == depositDenom {
			return r, true
		}
	}
	return EntryRoute{}, false
}

// Validate performs basic validation of the parameters
func (p Params) Validate() error {
	if len(p.EntryRoutes) == 0 {
		return sdkerrors.Wrap(ErrInvalidParams, "at least one entry route is required")
	}

	seen := make(map[string]struct{}, len(p.EntryRoutes))
	for i, r := range p.EntryRoutes {
		if err := sdk.ValidateDenom(r.DepositDenom); err != nil {
			return sdkerrors.Wrapf(ErrInvalidParams, "entry route %d: deposit denom: %s", i, err)
		}
		if err := sdk.ValidateDenom(r.IntermediateDenom); err != nil {
			return sdkerrors.Wrapf(ErrInvalidParams, "entry route %d: intermediate denom: %s", i, err)
		}
		if r.DepositDenom == r.IntermediateDenom {
			return sdkerrors.Wrapf(ErrInvalidParams, "entry route %d swaps %s into itself", i, r.DepositDenom)
		}
		if r.PoolID == 0 {
			return sdkerrors.Wrapf(ErrInvalidParams, "entry route %d: pool id cannot be zero", i)
		}
		if _, dup := seen[r.DepositDenom]; dup {
			return sdkerrors.Wrapf(ErrInvalidParams, "duplicate entry route for %s", r.DepositDenom)
		}
		seen[r.DepositDenom] = struct{}{}
	}

	if p.MinOutput.IsNil() || !p.MinOutput.IsPositive() {
		return sdkerrors.Wrap(ErrInvalidParams, "min output must be positive")
	}
	if p.MaxOperationsPerAction == 0 {
		return sdkerrors.Wrap(ErrInvalidParams, "max operations per action cannot be zero")
	}
	return nil
}

// String implements fmt.Stringer
func (p Params) String() string {
	return fmt.Sprintf("entry_routes=%d min_output=%s max_operations_per_action=%d",
		len(p.EntryRoutes), p.MinOutput, p.MaxOperationsPerAction)
}
