package keeper

import (
	"context"

	sdkerrors "cosmossdk.io/errors"

	"github.com/paw-chain/basket/x/basket/types"
)

// ValidateRoutes checks every route's target against live pool metadata.
func (k Keeper) ValidateRoutes(ctx context.Context, routes []types.Route) error {
	for i, r := range routes {
		denoms, err := k.poolKeeper.PoolDenoms(ctx, r.PoolID)
		if err != nil {
			return sdkerrors.Wrapf(types.ErrPoolTokenNotFound, "route %d: pool %d: %s", i, r.PoolID, err)
		}
		if !containsDenom(denoms, r.TokenOutDenom) {
			return sdkerrors.Wrapf(types.ErrPoolTokenNotFound, "route %d: %s is not traded in pool %d", i, r.TokenOutDenom, r.PoolID)
		}
	}
	return nil
}

func containsDenom(denoms []string, denom string) bool {
	for _, d := range denoms {
		if d == denom {
			return true
		}
	}
	return false
}
