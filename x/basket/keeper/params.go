package keeper

import (
	"context"

	"github.com/paw-chain/basket/x/basket/types"
)

// GetParams returns the current basket module parameters
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	var params types.Params
	found, err := k.getJSON(ctx, ParamsKey, &params)
	if err != nil {
		return types.Params{}, err
	}
	if !found {
		return types.DefaultParams(), nil
	}
	return params, nil
}

// SetParams sets the basket module parameters
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return k.setJSON(ctx, ParamsKey, params)
}
