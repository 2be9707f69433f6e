package keeper

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/basket/x/basket/types"
)

// GetBasket returns a registered basket.
func (k Keeper) GetBasket(ctx context.Context, name string) (types.Basket, error) {
	var basket types.Basket
	found, err := k.getJSON(ctx, GetBasketKey(name), &basket)
	if err != nil {
		return types.Basket{}, err
	}
	if !found {
		return types.Basket{}, sdkerrors.Wrapf(types.ErrNotFound, "basket %s", name)
	}
	return basket, nil
}

// HasBasket reports whether a basket is registered under name.
func (k Keeper) HasBasket(ctx context.Context, name string) bool {
	return k.getStore(ctx).Has(GetBasketKey(name))
}

// SetBasket stores a basket.
func (k Keeper) SetBasket(ctx context.Context, basket types.Basket) error {
	if err := basket.Validate(); err != nil {
		return err
	}
	return k.setJSON(ctx, GetBasketKey(basket.Name), basket)
}

// GetAllBaskets returns every registered basket ordered by name.
func (k Keeper) GetAllBaskets(ctx context.Context) ([]types.Basket, error) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), BasketKeyPrefix)
	defer iterator.Close()

	baskets := []types.Basket{}
	for ; iterator.Valid(); iterator.Next() {
		var basket types.Basket
		if err := unmarshalJSON(iterator.Value(), &basket); err != nil {
			return nil, err
		}
		baskets = append(baskets, basket)
	}
	return baskets, nil
}

// RegisterBasket stores a new basket and provisions its share token issuer.
// The issuer address is bound by the instantiation reply before the action
// commits.
func (k Keeper) RegisterBasket(ctx context.Context, authority, name string, routes []types.Route, weights []uint64, symbol string) (types.Basket, error) {
	if err := k.ValidateAuthority(authority); err != nil {
		return types.Basket{}, err
	}

	err := k.runAtomic(ctx, types.TypeMsgRegisterBasket, func(ctx sdk.Context) error {
		if k.HasBasket(ctx, name) {
			return sdkerrors.Wrapf(types.ErrBasketExists, "basket %s", name)
		}
		basket := types.Basket{
			Name:         name,
			Routes:       routes,
			Weights:      weights,
			IssuerSymbol: symbol,
		}
		if err := k.SetBasket(ctx, basket); err != nil {
			return err
		}

		opID, err := k.dispatch(ctx, types.Operation{
			Kind:  types.OpInstantiateIssuer,
			Reply: types.ReplyIssuerInstantiated,
			Issuer: &types.IssuerCall{
				Name:   name,
				Symbol: symbol,
				Amount: math.ZeroInt(),
			},
		})
		if err != nil {
			return err
		}
		if err := k.setIssuerProvision(ctx, opID, types.IssuerProvision{BasketName: name, Symbol: symbol}); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeBasketRegistered,
				sdk.NewAttribute(types.AttributeKeyBasket, name),
				sdk.NewAttribute(types.AttributeKeySymbol, symbol),
			),
		)
		return nil
	})
	if err != nil {
		return types.Basket{}, err
	}
	return k.GetBasket(ctx, name)
}

// onIssuerInstantiated binds the provisioned issuer to its basket.
func (k Keeper) onIssuerInstantiated(ctx context.Context, op types.Operation, c types.Completion) error {
	provision, err := k.getIssuerProvision(ctx, op.ID)
	if err != nil {
		return err
	}
	k.deleteIssuerProvision(ctx, op.ID)

	basket, err := k.GetBasket(ctx, provision.BasketName)
	if err != nil {
		return err
	}
	if basket.HasIssuer() {
		return sdkerrors.Wrapf(types.ErrBasketExists, "basket %s already has issuer %s", basket.Name, basket.IssuerAddress)
	}
	basket.IssuerAddress = c.Address
	if err := k.SetBasket(ctx, basket); err != nil {
		return err
	}

	k.Logger(ctx).Info("basket issuer bound",
		"basket", basket.Name,
		"symbol", provision.Symbol,
		"issuer", c.Address,
	)
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeIssuerBound,
			sdk.NewAttribute(types.AttributeKeyBasket, basket.Name),
			sdk.NewAttribute(types.AttributeKeyIssuer, c.Address),
		),
	)
	return nil
}
