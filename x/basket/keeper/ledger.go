package keeper

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/basket/x/basket/types"
)

// GetBalance returns the cumulative deposit of holder into basket.
func (k Keeper) GetBalance(ctx context.Context, holder sdk.AccAddress, basket string) (sdk.Coin, bool, error) {
	var balance sdk.Coin
	found, err := k.getJSON(ctx, GetBalanceKey(holder, basket), &balance)
	return balance, found, err
}

// SetBalance stores a deposit balance. Balances are never deleted.
func (k Keeper) SetBalance(ctx context.Context, holder sdk.AccAddress, basket string, balance sdk.Coin) error {
	return k.setJSON(ctx, GetBalanceKey(holder, basket), balance)
}

// AddToBalance records a deposit. The balance keeps the denom of the first
// deposit.
func (k Keeper) AddToBalance(ctx context.Context, holder sdk.AccAddress, basket string, deposit sdk.Coin) (sdk.Coin, error) {
	balance, found, err := k.GetBalance(ctx, holder, basket)
	if err != nil {
		return sdk.Coin{}, err
	}
	if !found {
		balance = sdk.NewCoin(deposit.Denom, math.ZeroInt())
	}
	if balance.Denom != deposit.Denom {
		return sdk.Coin{}, sdkerrors.Wrapf(types.ErrInvalidDepositDenom,
			"basket %s balance is held in %s, got %s", basket, balance.Denom, deposit.Denom)
	}
	sum, err := SafeAdd(balance.Amount, deposit.Amount)
	if err != nil {
		return sdk.Coin{}, err
	}
	balance.Amount = sum
	return balance, k.SetBalance(ctx, holder, basket, balance)
}

// DeductFromBalance decrements a balance by the burned amount.
func (k Keeper) DeductFromBalance(ctx context.Context, holder sdk.AccAddress, basket string, amount math.Int) error {
	balance, found, err := k.GetBalance(ctx, holder, basket)
	if err != nil {
		return err
	}
	if !found {
		return sdkerrors.Wrapf(types.ErrNotFound, "no balance for %s in basket %s", holder, basket)
	}
	rest, err := SafeSub(balance.Amount, amount)
	if err != nil {
		return err
	}
	balance.Amount = rest
	return k.SetBalance(ctx, holder, basket, balance)
}

// GetLedger returns the current holdings of holder in basket.
func (k Keeper) GetLedger(ctx context.Context, holder sdk.AccAddress, basket string) (sdk.Coins, bool, error) {
	var coins sdk.Coins
	found, err := k.getJSON(ctx, GetLedgerKey(holder, basket), &coins)
	return coins, found, err
}

// SetLedger stores a ledger entry.
func (k Keeper) SetLedger(ctx context.Context, holder sdk.AccAddress, basket string, coins sdk.Coins) error {
	return k.setJSON(ctx, GetLedgerKey(holder, basket), coins)
}

// DeleteLedger removes a ledger entry.
func (k Keeper) DeleteLedger(ctx context.Context, holder sdk.AccAddress, basket string) {
	k.getStore(ctx).Delete(GetLedgerKey(holder, basket))
}

// CreditLedger merges coin into the ledger entry, adding to an existing
// amount of the same denom. Zero coins leave the entry untouched.
func (k Keeper) CreditLedger(ctx context.Context, holder sdk.AccAddress, basket string, coin sdk.Coin) error {
	if !coin.Amount.IsPositive() {
		return nil
	}
	coins, _, err := k.GetLedger(ctx, holder, basket)
	if err != nil {
		return err
	}

	merged := false
	for i := range coins {
		if coins[i].Denom != coin.Denom {
			continue
		}
		sum, err := SafeAdd(coins[i].Amount, coin.Amount)
		if err != nil {
			return err
		}
		coins[i].Amount = sum
		merged = true
		break
	}
	if !merged {
		coins = append(coins, coin).Sort()
	}

	if err := k.SetLedger(ctx, holder, basket, coins); err != nil {
		return err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeLedgerCredited,
			sdk.NewAttribute(types.AttributeKeyHolder, holder.String()),
			sdk.NewAttribute(types.AttributeKeyBasket, basket),
			sdk.NewAttribute(types.AttributeKeyAmount, coin.String()),
		),
	)
	return nil
}

// IterateLedgers calls cb for every ledger entry until cb returns true.
func (k Keeper) IterateLedgers(ctx context.Context, cb func(holder sdk.AccAddress, basket string, coins sdk.Coins) bool) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), LedgerKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var coins sdk.Coins
		if err := unmarshalJSON(iterator.Value(), &coins); err != nil {
			return err
		}
		holder, basket := splitHolderBasketKey(iterator.Key()[len(LedgerKeyPrefix):])
		if cb(holder, basket, coins) {
			break
		}
	}
	return nil
}

// IterateBalances calls cb for every deposit balance until cb returns true.
func (k Keeper) IterateBalances(ctx context.Context, cb func(holder sdk.AccAddress, basket string, balance sdk.Coin) bool) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), BalanceKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var balance sdk.Coin
		if err := unmarshalJSON(iterator.Value(), &balance); err != nil {
			return err
		}
		holder, basket := splitHolderBasketKey(iterator.Key()[len(BalanceKeyPrefix):])
		if cb(holder, basket, balance) {
			break
		}
	}
	return nil
}

// GetInitialSwap returns the most recent first-leg result of holder.
func (k Keeper) GetInitialSwap(ctx context.Context, holder sdk.AccAddress) (types.InitialSwap, bool, error) {
	var swap types.InitialSwap
	found, err := k.getJSON(ctx, GetInitialSwapKey(holder), &swap)
	return swap, found, err
}

// SetInitialSwap records a first-leg result, replacing the previous one.
func (k Keeper) SetInitialSwap(ctx context.Context, holder sdk.AccAddress, swap types.InitialSwap) error {
	return k.setJSON(ctx, GetInitialSwapKey(holder), swap)
}

// GetAllInitialSwaps returns every recorded first-leg result.
func (k Keeper) GetAllInitialSwaps(ctx context.Context) ([]types.InitialSwap, error) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), InitialSwapKeyPrefix)
	defer iterator.Close()

	swaps := []types.InitialSwap{}
	for ; iterator.Valid(); iterator.Next() {
		var swap types.InitialSwap
		if err := unmarshalJSON(iterator.Value(), &swap); err != nil {
			return nil, err
		}
		swaps = append(swaps, swap)
	}
	return swaps, nil
}

// GetPoolBinding returns the pool that reverses denom for basket.
func (k Keeper) GetPoolBinding(ctx context.Context, basket, denom string) (uint64, bool) {
	bz := k.getStore(ctx).Get(GetPoolBindingKey(basket, denom))
	if bz == nil {
		return 0, false
	}
	return sdk.BigEndianToUint64(bz), true
}

// SetPoolBinding records the pool a basket component was swapped into
// through. Other baskets holding the same denom keep their own binding.
func (k Keeper) SetPoolBinding(ctx context.Context, basket, denom string, poolID uint64) {
	k.getStore(ctx).Set(GetPoolBindingKey(basket, denom), sdk.Uint64ToBigEndian(poolID))
}

// GetAllPoolBindings returns every recorded pool binding.
func (k Keeper) GetAllPoolBindings(ctx context.Context) []types.PoolBinding {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), PoolBindingKeyPrefix)
	defer iterator.Close()

	bindings := []types.PoolBinding{}
	for ; iterator.Valid(); iterator.Next() {
		basket, denom := splitPoolBindingKey(iterator.Key()[len(PoolBindingKeyPrefix):])
		bindings = append(bindings, types.PoolBinding{
			BasketName: basket,
			Denom:      denom,
			PoolID:     sdk.BigEndianToUint64(iterator.Value()),
		})
	}
	return bindings
}
