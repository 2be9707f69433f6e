// Package simulation provides in-process collaborators for the basket module:
// a fund transfer bank, a constant-product exchange and a share token issuer.
// Each keeps its state in its own KVStore so a discarded cache context rolls
// it back together with the basket keeper.
package simulation

import (
	"context"

	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/paw-chain/basket/x/basket/types"
)

const BankStoreKey = "sim_bank"

var _ types.BankKeeper = (*Bank)(nil)

// Bank moves coins between accounts.
type Bank struct {
	key storetypes.StoreKey
}

// NewBank returns a bank backed by key.
func NewBank(key storetypes.StoreKey) *Bank {
	return &Bank{key: key}
}

func (b *Bank) store(ctx context.Context) storetypes.KVStore {
	return sdk.UnwrapSDKContext(ctx).KVStore(b.key)
}

func balanceKey(addr sdk.AccAddress, denom string) []byte {
	return append(address.MustLengthPrefix(addr), []byte(denom)...)
}

func (b *Bank) setBalance(ctx context.Context, addr sdk.AccAddress, coin sdk.Coin) {
	key := balanceKey(addr, coin.Denom)
	if coin.Amount.IsZero() {
		b.store(ctx).Delete(key)
		return
	}
	b.store(ctx).Set(key, []byte(coin.Amount.String()))
}

// GetBalance returns the balance of addr in denom.
func (b *Bank) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	bz := b.store(ctx).Get(balanceKey(addr, denom))
	if bz == nil {
		return sdk.NewCoin(denom, math.ZeroInt())
	}
	amount, ok := math.NewIntFromString(string(bz))
	if !ok {
		panic("corrupt balance for " + addr.String())
	}
	return sdk.NewCoin(denom, amount)
}

// GetAllBalances returns every non-zero balance of addr.
func (b *Bank) GetAllBalances(ctx context.Context, addr sdk.AccAddress) sdk.Coins {
	store := prefix.NewStore(b.store(ctx), address.MustLengthPrefix(addr))
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	coins := sdk.NewCoins()
	for ; iterator.Valid(); iterator.Next() {
		amount, ok := math.NewIntFromString(string(iterator.Value()))
		if !ok {
			panic("corrupt balance for " + addr.String())
		}
		coins = coins.Add(sdk.NewCoin(string(iterator.Key()), amount))
	}
	return coins
}

// Fund credits coins to addr out of thin air.
func (b *Bank) Fund(ctx context.Context, addr sdk.AccAddress, coins sdk.Coins) {
	for _, coin := range coins {
		balance := b.GetBalance(ctx, addr, coin.Denom)
		b.setBalance(ctx, addr, balance.Add(coin))
	}
}

// SendCoins moves amt from one account to another.
func (b *Bank) SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return sdkerrors.ErrInvalidCoins.Wrapf("%s", amt)
	}
	for _, coin := range amt {
		balance := b.GetBalance(ctx, from, coin.Denom)
		if balance.Amount.LT(coin.Amount) {
			return sdkerrors.ErrInsufficientFunds.Wrapf("%s has %s, needs %s", from, balance, coin)
		}
		b.setBalance(ctx, from, balance.Sub(coin))
	}
	for _, coin := range amt {
		balance := b.GetBalance(ctx, to, coin.Denom)
		b.setBalance(ctx, to, balance.Add(coin))
	}
	return nil
}
