package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/basket/x/basket/types"
)

// RegisterInvariants registers all basket invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "share-supply", ShareSupplyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "ledger-entries", LedgerEntriesInvariant(k))
}

// AllInvariants runs all invariants of the basket module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := ShareSupplyInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return LedgerEntriesInvariant(k)(ctx)
	}
}

// ShareSupplyInvariant checks that every basket issuer's total supply equals
// the sum of the balances recorded for that basket, less deposits whose
// shares are not issued yet.
func ShareSupplyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		sums := map[string]math.Int{}
		if err := k.IterateBalances(ctx, func(_ sdk.AccAddress, basket string, balance sdk.Coin) bool {
			sum, ok := sums[basket]
			if !ok {
				sum = math.ZeroInt()
			}
			sums[basket] = sum.Add(balance.Amount)
			return false
		}); err != nil {
			return sdk.FormatInvariant(types.ModuleName, "share-supply", err.Error()), true
		}

		if err := k.IterateSagas(ctx, func(saga types.Saga) bool {
			if saga.Forward != nil && !saga.Forward.SharesIssued {
				sums[saga.BasketName] = sums[saga.BasketName].Sub(saga.Forward.Deposit.Amount)
			}
			return false
		}); err != nil {
			return sdk.FormatInvariant(types.ModuleName, "share-supply", err.Error()), true
		}

		baskets, err := k.GetAllBaskets(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "share-supply", err.Error()), true
		}
		for _, basket := range baskets {
			if !basket.HasIssuer() {
				continue
			}
			issuer, err := sdk.AccAddressFromBech32(basket.IssuerAddress)
			if err != nil {
				count++
				msg += fmt.Sprintf("\tbasket %s: invalid issuer %s\n", basket.Name, basket.IssuerAddress)
				continue
			}
			supply, err := k.issuerKeeper.TotalSupply(ctx, issuer)
			if err != nil {
				count++
				msg += fmt.Sprintf("\tbasket %s: %s\n", basket.Name, err)
				continue
			}
			expected, ok := sums[basket.Name]
			if !ok {
				expected = math.ZeroInt()
			}
			if !supply.Equal(expected) {
				count++
				msg += fmt.Sprintf("\tbasket %s: issuer supply %s != recorded balances %s\n", basket.Name, supply, expected)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "share-supply",
			fmt.Sprintf("found %d baskets with mismatched share supply\n%s", count, msg),
		), broken
	}
}

// LedgerEntriesInvariant checks that every ledger entry holds each denom at
// most once with a positive amount.
func LedgerEntriesInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		if err := k.IterateLedgers(ctx, func(holder sdk.AccAddress, basket string, coins sdk.Coins) bool {
			seen := make(map[string]struct{}, len(coins))
			for _, coin := range coins {
				if _, dup := seen[coin.Denom]; dup {
					count++
					msg += fmt.Sprintf("\t%s/%s: duplicate denom %s\n", holder, basket, coin.Denom)
				}
				seen[coin.Denom] = struct{}{}
				if !coin.Amount.IsPositive() {
					count++
					msg += fmt.Sprintf("\t%s/%s: non-positive %s\n", holder, basket, coin)
				}
			}
			return false
		}); err != nil {
			return sdk.FormatInvariant(types.ModuleName, "ledger-entries", err.Error()), true
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "ledger-entries",
			fmt.Sprintf("found %d malformed ledger entries\n%s", count, msg),
		), broken
	}
}
