package keeper

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/basket/x/basket/types"
)

// InitGenesis initializes the basket module's state from a genesis state
func (k Keeper) InitGenesis(ctx context.Context, genState types.GenesisState) error {
	if err := genState.Validate(); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}

	if err := k.SetParams(ctx, genState.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}

	for _, basket := range genState.Baskets {
		if err := k.SetBasket(ctx, basket); err != nil {
			return fmt.Errorf("failed to set basket %s: %w", basket.Name, err)
		}
	}

	for _, r := range genState.Balances {
		holder, err := sdk.AccAddressFromBech32(r.Holder)
		if err != nil {
			return fmt.Errorf("balance holder: %w", err)
		}
		if err := k.SetBalance(ctx, holder, r.BasketName, r.Balance); err != nil {
			return fmt.Errorf("failed to set balance of %s: %w", r.Holder, err)
		}
	}

	for _, r := range genState.Ledgers {
		holder, err := sdk.AccAddressFromBech32(r.Holder)
		if err != nil {
			return fmt.Errorf("ledger holder: %w", err)
		}
		if err := k.SetLedger(ctx, holder, r.BasketName, r.Coins); err != nil {
			return fmt.Errorf("failed to set ledger of %s: %w", r.Holder, err)
		}
	}

	for _, s := range genState.InitialSwaps {
		holder, err := sdk.AccAddressFromBech32(s.Holder)
		if err != nil {
			return fmt.Errorf("initial swap holder: %w", err)
		}
		if err := k.SetInitialSwap(ctx, holder, s); err != nil {
			return fmt.Errorf("failed to set initial swap of %s: %w", s.Holder, err)
		}
	}

	for _, b := range genState.PoolBindings {
		k.SetPoolBinding(ctx, b.BasketName, b.Denom, b.PoolID)
	}
	return nil
}

// ExportGenesis returns the basket module's exported genesis. In-flight
// sagas and operations are not carried over.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get params: %w", err)
	}

	baskets, err := k.GetAllBaskets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get baskets: %w", err)
	}

	balances := []types.BalanceRecord{}
	if err := k.IterateBalances(ctx, func(holder sdk.AccAddress, basket string, balance sdk.Coin) bool {
		balances = append(balances, types.BalanceRecord{Holder: holder.String(), BasketName: basket, Balance: balance})
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	ledgers := []types.LedgerRecord{}
	if err := k.IterateLedgers(ctx, func(holder sdk.AccAddress, basket string, coins sdk.Coins) bool {
		ledgers = append(ledgers, types.LedgerRecord{Holder: holder.String(), BasketName: basket, Coins: coins})
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to get ledgers: %w", err)
	}

	swaps, err := k.GetAllInitialSwaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get initial swaps: %w", err)
	}

	return &types.GenesisState{
		Params:       params,
		Baskets:      baskets,
		Balances:     balances,
		Ledgers:      ledgers,
		InitialSwaps: swaps,
		PoolBindings: k.GetAllPoolBindings(ctx),
	}, nil
}
