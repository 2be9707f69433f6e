package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BalanceRecord is a holder's cumulative deposit into one basket.
type BalanceRecord struct {
	Holder     string   `json:"holder"`
	BasketName string   `json:"basket_name"`
	Balance    sdk.Coin `json:"balance"`
}

// LedgerRecord is a holder's current holdings in one basket.
type LedgerRecord struct {
	Holder     string    `json:"holder"`
	BasketName string    `json:"basket_name"`
	Coins      sdk.Coins `json:"coins"`
}

// GenesisState defines the basket module's genesis state. In-flight sagas
// and operations are not exported.
type GenesisState struct {
	Params       Params          `json:"params"`
	Baskets      []Basket        `json:"baskets"`
	Balances     []BalanceRecord `json:"balances"`
	Ledgers      []LedgerRecord  `json:"ledgers"`
	InitialSwaps []InitialSwap   `json:"initial_swaps"`
	PoolBindings []PoolBinding   `json:"pool_bindings"`
}

// DefaultGenesis returns the default genesis state for the basket module.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:       DefaultParams(),
		Baskets:      []Basket{},
		Balances:     []BalanceRecord{},
		Ledgers:      []LedgerRecord{},
		InitialSwaps: []InitialSwap{},
		PoolBindings: []PoolBinding{},
	}
}

// Validate ensures the genesis state is well-formed.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	baskets := make(map[string]struct{}, len(gs.Baskets))
	for _, b := range gs.Baskets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("basket %q: %w", b.Name, err)
		}
		if _, dup := baskets[b.Name]; dup {
			return fmt.Errorf("duplicate basket %q", b.Name)
		}
		baskets[b.Name] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, r := range gs.Balances {
		if _, ok := baskets[r.BasketName]; !ok {
			return fmt.Errorf("balance for unknown basket %q", r.BasketName)
		}
		if _, err := sdk.AccAddressFromBech32(r.Holder); err != nil {
			return fmt.Errorf("balance holder: %w", err)
		}
		if err := r.Balance.Validate(); err != nil {
			return fmt.Errorf("balance of %s in %q: %w", r.Holder, r.BasketName, err)
		}
		key := r.Holder + "/" + r.BasketName
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate balance for %s", key)
		}
		seen[key] = struct{}{}
	}

	seen = make(map[string]struct{})
	for _, r := range gs.Ledgers {
		if _, ok := baskets[r.BasketName]; !ok {
			return fmt.Errorf("ledger for unknown basket %q", r.BasketName)
		}
		if _, err := sdk.AccAddressFromBech32(r.Holder); err != nil {
			return fmt.Errorf("ledger holder: %w", err)
		}
		if err := r.Coins.Validate(); err != nil {
			return fmt.Errorf("ledger of %s in %q: %w", r.Holder, r.BasketName, err)
		}
		key := r.Holder + "/" + r.BasketName
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate ledger for %s", key)
		}
		seen[key] = struct{}{}
	}

	for _, s := range gs.InitialSwaps {
		if _, err := sdk.AccAddressFromBech32(s.Holder); err != nil {
			return fmt.Errorf("initial swap holder: %w", err)
		}
	}

	bindings := make(map[string]struct{}, len(gs.PoolBindings))
	for _, b := range gs.PoolBindings {
		if _, ok := baskets[b.BasketName]; !ok {
			return fmt.Errorf("pool binding for unknown basket %q", b.BasketName)
		}
		if err := sdk.ValidateDenom(b.Denom); err != nil {
			return fmt.Errorf("pool binding: %w", err)
		}
		if b.PoolID == 0 {
			return fmt.Errorf("pool binding for %s has zero pool id", b.Denom)
		}
		key := b.BasketName + "/" + b.Denom
		if _, dup := bindings[key]; dup {
			return fmt.Errorf("duplicate pool binding for %s", key)
		}
		bindings[key] = struct{}{}
	}
	return nil
}
