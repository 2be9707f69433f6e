package cmd

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/paw-chain/basket/x/basket/simulation"
	"github.com/paw-chain/basket/x/basket/types"
)

// Step actions understood by the simulator.
const (
	ActionDeposit = "deposit"
	ActionRedeem  = "redeem"
)

// Scenario is a scripted run against the in-process simulator.
type Scenario struct {
	Pools   []simulation.PoolSpec
	Baskets []types.Basket
	Funds   map[string]sdk.Coins
	Steps   []Step
}

// Step is one holder action.
type Step struct {
	Action  string
	Holder  string
	Basket  string
	Deposit sdk.Coin
}

// HolderAddress derives a stable account address from a scenario holder name.
func HolderAddress(name string) sdk.AccAddress {
	return authtypes.NewModuleAddress("holder/" + name)
}

// loadScenario decodes the scenario sections of v. Values come from YAML, so
// numbers may arrive as strings or ints and are coerced with cast.
func loadScenario(v *viper.Viper) (*Scenario, error) {
	sc := &Scenario{Funds: make(map[string]sdk.Coins)}

	if v.IsSet("pools") {
		for i, raw := range cast.ToSlice(v.Get("pools")) {
			pool, err := parsePool(cast.ToStringMap(raw))
			if err != nil {
				return nil, fmt.Errorf("pools[%d]: %w", i, err)
			}
			sc.Pools = append(sc.Pools, pool)
		}
	} else {
		sc.Pools = simulation.DefaultPools()
	}

	for i, raw := range cast.ToSlice(v.Get("baskets")) {
		basket, err := parseBasket(cast.ToStringMap(raw))
		if err != nil {
			return nil, fmt.Errorf("baskets[%d]: %w", i, err)
		}
		sc.Baskets = append(sc.Baskets, basket)
	}

	for holder, raw := range cast.ToStringMap(v.Get("funds")) {
		coins, err := sdk.ParseCoinsNormalized(cast.ToString(raw))
		if err != nil {
			return nil, fmt.Errorf("funds[%s]: %w", holder, err)
		}
		sc.Funds[holder] = coins
	}

	for i, raw := range cast.ToSlice(v.Get("steps")) {
		step, err := parseStep(cast.ToStringMap(raw))
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		sc.Steps = append(sc.Steps, step)
	}

	return sc, nil
}

func parsePool(m map[string]interface{}) (simulation.PoolSpec, error) {
	id, err := cast.ToUint64E(m["id"])
	if err != nil {
		return simulation.PoolSpec{}, fmt.Errorf("id: %w", err)
	}
	reserveA, err := sdk.ParseCoinNormalized(cast.ToString(m["reserve_a"]))
	if err != nil {
		return simulation.PoolSpec{}, fmt.Errorf("reserve_a: %w", err)
	}
	reserveB, err := sdk.ParseCoinNormalized(cast.ToString(m["reserve_b"]))
	if err != nil {
		return simulation.PoolSpec{}, fmt.Errorf("reserve_b: %w", err)
	}
	fee := math.LegacyNewDecWithPrec(3, 3)
	if raw, ok := m["swap_fee"]; ok {
		fee, err = math.LegacyNewDecFromStr(cast.ToString(raw))
		if err != nil {
			return simulation.PoolSpec{}, fmt.Errorf("swap_fee: %w", err)
		}
	}
	return simulation.PoolSpec{ID: id, ReserveA: reserveA, ReserveB: reserveB, SwapFee: fee}, nil
}

func parseBasket(m map[string]interface{}) (types.Basket, error) {
	basket := types.Basket{
		Name:         cast.ToString(m["name"]),
		IssuerSymbol: cast.ToString(m["symbol"]),
	}
	for i, raw := range cast.ToSlice(m["routes"]) {
		rm := cast.ToStringMap(raw)
		poolID, err := cast.ToUint64E(rm["pool_id"])
		if err != nil {
			return types.Basket{}, fmt.Errorf("routes[%d].pool_id: %w", i, err)
		}
		basket.Routes = append(basket.Routes, types.Route{
			PoolID:        poolID,
			TokenOutDenom: cast.ToString(rm["denom"]),
		})
	}
	for i, raw := range cast.ToSlice(m["weights"]) {
		w, err := cast.ToUint64E(raw)
		if err != nil {
			return types.Basket{}, fmt.Errorf("weights[%d]: %w", i, err)
		}
		basket.Weights = append(basket.Weights, w)
	}
	return basket, nil
}

func parseStep(m map[string]interface{}) (Step, error) {
	step := Step{
		Action: strings.ToLower(cast.ToString(m["action"])),
		Holder: cast.ToString(m["holder"]),
		Basket: cast.ToString(m["basket"]),
	}
	if step.Holder == "" {
		return Step{}, fmt.Errorf("holder is required")
	}
	switch step.Action {
	case ActionDeposit:
		deposit, err := sdk.ParseCoinNormalized(cast.ToString(m["amount"]))
		if err != nil {
			return Step{}, fmt.Errorf("amount: %w", err)
		}
		step.Deposit = deposit
	case ActionRedeem:
	default:
		return Step{}, fmt.Errorf("unknown action %q", step.Action)
	}
	return step, nil
}
