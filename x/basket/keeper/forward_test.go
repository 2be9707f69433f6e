package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/basket/testutil/keeper"
	"github.com/paw-chain/basket/x/basket/keeper"
	"github.com/paw-chain/basket/x/basket/simulation"
	"github.com/paw-chain/basket/x/basket/types"
)

func TestDepositAndSwap_Synchronous(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(1_000_000))
	holder := fundedHolder(env, 1, deposit)
	initial, components := expectedComponents(t, env, deposit, atomJunoRoutes, atomJunoWeights)

	saga, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
	require.Equal(t, types.ForwardCompleted, saga.Forward.Stage)

	// completed sagas are cleared
	_, err = env.Keeper.GetSaga(env.Ctx, saga.ID)
	require.ErrorIs(t, err, types.ErrNotFound)

	ledger, found, err := env.Keeper.GetLedger(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, components, ledger)

	balance, found, err := env.Keeper.GetBalance(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, deposit, balance)

	shares, err := env.ShareBalance("index", holder)
	require.NoError(t, err)
	require.Equal(t, deposit.Amount, shares)

	swap, found, err := env.Keeper.GetInitialSwap(env.Ctx, holder)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, deposit, swap.TokenIn)
	require.Equal(t, initial, swap.TokenOut)

	require.True(t, env.Bank.GetBalance(env.Ctx, holder, types.DenomOsmo).IsZero())
	for _, coin := range ledger {
		require.Equal(t, coin, env.Bank.GetBalance(env.Ctx, env.Keeper.ModuleAddress(), coin.Denom))
	}

	poolID, bound := env.Keeper.GetPoolBinding(env.Ctx, "index", simulation.DenomAtom)
	require.True(t, bound)
	require.Equal(t, uint64(2), poolID)

	_, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
	require.False(t, broken)
}

func TestDepositAndSwap_AccumulatesAcrossDeposits(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	first := sdk.NewCoin(types.DenomOsmo, math.NewInt(500_000))
	second := sdk.NewCoin(types.DenomOsmo, math.NewInt(250_000))
	holder := fundedHolder(env, 1, first.Add(second))

	_, firstComponents := expectedComponents(t, env, first, atomJunoRoutes, atomJunoWeights)
	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, first)
	require.NoError(t, err)

	_, secondComponents := expectedComponents(t, env, second, atomJunoRoutes, atomJunoWeights)
	_, err = env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, second)
	require.NoError(t, err)

	ledger, _, err := env.Keeper.GetLedger(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.Equal(t, firstComponents.Add(secondComponents...), ledger)
	require.Len(t, ledger, 2)

	balance, _, err := env.Keeper.GetBalance(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.Equal(t, first.Add(second), balance)

	shares, err := env.ShareBalance("index", holder)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(750_000), shares)
}

func TestDepositAndSwap_IntermediateComponentCreditedDirectly(t *testing.T) {
	env := keepertest.BasketEnv(t)
	routes := []types.Route{
		{PoolID: 1, TokenOutDenom: types.DenomAxlUSDC},
		{PoolID: 2, TokenOutDenom: simulation.DenomAtom},
	}
	weights := []uint64{50, 50}
	keepertest.RegisterTestBasket(t, env, "half", routes, weights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(400_000))
	holder := fundedHolder(env, 1, deposit)
	initial, components := expectedComponents(t, env, deposit, routes, weights)

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "half", routes, weights, deposit)
	require.NoError(t, err)

	ledger, _, err := env.Keeper.GetLedger(env.Ctx, holder, "half")
	require.NoError(t, err)
	require.Equal(t, components, ledger)

	half, err := keeper.Allocate(initial.Amount, weights)
	require.NoError(t, err)
	require.Equal(t, half[0], ledger.AmountOf(types.DenomAxlUSDC))
}

func TestDepositAndSwap_ZeroAllocationSkipped(t *testing.T) {
	env := keepertest.BasketEnv(t)
	routes := []types.Route{
		{PoolID: 2, TokenOutDenom: simulation.DenomAtom},
		{PoolID: 3, TokenOutDenom: simulation.DenomJuno},
	}
	weights := []uint64{0, 100}
	keepertest.RegisterTestBasket(t, env, "juno", routes, weights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(10_000))
	holder := fundedHolder(env, 1, deposit)

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "juno", routes, weights, deposit)
	require.NoError(t, err)

	ledger, _, err := env.Keeper.GetLedger(env.Ctx, holder, "juno")
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	require.Equal(t, simulation.DenomJuno, ledger[0].Denom)
}

func TestDepositAndSwap_StableEntry(t *testing.T) {
	env := keepertest.BasketEnv(t)
	routes := []types.Route{
		{PoolID: 4, TokenOutDenom: simulation.DenomAtom},
		{PoolID: 5, TokenOutDenom: simulation.DenomJuno},
	}
	weights := []uint64{50, 50}
	keepertest.RegisterTestBasket(t, env, "stable", routes, weights)

	deposit := sdk.NewCoin(types.DenomUSDC, math.NewInt(2_000_000))
	holder := fundedHolder(env, 1, deposit)
	initial, components := expectedComponents(t, env, deposit, routes, weights)
	require.Equal(t, types.DenomOsmo, initial.Denom)

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "stable", routes, weights, deposit)
	require.NoError(t, err)

	ledger, _, err := env.Keeper.GetLedger(env.Ctx, holder, "stable")
	require.NoError(t, err)
	require.Equal(t, components, ledger)
}

func TestDepositAndSwap_Rejects(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)
	holder := fundedHolder(env, 1, sdk.NewCoin(types.DenomOsmo, math.NewInt(1_000)))
	env.Fund(holder, sdk.NewCoin(simulation.DenomAtom, math.NewInt(1_000)))

	osmo := sdk.NewCoin(types.DenomOsmo, math.NewInt(100))

	tests := []struct {
		name    string
		basket  string
		routes  []types.Route
		weights []uint64
		deposit sdk.Coin
		err     error
	}{
		{"unknown basket", "nope", atomJunoRoutes, atomJunoWeights, osmo, types.ErrNotFound},
		{"ratio", "index", atomJunoRoutes, []uint64{50, 49}, osmo, types.ErrInvalidRatio},
		{"composition differs", "index", atomJunoRoutes, []uint64{67, 33}, osmo, types.ErrInvalidEntryParams},
		{"unsupported denom", "index", atomJunoRoutes, atomJunoWeights, sdk.NewCoin(simulation.DenomAtom, math.NewInt(100)), types.ErrInvalidDepositDenom},
		{"zero amount", "index", atomJunoRoutes, atomJunoWeights, sdk.NewCoin(types.DenomOsmo, math.ZeroInt()), types.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, tt.basket, tt.routes, tt.weights, tt.deposit)
			require.ErrorIs(t, err, tt.err)

			_, found, err := env.Keeper.GetBalance(env.Ctx, holder, "index")
			require.NoError(t, err)
			require.False(t, found)
		})
	}
}

func TestDepositAndSwap_DenomFixedByFirstDeposit(t *testing.T) {
	env := keepertest.BasketEnv(t)
	routes := []types.Route{{PoolID: 2, TokenOutDenom: simulation.DenomAtom}}
	keepertest.RegisterTestBasket(t, env, "atom", routes, []uint64{100})

	holder := fundedHolder(env, 1, sdk.NewCoin(types.DenomOsmo, math.NewInt(1_000)))
	env.Fund(holder, sdk.NewCoin(types.DenomUSDC, math.NewInt(1_000)))

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "atom", routes, []uint64{100}, sdk.NewCoin(types.DenomOsmo, math.NewInt(1_000)))
	require.NoError(t, err)

	_, err = env.Keeper.DepositAndSwap(env.Ctx, holder, "atom", routes, []uint64{100}, sdk.NewCoin(types.DenomUSDC, math.NewInt(1_000)))
	require.ErrorIs(t, err, types.ErrInvalidDepositDenom)
	require.Equal(t, math.NewInt(1_000), env.Bank.GetBalance(env.Ctx, holder, types.DenomUSDC).Amount)
}

func TestDepositAndSwap_InsufficientFundsRollsBack(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)
	holder := fundedHolder(env, 1, sdk.NewCoin(types.DenomOsmo, math.NewInt(10)))

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, sdk.NewCoin(types.DenomOsmo, math.NewInt(11)))
	require.Error(t, err)

	_, found, err := env.Keeper.GetBalance(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.False(t, found)
}

// A route whose pool does not trade its target aborts the deposit after the
// first leg already ran; nothing of the action survives.
func TestDepositAndSwap_PoolTokenNotFoundRollsBack(t *testing.T) {
	env := keepertest.BasketEnv(t)
	routes := []types.Route{
		{PoolID: 2, TokenOutDenom: simulation.DenomJuno},
		{PoolID: 3, TokenOutDenom: simulation.DenomJuno},
	}
	weights := []uint64{50, 50}
	keepertest.RegisterTestBasket(t, env, "broken", routes, weights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(1_000))
	holder := fundedHolder(env, 1, deposit)
	poolBefore, err := env.Exchange.GetPool(env.Ctx, 1)
	require.NoError(t, err)

	_, err = env.Keeper.DepositAndSwap(env.Ctx, holder, "broken", routes, weights, deposit)
	require.ErrorIs(t, err, types.ErrPoolTokenNotFound)

	require.Equal(t, deposit, env.Bank.GetBalance(env.Ctx, holder, types.DenomOsmo))
	poolAfter, err := env.Exchange.GetPool(env.Ctx, 1)
	require.NoError(t, err)
	require.Equal(t, poolBefore, poolAfter)

	_, found, err := env.Keeper.GetInitialSwap(env.Ctx, holder)
	require.NoError(t, err)
	require.False(t, found)
	_, found, err = env.Keeper.GetBalance(env.Ctx, holder, "broken")
	require.NoError(t, err)
	require.False(t, found)

	shares, err := env.ShareBalance("broken", holder)
	require.NoError(t, err)
	require.True(t, shares.IsZero())
}

func TestDepositAndSwap_UnknownPoolRollsBack(t *testing.T) {
	env := keepertest.BasketEnv(t)
	routes := []types.Route{{PoolID: 99, TokenOutDenom: simulation.DenomAtom}}
	keepertest.RegisterTestBasket(t, env, "ghost", routes, []uint64{100})

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(1_000))
	holder := fundedHolder(env, 1, deposit)

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "ghost", routes, []uint64{100}, deposit)
	require.ErrorIs(t, err, types.ErrPoolTokenNotFound)
	require.Equal(t, deposit, env.Bank.GetBalance(env.Ctx, holder, types.DenomOsmo))
}

func TestDepositAndSwap_OperationLimit(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	params := types.DefaultParams()
	params.MaxOperationsPerAction = 3
	require.NoError(t, env.Keeper.SetParams(env.Ctx, params))

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(1_000))
	holder := fundedHolder(env, 1, deposit)

	// initial swap, two component swaps and the mint
	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.ErrorIs(t, err, types.ErrOperationLimit)
	require.Equal(t, deposit, env.Bank.GetBalance(env.Ctx, holder, types.DenomOsmo))
}

func TestDepositAndSwap_TwoHoldersShareSupply(t *testing.T) {
	env := keepertest.BasketEnv(t)
	basket := keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	a := sdk.NewCoin(types.DenomOsmo, math.NewInt(300_000))
	b := sdk.NewCoin(types.DenomOsmo, math.NewInt(700_000))
	alice := fundedHolder(env, 1, a)
	bob := fundedHolder(env, 2, b)

	_, err := env.Keeper.DepositAndSwap(env.Ctx, alice, "index", atomJunoRoutes, atomJunoWeights, a)
	require.NoError(t, err)
	_, err = env.Keeper.DepositAndSwap(env.Ctx, bob, "index", atomJunoRoutes, atomJunoWeights, b)
	require.NoError(t, err)

	issuer := sdk.MustAccAddressFromBech32(basket.IssuerAddress)
	supply, err := env.Issuer.TotalSupply(env.Ctx, issuer)
	require.NoError(t, err)
	require.Equal(t, a.Amount.Add(b.Amount), supply)

	aliceLedger, _, err := env.Keeper.GetLedger(env.Ctx, alice, "index")
	require.NoError(t, err)
	bobLedger, _, err := env.Keeper.GetLedger(env.Ctx, bob, "index")
	require.NoError(t, err)

	custody := env.Keeper.ModuleAddress()
	for _, denom := range []string{simulation.DenomAtom, simulation.DenomJuno} {
		held := env.Bank.GetBalance(env.Ctx, custody, denom).Amount
		require.Equal(t, aliceLedger.AmountOf(denom).Add(bobLedger.AmountOf(denom)), held)
	}

	_, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
	require.False(t, broken)
}
