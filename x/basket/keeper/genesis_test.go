package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/basket/testutil/keeper"
	"github.com/paw-chain/basket/x/basket/types"
)

func TestGenesis_ExportImportRoundTrip(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(60_000))
	alice := fundedHolder(env, 1, deposit)
	bob := fundedHolder(env, 2, deposit)
	for _, holder := range []sdk.AccAddress{alice, bob} {
		_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
		require.NoError(t, err)
	}

	exported, err := env.Keeper.ExportGenesis(env.Ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Baskets, 1)
	require.Len(t, exported.Balances, 2)
	require.Len(t, exported.Ledgers, 2)
	require.Len(t, exported.InitialSwaps, 2)
	require.Len(t, exported.PoolBindings, 2)

	fresh := keepertest.BasketEnv(t)
	require.NoError(t, fresh.Keeper.InitGenesis(fresh.Ctx, *exported))

	reexported, err := fresh.Keeper.ExportGenesis(fresh.Ctx)
	require.NoError(t, err)
	require.Equal(t, exported, reexported)

	ledger, found, err := fresh.Keeper.GetLedger(fresh.Ctx, alice, "index")
	require.NoError(t, err)
	require.True(t, found)
	original, _, err := env.Keeper.GetLedger(env.Ctx, alice, "index")
	require.NoError(t, err)
	require.Equal(t, original, ledger)
}

func TestGenesis_Default(t *testing.T) {
	k, ctx := keepertest.BasketKeeper(t)
	require.NoError(t, k.InitGenesis(ctx, *types.DefaultGenesis()))

	exported, err := k.ExportGenesis(ctx)
	require.NoError(t, err)
	require.Empty(t, exported.Baskets)
	require.Empty(t, exported.Ledgers)
	require.Equal(t, types.DefaultParams().MaxOperationsPerAction, exported.Params.MaxOperationsPerAction)
}

func TestGenesis_RejectsInvalid(t *testing.T) {
	k, ctx := keepertest.BasketKeeper(t)

	gs := types.DefaultGenesis()
	gs.Balances = []types.BalanceRecord{{
		Holder:     keepertest.TestAddr(1).String(),
		BasketName: "unknown",
		Balance:    sdk.NewCoin(types.DenomOsmo, math.NewInt(1)),
	}}
	require.Error(t, k.InitGenesis(ctx, *gs))
}
