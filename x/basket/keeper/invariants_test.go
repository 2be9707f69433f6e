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

func TestShareSupplyInvariant_DetectsDrift(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(10_000))
	holder := fundedHolder(env, 1, deposit)
	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)

	_, broken := keeper.ShareSupplyInvariant(*env.Keeper)(env.Ctx)
	require.False(t, broken)

	// recorded balance no longer matches issued shares
	require.NoError(t, env.Keeper.SetBalance(env.Ctx, holder, "index", sdk.NewCoin(types.DenomOsmo, math.NewInt(1))))
	msg, broken := keeper.ShareSupplyInvariant(*env.Keeper)(env.Ctx)
	require.True(t, broken)
	require.Contains(t, msg, "index")
}

func TestLedgerEntriesInvariant(t *testing.T) {
	k, ctx := keepertest.BasketKeeper(t)
	holder := keepertest.TestAddr(1)

	require.NoError(t, k.SetLedger(ctx, holder, "index", sdk.NewCoins(sdk.NewCoin(simulation.DenomAtom, math.NewInt(5)))))
	_, broken := keeper.LedgerEntriesInvariant(*k)(ctx)
	require.False(t, broken)

	// unsorted coins written directly can carry a duplicate denom
	require.NoError(t, k.SetLedger(ctx, holder, "index", sdk.Coins{
		sdk.NewCoin(simulation.DenomAtom, math.NewInt(5)),
		sdk.NewCoin(simulation.DenomAtom, math.NewInt(7)),
	}))
	_, broken = keeper.LedgerEntriesInvariant(*k)(ctx)
	require.True(t, broken)
}

func TestCreditLedgerMerges(t *testing.T) {
	k, ctx := keepertest.BasketKeeper(t)
	holder := keepertest.TestAddr(1)

	require.NoError(t, k.CreditLedger(ctx, holder, "index", sdk.NewCoin(simulation.DenomJuno, math.NewInt(3))))
	require.NoError(t, k.CreditLedger(ctx, holder, "index", sdk.NewCoin(simulation.DenomAtom, math.NewInt(4))))
	require.NoError(t, k.CreditLedger(ctx, holder, "index", sdk.NewCoin(simulation.DenomJuno, math.NewInt(5))))
	require.NoError(t, k.CreditLedger(ctx, holder, "index", sdk.NewCoin(simulation.DenomAtom, math.ZeroInt())))

	coins, found, err := k.GetLedger(ctx, holder, "index")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, coins, 2)
	require.Equal(t, int64(4), coins.AmountOf(simulation.DenomAtom).Int64())
	require.Equal(t, int64(8), coins.AmountOf(simulation.DenomJuno).Int64())
	// sorted by denom
	require.Equal(t, simulation.DenomAtom, coins[0].Denom)

	// a zero credit on an empty entry writes nothing
	require.NoError(t, k.CreditLedger(ctx, holder, "other", sdk.NewCoin(simulation.DenomAtom, math.ZeroInt())))
	_, found, err = k.GetLedger(ctx, holder, "other")
	require.NoError(t, err)
	require.False(t, found)
}

func TestHolderBasketKeysDoNotCollide(t *testing.T) {
	short := sdk.AccAddress([]byte{1, 2})
	long := sdk.AccAddress([]byte{1, 2, 'x'})
	require.NotEqual(t,
		keeper.GetLedgerKey(short, "xy"),
		keeper.GetLedgerKey(long, "y"),
	)
}
