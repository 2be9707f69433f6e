package keeper

import (
	"testing"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/basket/x/basket/keeper"
	"github.com/paw-chain/basket/x/basket/simulation"
	"github.com/paw-chain/basket/x/basket/types"
)

// BasketEnv creates a basket keeper wired to in-process bank, exchange and
// issuer collaborators with the default pools seeded.
func BasketEnv(t testing.TB) *simulation.Env {
	t.Helper()
	env, err := simulation.NewEnv(log.NewNopLogger(), simulation.DefaultPools())
	require.NoError(t, err)
	return env
}

// BasketKeeper is a shorthand for tests that only need the keeper and context.
func BasketKeeper(t testing.TB) (*keeper.Keeper, sdk.Context) {
	env := BasketEnv(t)
	return env.Keeper, env.Ctx
}

// RegisterTestBasket registers a basket through the keeper and requires its
// issuer to be bound.
func RegisterTestBasket(t testing.TB, env *simulation.Env, name string, routes []types.Route, weights []uint64) types.Basket {
	t.Helper()
	basket, err := env.Keeper.RegisterBasket(env.Ctx, env.Authority, name, routes, weights, "b"+name)
	require.NoError(t, err)
	require.True(t, basket.HasIssuer())
	return basket
}

// TestAddr returns a deterministic account address for index i.
func TestAddr(i int) sdk.AccAddress {
	addr := make([]byte, 20)
	addr[0] = 0xba
	addr[19] = byte(i)
	return sdk.AccAddress(addr)
}
