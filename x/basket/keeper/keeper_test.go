package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	keepertest "github.com/paw-chain/basket/testutil/keeper"
	"github.com/paw-chain/basket/x/basket/keeper"
	"github.com/paw-chain/basket/x/basket/simulation"
	"github.com/paw-chain/basket/x/basket/types"
)

var (
	atomJunoRoutes = []types.Route{
		{PoolID: 2, TokenOutDenom: simulation.DenomAtom},
		{PoolID: 3, TokenOutDenom: simulation.DenomJuno},
	}
	atomJunoWeights = []uint64{33, 67}
)

type KeeperTestSuite struct {
	suite.Suite
	env *simulation.Env
}

func (suite *KeeperTestSuite) SetupTest() {
	suite.env = keepertest.BasketEnv(suite.T())
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) TestRegisterBasketBindsIssuer() {
	env := suite.env
	basket := keepertest.RegisterTestBasket(suite.T(), env, "index", atomJunoRoutes, atomJunoWeights)

	suite.Require().Equal(simulation.IssuerAddress("index").String(), basket.IssuerAddress)

	info, err := env.Issuer.TokenInfo(env.Ctx, simulation.IssuerAddress("index"))
	suite.Require().NoError(err)
	suite.Require().Equal("bindex", info.Symbol)
	suite.Require().Equal(env.Keeper.ModuleAddress().String(), info.Minter)
	suite.Require().True(info.Supply.IsZero())

	pending, err := env.Keeper.GetPendingOperations(env.Ctx)
	suite.Require().NoError(err)
	suite.Require().Empty(pending)
}

func (suite *KeeperTestSuite) TestRegisterBasketDuplicate() {
	env := suite.env
	keepertest.RegisterTestBasket(suite.T(), env, "index", atomJunoRoutes, atomJunoWeights)

	_, err := env.Keeper.RegisterBasket(env.Ctx, env.Authority, "index", atomJunoRoutes, atomJunoWeights, "IDX")
	suite.Require().ErrorIs(err, types.ErrBasketExists)
}

func (suite *KeeperTestSuite) TestRegisterBasketRejects() {
	env := suite.env

	tests := []struct {
		name      string
		authority string
		basket    string
		weights   []uint64
		err       error
	}{
		{"wrong authority", keepertest.TestAddr(1).String(), "index", atomJunoWeights, types.ErrUnauthorized},
		{"weights do not sum", env.Authority, "index", []uint64{33, 33}, types.ErrInvalidRatio},
		{"weights mismatch routes", env.Authority, "index", []uint64{100}, types.ErrInvalidEntryParams},
		{"bad name", env.Authority, "a/b", atomJunoWeights, types.ErrInvalidBasketName},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := env.Keeper.RegisterBasket(env.Ctx, tt.authority, tt.basket, atomJunoRoutes, tt.weights, "IDX")
			suite.Require().ErrorIs(err, tt.err)
			suite.Require().False(env.Keeper.HasBasket(env.Ctx, tt.basket))
		})
	}
}

func (suite *KeeperTestSuite) TestFailedRegistrationLeavesNoIssuer() {
	env := suite.env
	// an issuer already sits at the deterministic address, so the
	// instantiation fails and the basket record is rolled back with it
	_, err := env.Issuer.Instantiate(env.Ctx, keepertest.TestAddr(9), "index", "X")
	suite.Require().NoError(err)

	_, err = env.Keeper.RegisterBasket(env.Ctx, env.Authority, "index", atomJunoRoutes, atomJunoWeights, "IDX")
	suite.Require().ErrorIs(err, simulation.ErrIssuerExists)
	suite.Require().False(env.Keeper.HasBasket(env.Ctx, "index"))
}

func (suite *KeeperTestSuite) TestParamsDefaultWhenUnset() {
	env := suite.env
	params, err := env.Keeper.GetParams(env.Ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(types.DefaultParams().MaxOperationsPerAction, params.MaxOperationsPerAction)

	bad := types.DefaultParams()
	bad.MinOutput = math.ZeroInt()
	suite.Require().ErrorIs(env.Keeper.SetParams(env.Ctx, bad), types.ErrInvalidParams)
}

// fundedHolder returns holder i funded with amount of denom.
func fundedHolder(env *simulation.Env, i int, coin sdk.Coin) sdk.AccAddress {
	holder := keepertest.TestAddr(i)
	env.Fund(holder, coin)
	return holder
}

// expectedComponents predicts the component outputs of a synchronous deposit
// from the current pool reserves.
func expectedComponents(t *testing.T, env *simulation.Env, deposit sdk.Coin, routes []types.Route, weights []uint64) (sdk.Coin, sdk.Coins) {
	t.Helper()
	route, ok := types.DefaultParams().EntryRouteFor(deposit.Denom)
	require.True(t, ok)

	initial, err := env.Exchange.Quote(env.Ctx, route.PoolID, deposit, route.IntermediateDenom)
	require.NoError(t, err)
	amounts, err := keeper.Allocate(initial, weights)
	require.NoError(t, err)

	coins := sdk.NewCoins()
	for i, r := range routes {
		if amounts[i].IsZero() {
			continue
		}
		if r.TokenOutDenom == route.IntermediateDenom {
			coins = coins.Add(sdk.NewCoin(r.TokenOutDenom, amounts[i]))
			continue
		}
		out, err := env.Exchange.Quote(env.Ctx, r.PoolID, sdk.NewCoin(route.IntermediateDenom, amounts[i]), r.TokenOutDenom)
		require.NoError(t, err)
		coins = coins.Add(sdk.NewCoin(r.TokenOutDenom, out))
	}
	return sdk.NewCoin(route.IntermediateDenom, initial), coins
}
