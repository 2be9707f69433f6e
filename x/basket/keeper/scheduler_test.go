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

func pendingExchange(t *testing.T, env *simulation.Env, sagaID string) types.Operation {
	t.Helper()
	ops, err := env.Keeper.GetPendingOperations(env.Ctx)
	require.NoError(t, err)
	for _, op := range ops {
		if op.SagaID == sagaID && op.Kind == types.OpExchange {
			return op
		}
	}
	require.FailNow(t, "no pending exchange", "saga %s", sagaID)
	return types.Operation{}
}

func TestAcknowledgeExchange_DeferredInitialSwap(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)
	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 1, true))

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	holder := fundedHolder(env, 1, deposit)

	saga, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
	require.Equal(t, types.ForwardAwaitingInitialSwap, saga.Forward.Stage)

	// shares are not issued until the continuation runs
	shares, err := env.ShareBalance("index", holder)
	require.NoError(t, err)
	require.True(t, shares.IsZero())
	_, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
	require.False(t, broken)

	op := pendingExchange(t, env, saga.ID)
	require.Equal(t, types.ReplyInitialSwap, op.Reply)

	tokensOut, err := env.Exchange.Settle(env.Ctx, op.ID)
	require.NoError(t, err)

	id, stage, err := env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, tokensOut, "")
	require.NoError(t, err)
	require.Equal(t, saga.ID, id)
	require.Equal(t, string(types.ForwardCompleted), stage)

	shares, err = env.ShareBalance("index", holder)
	require.NoError(t, err)
	require.Equal(t, deposit.Amount, shares)

	swap, _, err := env.Keeper.GetInitialSwap(env.Ctx, holder)
	require.NoError(t, err)
	require.Equal(t, tokensOut, swap.TokenOut.String())

	// a completion is delivered once
	_, _, err = env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, tokensOut, "")
	require.ErrorIs(t, err, types.ErrOperationNotFound)
}

func TestAcknowledgeExchange_FailureStallsSaga(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)
	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 1, true))

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	holder := fundedHolder(env, 1, deposit)

	saga, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
	op := pendingExchange(t, env, saga.ID)

	require.NoError(t, env.Exchange.Fail(env.Ctx, op.ID))
	id, stage, err := env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, "", "pool halted")
	require.NoError(t, err)
	require.Equal(t, saga.ID, id)
	require.Equal(t, string(types.ForwardStalled), stage)

	stalled, err := env.Keeper.GetStalledSagas(env.Ctx)
	require.NoError(t, err)
	require.Len(t, stalled, 1)
	require.Equal(t, saga.ID, stalled[0].ID)
	require.Contains(t, stalled[0].Forward.StallReason, "pool halted")

	// the deposit stays in custody
	require.Equal(t, deposit, env.Bank.GetBalance(env.Ctx, env.Keeper.ModuleAddress(), types.DenomOsmo))
	_, found, err := env.Keeper.GetLedger(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.False(t, found)

	_, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
	require.False(t, broken)
}

func TestAcknowledgeExchange_BadTokensOutRollsBack(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)
	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 1, true))

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	holder := fundedHolder(env, 1, deposit)
	saga, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
	op := pendingExchange(t, env, saga.ID)

	_, _, err = env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, "garbage", "")
	require.ErrorIs(t, err, types.ErrDenomParsingError)

	// still pending and retryable
	again := pendingExchange(t, env, saga.ID)
	require.Equal(t, op.ID, again.ID)

	_, _, err = env.Keeper.AcknowledgeExchange(env.Ctx, 9999, "1uosmo", "")
	require.ErrorIs(t, err, types.ErrOperationNotFound)
}

// Two holders whose component swaps are both deferred settle independently
// and in any order.
func TestAcknowledgeExchange_OverlappingSagas(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)
	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 2, true))

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	alice := fundedHolder(env, 1, deposit)
	bob := fundedHolder(env, 2, deposit)

	aliceSaga, err := env.Keeper.DepositAndSwap(env.Ctx, alice, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
	require.Equal(t, types.ForwardAwaitingComponentSwaps, aliceSaga.Forward.Stage)
	require.Equal(t, uint32(1), aliceSaga.Forward.Outstanding)
	require.True(t, aliceSaga.Forward.SharesIssued)

	bobSaga, err := env.Keeper.DepositAndSwap(env.Ctx, bob, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
	require.NotEqual(t, aliceSaga.ID, bobSaga.ID)

	aliceOp := pendingExchange(t, env, aliceSaga.ID)
	bobOp := pendingExchange(t, env, bobSaga.ID)

	bobOut, err := env.Exchange.Settle(env.Ctx, bobOp.ID)
	require.NoError(t, err)
	_, stage, err := env.Keeper.AcknowledgeExchange(env.Ctx, bobOp.ID, bobOut, "")
	require.NoError(t, err)
	require.Equal(t, string(types.ForwardCompleted), stage)

	// alice is still waiting
	pending, err := env.Keeper.GetSaga(env.Ctx, aliceSaga.ID)
	require.NoError(t, err)
	require.Equal(t, types.ForwardAwaitingComponentSwaps, pending.Forward.Stage)

	aliceOut, err := env.Exchange.Settle(env.Ctx, aliceOp.ID)
	require.NoError(t, err)
	_, stage, err = env.Keeper.AcknowledgeExchange(env.Ctx, aliceOp.ID, aliceOut, "")
	require.NoError(t, err)
	require.Equal(t, string(types.ForwardCompleted), stage)

	aliceAtom, err := types.ParseTokensOut(aliceOut)
	require.NoError(t, err)
	bobAtom, err := types.ParseTokensOut(bobOut)
	require.NoError(t, err)

	aliceLedger, _, err := env.Keeper.GetLedger(env.Ctx, alice, "index")
	require.NoError(t, err)
	bobLedger, _, err := env.Keeper.GetLedger(env.Ctx, bob, "index")
	require.NoError(t, err)
	require.True(t, aliceAtom.Amount.Equal(aliceLedger.AmountOf(simulation.DenomAtom)))
	require.True(t, bobAtom.Amount.Equal(bobLedger.AmountOf(simulation.DenomAtom)))

	_, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
	require.False(t, broken)
}

func TestRedeem_DeferredReversalBlocksHolder(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	holder := fundedHolder(env, 1, deposit.Add(deposit))
	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)

	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 2, true))
	saga, err := env.Keeper.Redeem(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.Equal(t, types.RedemptionAwaitingReversals, saga.Redemption.Stage)

	_, err = env.Keeper.Redeem(env.Ctx, holder, "index")
	require.ErrorIs(t, err, types.ErrRedemptionInFlight)
	_, err = env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.ErrorIs(t, err, types.ErrRedemptionInFlight)

	op := pendingExchange(t, env, saga.ID)
	require.Equal(t, types.ReplyReversalSwap, op.Reply)
	require.NotZero(t, op.BatchID)

	out, err := env.Exchange.Settle(env.Ctx, op.ID)
	require.NoError(t, err)
	id, stage, err := env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, out, "")
	require.NoError(t, err)
	require.Equal(t, saga.ID, id)
	require.Equal(t, string(types.RedemptionSettled), stage)

	require.True(t, env.Bank.GetBalance(env.Ctx, holder, types.DenomOsmo).Amount.GT(deposit.Amount))

	// the holder may deposit again once settled
	_, err = env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
}

func TestRedeem_FailedReversalStalls(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	holder := fundedHolder(env, 1, deposit)
	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)

	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 2, true))
	saga, err := env.Keeper.Redeem(env.Ctx, holder, "index")
	require.NoError(t, err)
	op := pendingExchange(t, env, saga.ID)

	require.NoError(t, env.Exchange.Fail(env.Ctx, op.ID))
	_, stage, err := env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, "", "channel closed")
	require.NoError(t, err)
	require.Equal(t, string(types.RedemptionStalled), stage)

	resp, err := keeper.NewQueryServerImpl(*env.Keeper).StalledSagas(env.Ctx, &types.QueryStalledSagasRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Sagas, 1)
	require.Equal(t, types.RedemptionStalled, resp.Sagas[0].Redemption.Stage)

	// the ledger is kept and the holder stays blocked
	_, found, err := env.Keeper.GetLedger(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.True(t, found)
	_, err = env.Keeper.Redeem(env.Ctx, holder, "index")
	require.ErrorIs(t, err, types.ErrRedemptionInFlight)
}

// A stalled second deposit never minted; redeeming burns only the shares of
// the completed deposit and leaves the stalled deposit on the balance.
func TestRedeem_AfterStalledDeposit(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	first := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	second := sdk.NewCoin(types.DenomOsmo, math.NewInt(50_000))
	holder := fundedHolder(env, 1, first.Add(second))

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, first)
	require.NoError(t, err)

	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 1, true))
	saga, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, second)
	require.NoError(t, err)
	require.Equal(t, types.ForwardAwaitingInitialSwap, saga.Forward.Stage)

	// the pending initial swap blocks redemption
	_, err = env.Keeper.Redeem(env.Ctx, holder, "index")
	require.ErrorIs(t, err, types.ErrDepositInFlight)

	op := pendingExchange(t, env, saga.ID)
	require.NoError(t, env.Exchange.Fail(env.Ctx, op.ID))
	_, stage, err := env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, "", "pool halted")
	require.NoError(t, err)
	require.Equal(t, string(types.ForwardStalled), stage)
	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 1, false))

	redemption, err := env.Keeper.Redeem(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.Equal(t, types.RedemptionSettled, redemption.Redemption.Stage)
	require.True(t, redemption.Redemption.Payout.IsPositive())

	shares, err := env.ShareBalance("index", holder)
	require.NoError(t, err)
	require.True(t, shares.IsZero())

	balance, _, err := env.Keeper.GetBalance(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.Equal(t, second, balance)

	_, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
	require.False(t, broken)
}

// Redemption waits for a deposit whose component swaps are deferred, so the
// late completion cannot land on a cleared ledger.
func TestRedeem_WaitsForDeferredComponentSwap(t *testing.T) {
	env := keepertest.BasketEnv(t)
	keepertest.RegisterTestBasket(t, env, "index", atomJunoRoutes, atomJunoWeights)

	deposit := sdk.NewCoin(types.DenomOsmo, math.NewInt(100_000))
	holder := fundedHolder(env, 1, deposit.Add(deposit))

	_, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)

	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 2, true))
	saga, err := env.Keeper.DepositAndSwap(env.Ctx, holder, "index", atomJunoRoutes, atomJunoWeights, deposit)
	require.NoError(t, err)
	require.Equal(t, types.ForwardAwaitingComponentSwaps, saga.Forward.Stage)
	require.True(t, saga.Forward.SharesIssued)

	_, err = env.Keeper.Redeem(env.Ctx, holder, "index")
	require.ErrorIs(t, err, types.ErrDepositInFlight)

	op := pendingExchange(t, env, saga.ID)
	out, err := env.Exchange.Settle(env.Ctx, op.ID)
	require.NoError(t, err)
	_, stage, err := env.Keeper.AcknowledgeExchange(env.Ctx, op.ID, out, "")
	require.NoError(t, err)
	require.Equal(t, string(types.ForwardCompleted), stage)
	require.NoError(t, env.Exchange.SetDeferred(env.Ctx, 2, false))

	redemption, err := env.Keeper.Redeem(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.Equal(t, types.RedemptionSettled, redemption.Redemption.Stage)

	shares, err := env.ShareBalance("index", holder)
	require.NoError(t, err)
	require.True(t, shares.IsZero())
	balance, _, err := env.Keeper.GetBalance(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.True(t, balance.Amount.IsZero())
	_, found, err := env.Keeper.GetLedger(env.Ctx, holder, "index")
	require.NoError(t, err)
	require.False(t, found)

	_, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
	require.False(t, broken)
}
