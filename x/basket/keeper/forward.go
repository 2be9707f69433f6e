package keeper

import (
	"context"
	"math/big"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/basket/x/basket/types"
)

// DepositAndSwap records a deposit, moves it into module custody and starts
// the forward saga. The returned saga is the state after the action drained;
// a completed saga is no longer stored.
func (k Keeper) DepositAndSwap(ctx context.Context, holder sdk.AccAddress, basketName string, routes []types.Route, weights []uint64, deposit sdk.Coin) (types.Saga, error) {
	var saga types.Saga
	err := k.runAtomic(ctx, types.TypeMsgDepositAndSwap, func(ctx sdk.Context) error {
		basket, err := k.GetBasket(ctx, basketName)
		if err != nil {
			return err
		}
		if !basket.HasIssuer() {
			return sdkerrors.Wrapf(types.ErrMintContractNotFound, "basket %s has no issuer", basketName)
		}
		if err := types.ValidateComposition(routes, weights); err != nil {
			return err
		}
		if !basket.SameComposition(routes, weights) {
			return sdkerrors.Wrapf(types.ErrInvalidEntryParams, "composition does not match basket %s", basketName)
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		route, ok := params.EntryRouteFor(deposit.Denom)
		if !ok {
			return sdkerrors.Wrapf(types.ErrInvalidDepositDenom, "%s is not an entry asset", deposit.Denom)
		}
		if !deposit.Amount.IsPositive() {
			return sdkerrors.Wrap(types.ErrInvalidAmount, "deposit amount must be positive")
		}
		if id, inFlight := k.inFlightRedemption(ctx, holder, basketName); inFlight {
			return sdkerrors.Wrapf(types.ErrRedemptionInFlight, "saga %s is redeeming %s", id, basketName)
		}

		if _, err := k.AddToBalance(ctx, holder, basketName, deposit); err != nil {
			return err
		}
		if err := k.bankKeeper.SendCoins(ctx, holder, k.ModuleAddress(), sdk.NewCoins(deposit)); err != nil {
			return sdkerrors.Wrap(err, "move deposit into custody")
		}

		saga = types.NewForwardSaga(k.newSagaID(ctx), holder.String(), basketName, deposit, route)
		if err := saga.AdvanceForward(types.ForwardAwaitingInitialSwap); err != nil {
			return err
		}
		if err := k.SetSaga(ctx, saga); err != nil {
			return err
		}
		k.setOpenDeposit(ctx, holder, basketName, saga.ID)
		if _, err := k.dispatch(ctx, types.Operation{
			SagaID: saga.ID,
			Kind:   types.OpExchange,
			Reply:  types.ReplyInitialSwap,
			Exchange: &types.ExchangeCall{
				PoolID:        route.PoolID,
				TokenIn:       deposit,
				TokenOutDenom: route.IntermediateDenom,
				MinAmountOut:  params.MinOutput,
			},
		}); err != nil {
			return err
		}

		k.metrics.SagasStarted.WithLabelValues(saga.Kind(), basketName).Inc()
		k.metrics.DepositVolume.WithLabelValues(basketName, deposit.Denom).Add(amountFloat(deposit.Amount))
		k.Logger(ctx).Info("deposit accepted",
			"saga_id", saga.ID,
			"holder", holder.String(),
			"basket", basketName,
			"deposit", deposit.String(),
		)
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeDeposit,
				sdk.NewAttribute(types.AttributeKeySagaID, saga.ID),
				sdk.NewAttribute(types.AttributeKeyHolder, holder.String()),
				sdk.NewAttribute(types.AttributeKeyBasket, basketName),
				sdk.NewAttribute(types.AttributeKeyAmount, deposit.String()),
			),
		)
		return nil
	})
	if err != nil {
		return types.Saga{}, err
	}

	if latest, err := k.GetSaga(ctx, saga.ID); err == nil {
		return latest, nil
	}
	saga.Forward.Stage = types.ForwardCompleted
	saga.Forward.Outstanding = 0
	saga.Forward.SharesIssued = true
	return saga, nil
}

// onInitialSwap fans the intermediate asset out over the basket components
// and dispatches the share mint.
func (k Keeper) onInitialSwap(ctx context.Context, op types.Operation, c types.Completion) error {
	saga, err := k.GetSaga(ctx, op.SagaID)
	if err != nil {
		return err
	}
	if saga.Forward == nil {
		return sdkerrors.Wrapf(types.ErrInvalidTransition, "saga %s is not a deposit saga", saga.ID)
	}
	holder, err := sdk.AccAddressFromBech32(saga.Holder)
	if err != nil {
		return err
	}
	intermediate := c.TokensOut

	if err := k.SetInitialSwap(ctx, holder, types.InitialSwap{
		Holder:     saga.Holder,
		BasketName: saga.BasketName,
		TokenIn:    saga.Forward.Deposit,
		TokenOut:   intermediate,
	}); err != nil {
		return err
	}

	basket, err := k.GetBasket(ctx, saga.BasketName)
	if err != nil {
		return err
	}
	// Funds already left custody for the first leg; a failure here aborts
	// the whole action.
	if err := k.ValidateRoutes(ctx, basket.Routes); err != nil {
		return err
	}

	amounts, err := Allocate(intermediate.Amount, basket.Weights)
	if err != nil {
		return err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}

	var outstanding uint32
	for i, r := range basket.Routes {
		amount := amounts[i]
		if r.TokenOutDenom == intermediate.Denom {
			if err := k.CreditLedger(ctx, holder, basket.Name, sdk.NewCoin(r.TokenOutDenom, amount)); err != nil {
				return err
			}
			continue
		}
		if amount.IsZero() {
			continue
		}
		if _, err := k.dispatch(ctx, types.Operation{
			SagaID: saga.ID,
			Kind:   types.OpExchange,
			Reply:  types.ReplyComponentSwap,
			Exchange: &types.ExchangeCall{
				PoolID:        r.PoolID,
				TokenIn:       sdk.NewCoin(intermediate.Denom, amount),
				TokenOutDenom: r.TokenOutDenom,
				MinAmountOut:  params.MinOutput,
			},
		}); err != nil {
			return err
		}
		k.SetPoolBinding(ctx, basket.Name, r.TokenOutDenom, r.PoolID)
		if outstanding, err = SafeAddUint32(outstanding, 1); err != nil {
			return err
		}
	}

	if _, err := k.dispatch(ctx, types.Operation{
		SagaID: saga.ID,
		Kind:   types.OpMint,
		Reply:  types.ReplyMintIssued,
		Issuer: &types.IssuerCall{
			Issuer:  basket.IssuerAddress,
			Account: saga.Holder,
			Amount:  saga.Forward.Deposit.Amount,
		},
	}); err != nil {
		return err
	}
	if outstanding, err = SafeAddUint32(outstanding, 1); err != nil {
		return err
	}

	saga.Forward.IntermediateDenom = intermediate.Denom
	saga.Forward.Outstanding = outstanding
	if err := saga.AdvanceForward(types.ForwardAwaitingComponentSwaps); err != nil {
		return err
	}
	k.Logger(ctx).Info("initial swap settled",
		"saga_id", saga.ID,
		"tokens_out", intermediate.String(),
		"outstanding", outstanding,
	)
	return k.SetSaga(ctx, saga)
}

// onComponentSwap merges a realized component output into the ledger.
func (k Keeper) onComponentSwap(ctx context.Context, op types.Operation, c types.Completion) error {
	saga, err := k.GetSaga(ctx, op.SagaID)
	if err != nil {
		return err
	}
	if saga.Forward == nil {
		return sdkerrors.Wrapf(types.ErrInvalidTransition, "saga %s is not a deposit saga", saga.ID)
	}
	holder, err := sdk.AccAddressFromBech32(saga.Holder)
	if err != nil {
		return err
	}
	if err := k.CreditLedger(ctx, holder, saga.BasketName, c.TokensOut); err != nil {
		return err
	}
	return k.settleForwardMember(ctx, saga)
}

func (k Keeper) onMintIssued(ctx context.Context, op types.Operation) error {
	saga, err := k.GetSaga(ctx, op.SagaID)
	if err != nil {
		return err
	}
	if saga.Forward == nil {
		return sdkerrors.Wrapf(types.ErrInvalidTransition, "saga %s is not a deposit saga", saga.ID)
	}
	saga.Forward.SharesIssued = true
	return k.settleForwardMember(ctx, saga)
}

// settleForwardMember counts one reported member. The saga completes and is
// cleared when nothing is outstanding. A stalled saga never completes.
func (k Keeper) settleForwardMember(ctx context.Context, saga types.Saga) error {
	if saga.Forward.Outstanding == 0 {
		return sdkerrors.Wrapf(types.ErrInvalidTransition, "saga %s has no outstanding members", saga.ID)
	}
	saga.Forward.Outstanding--
	if saga.Forward.Outstanding > 0 || saga.IsStalled() {
		return k.SetSaga(ctx, saga)
	}

	if err := saga.AdvanceForward(types.ForwardCompleted); err != nil {
		return err
	}
	holder, err := sdk.AccAddressFromBech32(saga.Holder)
	if err != nil {
		return err
	}
	k.DeleteSaga(ctx, saga.ID)
	k.clearOpenDeposit(ctx, holder, saga.BasketName, saga.ID)

	k.metrics.SagasFinished.WithLabelValues(saga.Kind(), saga.BasketName).Inc()
	k.Logger(ctx).Info("deposit saga completed",
		"saga_id", saga.ID,
		"holder", saga.Holder,
		"basket", saga.BasketName,
	)
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSagaCompleted,
			sdk.NewAttribute(types.AttributeKeySagaID, saga.ID),
			sdk.NewAttribute(types.AttributeKeyHolder, saga.Holder),
			sdk.NewAttribute(types.AttributeKeyBasket, saga.BasketName),
			sdk.NewAttribute(types.AttributeKeyStage, string(types.ForwardCompleted)),
		),
	)
	return nil
}

func amountFloat(amount math.Int) float64 {
	f, _ := new(big.Float).SetInt(amount.BigInt()).Float64()
	return f
}
