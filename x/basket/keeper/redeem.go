package keeper

import (
	"context"
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/basket/x/basket/types"
)

// Redeem starts the redemption saga for holder's full position in a basket.
// Every held component is swapped back into the intermediate asset as one
// batch; consolidation runs once the batch settles.
func (k Keeper) Redeem(ctx context.Context, holder sdk.AccAddress, basketName string) (types.Saga, error) {
	var saga types.Saga
	settled, err := k.runAction(ctx, types.TypeMsgRedeem, func(ctx sdk.Context) error {
		basket, err := k.GetBasket(ctx, basketName)
		if err != nil {
			return err
		}
		if !basket.HasIssuer() {
			return sdkerrors.Wrapf(types.ErrMintContractNotFound, "basket %s has no issuer", basketName)
		}

		ledger, found, err := k.GetLedger(ctx, holder, basketName)
		if err != nil {
			return err
		}
		if !found {
			return sdkerrors.Wrapf(types.ErrUnauthorized, "%s holds nothing in basket %s", holder, basketName)
		}
		if id, inFlight := k.inFlightRedemption(ctx, holder, basketName); inFlight {
			return sdkerrors.Wrapf(types.ErrRedemptionInFlight, "saga %s is redeeming %s", id, basketName)
		}
		if id, open, err := k.openDeposit(ctx, holder, basketName); err != nil {
			return err
		} else if open {
			return sdkerrors.Wrapf(types.ErrDepositInFlight, "deposit saga %s into %s has not reported back", id, basketName)
		}

		balance, found, err := k.GetBalance(ctx, holder, basketName)
		if err != nil {
			return err
		}
		if !found {
			return sdkerrors.Wrapf(types.ErrUnauthorized, "%s never deposited into basket %s", holder, basketName)
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		route, ok := params.EntryRouteFor(balance.Denom)
		if !ok {
			return sdkerrors.Wrapf(types.ErrInvalidDepositDenom, "%s is not an entry asset", balance.Denom)
		}

		saga = types.NewRedemptionSaga(k.newSagaID(ctx), holder.String(), basketName, route)
		if err := saga.AdvanceRedemption(types.RedemptionAwaitingReversals); err != nil {
			return err
		}
		batch, err := k.newBatch(ctx, saga.ID, types.ReplyConsolidate)
		if err != nil {
			return err
		}
		saga.Redemption.BatchID = batch.ID

		for _, coin := range ledger {
			if coin.Denom == route.IntermediateDenom {
				if saga.Redemption.Accumulated, err = SafeAdd(saga.Redemption.Accumulated, coin.Amount); err != nil {
					return err
				}
				continue
			}
			poolID, bound := k.GetPoolBinding(ctx, basketName, coin.Denom)
			if !bound {
				return sdkerrors.Wrapf(types.ErrNotFound, "no pool binding for %s", coin.Denom)
			}
			if _, err := k.dispatch(ctx, types.Operation{
				SagaID:  saga.ID,
				BatchID: batch.ID,
				Kind:    types.OpExchange,
				Reply:   types.ReplyReversalSwap,
				Exchange: &types.ExchangeCall{
					PoolID:        poolID,
					TokenIn:       coin,
					TokenOutDenom: route.IntermediateDenom,
					MinAmountOut:  params.MinOutput,
				},
			}); err != nil {
				return err
			}
			if batch.Remaining, err = SafeAddUint32(batch.Remaining, 1); err != nil {
				return err
			}
		}

		if err := k.SetSaga(ctx, saga); err != nil {
			return err
		}
		k.setInFlightRedemption(ctx, holder, basketName, saga.ID)
		if batch.Remaining == 0 {
			if err := k.closeBatch(ctx, batch); err != nil {
				return err
			}
		} else if err := k.setBatch(ctx, batch); err != nil {
			return err
		}

		k.metrics.SagasStarted.WithLabelValues(saga.Kind(), basketName).Inc()
		k.Logger(ctx).Info("redemption requested",
			"saga_id", saga.ID,
			"holder", holder.String(),
			"basket", basketName,
			"reversals", batch.Remaining,
		)
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeRedeem,
				sdk.NewAttribute(types.AttributeKeySagaID, saga.ID),
				sdk.NewAttribute(types.AttributeKeyHolder, holder.String()),
				sdk.NewAttribute(types.AttributeKeyBasket, basketName),
				sdk.NewAttribute(types.AttributeKeyBatchID, fmt.Sprintf("%d", batch.ID)),
			),
		)
		return nil
	})
	if err != nil {
		return types.Saga{}, err
	}

	if final, ok := settled[saga.ID]; ok {
		return final, nil
	}
	return k.GetSaga(ctx, saga.ID)
}

// onReversalSwap accumulates one reversal output and settles the batch member.
func (k Keeper) onReversalSwap(ctx context.Context, op types.Operation, c types.Completion) error {
	saga, err := k.GetSaga(ctx, op.SagaID)
	if err != nil {
		return err
	}
	if saga.Redemption == nil {
		return sdkerrors.Wrapf(types.ErrInvalidTransition, "saga %s is not a redemption saga", saga.ID)
	}
	if c.TokensOut.Denom != saga.Redemption.IntermediateDenom {
		return sdkerrors.Wrapf(types.ErrDenomParsingError, "reversal produced %s, expected %s", c.TokensOut.Denom, saga.Redemption.IntermediateDenom)
	}
	if saga.Redemption.Accumulated, err = SafeAdd(saga.Redemption.Accumulated, c.TokensOut.Amount); err != nil {
		return err
	}
	if err := k.SetSaga(ctx, saga); err != nil {
		return err
	}
	return k.settleBatchMember(ctx, op.BatchID)
}

// onConsolidate runs once every reversal of the batch reported back. It
// dispatches the final exchange, burns the shares issued to the holder and
// clears the ledger entry. The balance drops by the burned amount; deposits
// of stalled sagas that never minted stay recorded.
func (k Keeper) onConsolidate(ctx context.Context, op types.Operation) error {
	saga, err := k.GetSaga(ctx, op.SagaID)
	if err != nil {
		return err
	}
	if err := saga.AdvanceRedemption(types.RedemptionAwaitingConsolidation); err != nil {
		return err
	}
	holder, err := sdk.AccAddressFromBech32(saga.Holder)
	if err != nil {
		return err
	}
	basket, err := k.GetBasket(ctx, saga.BasketName)
	if err != nil {
		return err
	}
	issuer, err := sdk.AccAddressFromBech32(basket.IssuerAddress)
	if err != nil {
		return sdkerrors.Wrapf(types.ErrMintContractNotFound, "issuer %q: %s", basket.IssuerAddress, err)
	}
	shares, err := k.issuerKeeper.BalanceOf(ctx, issuer, holder)
	if err != nil {
		return err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	r := saga.Redemption

	if r.Accumulated.IsPositive() {
		if _, err := k.dispatch(ctx, types.Operation{
			SagaID: saga.ID,
			Kind:   types.OpExchange,
			Reply:  types.ReplyFinalSwap,
			Exchange: &types.ExchangeCall{
				PoolID:        r.EntryPoolID,
				TokenIn:       sdk.NewCoin(r.IntermediateDenom, r.Accumulated),
				TokenOutDenom: r.DepositDenom,
				MinAmountOut:  params.MinOutput,
			},
		}); err != nil {
			return err
		}
	}

	if shares.IsPositive() {
		if _, err := k.dispatch(ctx, types.Operation{
			SagaID: saga.ID,
			Kind:   types.OpBurn,
			Reply:  types.ReplyNone,
			Issuer: &types.IssuerCall{
				Issuer:  basket.IssuerAddress,
				Account: saga.Holder,
				Amount:  shares,
			},
		}); err != nil {
			return err
		}
		if err := k.DeductFromBalance(ctx, holder, saga.BasketName, shares); err != nil {
			return err
		}
	}
	k.DeleteLedger(ctx, holder, saga.BasketName)

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeConsolidated,
			sdk.NewAttribute(types.AttributeKeySagaID, saga.ID),
			sdk.NewAttribute(types.AttributeKeyAmount, sdk.NewCoin(r.IntermediateDenom, r.Accumulated).String()),
		),
	)

	if !r.Accumulated.IsPositive() {
		return k.finishRedemption(ctx, saga, sdk.NewCoin(r.DepositDenom, math.ZeroInt()))
	}
	if err := saga.AdvanceRedemption(types.RedemptionAwaitingFinalSwap); err != nil {
		return err
	}
	return k.SetSaga(ctx, saga)
}

// onFinalSwap pays the realized output to the holder and settles the saga.
func (k Keeper) onFinalSwap(ctx context.Context, op types.Operation, c types.Completion) error {
	saga, err := k.GetSaga(ctx, op.SagaID)
	if err != nil {
		return err
	}
	if saga.Redemption == nil {
		return sdkerrors.Wrapf(types.ErrInvalidTransition, "saga %s is not a redemption saga", saga.ID)
	}
	if c.TokensOut.Denom != saga.Redemption.DepositDenom {
		return sdkerrors.Wrapf(types.ErrDenomParsingError, "final swap produced %s, expected %s", c.TokensOut.Denom, saga.Redemption.DepositDenom)
	}
	holder, err := sdk.AccAddressFromBech32(saga.Holder)
	if err != nil {
		return err
	}
	if c.TokensOut.Amount.IsPositive() {
		if err := k.bankKeeper.SendCoins(ctx, k.ModuleAddress(), holder, sdk.NewCoins(c.TokensOut)); err != nil {
			return sdkerrors.Wrap(err, "pay out redemption")
		}
	}
	return k.finishRedemption(ctx, saga, c.TokensOut)
}

func (k Keeper) finishRedemption(ctx context.Context, saga types.Saga, payout sdk.Coin) error {
	if err := saga.AdvanceRedemption(types.RedemptionSettled); err != nil {
		return err
	}
	saga.Redemption.Payout = payout
	holder, err := sdk.AccAddressFromBech32(saga.Holder)
	if err != nil {
		return err
	}
	k.DeleteSaga(ctx, saga.ID)
	k.clearInFlightRedemption(ctx, holder, saga.BasketName)
	if err := k.recordSettledRedemption(ctx, saga); err != nil {
		return err
	}

	k.metrics.SagasFinished.WithLabelValues(saga.Kind(), saga.BasketName).Inc()
	k.metrics.RedemptionPayout.WithLabelValues(saga.BasketName, payout.Denom).Add(amountFloat(payout.Amount))
	k.Logger(ctx).Info("redemption settled",
		"saga_id", saga.ID,
		"holder", saga.Holder,
		"basket", saga.BasketName,
		"payout", payout.String(),
	)
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRedemptionSettled,
			sdk.NewAttribute(types.AttributeKeySagaID, saga.ID),
			sdk.NewAttribute(types.AttributeKeyHolder, saga.Holder),
			sdk.NewAttribute(types.AttributeKeyBasket, saga.BasketName),
			sdk.NewAttribute(types.AttributeKeyAmount, payout.String()),
		),
	)
	return nil
}
