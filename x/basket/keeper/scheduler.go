package keeper

import (
	"context"
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/paw-chain/basket/x/basket/types"
)

// dispatch assigns the next operation id, persists the operation and appends
// it to the run queue. It runs when the current action drains.
func (k Keeper) dispatch(ctx context.Context, op types.Operation) (uint64, error) {
	op.ID = k.nextSequence(ctx, NextOperationIDKey)
	op.Pending = false
	if err := op.Validate(); err != nil {
		return 0, err
	}
	if err := k.setOperation(ctx, op); err != nil {
		return 0, err
	}
	k.getStore(ctx).Set(GetQueueKey(op.ID), []byte{1})

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	k.Logger(ctx).Debug("operation dispatched",
		"operation_id", op.ID,
		"kind", op.Kind,
		"reply", op.Reply,
		"saga_id", op.SagaID,
	)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOperationDispatch,
			sdk.NewAttribute(types.AttributeKeyOperationID, fmt.Sprintf("%d", op.ID)),
			sdk.NewAttribute(types.AttributeKeyKind, string(op.Kind)),
			sdk.NewAttribute(types.AttributeKeyReply, string(op.Reply)),
			sdk.NewAttribute(types.AttributeKeySagaID, op.SagaID),
		),
	)
	return op.ID, nil
}

// GetOperation loads a dispatched operation.
func (k Keeper) GetOperation(ctx context.Context, id uint64) (types.Operation, bool, error) {
	var op types.Operation
	found, err := k.getJSON(ctx, GetOperationKey(id), &op)
	return op, found, err
}

func (k Keeper) setOperation(ctx context.Context, op types.Operation) error {
	return k.setJSON(ctx, GetOperationKey(op.ID), op)
}

func (k Keeper) deleteOperation(ctx context.Context, id uint64) {
	k.getStore(ctx).Delete(GetOperationKey(id))
}

// GetPendingOperations returns operations waiting for a deferred completion.
func (k Keeper) GetPendingOperations(ctx context.Context) ([]types.Operation, error) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), OperationKeyPrefix)
	defer iterator.Close()

	ops := []types.Operation{}
	for ; iterator.Valid(); iterator.Next() {
		var op types.Operation
		if err := unmarshalJSON(iterator.Value(), &op); err != nil {
			return nil, err
		}
		if op.Pending {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// popQueue removes and returns the lowest queued operation id.
func (k Keeper) popQueue(ctx context.Context) (uint64, bool) {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, QueueKeyPrefix)
	if !iterator.Valid() {
		iterator.Close()
		return 0, false
	}
	key := iterator.Key()
	iterator.Close()

	store.Delete(key)
	return sdk.BigEndianToUint64(key[len(QueueKeyPrefix):]), true
}

// drain executes queued operations in dispatch order until the queue is
// empty, delivering every synchronous completion to its continuation exactly
// once. Deferred operations stay pending.
func (k Keeper) drain(ctx context.Context) (int, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}

	executed := 0
	for {
		id, ok := k.popQueue(ctx)
		if !ok {
			return executed, nil
		}
		if executed >= int(params.MaxOperationsPerAction) {
			return executed, sdkerrors.Wrapf(types.ErrOperationLimit, "more than %d operations in one action", params.MaxOperationsPerAction)
		}
		executed++

		op, found, err := k.GetOperation(ctx, id)
		if err != nil {
			return executed, err
		}
		if !found {
			return executed, sdkerrors.Wrapf(types.ErrOperationNotFound, "queued operation %d", id)
		}

		completion, deferred, err := k.execute(ctx, op)
		if err != nil {
			return executed, sdkerrors.Wrapf(err, "operation %d (%s)", op.ID, op.Kind)
		}
		if deferred {
			if err := k.deferOperation(ctx, op); err != nil {
				return executed, err
			}
			continue
		}

		k.deleteOperation(ctx, op.ID)
		if err := k.resume(ctx, op, completion); err != nil {
			return executed, sdkerrors.Wrapf(err, "reply %s of operation %d", op.Reply, op.ID)
		}
	}
}

func (k Keeper) deferOperation(ctx context.Context, op types.Operation) error {
	op.Pending = true
	if err := k.setOperation(ctx, op); err != nil {
		return err
	}
	k.metrics.OperationsDeferred.WithLabelValues(string(op.Kind)).Inc()
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOperationDeferred,
			sdk.NewAttribute(types.AttributeKeyOperationID, fmt.Sprintf("%d", op.ID)),
			sdk.NewAttribute(types.AttributeKeySagaID, op.SagaID),
		),
	)
	return nil
}

// execute performs the collaborator call of an operation.
func (k Keeper) execute(ctx context.Context, op types.Operation) (completion types.Completion, deferred bool, err error) {
	_, span := k.tracer.Start(ctx, "basket.operation."+string(op.Kind),
		trace.WithAttributes(
			attribute.Int64("operation_id", int64(op.ID)),
			attribute.String("reply", string(op.Reply)),
			attribute.String("saga_id", op.SagaID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Bool("deferred", deferred))
		span.End()
	}()

	k.metrics.OperationsExecuted.WithLabelValues(string(op.Kind), string(op.Reply)).Inc()
	custody := k.ModuleAddress()

	switch op.Kind {
	case types.OpExchange:
		call := op.Exchange
		res, err := k.swapKeeper.Exchange(ctx, custody, types.ExchangeRequest{
			OperationID:   op.ID,
			PoolID:        call.PoolID,
			TokenIn:       call.TokenIn,
			TokenOutDenom: call.TokenOutDenom,
			MinAmountOut:  call.MinAmountOut,
		})
		if err != nil {
			return types.Completion{}, false, err
		}
		if res.Deferred {
			return types.Completion{}, true, nil
		}
		out, err := types.TokensOutFromEvents(res.Events)
		if err != nil {
			return types.Completion{}, false, err
		}
		return types.Completion{TokensOut: out}, false, nil

	case types.OpInstantiateIssuer:
		addr, err := k.issuerKeeper.Instantiate(ctx, custody, op.Issuer.Name, op.Issuer.Symbol)
		if err != nil {
			return types.Completion{}, false, err
		}
		return types.Completion{Address: addr.String()}, false, nil

	case types.OpMint, types.OpBurn:
		issuer, err := sdk.AccAddressFromBech32(op.Issuer.Issuer)
		if err != nil {
			return types.Completion{}, false, sdkerrors.Wrapf(types.ErrMintContractNotFound, "issuer %q: %s", op.Issuer.Issuer, err)
		}
		account, err := sdk.AccAddressFromBech32(op.Issuer.Account)
		if err != nil {
			return types.Completion{}, false, sdkerrors.Wrapf(types.ErrInvalidAddress, "account %q: %s", op.Issuer.Account, err)
		}
		if op.Kind == types.OpMint {
			err = k.issuerKeeper.Mint(ctx, issuer, custody, account, op.Issuer.Amount)
		} else {
			err = k.issuerKeeper.Burn(ctx, issuer, custody, account, op.Issuer.Amount)
		}
		return types.Completion{}, false, err

	case types.OpConsolidate:
		return types.Completion{}, false, nil

	default:
		return types.Completion{}, false, sdkerrors.Wrapf(types.ErrUnknownReply, "operation kind %q", op.Kind)
	}
}

// resume hands a completion to the continuation named by the reply tag.
func (k Keeper) resume(ctx context.Context, op types.Operation, c types.Completion) error {
	switch op.Reply {
	case types.ReplyNone:
		return nil
	case types.ReplyIssuerInstantiated:
		return k.onIssuerInstantiated(ctx, op, c)
	case types.ReplyInitialSwap:
		return k.onInitialSwap(ctx, op, c)
	case types.ReplyComponentSwap:
		return k.onComponentSwap(ctx, op, c)
	case types.ReplyMintIssued:
		return k.onMintIssued(ctx, op)
	case types.ReplyReversalSwap:
		return k.onReversalSwap(ctx, op, c)
	case types.ReplyConsolidate:
		return k.onConsolidate(ctx, op)
	case types.ReplyFinalSwap:
		return k.onFinalSwap(ctx, op, c)
	default:
		return sdkerrors.Wrapf(types.ErrUnknownReply, "%q", op.Reply)
	}
}

// runAtomic runs a top-level action and drains everything it dispatches
// inside one cache context. Nothing is written unless the whole action
// succeeds; effects of earlier actions stay committed.
func (k Keeper) runAtomic(ctx context.Context, action string, fn func(ctx sdk.Context) error) error {
	_, err := k.runAction(ctx, action, fn)
	return err
}

// runAction is runAtomic that also returns the redemptions settled by the
// action, keyed by saga id.
func (k Keeper) runAction(ctx context.Context, action string, fn func(ctx sdk.Context) error) (map[string]types.Saga, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cacheCtx, write := sdkCtx.CacheContext()

	var settled map[string]types.Saga
	err := fn(cacheCtx)
	executed := 0
	if err == nil {
		executed, err = k.drain(cacheCtx)
	}
	if err == nil {
		settled, err = k.takeSettledRedemptions(cacheCtx)
	}
	if err != nil {
		k.metrics.ActionsAborted.WithLabelValues(action).Inc()
		k.Logger(sdkCtx).Error("action aborted", "action", action, "operations", executed, "error", err)
		return nil, err
	}

	write()
	k.metrics.DrainSize.Observe(float64(executed))
	return settled, nil
}

// AcknowledgeExchange resumes the continuation of a deferred exchange and
// returns the owning saga's id and stage once the action committed. A
// reported failure stalls the saga; its funds stay in custody and the saga is
// listed by StalledSagas.
func (k Keeper) AcknowledgeExchange(ctx context.Context, opID uint64, tokensOut, ackErr string) (string, string, error) {
	var saga types.Saga
	settled, err := k.runAction(ctx, types.TypeMsgAcknowledgeExchange, func(ctx sdk.Context) error {
		op, found, err := k.GetOperation(ctx, opID)
		if err != nil {
			return err
		}
		if !found || !op.Pending || op.Kind != types.OpExchange {
			return sdkerrors.Wrapf(types.ErrOperationNotFound, "no deferred exchange %d", opID)
		}
		if saga, err = k.GetSaga(ctx, op.SagaID); err != nil {
			return err
		}
		k.deleteOperation(ctx, op.ID)

		if ackErr != "" {
			saga, err = k.stallSaga(ctx, op.SagaID, fmt.Sprintf("operation %d: %s", op.ID, ackErr))
			return err
		}

		out, err := types.ParseTokensOut(tokensOut)
		if err != nil {
			return err
		}
		return k.resume(ctx, op, types.Completion{TokensOut: out})
	})
	if err != nil {
		return "", "", err
	}

	if final, ok := settled[saga.ID]; ok {
		return final.ID, final.Stage(), nil
	}
	latest, err := k.GetSaga(ctx, saga.ID)
	switch {
	case err == nil:
		return latest.ID, latest.Stage(), nil
	case sdkerrors.IsOf(err, types.ErrNotFound) && saga.Forward != nil:
		return saga.ID, string(types.ForwardCompleted), nil
	default:
		return "", "", err
	}
}

func (k Keeper) stallSaga(ctx context.Context, sagaID, reason string) (types.Saga, error) {
	saga, err := k.GetSaga(ctx, sagaID)
	if err != nil {
		return types.Saga{}, err
	}
	if err := saga.Stall(reason); err != nil {
		return types.Saga{}, err
	}
	if err := k.SetSaga(ctx, saga); err != nil {
		return types.Saga{}, err
	}

	k.metrics.SagasStalled.WithLabelValues(saga.Kind(), saga.BasketName).Inc()
	k.Logger(ctx).Error("saga stalled",
		"saga_id", saga.ID,
		"holder", saga.Holder,
		"basket", saga.BasketName,
		"reason", reason,
	)
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSagaStalled,
			sdk.NewAttribute(types.AttributeKeySagaID, saga.ID),
			sdk.NewAttribute(types.AttributeKeyHolder, saga.Holder),
			sdk.NewAttribute(types.AttributeKeyBasket, saga.BasketName),
			sdk.NewAttribute(types.AttributeKeyReason, reason),
		),
	)
	return saga, nil
}
