package keeper

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/paw-chain/basket/x/basket/types"
)

var sagaNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("paw-chain/x/basket/saga"))

// newSagaID derives a deterministic saga id from the saga sequence.
func (k Keeper) newSagaID(ctx context.Context) string {
	seq := k.nextSequence(ctx, NextSagaSeqKey)
	return uuid.NewSHA1(sagaNamespace, sdk.Uint64ToBigEndian(seq)).String()
}

// GetSaga loads a saga by id.
func (k Keeper) GetSaga(ctx context.Context, id string) (types.Saga, error) {
	var saga types.Saga
	found, err := k.getJSON(ctx, GetSagaKey(id), &saga)
	if err != nil {
		return types.Saga{}, err
	}
	if !found {
		return types.Saga{}, sdkerrors.Wrapf(types.ErrNotFound, "saga %s", id)
	}
	return saga, nil
}

// SetSaga persists a saga and keeps the stalled index in step with its stage.
func (k Keeper) SetSaga(ctx context.Context, saga types.Saga) error {
	if err := saga.Validate(); err != nil {
		return err
	}
	if err := k.setJSON(ctx, GetSagaKey(saga.ID), saga); err != nil {
		return err
	}
	if saga.IsStalled() {
		k.getStore(ctx).Set(GetStalledSagaKey(saga.ID), []byte{1})
	}
	return nil
}

// DeleteSaga clears a finished saga.
func (k Keeper) DeleteSaga(ctx context.Context, id string) {
	store := k.getStore(ctx)
	store.Delete(GetSagaKey(id))
	store.Delete(GetStalledSagaKey(id))
}

// IterateSagas calls cb for every stored saga until cb returns true.
func (k Keeper) IterateSagas(ctx context.Context, cb func(saga types.Saga) bool) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), SagaKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var saga types.Saga
		if err := unmarshalJSON(iterator.Value(), &saga); err != nil {
			return err
		}
		if cb(saga) {
			break
		}
	}
	return nil
}

// GetStalledSagas returns every saga stopped by a deferred failure. Their
// funds stay in module custody until an operator intervenes.
func (k Keeper) GetStalledSagas(ctx context.Context) ([]types.Saga, error) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), StalledSagaKeyPrefix)
	defer iterator.Close()

	sagas := []types.Saga{}
	for ; iterator.Valid(); iterator.Next() {
		saga, err := k.GetSaga(ctx, string(iterator.Key()[len(StalledSagaKeyPrefix):]))
		if err != nil {
			return nil, err
		}
		sagas = append(sagas, saga)
	}
	return sagas, nil
}

// newBatch opens a consolidation batch for a saga.
func (k Keeper) newBatch(ctx context.Context, sagaID string, onComplete types.ReplyTag) (types.Batch, error) {
	batch := types.Batch{
		ID:         k.nextSequence(ctx, NextBatchIDKey),
		SagaID:     sagaID,
		OnComplete: onComplete,
	}
	return batch, k.setBatch(ctx, batch)
}

func (k Keeper) getBatch(ctx context.Context, id uint64) (types.Batch, error) {
	var batch types.Batch
	found, err := k.getJSON(ctx, GetBatchKey(id), &batch)
	if err != nil {
		return types.Batch{}, err
	}
	if !found {
		return types.Batch{}, sdkerrors.Wrapf(types.ErrNotFound, "batch %d", id)
	}
	return batch, nil
}

func (k Keeper) setBatch(ctx context.Context, batch types.Batch) error {
	return k.setJSON(ctx, GetBatchKey(batch.ID), batch)
}

func (k Keeper) deleteBatch(ctx context.Context, id uint64) {
	k.getStore(ctx).Delete(GetBatchKey(id))
}

// settleBatchMember records that one member of a batch reported back. When
// the last member settles the batch is cleared and its completion operation
// is dispatched.
func (k Keeper) settleBatchMember(ctx context.Context, batchID uint64) error {
	batch, err := k.getBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Remaining == 0 {
		return sdkerrors.Wrapf(types.ErrInvalidTransition, "batch %d has no outstanding members", batchID)
	}
	batch.Remaining--
	if batch.Remaining > 0 {
		return k.setBatch(ctx, batch)
	}
	return k.closeBatch(ctx, batch)
}

// closeBatch dispatches the batch's own completion and clears it.
func (k Keeper) closeBatch(ctx context.Context, batch types.Batch) error {
	k.deleteBatch(ctx, batch.ID)
	_, err := k.dispatch(ctx, types.Operation{
		SagaID:  batch.SagaID,
		BatchID: batch.ID,
		Kind:    types.OpConsolidate,
		Reply:   batch.OnComplete,
	})
	return err
}

func (k Keeper) getIssuerProvision(ctx context.Context, opID uint64) (types.IssuerProvision, error) {
	var p types.IssuerProvision
	found, err := k.getJSON(ctx, GetIssuerProvisionKey(opID), &p)
	if err != nil {
		return types.IssuerProvision{}, err
	}
	if !found {
		return types.IssuerProvision{}, sdkerrors.Wrapf(types.ErrNotFound, "issuer provisioning for operation %d", opID)
	}
	return p, nil
}

func (k Keeper) setIssuerProvision(ctx context.Context, opID uint64, p types.IssuerProvision) error {
	return k.setJSON(ctx, GetIssuerProvisionKey(opID), p)
}

func (k Keeper) deleteIssuerProvision(ctx context.Context, opID uint64) {
	k.getStore(ctx).Delete(GetIssuerProvisionKey(opID))
}

// inFlightRedemption returns the saga redeeming (holder, basket), if any.
func (k Keeper) inFlightRedemption(ctx context.Context, holder sdk.AccAddress, basket string) (string, bool) {
	bz := k.getStore(ctx).Get(GetInFlightRedemptionKey(holder, basket))
	if bz == nil {
		return "", false
	}
	return string(bz), true
}

func (k Keeper) setInFlightRedemption(ctx context.Context, holder sdk.AccAddress, basket, sagaID string) {
	k.getStore(ctx).Set(GetInFlightRedemptionKey(holder, basket), []byte(sagaID))
}

func (k Keeper) clearInFlightRedemption(ctx context.Context, holder sdk.AccAddress, basket string) {
	k.getStore(ctx).Delete(GetInFlightRedemptionKey(holder, basket))
}

func (k Keeper) setOpenDeposit(ctx context.Context, holder sdk.AccAddress, basket, sagaID string) {
	k.getStore(ctx).Set(GetDepositSagaKey(holder, basket, sagaID), []byte{1})
}

func (k Keeper) clearOpenDeposit(ctx context.Context, holder sdk.AccAddress, basket, sagaID string) {
	k.getStore(ctx).Delete(GetDepositSagaKey(holder, basket, sagaID))
}

// openDeposit returns a deposit saga of (holder, basket) that can still
// change the holder's ledger or shares: one that is running, or a stalled one
// with a deferred exchange not yet acknowledged.
func (k Keeper) openDeposit(ctx context.Context, holder sdk.AccAddress, basket string) (string, bool, error) {
	prefix := GetDepositSagaPrefix(holder, basket)
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)
	defer iterator.Close()

	var pending map[string]bool
	for ; iterator.Valid(); iterator.Next() {
		id := string(iterator.Key()[len(prefix):])
		saga, err := k.GetSaga(ctx, id)
		if err != nil {
			return "", false, err
		}
		if !saga.IsStalled() {
			return id, true, nil
		}
		if pending == nil {
			ops, err := k.GetPendingOperations(ctx)
			if err != nil {
				return "", false, err
			}
			pending = make(map[string]bool, len(ops))
			for _, op := range ops {
				pending[op.SagaID] = true
			}
		}
		if pending[id] {
			return id, true, nil
		}
	}
	return "", false, nil
}

// recordSettledRedemption keeps the final view of a redemption cleared
// within the running action until the action collects it.
func (k Keeper) recordSettledRedemption(ctx context.Context, saga types.Saga) error {
	return k.setJSON(ctx, GetSettledRedemptionKey(saga.ID), saga)
}

// takeSettledRedemptions removes and returns every redemption settled in the
// running action, keyed by saga id.
func (k Keeper) takeSettledRedemptions(ctx context.Context) (map[string]types.Saga, error) {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, SettledRedemptionKeyPrefix)

	settled := map[string]types.Saga{}
	var keys [][]byte
	for ; iterator.Valid(); iterator.Next() {
		var saga types.Saga
		if err := unmarshalJSON(iterator.Value(), &saga); err != nil {
			iterator.Close()
			return nil, err
		}
		settled[saga.ID] = saga
		keys = append(keys, iterator.Key())
	}
	iterator.Close()

	for _, key := range keys {
		store.Delete(key)
	}
	return settled, nil
}
