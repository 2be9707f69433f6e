package keeper

import (
	"encoding/binary"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

var (
	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x01}

	// BasketKeyPrefix is the prefix for registered baskets
	BasketKeyPrefix = []byte{0x02}

	// BalanceKeyPrefix is the prefix for (holder, basket) deposit balances
	BalanceKeyPrefix = []byte{0x03}

	// LedgerKeyPrefix is the prefix for (holder, basket) holdings
	LedgerKeyPrefix = []byte{0x04}

	// InitialSwapKeyPrefix is the prefix for a holder's last first-leg result
	InitialSwapKeyPrefix = []byte{0x05}

	// PoolBindingKeyPrefix is the prefix for (basket, denom) -> pool id bindings
	PoolBindingKeyPrefix = []byte{0x06}

	// SagaKeyPrefix is the prefix for in-flight sagas
	SagaKeyPrefix = []byte{0x07}

	// OperationKeyPrefix is the prefix for dispatched operations
	OperationKeyPrefix = []byte{0x08}

	// QueueKeyPrefix is the prefix for the run queue, ordered by operation id
	QueueKeyPrefix = []byte{0x09}

	// BatchKeyPrefix is the prefix for consolidation batches
	BatchKeyPrefix = []byte{0x0A}

	// IssuerProvisionKeyPrefix is the prefix for issuer provisioning context
	IssuerProvisionKeyPrefix = []byte{0x0B}

	// InFlightRedemptionKeyPrefix is the prefix for (holder, basket) -> saga id
	InFlightRedemptionKeyPrefix = []byte{0x0C}

	// NextOperationIDKey is the counter for operation ids
	NextOperationIDKey = []byte{0x0D}

	// NextSagaSeqKey is the counter that seeds saga ids
	NextSagaSeqKey = []byte{0x0E}

	// NextBatchIDKey is the counter for batch ids
	NextBatchIDKey = []byte{0x0F}

	// StalledSagaKeyPrefix indexes sagas stopped by a deferred failure
	StalledSagaKeyPrefix = []byte{0x10}

	// DepositSagaKeyPrefix indexes (holder, basket) -> open deposit sagas
	DepositSagaKeyPrefix = []byte{0x11}

	// SettledRedemptionKeyPrefix holds redemptions settled during the running
	// action; entries never outlive it
	SettledRedemptionKeyPrefix = []byte{0x12}
)

func uint64Key(prefix []byte, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

func stringKey(prefix []byte, s string) []byte {
	return append(append([]byte{}, prefix...), []byte(s)...)
}

// holderBasketKey is prefix | len(holder) | holder | basket.
func holderBasketKey(prefix []byte, holder sdk.AccAddress, basket string) []byte {
	key := append([]byte{}, prefix...)
	key = append(key, address.MustLengthPrefix(holder)...)
	return append(key, []byte(basket)...)
}

// splitHolderBasketKey reverses holderBasketKey for a key with its prefix stripped.
func splitHolderBasketKey(key []byte) (sdk.AccAddress, string) {
	n := int(key[0])
	return sdk.AccAddress(key[1 : 1+n]), string(key[1+n:])
}

// GetBasketKey returns the store key for a basket
func GetBasketKey(name string) []byte {
	return stringKey(BasketKeyPrefix, name)
}

// GetBalanceKey returns the store key for a deposit balance
func GetBalanceKey(holder sdk.AccAddress, basket string) []byte {
	return holderBasketKey(BalanceKeyPrefix, holder, basket)
}

// GetLedgerKey returns the store key for a ledger entry
func GetLedgerKey(holder sdk.AccAddress, basket string) []byte {
	return holderBasketKey(LedgerKeyPrefix, holder, basket)
}

// GetInitialSwapKey returns the store key for a holder's last first-leg result
func GetInitialSwapKey(holder sdk.AccAddress) []byte {
	return append(append([]byte{}, InitialSwapKeyPrefix...), address.MustLengthPrefix(holder)...)
}

// GetPoolBindingKey returns the store key for a denom's pool binding within
// a basket. Basket names cannot contain '/', so the first one separates the
// two parts.
func GetPoolBindingKey(basket, denom string) []byte {
	return stringKey(PoolBindingKeyPrefix, basket+"/"+denom)
}

// splitPoolBindingKey reverses GetPoolBindingKey for a key with its prefix stripped.
func splitPoolBindingKey(key []byte) (string, string) {
	basket, denom, _ := strings.Cut(string(key), "/")
	return basket, denom
}

// GetSagaKey returns the store key for a saga
func GetSagaKey(id string) []byte {
	return stringKey(SagaKeyPrefix, id)
}

// GetStalledSagaKey returns the index key for a stalled saga
func GetStalledSagaKey(id string) []byte {
	return stringKey(StalledSagaKeyPrefix, id)
}

// GetOperationKey returns the store key for an operation
func GetOperationKey(id uint64) []byte {
	return uint64Key(OperationKeyPrefix, id)
}

// GetQueueKey returns the run queue key for an operation
func GetQueueKey(id uint64) []byte {
	return uint64Key(QueueKeyPrefix, id)
}

// GetBatchKey returns the store key for a batch
func GetBatchKey(id uint64) []byte {
	return uint64Key(BatchKeyPrefix, id)
}

// GetIssuerProvisionKey returns the store key for provisioning context of an operation
func GetIssuerProvisionKey(opID uint64) []byte {
	return uint64Key(IssuerProvisionKeyPrefix, opID)
}

// GetDepositSagaPrefix returns the index prefix of every open deposit saga
// of (holder, basket)
func GetDepositSagaPrefix(holder sdk.AccAddress, basket string) []byte {
	return holderBasketKey(DepositSagaKeyPrefix, holder, basket+"/")
}

// GetDepositSagaKey returns the index key of one deposit saga
func GetDepositSagaKey(holder sdk.AccAddress, basket, sagaID string) []byte {
	return append(GetDepositSagaPrefix(holder, basket), []byte(sagaID)...)
}

// GetSettledRedemptionKey returns the key of a redemption settled in the running action
func GetSettledRedemptionKey(id string) []byte {
	return stringKey(SettledRedemptionKeyPrefix, id)
}

// GetInFlightRedemptionKey returns the index key of a (holder, basket) redemption
func GetInFlightRedemptionKey(holder sdk.AccAddress, basket string) []byte {
	return holderBasketKey(InFlightRedemptionKeyPrefix, holder, basket)
}
