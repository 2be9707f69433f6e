package types

// Event types for the basket module
const (
	EventTypeBasketRegistered  = "basket_registered"
	EventTypeIssuerBound       = "basket_issuer_bound"
	EventTypeDeposit           = "basket_deposit"
	EventTypeOperationDispatch = "basket_operation_dispatched"
	EventTypeOperationDeferred = "basket_operation_deferred"
	EventTypeLedgerCredited    = "basket_ledger_credited"
	EventTypeSagaCompleted     = "basket_saga_completed"
	EventTypeSagaStalled       = "basket_saga_stalled"
	EventTypeRedeem            = "basket_redeem"
	EventTypeConsolidated      = "basket_consolidated"
	EventTypeRedemptionSettled = "basket_redemption_settled"
)

// Event attribute keys
const (
	AttributeKeyBasket      = "basket"
	AttributeKeyHolder      = "holder"
	AttributeKeySagaID      = "saga_id"
	AttributeKeyOperationID = "operation_id"
	AttributeKeyKind        = "kind"
	AttributeKeyReply       = "reply"
	AttributeKeyIssuer      = "issuer"
	AttributeKeySymbol      = "symbol"
	AttributeKeyAmount      = "amount"
	AttributeKeyDenom       = "denom"
	AttributeKeyStage       = "stage"
	AttributeKeyReason      = "reason"
	AttributeKeyBatchID     = "batch_id"
)
