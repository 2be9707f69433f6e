package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// OperationKind identifies the external (or internal) call an operation performs.
type OperationKind string

const (
	OpExchange          OperationKind = "exchange"
	OpInstantiateIssuer OperationKind = "instantiate_issuer"
	OpMint              OperationKind = "mint"
	OpBurn              OperationKind = "burn"
	OpConsolidate       OperationKind = "consolidate"
)

// ReplyTag names the continuation that consumes an operation's completion.
type ReplyTag string

const (
	ReplyNone               ReplyTag = "none"
	ReplyIssuerInstantiated ReplyTag = "issuer_instantiated"
	ReplyInitialSwap        ReplyTag = "initial_swap"
	ReplyComponentSwap      ReplyTag = "component_swap"
	ReplyMintIssued         ReplyTag = "mint_issued"
	ReplyReversalSwap       ReplyTag = "reversal_swap"
	ReplyConsolidate        ReplyTag = "consolidate"
	ReplyFinalSwap          ReplyTag = "final_swap"
)

// ExchangeCall is the payload of an exchange operation.
type ExchangeCall struct {
	PoolID        uint64   `json:"pool_id"`
	TokenIn       sdk.Coin `json:"token_in"`
	TokenOutDenom string   `json:"token_out_denom"`
	MinAmountOut  math.Int `json:"min_amount_out"`
}

// IssuerCall is the payload of instantiate, mint and burn operations.
type IssuerCall struct {
	Issuer  string   `json:"issuer,omitempty"`
	Account string   `json:"account,omitempty"`
	Amount  math.Int `json:"amount"`
	Name    string   `json:"name,omitempty"`
	Symbol  string   `json:"symbol,omitempty"`
}

// Operation is a dispatched call waiting in the run queue, or pending a
// deferred completion.
type Operation struct {
	ID       uint64        `json:"id"`
	SagaID   string        `json:"saga_id,omitempty"`
	BatchID  uint64        `json:"batch_id,omitempty"`
	Kind     OperationKind `json:"kind"`
	Reply    ReplyTag      `json:"reply"`
	Exchange *ExchangeCall `json:"exchange,omitempty"`
	Issuer   *IssuerCall   `json:"issuer,omitempty"`
	// Pending is set once the collaborator deferred its completion.
	Pending bool `json:"pending"`
}

// Validate checks that the payload matches the kind.
func (op Operation) Validate() error {
	switch op.Kind {
	case OpExchange:
		if op.Exchange == nil {
			return fmt.Errorf("operation %d: exchange payload missing", op.ID)
		}
	case OpInstantiateIssuer, OpMint, OpBurn:
		if op.Issuer == nil {
			return fmt.Errorf("operation %d: issuer payload missing", op.ID)
		}
	case OpConsolidate:
		if op.BatchID == 0 {
			return fmt.Errorf("operation %d: consolidate without batch", op.ID)
		}
	default:
		return fmt.Errorf("operation %d: unknown kind %q", op.ID, op.Kind)
	}
	return nil
}

// Completion is what a finished operation hands to its continuation.
type Completion struct {
	TokensOut sdk.Coin
	Address   string
}

// Batch groups the reversal swaps of one redemption. OnComplete fires once
// Remaining reaches zero.
type Batch struct {
	ID         uint64   `json:"id"`
	SagaID     string   `json:"saga_id"`
	Remaining  uint32   `json:"remaining"`
	OnComplete ReplyTag `json:"on_complete"`
}

// IssuerProvision is the context of an issuer instantiation, keyed by the
// operation that performs it.
type IssuerProvision struct {
	BasketName string `json:"basket_name"`
	Symbol     string `json:"symbol"`
}

// InitialSwap is the most recent first-leg result of a holder.
type InitialSwap struct {
	Holder     string   `json:"holder"`
	BasketName string   `json:"basket_name"`
	TokenIn    sdk.Coin `json:"token_in"`
	TokenOut   sdk.Coin `json:"token_out"`
}

// PoolBinding records which pool reverses a denom held in a basket.
type PoolBinding struct {
	BasketName string `json:"basket_name"`
	Denom      string `json:"denom"`
	PoolID     uint64 `json:"pool_id"`
}
