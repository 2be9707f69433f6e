package types

import (
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ForwardStage is the progress of a deposit saga.
type ForwardStage string

const (
	ForwardDeposited              ForwardStage = "deposited"
	ForwardAwaitingInitialSwap    ForwardStage = "awaiting_initial_swap"
	ForwardAwaitingComponentSwaps ForwardStage = "awaiting_component_swaps"
	ForwardCompleted              ForwardStage = "completed"
	ForwardStalled                ForwardStage = "stalled"
)

var forwardTransitions = map[ForwardStage][]ForwardStage{
	ForwardDeposited:              {ForwardAwaitingInitialSwap},
	ForwardAwaitingInitialSwap:    {ForwardAwaitingComponentSwaps, ForwardStalled},
	ForwardAwaitingComponentSwaps: {ForwardCompleted, ForwardStalled},
}

// RedemptionStage is the progress of a redemption saga.
type RedemptionStage string

const (
	RedemptionRequested             RedemptionStage = "redeem_requested"
	RedemptionAwaitingReversals     RedemptionStage = "awaiting_reversal_swaps"
	RedemptionAwaitingConsolidation RedemptionStage = "awaiting_consolidation"
	RedemptionAwaitingFinalSwap     RedemptionStage = "awaiting_final_swap"
	RedemptionSettled               RedemptionStage = "settled"
	RedemptionStalled               RedemptionStage = "stalled"
)

var redemptionTransitions = map[RedemptionStage][]RedemptionStage{
	RedemptionRequested:             {RedemptionAwaitingReversals},
	RedemptionAwaitingReversals:     {RedemptionAwaitingConsolidation, RedemptionStalled},
	RedemptionAwaitingConsolidation: {RedemptionAwaitingFinalSwap, RedemptionSettled, RedemptionStalled},
	RedemptionAwaitingFinalSwap:     {RedemptionSettled, RedemptionStalled},
}

// ForwardState is the deposit variant of a saga.
type ForwardState struct {
	Stage             ForwardStage `json:"stage"`
	Deposit           sdk.Coin     `json:"deposit"`
	IntermediateDenom string       `json:"intermediate_denom"`
	EntryPoolID       uint64       `json:"entry_pool_id"`
	// Outstanding counts dispatched component swaps plus the mint that have
	// not reported back yet.
	Outstanding  uint32 `json:"outstanding"`
	SharesIssued bool   `json:"shares_issued"`
	StallReason  string `json:"stall_reason,omitempty"`
}

// RedemptionState is the redemption variant of a saga.
type RedemptionState struct {
	Stage             RedemptionStage `json:"stage"`
	DepositDenom      string          `json:"deposit_denom"`
	IntermediateDenom string          `json:"intermediate_denom"`
	EntryPoolID       uint64          `json:"entry_pool_id"`
	Accumulated       math.Int        `json:"accumulated"`
	BatchID           uint64          `json:"batch_id"`
	Payout            sdk.Coin        `json:"payout"`
	StallReason       string          `json:"stall_reason,omitempty"`
}

// Saga is a continuation record for one in-flight workflow. Exactly one of
// Forward and Redemption is set.
type Saga struct {
	ID         string           `json:"id"`
	Holder     string           `json:"holder"`
	BasketName string           `json:"basket_name"`
	Forward    *ForwardState    `json:"forward,omitempty"`
	Redemption *RedemptionState `json:"redemption,omitempty"`
}

// NewForwardSaga returns a saga in the Deposited stage.
func NewForwardSaga(id, holder, basket string, deposit sdk.Coin, route EntryRoute) Saga {
	return Saga{
		ID:         id,
		Holder:     holder,
		BasketName: basket,
		Forward: &ForwardState{
			Stage:             ForwardDeposited,
			Deposit:           deposit,
			IntermediateDenom: route.IntermediateDenom,
			EntryPoolID:       route.PoolID,
		},
	}
}

// NewRedemptionSaga returns a saga in the RedeemRequested stage.
func NewRedemptionSaga(id, holder, basket string, route EntryRoute) Saga {
	return Saga{
		ID:         id,
		Holder:     holder,
		BasketName: basket,
		Redemption: &RedemptionState{
			Stage:             RedemptionRequested,
			DepositDenom:      route.DepositDenom,
			IntermediateDenom: route.IntermediateDenom,
			EntryPoolID:       route.PoolID,
			Accumulated:       math.ZeroInt(),
		},
	}
}

// Kind returns "forward" or "redemption".
func (s Saga) Kind() string {
	if s.Forward != nil {
		return "forward"
	}
	return "redemption"
}

// Stage returns the current stage of whichever variant is set.
func (s Saga) Stage() string {
	switch {
	case s.Forward != nil:
		return string(s.Forward.Stage)
	case s.Redemption != nil:
		return string(s.Redemption.Stage)
	default:
		return ""
	}
}

// IsStalled reports whether a deferred failure stopped the saga.
func (s Saga) IsStalled() bool {
	return (s.Forward != nil && s.Forward.Stage == ForwardStalled) ||
		(s.Redemption != nil && s.Redemption.Stage == RedemptionStalled)
}

// Validate checks the variant invariant.
func (s Saga) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("saga id cannot be empty")
	}
	if (s.Forward == nil) == (s.Redemption == nil) {
		return fmt.Errorf("saga %s must carry exactly one of forward or redemption state", s.ID)
	}
	if _, err := sdk.AccAddressFromBech32(s.Holder); err != nil {
		return fmt.Errorf("saga %s holder: %w", s.ID, err)
	}
	return ValidateBasketName(s.BasketName)
}

// AdvanceForward moves the deposit variant to the next stage.
func (s *Saga) AdvanceForward(to ForwardStage) error {
	if s.Forward == nil {
		return sdkerrors.Wrapf(ErrInvalidTransition, "saga %s is not a deposit saga", s.ID)
	}
	for _, next := range forwardTransitions[s.Forward.Stage] {
		if next == to {
			s.Forward.Stage = to
			return nil
		}
	}
	return sdkerrors.Wrapf(ErrInvalidTransition, "saga %s: %s -> %s", s.ID, s.Forward.Stage, to)
}

// AdvanceRedemption moves the redemption variant to the next stage.
func (s *Saga) AdvanceRedemption(to RedemptionStage) error {
	if s.Redemption == nil {
		return sdkerrors.Wrapf(ErrInvalidTransition, "saga %s is not a redemption saga", s.ID)
	}
	for _, next := range redemptionTransitions[s.Redemption.Stage] {
		if next == to {
			s.Redemption.Stage = to
			return nil
		}
	}
	return sdkerrors.Wrapf(ErrInvalidTransition, "saga %s: %s -> %s", s.ID, s.Redemption.Stage, to)
}

// Stall records a deferred failure. A saga that already stalled keeps its
// first reason.
func (s *Saga) Stall(reason string) error {
	if s.IsStalled() {
		return nil
	}
	if s.Forward != nil {
		if err := s.AdvanceForward(ForwardStalled); err != nil {
			return err
		}
		s.Forward.StallReason = reason
		return nil
	}
	if err := s.AdvanceRedemption(RedemptionStalled); err != nil {
		return err
	}
	s.Redemption.StallReason = reason
	return nil
}
