package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/basket/x/basket/types"
)

type msgServer struct {
	Keeper
}

// NewMsgServerImpl returns an implementation of the basket MsgServer interface
func NewMsgServerImpl(keeper Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

// RegisterBasket registers a basket and provisions its share token issuer
func (ms msgServer) RegisterBasket(goCtx context.Context, msg *types.MsgRegisterBasket) (*types.MsgRegisterBasketResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("RegisterBasket: validate: %w", err)
	}

	basket, err := ms.Keeper.RegisterBasket(goCtx, msg.Authority, msg.Name, msg.Routes, msg.Weights, msg.IssuerSymbol)
	if err != nil {
		return nil, fmt.Errorf("RegisterBasket: %w", err)
	}

	return &types.MsgRegisterBasketResponse{
		IssuerAddress: basket.IssuerAddress,
	}, nil
}

// DepositAndSwap deposits one entry asset and fans it out over the basket
func (ms msgServer) DepositAndSwap(goCtx context.Context, msg *types.MsgDepositAndSwap) (*types.MsgDepositAndSwapResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("DepositAndSwap: validate: %w", err)
	}

	sender, err := sdk.AccAddressFromBech32(msg.Sender)
	if err != nil {
		return nil, fmt.Errorf("DepositAndSwap: invalid sender address: %w", err)
	}

	saga, err := ms.Keeper.DepositAndSwap(goCtx, sender, msg.BasketName, msg.Routes, msg.Weights, msg.Deposit)
	if err != nil {
		return nil, fmt.Errorf("DepositAndSwap: %w", err)
	}

	shares := math.ZeroInt()
	if saga.Forward.SharesIssued {
		shares = msg.Deposit.Amount
	}
	return &types.MsgDepositAndSwapResponse{
		SagaID:    saga.ID,
		Shares:    shares,
		Completed: saga.Forward.Stage == types.ForwardCompleted,
	}, nil
}

// Redeem redeems the sender's full position in a basket
func (ms msgServer) Redeem(goCtx context.Context, msg *types.MsgRedeem) (*types.MsgRedeemResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("Redeem: validate: %w", err)
	}

	sender, err := sdk.AccAddressFromBech32(msg.Sender)
	if err != nil {
		return nil, fmt.Errorf("Redeem: invalid sender address: %w", err)
	}

	saga, err := ms.Keeper.Redeem(goCtx, sender, msg.BasketName)
	if err != nil {
		return nil, fmt.Errorf("Redeem: %w", err)
	}

	return &types.MsgRedeemResponse{
		SagaID:  saga.ID,
		Payout:  saga.Redemption.Payout,
		Settled: saga.Redemption.Stage == types.RedemptionSettled,
	}, nil
}

// AcknowledgeExchange delivers the completion of a deferred exchange
func (ms msgServer) AcknowledgeExchange(goCtx context.Context, msg *types.MsgAcknowledgeExchange) (*types.MsgAcknowledgeExchangeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("AcknowledgeExchange: validate: %w", err)
	}
	if err := ms.Keeper.ValidateAuthority(msg.Authority); err != nil {
		return nil, fmt.Errorf("AcknowledgeExchange: %w", err)
	}

	sagaID, stage, err := ms.Keeper.AcknowledgeExchange(goCtx, msg.OperationID, msg.TokensOut, msg.Error)
	if err != nil {
		return nil, fmt.Errorf("AcknowledgeExchange: %w", err)
	}

	return &types.MsgAcknowledgeExchangeResponse{
		SagaID: sagaID,
		Stage:  stage,
	}, nil
}
