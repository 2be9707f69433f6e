package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/cosmos/cosmos-sdk/types/query"

	"github.com/paw-chain/basket/x/basket/types"
)

type queryServer struct {
	Keeper
}

// NewQueryServerImpl returns an implementation of the basket QueryServer interface
func NewQueryServerImpl(keeper Keeper) types.QueryServer {
	return &queryServer{Keeper: keeper}
}

var _ types.QueryServer = queryServer{}

// Params returns the module parameters
func (qs queryServer) Params(goCtx context.Context, req *types.QueryParamsRequest) (*types.QueryParamsResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	params, err := qs.Keeper.GetParams(goCtx)
	if err != nil {
		return nil, fmt.Errorf("Params: get params: %w", err)
	}

	return &types.QueryParamsResponse{Params: params}, nil
}

// Basket returns a registered basket by name
func (qs queryServer) Basket(goCtx context.Context, req *types.QueryBasketRequest) (*types.QueryBasketResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	basket, err := qs.Keeper.GetBasket(goCtx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("Basket: %w", err)
	}

	return &types.QueryBasketResponse{Basket: basket}, nil
}

// Baskets returns all registered baskets with pagination
func (qs queryServer) Baskets(goCtx context.Context, req *types.QueryBasketsRequest) (*types.QueryBasketsResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	basketStore := prefix.NewStore(qs.Keeper.getStore(goCtx), BasketKeyPrefix)

	var baskets []types.Basket
	pageRes, err := query.Paginate(basketStore, req.Pagination, func(key []byte, value []byte) error {
		var basket types.Basket
		if err := unmarshalJSON(value, &basket); err != nil {
			return err
		}
		baskets = append(baskets, basket)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Baskets: paginate: %w", err)
	}

	return &types.QueryBasketsResponse{
		Baskets:    baskets,
		Pagination: pageRes,
	}, nil
}

// Ledger returns a holder's current holdings in a basket
func (qs queryServer) Ledger(goCtx context.Context, req *types.QueryLedgerRequest) (*types.QueryLedgerResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	holder, err := sdk.AccAddressFromBech32(req.Holder)
	if err != nil {
		return nil, fmt.Errorf("Ledger: invalid holder address: %w", err)
	}

	coins, found, err := qs.Keeper.GetLedger(goCtx, holder, req.BasketName)
	if err != nil {
		return nil, fmt.Errorf("Ledger: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("Ledger: %w", types.ErrNotFound.Wrapf("no ledger for %s in basket %s", req.Holder, req.BasketName))
	}

	return &types.QueryLedgerResponse{Coins: coins}, nil
}

// Balance returns a holder's cumulative deposit into a basket. A holder that
// never deposited has a zero balance.
func (qs queryServer) Balance(goCtx context.Context, req *types.QueryBalanceRequest) (*types.QueryBalanceResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	holder, err := sdk.AccAddressFromBech32(req.Holder)
	if err != nil {
		return nil, fmt.Errorf("Balance: invalid holder address: %w", err)
	}

	balance, found, err := qs.Keeper.GetBalance(goCtx, holder, req.BasketName)
	if err != nil {
		return nil, fmt.Errorf("Balance: %w", err)
	}
	if !found {
		balance = sdk.Coin{Amount: math.ZeroInt()}
	}

	return &types.QueryBalanceResponse{Balance: balance}, nil
}

// InitialSwap returns a holder's most recent first-leg result
func (qs queryServer) InitialSwap(goCtx context.Context, req *types.QueryInitialSwapRequest) (*types.QueryInitialSwapResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	holder, err := sdk.AccAddressFromBech32(req.Holder)
	if err != nil {
		return nil, fmt.Errorf("InitialSwap: invalid holder address: %w", err)
	}

	swap, found, err := qs.Keeper.GetInitialSwap(goCtx, holder)
	if err != nil {
		return nil, fmt.Errorf("InitialSwap: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("InitialSwap: %w", types.ErrNotFound.Wrapf("no initial swap for %s", req.Holder))
	}

	return &types.QueryInitialSwapResponse{InitialSwap: swap}, nil
}

// Saga returns an in-flight or stalled saga
func (qs queryServer) Saga(goCtx context.Context, req *types.QuerySagaRequest) (*types.QuerySagaResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	saga, err := qs.Keeper.GetSaga(goCtx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("Saga: %w", err)
	}

	return &types.QuerySagaResponse{Saga: saga}, nil
}

// StalledSagas returns every saga stopped by a failed deferred exchange
func (qs queryServer) StalledSagas(goCtx context.Context, req *types.QueryStalledSagasRequest) (*types.QueryStalledSagasResponse, error) {
	if req == nil {
		return nil, sdkerrors.ErrInvalidRequest
	}

	sagas, err := qs.Keeper.GetStalledSagas(goCtx)
	if err != nil {
		return nil, fmt.Errorf("StalledSagas: %w", err)
	}

	return &types.QueryStalledSagasResponse{Sagas: sagas}, nil
}
