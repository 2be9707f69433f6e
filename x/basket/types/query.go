package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
)

// QueryServer defines the query server interface
type QueryServer interface {
	Params(context.Context, *QueryParamsRequest) (*QueryParamsResponse, error)
	Basket(context.Context, *QueryBasketRequest) (*QueryBasketResponse, error)
	Baskets(context.Context, *QueryBasketsRequest) (*QueryBasketsResponse, error)
	Ledger(context.Context, *QueryLedgerRequest) (*QueryLedgerResponse, error)
	Balance(context.Context, *QueryBalanceRequest) (*QueryBalanceResponse, error)
	InitialSwap(context.Context, *QueryInitialSwapRequest) (*QueryInitialSwapResponse, error)
	Saga(context.Context, *QuerySagaRequest) (*QuerySagaResponse, error)
	StalledSagas(context.Context, *QueryStalledSagasRequest) (*QueryStalledSagasResponse, error)
}

type QueryParamsRequest struct{}

type QueryParamsResponse struct {
	Params Params `json:"params"`
}

type QueryBasketRequest struct {
	Name string `json:"name"`
}

type QueryBasketResponse struct {
	Basket Basket `json:"basket"`
}

type QueryBasketsRequest struct {
	Pagination *query.PageRequest `json:"pagination,omitempty"`
}

type QueryBasketsResponse struct {
	Baskets    []Basket            `json:"baskets"`
	Pagination *query.PageResponse `json:"pagination,omitempty"`
}

type QueryLedgerRequest struct {
	Holder     string `json:"holder"`
	BasketName string `json:"basket_name"`
}

type QueryLedgerResponse struct {
	Coins sdk.Coins `json:"coins"`
}

type QueryBalanceRequest struct {
	Holder     string `json:"holder"`
	BasketName string `json:"basket_name"`
}

type QueryBalanceResponse struct {
	Balance sdk.Coin `json:"balance"`
}

type QueryInitialSwapRequest struct {
	Holder string `json:"holder"`
}

type QueryInitialSwapResponse struct {
	InitialSwap InitialSwap `json:"initial_swap"`
}

type QuerySagaRequest struct {
	ID string `json:"id"`
}

type QuerySagaResponse struct {
	Saga Saga `json:"saga"`
}

type QueryStalledSagasRequest struct{}

type QueryStalledSagasResponse struct {
	Sagas []Saga `json:"sagas"`
}
