package types

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ExchangeRequest is a single-hop swap submitted to the swap service.
type ExchangeRequest struct {
	// OperationID correlates a deferred completion with its continuation.
	OperationID   uint64
	PoolID        uint64
	TokenIn       sdk.Coin
	TokenOutDenom string
	MinAmountOut  math.Int
}

// ExchangeResult carries the events of an executed swap. When Deferred is set
// the swap completes in a later action through AcknowledgeExchange and Events
// is empty.
type ExchangeResult struct {
	Events   sdk.Events
	Deferred bool
}

// SwapKeeper defines the swap service used for every exchange.
type SwapKeeper interface {
	Exchange(ctx context.Context, trader sdk.AccAddress, req ExchangeRequest) (ExchangeResult, error)
}

// PoolKeeper defines the pool metadata lookup used by route validation.
type PoolKeeper interface {
	PoolDenoms(ctx context.Context, poolID uint64) ([]string, error)
}

// IssuerKeeper defines the share token issuer. One issuer instance is
// provisioned per basket and the module account is its only minter.
type IssuerKeeper interface {
	Instantiate(ctx context.Context, minter sdk.AccAddress, name, symbol string) (sdk.AccAddress, error)
	Mint(ctx context.Context, issuer, minter, recipient sdk.AccAddress, amount math.Int) error
	Burn(ctx context.Context, issuer, minter, owner sdk.AccAddress, amount math.Int) error
	BalanceOf(ctx context.Context, issuer, owner sdk.AccAddress) (math.Int, error)
	TotalSupply(ctx context.Context, issuer sdk.AccAddress) (math.Int, error)
}

// BankKeeper defines the fund transfer primitive.
type BankKeeper interface {
	SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}
