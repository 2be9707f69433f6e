package simulation

import (
	"context"
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/paw-chain/basket/x/basket/types"
)

const ExchangeStoreKey = "sim_exchange"

const exchangeCodespace = "sim_exchange"

var (
	ErrPoolNotFound          = errorsmod.Register(exchangeCodespace, 2, "pool not found")
	ErrInvalidTokenPair      = errorsmod.Register(exchangeCodespace, 3, "token not in pool")
	ErrInsufficientLiquidity = errorsmod.Register(exchangeCodespace, 4, "insufficient liquidity")
	ErrSlippageTooHigh       = errorsmod.Register(exchangeCodespace, 5, "output below minimum")
	ErrPendingNotFound       = errorsmod.Register(exchangeCodespace, 6, "pending swap not found")
)

var (
	poolKeyPrefix    = []byte{0x01}
	pendingKeyPrefix = []byte{0x02}
)

var (
	_ types.SwapKeeper = (*Exchange)(nil)
	_ types.PoolKeeper = (*Exchange)(nil)
)

// Pool is a two-asset constant-product pool.
type Pool struct {
	ID       uint64         `json:"id"`
	DenomA   string         `json:"denom_a"`
	DenomB   string         `json:"denom_b"`
	ReserveA math.Int       `json:"reserve_a"`
	ReserveB math.Int       `json:"reserve_b"`
	SwapFee  math.LegacyDec `json:"swap_fee"`
	// Deferred pools settle swaps in a later action through Settle or Fail.
	Deferred bool `json:"deferred"`
}

// Address is the account holding the pool's reserves.
func (p Pool) Address() sdk.AccAddress {
	return sdk.AccAddress(address.Module("pool", sdk.Uint64ToBigEndian(p.ID)))
}

func (p Pool) reserves(denomIn, denomOut string) (math.Int, math.Int, error) {
	switch {
	case denomIn == p.DenomA && denomOut == p.DenomB:
		return p.ReserveA, p.ReserveB, nil
	case denomIn == p.DenomB && denomOut == p.DenomA:
		return p.ReserveB, p.ReserveA, nil
	default:
		return math.Int{}, math.Int{}, ErrInvalidTokenPair.Wrapf("pool %d trades %s/%s, not %s -> %s", p.ID, p.DenomA, p.DenomB, denomIn, denomOut)
	}
}

func (p *Pool) apply(in, out sdk.Coin) {
	if in.Denom == p.DenomA {
		p.ReserveA = p.ReserveA.Add(in.Amount)
		p.ReserveB = p.ReserveB.Sub(out.Amount)
		return
	}
	p.ReserveB = p.ReserveB.Add(in.Amount)
	p.ReserveA = p.ReserveA.Sub(out.Amount)
}

// PendingSwap is a deferred swap whose input is already escrowed.
type PendingSwap struct {
	OperationID   uint64   `json:"operation_id"`
	Trader        string   `json:"trader"`
	PoolID        uint64   `json:"pool_id"`
	TokenIn       sdk.Coin `json:"token_in"`
	TokenOutDenom string   `json:"token_out_denom"`
	MinAmountOut  math.Int `json:"min_amount_out"`
}

// Exchange executes single-hop swaps against constant-product pools.
type Exchange struct {
	key  storetypes.StoreKey
	bank *Bank
}

// NewExchange returns an exchange backed by key that settles through bank.
func NewExchange(key storetypes.StoreKey, bank *Bank) *Exchange {
	return &Exchange{key: key, bank: bank}
}

func (e *Exchange) store(ctx context.Context) storetypes.KVStore {
	return sdk.UnwrapSDKContext(ctx).KVStore(e.key)
}

// CreatePool seeds a pool. The reserves are minted into the pool account.
func (e *Exchange) CreatePool(ctx context.Context, id uint64, reserveA, reserveB sdk.Coin, swapFee math.LegacyDec) (Pool, error) {
	if reserveA.Denom == reserveB.Denom {
		return Pool{}, ErrInvalidTokenPair.Wrap("cannot pool identical tokens")
	}
	if !reserveA.Amount.IsPositive() || !reserveB.Amount.IsPositive() {
		return Pool{}, ErrInsufficientLiquidity.Wrap("reserves must be positive")
	}
	if e.store(ctx).Has(poolKey(id)) {
		return Pool{}, fmt.Errorf("pool %d already exists", id)
	}
	pool := Pool{
		ID:       id,
		DenomA:   reserveA.Denom,
		DenomB:   reserveB.Denom,
		ReserveA: reserveA.Amount,
		ReserveB: reserveB.Amount,
		SwapFee:  swapFee,
	}
	e.bank.Fund(ctx, pool.Address(), sdk.NewCoins(reserveA, reserveB))
	return pool, e.setPool(ctx, pool)
}

// SetDeferred switches a pool between synchronous and deferred settlement.
func (e *Exchange) SetDeferred(ctx context.Context, id uint64, deferred bool) error {
	pool, err := e.GetPool(ctx, id)
	if err != nil {
		return err
	}
	pool.Deferred = deferred
	return e.setPool(ctx, pool)
}

// GetPool loads a pool.
func (e *Exchange) GetPool(ctx context.Context, id uint64) (Pool, error) {
	bz := e.store(ctx).Get(poolKey(id))
	if bz == nil {
		return Pool{}, ErrPoolNotFound.Wrapf("pool %d", id)
	}
	var pool Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return Pool{}, err
	}
	return pool, nil
}

func (e *Exchange) setPool(ctx context.Context, pool Pool) error {
	bz, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	e.store(ctx).Set(poolKey(pool.ID), bz)
	return nil
}

// PoolDenoms returns the assets traded in a pool.
func (e *Exchange) PoolDenoms(ctx context.Context, poolID uint64) ([]string, error) {
	pool, err := e.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return []string{pool.DenomA, pool.DenomB}, nil
}

// Quote computes the output of a swap without executing it:
// out = in*(1-fee)*reserveOut / (reserveIn + in*(1-fee)).
func (e *Exchange) Quote(ctx context.Context, poolID uint64, tokenIn sdk.Coin, denomOut string) (math.Int, error) {
	pool, err := e.GetPool(ctx, poolID)
	if err != nil {
		return math.Int{}, err
	}
	return quote(pool, tokenIn, denomOut)
}

func quote(pool Pool, tokenIn sdk.Coin, denomOut string) (math.Int, error) {
	reserveIn, reserveOut, err := pool.reserves(tokenIn.Denom, denomOut)
	if err != nil {
		return math.Int{}, err
	}
	if !tokenIn.Amount.IsPositive() {
		return math.Int{}, ErrInsufficientLiquidity.Wrap("input amount must be positive")
	}

	amountInAfterFee := math.LegacyNewDecFromInt(tokenIn.Amount).Mul(math.LegacyOneDec().Sub(pool.SwapFee))
	numerator := amountInAfterFee.Mul(math.LegacyNewDecFromInt(reserveOut))
	denominator := math.LegacyNewDecFromInt(reserveIn).Add(amountInAfterFee)
	amountOut := numerator.Quo(denominator).TruncateInt()

	if amountOut.IsZero() {
		return math.Int{}, ErrInsufficientLiquidity.Wrap("output amount too small")
	}
	if amountOut.GTE(reserveOut) {
		return math.Int{}, ErrInsufficientLiquidity.Wrapf("output %s >= reserve %s", amountOut, reserveOut)
	}
	return amountOut, nil
}

// Exchange swaps req.TokenIn held by trader. Deferred pools escrow the input
// and report nothing until Settle or Fail is called.
func (e *Exchange) Exchange(ctx context.Context, trader sdk.AccAddress, req types.ExchangeRequest) (types.ExchangeResult, error) {
	pool, err := e.GetPool(ctx, req.PoolID)
	if err != nil {
		return types.ExchangeResult{}, err
	}
	if _, _, err := pool.reserves(req.TokenIn.Denom, req.TokenOutDenom); err != nil {
		return types.ExchangeResult{}, err
	}
	if err := e.bank.SendCoins(ctx, trader, pool.Address(), sdk.NewCoins(req.TokenIn)); err != nil {
		return types.ExchangeResult{}, err
	}

	if pool.Deferred {
		bz, err := json.Marshal(PendingSwap{
			OperationID:   req.OperationID,
			Trader:        trader.String(),
			PoolID:        req.PoolID,
			TokenIn:       req.TokenIn,
			TokenOutDenom: req.TokenOutDenom,
			MinAmountOut:  req.MinAmountOut,
		})
		if err != nil {
			return types.ExchangeResult{}, err
		}
		e.store(ctx).Set(pendingKey(req.OperationID), bz)
		return types.ExchangeResult{Deferred: true}, nil
	}

	out, err := e.settle(ctx, pool, trader, req.TokenIn, req.TokenOutDenom, req.MinAmountOut)
	if err != nil {
		return types.ExchangeResult{}, err
	}
	return types.ExchangeResult{Events: sdk.Events{swappedEvent(trader, req.TokenIn, out)}}, nil
}

func (e *Exchange) settle(ctx context.Context, pool Pool, trader sdk.AccAddress, in sdk.Coin, denomOut string, minOut math.Int) (sdk.Coin, error) {
	amountOut, err := quote(pool, in, denomOut)
	if err != nil {
		return sdk.Coin{}, err
	}
	if !minOut.IsNil() && amountOut.LT(minOut) {
		return sdk.Coin{}, ErrSlippageTooHigh.Wrapf("got %s, minimum %s", amountOut, minOut)
	}
	out := sdk.NewCoin(denomOut, amountOut)
	if err := e.bank.SendCoins(ctx, pool.Address(), trader, sdk.NewCoins(out)); err != nil {
		return sdk.Coin{}, err
	}
	pool.apply(in, out)
	if err := e.setPool(ctx, pool); err != nil {
		return sdk.Coin{}, err
	}
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(swappedEvent(trader, in, out))
	return out, nil
}

func swappedEvent(trader sdk.AccAddress, in, out sdk.Coin) sdk.Event {
	return sdk.NewEvent(
		types.EventTypeTokenSwapped,
		sdk.NewAttribute("sender", trader.String()),
		sdk.NewAttribute("tokens_in", in.String()),
		sdk.NewAttribute(types.AttributeKeyTokensOut, out.String()),
	)
}

// GetPending returns a deferred swap.
func (e *Exchange) GetPending(ctx context.Context, opID uint64) (PendingSwap, error) {
	bz := e.store(ctx).Get(pendingKey(opID))
	if bz == nil {
		return PendingSwap{}, ErrPendingNotFound.Wrapf("operation %d", opID)
	}
	var p PendingSwap
	if err := json.Unmarshal(bz, &p); err != nil {
		return PendingSwap{}, err
	}
	return p, nil
}

// Settle executes a deferred swap and returns its tokens_out value, ready to
// be relayed as an acknowledgement.
func (e *Exchange) Settle(ctx context.Context, opID uint64) (string, error) {
	p, err := e.GetPending(ctx, opID)
	if err != nil {
		return "", err
	}
	pool, err := e.GetPool(ctx, p.PoolID)
	if err != nil {
		return "", err
	}
	trader, err := sdk.AccAddressFromBech32(p.Trader)
	if err != nil {
		return "", err
	}
	out, err := e.settle(ctx, pool, trader, p.TokenIn, p.TokenOutDenom, p.MinAmountOut)
	if err != nil {
		return "", err
	}
	e.store(ctx).Delete(pendingKey(opID))
	return out.String(), nil
}

// Fail abandons a deferred swap and refunds the escrowed input to the trader.
func (e *Exchange) Fail(ctx context.Context, opID uint64) error {
	p, err := e.GetPending(ctx, opID)
	if err != nil {
		return err
	}
	pool, err := e.GetPool(ctx, p.PoolID)
	if err != nil {
		return err
	}
	trader, err := sdk.AccAddressFromBech32(p.Trader)
	if err != nil {
		return err
	}
	if err := e.bank.SendCoins(ctx, pool.Address(), trader, sdk.NewCoins(p.TokenIn)); err != nil {
		return err
	}
	e.store(ctx).Delete(pendingKey(opID))
	return nil
}

func poolKey(id uint64) []byte {
	return append(append([]byte{}, poolKeyPrefix...), sdk.Uint64ToBigEndian(id)...)
}

func pendingKey(opID uint64) []byte {
	return append(append([]byte{}, pendingKeyPrefix...), sdk.Uint64ToBigEndian(opID)...)
}
