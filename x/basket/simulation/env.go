package simulation

import (
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"

	"github.com/paw-chain/basket/x/basket/keeper"
	"github.com/paw-chain/basket/x/basket/types"
)

// Component denoms traded by the default pools.
const (
	DenomAtom = "uatom"
	DenomJuno = "ujuno"
)

// PoolSpec seeds one pool.
type PoolSpec struct {
	ID       uint64
	ReserveA sdk.Coin
	ReserveB sdk.Coin
	SwapFee  math.LegacyDec
}

// DefaultPools returns the entry pools of DefaultParams plus component pools
// quoted against both intermediate assets.
func DefaultPools() []PoolSpec {
	deep := math.NewInt(1_000_000_000_000)
	fee := math.LegacyNewDecWithPrec(3, 3)
	pool := func(id uint64, a, b string) PoolSpec {
		return PoolSpec{ID: id, ReserveA: sdk.NewCoin(a, deep), ReserveB: sdk.NewCoin(b, deep), SwapFee: fee}
	}
	return []PoolSpec{
		pool(1, types.DenomOsmo, types.DenomAxlUSDC),
		pool(2, types.DenomAxlUSDC, DenomAtom),
		pool(3, types.DenomAxlUSDC, DenomJuno),
		pool(4, types.DenomOsmo, DenomAtom),
		pool(5, types.DenomOsmo, DenomJuno),
		pool(678, types.DenomUSDC, types.DenomOsmo),
	}
}

// Env is a basket keeper wired to the in-process collaborators over a memdb
// multistore.
type Env struct {
	Ctx       sdk.Context
	Keeper    *keeper.Keeper
	Bank      *Bank
	Exchange  *Exchange
	Issuer    *Issuer
	Authority string
}

// NewEnv mounts every store, loads default params and seeds pools.
func NewEnv(logger log.Logger, pools []PoolSpec) (*Env, error) {
	basketKey := storetypes.NewKVStoreKey(types.StoreKey)
	bankKey := storetypes.NewKVStoreKey(BankStoreKey)
	exchangeKey := storetypes.NewKVStoreKey(ExchangeStoreKey)
	issuerKey := storetypes.NewKVStoreKey(IssuerStoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	for _, key := range []storetypes.StoreKey{basketKey, bankKey, exchangeKey, issuerKey} {
		stateStore.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}

	bank := NewBank(bankKey)
	exchange := NewExchange(exchangeKey, bank)
	issuer := NewIssuer(issuerKey)
	authority := authtypes.NewModuleAddress(govtypes.ModuleName).String()

	k := keeper.NewKeeper(basketKey, authority, bank, exchange, exchange, issuer)
	ctx := sdk.NewContext(stateStore, cmtproto.Header{ChainID: "basket-sim-1"}, false, logger)

	if err := k.SetParams(ctx, types.DefaultParams()); err != nil {
		return nil, err
	}
	for _, p := range pools {
		if _, err := exchange.CreatePool(ctx, p.ID, p.ReserveA, p.ReserveB, p.SwapFee); err != nil {
			return nil, fmt.Errorf("seed pool %d: %w", p.ID, err)
		}
	}

	return &Env{
		Ctx:       ctx,
		Keeper:    k,
		Bank:      bank,
		Exchange:  exchange,
		Issuer:    issuer,
		Authority: authority,
	}, nil
}

// Fund credits coins to addr.
func (e *Env) Fund(addr sdk.AccAddress, coins ...sdk.Coin) {
	e.Bank.Fund(e.Ctx, addr, sdk.NewCoins(coins...))
}

// ShareBalance returns the shares of basket held by holder.
func (e *Env) ShareBalance(basketName string, holder sdk.AccAddress) (math.Int, error) {
	basket, err := e.Keeper.GetBasket(e.Ctx, basketName)
	if err != nil {
		return math.Int{}, err
	}
	issuer, err := sdk.AccAddressFromBech32(basket.IssuerAddress)
	if err != nil {
		return math.Int{}, err
	}
	return e.Issuer.BalanceOf(e.Ctx, issuer, holder)
}
