package keeper

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/paw-chain/basket/x/basket/types"
)

// Keeper of the basket store
type Keeper struct {
	storeKey     storetypes.StoreKey
	authority    string
	bankKeeper   types.BankKeeper
	swapKeeper   types.SwapKeeper
	poolKeeper   types.PoolKeeper
	issuerKeeper types.IssuerKeeper
	metrics      *BasketMetrics
	tracer       trace.Tracer
}

// NewKeeper creates a new basket Keeper instance
func NewKeeper(
	key storetypes.StoreKey,
	authority string,
	bankKeeper types.BankKeeper,
	swapKeeper types.SwapKeeper,
	poolKeeper types.PoolKeeper,
	issuerKeeper types.IssuerKeeper,
) *Keeper {
	if _, err := sdk.AccAddressFromBech32(authority); err != nil {
		panic(fmt.Sprintf("invalid basket authority address: %s", err))
	}
	return &Keeper{
		storeKey:     key,
		authority:    authority,
		bankKeeper:   bankKeeper,
		swapKeeper:   swapKeeper,
		poolKeeper:   poolKeeper,
		issuerKeeper: issuerKeeper,
		metrics:      NewBasketMetrics(),
		tracer:       otel.Tracer("x/" + types.ModuleName),
	}
}

// GetAuthority returns the address allowed to register baskets and relay
// deferred exchange completions.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// ModuleAddress is the custody account that trades, mints and burns on
// behalf of holders.
func (k Keeper) ModuleAddress() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.ModuleName)
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// getStore returns the KVStore for the basket module
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return sdkCtx.KVStore(k.storeKey)
}

func (k Keeper) setJSON(ctx context.Context, key []byte, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	k.getStore(ctx).Set(key, bz)
	return nil
}

func (k Keeper) getJSON(ctx context.Context, key []byte, v interface{}) (bool, error) {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return false, nil
	}
	if err := unmarshalJSON(bz, v); err != nil {
		return false, err
	}
	return true, nil
}

func unmarshalJSON(bz []byte, v interface{}) error {
	if err := json.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

// nextSequence returns the counter stored at key and increments it. Counters
// start at 1.
func (k Keeper) nextSequence(ctx context.Context, key []byte) uint64 {
	store := k.getStore(ctx)
	seq := uint64(1)
	if bz := store.Get(key); bz != nil {
		seq = sdk.BigEndianToUint64(bz)
	}
	store.Set(key, sdk.Uint64ToBigEndian(seq+1))
	return seq
}

