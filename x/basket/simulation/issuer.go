package simulation

import (
	"context"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/paw-chain/basket/x/basket/types"
)

const IssuerStoreKey = "sim_issuer"

const issuerCodespace = "sim_issuer"

var (
	ErrIssuerExists      = errorsmod.Register(issuerCodespace, 2, "issuer already exists")
	ErrIssuerNotFound    = errorsmod.Register(issuerCodespace, 3, "issuer not found")
	ErrNotMinter         = errorsmod.Register(issuerCodespace, 4, "caller is not the minter")
	ErrInsufficientShare = errorsmod.Register(issuerCodespace, 5, "insufficient share balance")
)

var (
	issuerMetaPrefix    = []byte{0x01}
	issuerBalancePrefix = []byte{0x02}
)

var _ types.IssuerKeeper = (*Issuer)(nil)

// TokenInfo describes one issued share token.
type TokenInfo struct {
	Name   string   `json:"name"`
	Symbol string   `json:"symbol"`
	Minter string   `json:"minter"`
	Supply math.Int `json:"supply"`
}

// Issuer instantiates fungible share tokens, one per basket. Only the minter
// set at instantiation may mint or burn.
type Issuer struct {
	key storetypes.StoreKey
}

// NewIssuer returns an issuer backed by key.
func NewIssuer(key storetypes.StoreKey) *Issuer {
	return &Issuer{key: key}
}

func (i *Issuer) store(ctx context.Context) storetypes.KVStore {
	return sdk.UnwrapSDKContext(ctx).KVStore(i.key)
}

// IssuerAddress is the deterministic address of the token named name.
func IssuerAddress(name string) sdk.AccAddress {
	return sdk.AccAddress(address.Module("issuer", []byte(name)))
}

// Instantiate creates a share token with zero supply.
func (i *Issuer) Instantiate(ctx context.Context, minter sdk.AccAddress, name, symbol string) (sdk.AccAddress, error) {
	addr := IssuerAddress(name)
	store := i.store(ctx)
	if store.Has(metaKey(addr)) {
		return nil, ErrIssuerExists.Wrapf("%s at %s", name, addr)
	}
	bz, err := json.Marshal(TokenInfo{
		Name:   name,
		Symbol: symbol,
		Minter: minter.String(),
		Supply: math.ZeroInt(),
	})
	if err != nil {
		return nil, err
	}
	store.Set(metaKey(addr), bz)
	return addr, nil
}

// TokenInfo loads the metadata of an issued token.
func (i *Issuer) TokenInfo(ctx context.Context, issuer sdk.AccAddress) (TokenInfo, error) {
	bz := i.store(ctx).Get(metaKey(issuer))
	if bz == nil {
		return TokenInfo{}, ErrIssuerNotFound.Wrap(issuer.String())
	}
	var info TokenInfo
	if err := json.Unmarshal(bz, &info); err != nil {
		return TokenInfo{}, err
	}
	return info, nil
}

func (i *Issuer) setTokenInfo(ctx context.Context, issuer sdk.AccAddress, info TokenInfo) error {
	bz, err := json.Marshal(info)
	if err != nil {
		return err
	}
	i.store(ctx).Set(metaKey(issuer), bz)
	return nil
}

func (i *Issuer) authorize(ctx context.Context, issuer, minter sdk.AccAddress) (TokenInfo, error) {
	info, err := i.TokenInfo(ctx, issuer)
	if err != nil {
		return TokenInfo{}, err
	}
	if info.Minter != minter.String() {
		return TokenInfo{}, ErrNotMinter.Wrapf("%s is not the minter of %s", minter, info.Name)
	}
	return info, nil
}

// Mint issues amount shares to recipient.
func (i *Issuer) Mint(ctx context.Context, issuer, minter, recipient sdk.AccAddress, amount math.Int) error {
	info, err := i.authorize(ctx, issuer, minter)
	if err != nil {
		return err
	}
	balance, err := i.BalanceOf(ctx, issuer, recipient)
	if err != nil {
		return err
	}
	i.setShareBalance(ctx, issuer, recipient, balance.Add(amount))
	info.Supply = info.Supply.Add(amount)
	return i.setTokenInfo(ctx, issuer, info)
}

// Burn destroys amount shares held by owner.
func (i *Issuer) Burn(ctx context.Context, issuer, minter, owner sdk.AccAddress, amount math.Int) error {
	info, err := i.authorize(ctx, issuer, minter)
	if err != nil {
		return err
	}
	balance, err := i.BalanceOf(ctx, issuer, owner)
	if err != nil {
		return err
	}
	if balance.LT(amount) {
		return ErrInsufficientShare.Wrapf("%s holds %s, burning %s", owner, balance, amount)
	}
	i.setShareBalance(ctx, issuer, owner, balance.Sub(amount))
	info.Supply = info.Supply.Sub(amount)
	return i.setTokenInfo(ctx, issuer, info)
}

// BalanceOf returns the shares held by owner.
func (i *Issuer) BalanceOf(ctx context.Context, issuer, owner sdk.AccAddress) (math.Int, error) {
	if !i.store(ctx).Has(metaKey(issuer)) {
		return math.Int{}, ErrIssuerNotFound.Wrap(issuer.String())
	}
	bz := i.store(ctx).Get(shareKey(issuer, owner))
	if bz == nil {
		return math.ZeroInt(), nil
	}
	amount, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.Int{}, errorsmod.Wrapf(ErrIssuerNotFound, "corrupt balance of %s", owner)
	}
	return amount, nil
}

// TotalSupply returns the outstanding shares of issuer.
func (i *Issuer) TotalSupply(ctx context.Context, issuer sdk.AccAddress) (math.Int, error) {
	info, err := i.TokenInfo(ctx, issuer)
	if err != nil {
		return math.Int{}, err
	}
	return info.Supply, nil
}

func (i *Issuer) setShareBalance(ctx context.Context, issuer, owner sdk.AccAddress, amount math.Int) {
	key := shareKey(issuer, owner)
	if amount.IsZero() {
		i.store(ctx).Delete(key)
		return
	}
	i.store(ctx).Set(key, []byte(amount.String()))
}

func metaKey(issuer sdk.AccAddress) []byte {
	return append(append([]byte{}, issuerMetaPrefix...), address.MustLengthPrefix(issuer)...)
}

func shareKey(issuer, owner sdk.AccAddress) []byte {
	key := append(append([]byte{}, issuerBalancePrefix...), address.MustLengthPrefix(issuer)...)
	return append(key, address.MustLengthPrefix(owner)...)
}
