package types

import (
	"strings"

	sdkerrors "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// WeightTotal is the sum every basket's weights must reach.
const WeightTotal = 100

// Route is a single-hop exchange target: the pool to trade in and the asset
// that comes out of it.
type Route struct {
	PoolID        uint64 `json:"pool_id"`
	TokenOutDenom string `json:"token_out_denom"`
}

// Basket is a named composition of target assets with integer percentage
// weights. Routes and Weights are parallel lists.
type Basket struct {
	Name          string   `json:"name"`
	Routes        []Route  `json:"routes"`
	Weights       []uint64 `json:"weights"`
	IssuerSymbol  string   `json:"issuer_symbol"`
	IssuerAddress string   `json:"issuer_address,omitempty"`
}

// HasIssuer reports whether the issuer provisioning reply has bound an address.
func (b Basket) HasIssuer() bool {
	return b.IssuerAddress != ""
}

// ValidateComposition checks the structural and arithmetic validity of a set
// of routes and weights.
func ValidateComposition(routes []Route, weights []uint64) error {
	if len(routes) == 0 || len(routes) != len(weights) {
		return sdkerrors.Wrapf(ErrInvalidEntryParams, "%d routes for %d weights", len(routes), len(weights))
	}

	var sum uint64
	for _, w := range weights {
		if w > WeightTotal {
			return sdkerrors.Wrapf(ErrInvalidRatio, "weight %d exceeds %d", w, WeightTotal)
		}
		sum += w
	}
	if sum != WeightTotal {
		return sdkerrors.Wrapf(ErrInvalidRatio, "weights sum to %d, expected %d", sum, WeightTotal)
	}

	for i, r := range routes {
		if r.PoolID == 0 {
			return sdkerrors.Wrapf(ErrInvalidEntryParams, "route %d: pool id cannot be zero", i)
		}
		if err := sdk.ValidateDenom(r.TokenOutDenom); err != nil {
			return sdkerrors.Wrapf(ErrInvalidEntryParams, "route %d: %s", i, err)
		}
	}
	return nil
}

// ValidateBasketName rejects names that cannot be used as a store key segment.
func ValidateBasketName(name string) error {
	if strings.TrimSpace(name) == "" {
		return sdkerrors.Wrap(ErrInvalidBasketName, "basket name cannot be empty")
	}
	if strings.Contains(name, "/") {
		return sdkerrors.Wrapf(ErrInvalidBasketName, "basket name %q cannot contain '/'", name)
	}
	return nil
}

// Validate performs stateless validation of a registered basket.
func (b Basket) Validate() error {
	if err := ValidateBasketName(b.Name); err != nil {
		return err
	}
	if err := ValidateComposition(b.Routes, b.Weights); err != nil {
		return err
	}
	if strings.TrimSpace(b.IssuerSymbol) == "" {
		return sdkerrors.Wrap(ErrInvalidEntryParams, "issuer symbol cannot be empty")
	}
	if b.IssuerAddress != "" {
		if _, err := sdk.AccAddressFromBech32(b.IssuerAddress); err != nil {
			return sdkerrors.Wrapf(ErrInvalidAddress, "issuer address: %s", err)
		}
	}
	return nil
}

// SameComposition reports whether routes and weights match the basket exactly.
func (b Basket) SameComposition(routes []Route, weights []uint64) bool {
	if len(routes) != len(b.Routes) || len(weights) != len(b.Weights) {
		return false
	}
	for i := range routes {
		if routes[i] != b.Routes[i] || weights[i] != b.Weights[i] {
			return false
		}
	}
	return true
}
