package keeper

import (
	sdkerrors "cosmossdk.io/errors"

	"github.com/paw-chain/basket/x/basket/types"
)

// ValidateAuthority checks that the provided authority matches the keeper's
// authority.
//
// Usage example:
//
//	if err := k.ValidateAuthority(msg.Authority); err != nil {
//	    return nil, err
//	}
func (k Keeper) ValidateAuthority(actual string) error {
	if k.authority != actual {
		return sdkerrors.Wrapf(types.ErrUnauthorized,
			"invalid authority; expected %s, got %s",
			k.authority,
			actual,
		)
	}
	return nil
}
