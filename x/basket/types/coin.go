package types

import (
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// EventTypeTokenSwapped is emitted by the swap service for every executed exchange.
	EventTypeTokenSwapped = "token_swapped"
	// AttributeKeyTokensOut carries the realized output as "<digits><denom>".
	AttributeKeyTokensOut = "tokens_out"
)

// ParseTokensOut splits a swap result such as "1234uosmo" into its amount and
// denom. The split happens at the first non-digit character.
func ParseTokensOut(s string) (sdk.Coin, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return sdk.Coin{}, sdkerrors.Wrapf(ErrDenomParsingError, "malformed swap result %q", s)
	}

	amount, ok := math.NewIntFromString(s[:i])
	if !ok {
		return sdk.Coin{}, sdkerrors.Wrapf(ErrDenomParsingError, "amount of %q out of range", s)
	}
	denom := s[i:]
	if err := sdk.ValidateDenom(denom); err != nil {
		return sdk.Coin{}, sdkerrors.Wrapf(ErrDenomParsingError, "denom of %q: %s", s, err)
	}
	return sdk.Coin{Denom: denom, Amount: amount}, nil
}

// TokensOutFromEvents locates the tokens_out attribute of the last
// token_swapped event and parses it.
func TokensOutFromEvents(events sdk.Events) (sdk.Coin, error) {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Type != EventTypeTokenSwapped {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Key == AttributeKeyTokensOut {
				return ParseTokensOut(attr.Value)
			}
		}
	}
	return sdk.Coin{}, sdkerrors.Wrapf(ErrDenomParsingError, "no %s attribute in %s event", AttributeKeyTokensOut, EventTypeTokenSwapped)
}
