package types

import (
	"cosmossdk.io/errors"
)

// Basket module sentinel errors
var (
	ErrInvalidEntryParams   = errors.Register(ModuleName, 2, "invalid entry params")
	ErrInvalidRatio         = errors.Register(ModuleName, 3, "invalid ratio")
	ErrInvalidDepositDenom  = errors.Register(ModuleName, 4, "invalid deposit denom")
	ErrPoolTokenNotFound    = errors.Register(ModuleName, 5, "pool token not found")
	ErrNotFound             = errors.Register(ModuleName, 6, "not found")
	ErrUnauthorized         = errors.Register(ModuleName, 7, "unauthorized")
	ErrMintContractNotFound = errors.Register(ModuleName, 8, "mint contract not found")
	ErrDenomParsingError    = errors.Register(ModuleName, 9, "denom parsing error")
	ErrOverflow             = errors.Register(ModuleName, 10, "arithmetic overflow")
	ErrBasketExists         = errors.Register(ModuleName, 11, "basket already registered")
	ErrInvalidAmount        = errors.Register(ModuleName, 12, "invalid amount")
	ErrInvalidAddress       = errors.Register(ModuleName, 13, "invalid address")
	ErrInvalidTransition    = errors.Register(ModuleName, 14, "invalid saga transition")
	ErrUnknownReply         = errors.Register(ModuleName, 15, "unknown reply tag")
	ErrOperationNotFound    = errors.Register(ModuleName, 16, "operation not found")
	ErrOperationLimit       = errors.Register(ModuleName, 17, "operation limit exceeded")
	ErrRedemptionInFlight   = errors.Register(ModuleName, 18, "redemption already in flight")
	ErrInvalidBasketName    = errors.Register(ModuleName, 19, "invalid basket name")
	ErrInvalidParams        = errors.Register(ModuleName, 20, "invalid params")
	ErrDepositInFlight      = errors.Register(ModuleName, 21, "deposit still in flight")
)
