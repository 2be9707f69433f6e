package types

import (
	"context"
	"encoding/json"
	"strings"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	TypeMsgRegisterBasket      = "register_basket"
	TypeMsgDepositAndSwap      = "deposit_and_swap"
	TypeMsgRedeem              = "redeem"
	TypeMsgAcknowledgeExchange = "acknowledge_exchange"
)

func mustSignBytes(msg interface{}) []byte {
	bz, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return sdk.MustSortJSON(bz)
}

func mustSigner(addr string) []sdk.AccAddress {
	acc, err := sdk.AccAddressFromBech32(addr)
	if err != nil {
		panic(err)
	}
	return []sdk.AccAddress{acc}
}

// MsgRegisterBasket defines a message to register a basket and provision its
// share token issuer
type MsgRegisterBasket struct {
	Authority    string   `json:"authority"`
	Name         string   `json:"name"`
	Routes       []Route  `json:"routes"`
	Weights      []uint64 `json:"weights"`
	IssuerSymbol string   `json:"issuer_symbol"`
}

// NewMsgRegisterBasket creates a new MsgRegisterBasket instance
func NewMsgRegisterBasket(authority, name string, routes []Route, weights []uint64, symbol string) *MsgRegisterBasket {
	return &MsgRegisterBasket{
		Authority:    authority,
		Name:         name,
		Routes:       routes,
		Weights:      weights,
		IssuerSymbol: symbol,
	}
}

// Route implements the legacy Msg interface
func (msg MsgRegisterBasket) Route() string { return RouterKey }

// Type implements the legacy Msg interface
func (msg MsgRegisterBasket) Type() string { return TypeMsgRegisterBasket }

// GetSigners returns the authority
func (msg MsgRegisterBasket) GetSigners() []sdk.AccAddress { return mustSigner(msg.Authority) }

// GetSignBytes returns the sorted JSON encoding of the message
func (msg MsgRegisterBasket) GetSignBytes() []byte { return mustSignBytes(msg) }

// ValidateBasic performs stateless validation
func (msg MsgRegisterBasket) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAddress, "invalid authority address: %s", err)
	}
	if err := ValidateBasketName(msg.Name); err != nil {
		return err
	}
	if err := ValidateComposition(msg.Routes, msg.Weights); err != nil {
		return err
	}
	if strings.TrimSpace(msg.IssuerSymbol) == "" {
		return sdkerrors.Wrap(ErrInvalidEntryParams, "issuer symbol cannot be empty")
	}
	return nil
}

// MsgDepositAndSwap defines a message to deposit one asset into a basket
type MsgDepositAndSwap struct {
	Sender     string   `json:"sender"`
	BasketName string   `json:"basket_name"`
	Routes     []Route  `json:"routes"`
	Weights    []uint64 `json:"weights"`
	Deposit    sdk.Coin `json:"deposit"`
}

// NewMsgDepositAndSwap creates a new MsgDepositAndSwap instance
func NewMsgDepositAndSwap(sender, basket string, routes []Route, weights []uint64, deposit sdk.Coin) *MsgDepositAndSwap {
	return &MsgDepositAndSwap{
		Sender:     sender,
		BasketName: basket,
		Routes:     routes,
		Weights:    weights,
		Deposit:    deposit,
	}
}

// Route implements the legacy Msg interface
func (msg MsgDepositAndSwap) Route() string { return RouterKey }

// Type implements the legacy Msg interface
func (msg MsgDepositAndSwap) Type() string { return TypeMsgDepositAndSwap }

// GetSigners returns the depositor
func (msg MsgDepositAndSwap) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }

// GetSignBytes returns the sorted JSON encoding of the message
func (msg MsgDepositAndSwap) GetSignBytes() []byte { return mustSignBytes(msg) }

// ValidateBasic performs stateless validation. The deposit denom is checked
// against the entry routes by the keeper.
func (msg MsgDepositAndSwap) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Sender); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAddress, "invalid sender address: %s", err)
	}
	if err := ValidateBasketName(msg.BasketName); err != nil {
		return err
	}
	if err := ValidateComposition(msg.Routes, msg.Weights); err != nil {
		return err
	}
	if msg.Deposit.Amount.IsNil() || !msg.Deposit.Amount.IsPositive() {
		return sdkerrors.Wrap(ErrInvalidAmount, "deposit amount must be positive")
	}
	if err := sdk.ValidateDenom(msg.Deposit.Denom); err != nil {
		return sdkerrors.Wrapf(ErrInvalidDepositDenom, "%s", err)
	}
	return nil
}

// MsgRedeem defines a message to redeem a holder's full position in a basket
type MsgRedeem struct {
	Sender     string `json:"sender"`
	BasketName string `json:"basket_name"`
}

// NewMsgRedeem creates a new MsgRedeem instance
func NewMsgRedeem(sender, basket string) *MsgRedeem {
	return &MsgRedeem{Sender: sender, BasketName: basket}
}

// Route implements the legacy Msg interface
func (msg MsgRedeem) Route() string { return RouterKey }

// Type implements the legacy Msg interface
func (msg MsgRedeem) Type() string { return TypeMsgRedeem }

// GetSigners returns the holder
func (msg MsgRedeem) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }

// GetSignBytes returns the sorted JSON encoding of the message
func (msg MsgRedeem) GetSignBytes() []byte { return mustSignBytes(msg) }

// ValidateBasic performs stateless validation
func (msg MsgRedeem) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Sender); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAddress, "invalid sender address: %s", err)
	}
	return ValidateBasketName(msg.BasketName)
}

// MsgAcknowledgeExchange delivers the completion of a deferred exchange.
// Exactly one of TokensOut and Error is set.
type MsgAcknowledgeExchange struct {
	Authority   string `json:"authority"`
	OperationID uint64 `json:"operation_id"`
	TokensOut   string `json:"tokens_out,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Route implements the legacy Msg interface
func (msg MsgAcknowledgeExchange) Route() string { return RouterKey }

// Type implements the legacy Msg interface
func (msg MsgAcknowledgeExchange) Type() string { return TypeMsgAcknowledgeExchange }

// GetSigners returns the relaying authority
func (msg MsgAcknowledgeExchange) GetSigners() []sdk.AccAddress { return mustSigner(msg.Authority) }

// GetSignBytes returns the sorted JSON encoding of the message
func (msg MsgAcknowledgeExchange) GetSignBytes() []byte { return mustSignBytes(msg) }

// ValidateBasic performs stateless validation
func (msg MsgAcknowledgeExchange) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAddress, "invalid authority address: %s", err)
	}
	if msg.OperationID == 0 {
		return sdkerrors.Wrap(ErrOperationNotFound, "operation id cannot be zero")
	}
	if (msg.TokensOut == "") == (msg.Error == "") {
		return sdkerrors.Wrap(ErrInvalidEntryParams, "exactly one of tokens_out and error must be set")
	}
	return nil
}

// MsgServer defines the message server interface
type MsgServer interface {
	RegisterBasket(ctx context.Context, msg *MsgRegisterBasket) (*MsgRegisterBasketResponse, error)
	DepositAndSwap(ctx context.Context, msg *MsgDepositAndSwap) (*MsgDepositAndSwapResponse, error)
	Redeem(ctx context.Context, msg *MsgRedeem) (*MsgRedeemResponse, error)
	AcknowledgeExchange(ctx context.Context, msg *MsgAcknowledgeExchange) (*MsgAcknowledgeExchangeResponse, error)
}

// MsgRegisterBasketResponse defines the response for RegisterBasket
type MsgRegisterBasketResponse struct {
	IssuerAddress string `json:"issuer_address"`
}

// MsgDepositAndSwapResponse defines the response for DepositAndSwap
type MsgDepositAndSwapResponse struct {
	SagaID string   `json:"saga_id"`
	Shares math.Int `json:"shares"`
	// Completed is false while component swaps are still deferred.
	Completed bool `json:"completed"`
}

// MsgRedeemResponse defines the response for Redeem
type MsgRedeemResponse struct {
	SagaID  string   `json:"saga_id"`
	Payout  sdk.Coin `json:"payout"`
	Settled bool     `json:"settled"`
}

// MsgAcknowledgeExchangeResponse defines the response for AcknowledgeExchange
type MsgAcknowledgeExchangeResponse struct {
	SagaID string `json:"saga_id"`
	Stage  string `json:"stage"`
}
