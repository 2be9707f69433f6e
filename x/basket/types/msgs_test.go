package types_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/basket/x/basket/types"
)

func TestMsgDepositAndSwapValidateBasic(t *testing.T) {
	sender := sdk.AccAddress([]byte("depositor___________")).String()
	routes := []types.Route{{PoolID: 2, TokenOutDenom: "uatom"}}

	tests := []struct {
		name string
		msg  *types.MsgDepositAndSwap
		err  error
	}{
		{
			name: "valid",
			msg:  types.NewMsgDepositAndSwap(sender, "index", routes, []uint64{100}, sdk.NewCoin(types.DenomOsmo, math.NewInt(10))),
		},
		{
			name: "bad sender",
			msg:  types.NewMsgDepositAndSwap("nope", "index", routes, []uint64{100}, sdk.NewCoin(types.DenomOsmo, math.NewInt(10))),
			err:  types.ErrInvalidAddress,
		},
		{
			name: "ratio",
			msg:  types.NewMsgDepositAndSwap(sender, "index", routes, []uint64{99}, sdk.NewCoin(types.DenomOsmo, math.NewInt(10))),
			err:  types.ErrInvalidRatio,
		},
		{
			name: "zero deposit",
			msg:  types.NewMsgDepositAndSwap(sender, "index", routes, []uint64{100}, sdk.NewCoin(types.DenomOsmo, math.ZeroInt())),
			err:  types.ErrInvalidAmount,
		},
		{
			name: "empty basket name",
			msg:  types.NewMsgDepositAndSwap(sender, "", routes, []uint64{100}, sdk.NewCoin(types.DenomOsmo, math.NewInt(10))),
			err:  types.ErrInvalidBasketName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.ValidateBasic()
			if tt.err == nil {
				require.NoError(t, err)
				require.Equal(t, []sdk.AccAddress{sdk.MustAccAddressFromBech32(sender)}, tt.msg.GetSigners())
				require.NotEmpty(t, tt.msg.GetSignBytes())
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestMsgAcknowledgeExchangeValidateBasic(t *testing.T) {
	authority := sdk.AccAddress([]byte("authority___________")).String()

	ok := types.MsgAcknowledgeExchange{Authority: authority, OperationID: 7, TokensOut: "5uosmo"}
	require.NoError(t, ok.ValidateBasic())

	failed := types.MsgAcknowledgeExchange{Authority: authority, OperationID: 7, Error: "timeout"}
	require.NoError(t, failed.ValidateBasic())

	both := types.MsgAcknowledgeExchange{Authority: authority, OperationID: 7, TokensOut: "5uosmo", Error: "timeout"}
	require.ErrorIs(t, both.ValidateBasic(), types.ErrInvalidEntryParams)

	neither := types.MsgAcknowledgeExchange{Authority: authority, OperationID: 7}
	require.ErrorIs(t, neither.ValidateBasic(), types.ErrInvalidEntryParams)

	zero := types.MsgAcknowledgeExchange{Authority: authority, TokensOut: "5uosmo"}
	require.ErrorIs(t, zero.ValidateBasic(), types.ErrOperationNotFound)
}

func TestMsgRegisterBasketValidateBasic(t *testing.T) {
	authority := sdk.AccAddress([]byte("authority___________")).String()
	routes := []types.Route{{PoolID: 2, TokenOutDenom: "uatom"}, {PoolID: 3, TokenOutDenom: "ujuno"}}

	require.NoError(t, types.NewMsgRegisterBasket(authority, "index", routes, []uint64{50, 50}, "IDX").ValidateBasic())
	require.ErrorIs(t, types.NewMsgRegisterBasket(authority, "index", routes, []uint64{50, 50}, " ").ValidateBasic(), types.ErrInvalidEntryParams)
	require.ErrorIs(t, types.NewMsgRegisterBasket(authority, "a/b", routes, []uint64{50, 50}, "IDX").ValidateBasic(), types.ErrInvalidBasketName)
	require.ErrorIs(t, types.NewMsgRegisterBasket("x", "index", routes, []uint64{50, 50}, "IDX").ValidateBasic(), types.ErrInvalidAddress)
}
