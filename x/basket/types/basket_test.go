package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/basket/x/basket/types"
)

func TestValidateComposition(t *testing.T) {
	two := []types.Route{
		{PoolID: 2, TokenOutDenom: "uatom"},
		{PoolID: 3, TokenOutDenom: "ujuno"},
	}

	tests := []struct {
		name    string
		routes  []types.Route
		weights []uint64
		err     error
	}{
		{name: "valid", routes: two, weights: []uint64{33, 67}},
		{name: "single component", routes: two[:1], weights: []uint64{100}},
		{name: "no routes", routes: nil, weights: nil, err: types.ErrInvalidEntryParams},
		{name: "length mismatch", routes: two, weights: []uint64{100}, err: types.ErrInvalidEntryParams},
		{name: "sum below total", routes: two, weights: []uint64{30, 30}, err: types.ErrInvalidRatio},
		{name: "sum above total", routes: two, weights: []uint64{50, 60}, err: types.ErrInvalidRatio},
		{name: "weight above total", routes: two, weights: []uint64{101, 0}, err: types.ErrInvalidRatio},
		{
			name:    "zero pool",
			routes:  []types.Route{{PoolID: 0, TokenOutDenom: "uatom"}},
			weights: []uint64{100},
			err:     types.ErrInvalidEntryParams,
		},
		{
			name:    "bad denom",
			routes:  []types.Route{{PoolID: 2, TokenOutDenom: "1"}},
			weights: []uint64{100},
			err:     types.ErrInvalidEntryParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := types.ValidateComposition(tt.routes, tt.weights)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestValidateBasketName(t *testing.T) {
	require.NoError(t, types.ValidateBasketName("index"))
	require.ErrorIs(t, types.ValidateBasketName(""), types.ErrInvalidBasketName)
	require.ErrorIs(t, types.ValidateBasketName("   "), types.ErrInvalidBasketName)
	require.ErrorIs(t, types.ValidateBasketName("a/b"), types.ErrInvalidBasketName)
}

func TestBasketSameComposition(t *testing.T) {
	basket := types.Basket{
		Name:         "index",
		Routes:       []types.Route{{PoolID: 2, TokenOutDenom: "uatom"}, {PoolID: 3, TokenOutDenom: "ujuno"}},
		Weights:      []uint64{40, 60},
		IssuerSymbol: "IDX",
	}
	require.NoError(t, basket.Validate())

	require.True(t, basket.SameComposition(basket.Routes, basket.Weights))
	require.False(t, basket.SameComposition(basket.Routes, []uint64{60, 40}))
	require.False(t, basket.SameComposition(basket.Routes[:1], []uint64{100}))
	require.False(t, basket.SameComposition(
		[]types.Route{{PoolID: 4, TokenOutDenom: "uatom"}, {PoolID: 3, TokenOutDenom: "ujuno"}},
		basket.Weights,
	))

	basket.IssuerSymbol = ""
	require.ErrorIs(t, basket.Validate(), types.ErrInvalidEntryParams)
}
