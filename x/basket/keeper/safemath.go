package keeper

import (
	"math/big"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/paw-chain/basket/x/basket/types"
)

// maxAmount is the exclusive bound of math.Int (2^256).
var maxAmount = new(big.Int).Lsh(big.NewInt(1), 256)

func checked(result *big.Int, op string) (math.Int, error) {
	if result.Cmp(maxAmount) >= 0 {
		return math.Int{}, sdkerrors.Wrapf(types.ErrOverflow, "%s result exceeds maximum value", op)
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeAdd adds two math.Int values with overflow checking
func SafeAdd(a, b math.Int) (math.Int, error) {
	return checked(new(big.Int).Add(a.BigInt(), b.BigInt()), "addition")
}

// SafeSub subtracts two math.Int values with underflow checking
func SafeSub(a, b math.Int) (math.Int, error) {
	if a.LT(b) {
		return math.Int{}, sdkerrors.Wrapf(types.ErrOverflow, "underflow: cannot subtract %s from %s", b, a)
	}
	return math.NewIntFromBigInt(new(big.Int).Sub(a.BigInt(), b.BigInt())), nil
}

// SafeMulDiv performs (a * b) / c, rejecting an intermediate product that
// does not fit.
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, sdkerrors.Wrap(types.ErrOverflow, "division by zero")
	}
	product, err := checked(new(big.Int).Mul(a.BigInt(), b.BigInt()), "multiplication")
	if err != nil {
		return math.Int{}, err
	}
	return math.NewIntFromBigInt(new(big.Int).Quo(product.BigInt(), c.BigInt())), nil
}

// SafeAddUint32 adds two counters with overflow checking
func SafeAddUint32(a, b uint32) (uint32, error) {
	if a > (1<<32 - 1 - b) {
		return 0, sdkerrors.Wrap(types.ErrOverflow, "uint32 addition overflow")
	}
	return a + b, nil
}
