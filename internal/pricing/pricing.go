// Package pricing holds the fixed-point price and unit conversions shared by
// the accounting engine. All math is exact decimal arithmetic; float64 never
// appears on an accounting path.
package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Fee estimation horizons, in seconds.
const (
	Day1  int64 = 86400
	Day3  int64 = 86400 * 3
	Day7  int64 = 86400 * 7
	Day30 int64 = 86400 * 30
)

// ShareDecimals is the decimal count of vault share tokens.
const ShareDecimals int32 = 18

var (
	// SecondsPerYear converts per-second fee rates to annual yield.
	SecondsPerYear = decimal.NewFromInt(31536000)

	// Q192 is the square of the 2^96 fixed-point scale used by the pool's
	// square-root price.
	Q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

	hundred = decimal.NewFromInt(100)
)

// ExponentToDecimal returns 10^decimals as an exact decimal.
func ExponentToDecimal(decimals int32) decimal.Decimal {
	return decimal.New(1, decimals)
}

// TokenAmountToDecimal converts a raw integer token amount to human units.
func TokenAmountToDecimal(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Shift(-decimals)
}

// SafeDiv divides a by b, returning zero when b is zero. This is the single
// division-by-zero policy for price inversion and APR math.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// PriceToTokenPrices converts a pool's raw square-root price (2^96 scale)
// into relative token prices. price1 is token1 per token0 adjusted for the
// tokens' decimal counts; price0 is its inverse, zero when price1 is zero.
func PriceToTokenPrices(sqrtPrice *big.Int, decimals0, decimals1 int32) (price0, price1 decimal.Decimal) {
	num := decimal.NewFromBigInt(new(big.Int).Mul(sqrtPrice, sqrtPrice), 0)
	price1 = num.
		Div(Q192).
		Mul(ExponentToDecimal(decimals0)).
		Div(ExponentToDecimal(decimals1))
	price0 = SafeDiv(decimal.New(1, 0), price1)
	return price0, price1
}

// AnnualizedPercent scales a per-second value rate against a TVL denominator:
// rate * 100 * secondsPerYear / tvl, zero when tvl is zero.
func AnnualizedPercent(ratePerSecond, tvl decimal.Decimal) decimal.Decimal {
	return SafeDiv(ratePerSecond.Mul(hundred).Mul(SecondsPerYear), tvl)
}
