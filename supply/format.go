package supply

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders a raw base-unit amount as a whole-token decimal string.
// Output is plain decimal notation: no exponent, no leading zeros, no
// trailing fractional zeros. A nil amount renders as "0".
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil || raw.Sign() == 0 {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}
