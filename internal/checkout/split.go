package checkout

import "github.com/shopspring/decimal"

// platformFeeRate is the fixed platform cut on every sale.
var platformFeeRate = decimal.NewFromInt(1).Div(decimal.NewFromInt(10))

// SplitPrice divides a sale price into the creator and platform shares under
// the fixed 90/10 policy. The platform share is rounded half-even to the cent
// and the creator receives the exact remainder, so the two shares always sum
// back to the full price. Non-positive prices split to zero/zero.
func SplitPrice(price decimal.Decimal) (creatorShare, platformShare decimal.Decimal) {
	if price.Sign() <= 0 {
		return decimal.Zero, decimal.Zero
	}
	platformShare = price.Mul(platformFeeRate).RoundBank(2)
	creatorShare = price.Sub(platformShare)
	return creatorShare, platformShare
}
