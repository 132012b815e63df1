package lifecycle

import "github.com/shopspring/decimal"

// ProcessingFeeRate is charged on the requested amount once, at submission.
var ProcessingFeeRate = decimal.RequireFromString("0.04")

func ProcessingFee(requested decimal.Decimal) decimal.Decimal {
	return requested.Mul(ProcessingFeeRate).Round(2)
}
