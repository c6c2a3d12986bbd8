// Package exchange implements the exchange adapters and the account router.
//
// An adapter normalizes one exchange's order endpoints into model.Order:
//   - Binance: spot (/api/v3) and margin (/sapi/v1/margin)
//   - Mexc: spot (/api/v3) and futures (contract API)
//
// Orders that exist but never executed (unsettled, invalid, cancelled with
// nothing filled) are reported as not found rather than as errors.
package exchange
