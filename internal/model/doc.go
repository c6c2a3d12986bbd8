// Package model defines shared data types used across the reconciliation jobs.
//
// Conventions:
//   - Prices, quantities and fees: decimal.Decimal, never float64
//   - Symbols: canonical "BASE/QUOTE" form (e.g. "BTC/USDT")
//   - Timestamps: time.Time, rendered in the configured location by the stores
//   - Account labels: "<exchange-name> <market-type>" (e.g. "Binance Main Margin")
package model
