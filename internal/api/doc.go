// Package api provides the REST client shared by the exchange adapters and the
// journal document store.
//
// Every request is built fresh per attempt so that signed requests carry a new
// timestamp after a retry. Query strings are sent verbatim: exchanges verify
// the signature against the exact bytes on the wire.
//
// Endpoints used:
//   - Binance: https://api.binance.com
//   - Mexc spot: https://api.mexc.com
//   - Mexc futures: https://contract.mexc.com
//   - Notion: https://api.notion.com/v1
package api
