package exchange

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rtpsquire/squire/internal/model"
)

// flexID accepts order ids sent either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// compactSymbol formats "BTC/USDT" as "BTCUSDT".
func compactSymbol(symbol string) string {
	return strings.ReplaceAll(model.CanonicalSymbol(symbol), "/", "")
}

// underscoreSymbol formats "BTC/USDT" as "BTC_USDT".
func underscoreSymbol(symbol string) string {
	return strings.ReplaceAll(model.CanonicalSymbol(symbol), "/", "_")
}
