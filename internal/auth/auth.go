// Package auth signs exchange API requests with HMAC-SHA256.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Credentials holds the API key and secret for one exchange account.
type Credentials struct {
	Account string // Configured account name, e.g. "Binance Main"
	APIKey  string // Sent in clear as a header
	Secret  string // HMAC key, never sent
}

// NewCredentials validates and returns credentials for an account.
func NewCredentials(account, apiKey, secret string) (*Credentials, error) {
	if account == "" {
		return nil, errors.New("account name is required")
	}
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	if secret == "" {
		return nil, errors.New("API secret is required")
	}
	return &Credentials{Account: account, APIKey: apiKey, Secret: secret}, nil
}

// Sign returns the lowercase hex HMAC-SHA256 of payload keyed by the secret.
func (c *Credentials) Sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.Secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Clock issues request timestamps in milliseconds since epoch. Successive
// calls never return the same value twice, even within one millisecond.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock returns a Clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// TimestampMs returns the next timestamp.
func (c *Clock) TimestampMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Param is one query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter list. Exchanges disagree on whether the
// signed string keeps insertion order or sorts by key, so both are offered.
type Params []Param

// Add appends a parameter.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Encode joins the parameters in insertion order as key=value&...
func (p Params) Encode() string {
	parts := make([]string, len(p))
	for i, kv := range p {
		parts[i] = url.QueryEscape(kv.Key) + "=" + url.QueryEscape(kv.Value)
	}
	return strings.Join(parts, "&")
}

// Sorted returns a copy ordered by key.
func (p Params) Sorted() Params {
	out := make(Params, len(p))
	copy(out, p)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
