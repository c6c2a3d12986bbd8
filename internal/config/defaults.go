package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel       = "info"
	DefaultTimezone       = "UTC"
	DefaultAPITimeout     = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 1 * time.Second
	DefaultBinanceURL     = "https://api.binance.com"
	DefaultMexcSpotURL    = "https://api.mexc.com"
	DefaultMexcFuturesURL = "https://contract.mexc.com"
	DefaultOrderBookSheet = "Order Book"
	DefaultNewOrdersSheet = "New Orders"
	DefaultBreaker        = "*=*=*=*=*"
	DefaultNotionURL      = "https://api.notion.com"
	DefaultNotionVersion  = "2022-06-28"
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 4
)

// DefaultJobs is the run order when no jobs are selected.
var DefaultJobs = []string{JobOrderBook, JobNewOrders, JobJournalOrders}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if len(c.Jobs) == 0 {
		c.Jobs = append([]string(nil), DefaultJobs...)
	}

	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Exchange defaults
	if c.Exchanges.BinanceURL == "" {
		c.Exchanges.BinanceURL = DefaultBinanceURL
	}
	if c.Exchanges.MexcSpotURL == "" {
		c.Exchanges.MexcSpotURL = DefaultMexcSpotURL
	}
	if c.Exchanges.MexcFuturesURL == "" {
		c.Exchanges.MexcFuturesURL = DefaultMexcFuturesURL
	}

	// Store defaults
	if c.Sheets.OrderBookSheet == "" {
		c.Sheets.OrderBookSheet = DefaultOrderBookSheet
	}
	if c.Sheets.NewOrdersSheet == "" {
		c.Sheets.NewOrdersSheet = DefaultNewOrdersSheet
	}
	if c.Sheets.Breaker == "" {
		c.Sheets.Breaker = DefaultBreaker
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = DefaultNotionURL
	}
	if c.Notion.Version == "" {
		c.Notion.Version = DefaultNotionVersion
	}

	if c.Archive.Enabled() {
		applyDBDefaults(&c.Archive)
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
}
