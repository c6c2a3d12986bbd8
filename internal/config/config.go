package config

import "time"

// Job names accepted in jobs / SQUIRE_JOBS.
const (
	JobOrderBook     = "order-book"
	JobNewOrders     = "new-orders"
	JobJournalOrders = "journal-orders"
)

// Config is the root configuration for a squire run.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Timezone  string          `yaml:"timezone"` // IANA name used for sheet dates and checkpoints
	Jobs      []string        `yaml:"jobs"`
	API       APIConfig       `yaml:"api"`
	Exchanges ExchangesConfig `yaml:"exchanges"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Notion    NotionConfig    `yaml:"notion"`
	Archive   DBConfig        `yaml:"archive"` // Optional; enabled when host is set
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// APIConfig holds HTTP client settings shared by exchanges and Notion.
type APIConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// ExchangesConfig holds exchange endpoints and accounts.
type ExchangesConfig struct {
	BinanceURL     string          `yaml:"binance_url"`
	MexcSpotURL    string          `yaml:"mexc_spot_url"`
	MexcFuturesURL string          `yaml:"mexc_futures_url"`
	Binance        []AccountConfig `yaml:"binance"`
	Mexc           []AccountConfig `yaml:"mexc"`
}

// AccountConfig is one exchange account. Name is the prefix of the account
// labels that route to it, e.g. "Binance Main".
type AccountConfig struct {
	Name      string `yaml:"name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// SheetsConfig holds Google Sheets settings.
type SheetsConfig struct {
	SpreadsheetID      string `yaml:"spreadsheet_id"`
	OrderBookSheet     string `yaml:"order_book_sheet"`
	NewOrdersSheet     string `yaml:"new_orders_sheet"`
	ServiceAccountFile string `yaml:"service_account_file"` // Service account JSON key
	UserTokenFile      string `yaml:"user_token_file"`      // Authorized user token JSON
	UserSecretFile     string `yaml:"user_secret_file"`     // OAuth client secret JSON
	Breaker            string `yaml:"breaker"`              // Row marker separating checkpoints from orders
}

// NotionConfig holds Notion API settings.
type NotionConfig struct {
	BaseURL           string `yaml:"base_url"`
	Version           string `yaml:"version"`
	Token             string `yaml:"token"`
	JournalDatabaseID string `yaml:"journal_database_id"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// RunsJob reports whether the named job is selected.
func (c *Config) RunsJob(name string) bool {
	for _, j := range c.Jobs {
		if j == name {
			return true
		}
	}
	return false
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
