package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the optional YAML config file.
const EnvConfigPath = "SQUIRE_CONFIG"

// LoadFile reads a YAML config file and expands environment variables.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// Load builds the configuration for a run.
// Priority: environment > .env file > YAML file > defaults.
func Load() (*Config, error) {
	// Optional; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv(EnvConfigPath); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Log.Level, "SQUIRE_LOG_LEVEL")
	setString(&c.Timezone, "SQUIRE_TIMEZONE")
	if v := os.Getenv("SQUIRE_JOBS"); v != "" {
		c.Jobs = splitList(v)
	}

	setString(&c.Sheets.SpreadsheetID, "GS_SS_ID")
	setString(&c.Sheets.OrderBookSheet, "GS_OB_SHEET_NAME")
	setString(&c.Sheets.NewOrdersSheet, "GS_NEWORDERS_SHEET_NAME")
	setString(&c.Sheets.ServiceAccountFile, "GS_SERVICE_ACCOUNT_FILE")
	setString(&c.Sheets.UserTokenFile, "GS_USER_TOKEN_FILE")
	setString(&c.Sheets.UserSecretFile, "GS_USER_SECRET_FILE")

	setString(&c.Notion.Token, "NOTION_TOKEN")
	setString(&c.Notion.JournalDatabaseID, "NOTION_JOURNAL_DATABASE_ID")

	var err error
	if c.Exchanges.Binance, err = envAccounts("BINANCE", c.Exchanges.Binance); err != nil {
		return err
	}
	if c.Exchanges.Mexc, err = envAccounts("MEXC", c.Exchanges.Mexc); err != nil {
		return err
	}

	setString(&c.Archive.Host, "ARCHIVE_DB_HOST")
	setString(&c.Archive.Name, "ARCHIVE_DB_NAME")
	setString(&c.Archive.User, "ARCHIVE_DB_USER")
	setString(&c.Archive.Password, "ARCHIVE_DB_PASSWORD")
	setString(&c.Archive.SSLMode, "ARCHIVE_DB_SSL_MODE")
	if v := os.Getenv("ARCHIVE_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ARCHIVE_DB_PORT: %w", err)
		}
		c.Archive.Port = port
	}
	return nil
}

// envAccounts reads <PREFIX>_NAME, <PREFIX>_API_KEY and <PREFIX>_API_SECRET
// as parallel comma separated lists. When none are set the accounts from the
// config file are kept.
func envAccounts(prefix string, fallback []AccountConfig) ([]AccountConfig, error) {
	names := os.Getenv(prefix + "_NAME")
	keys := os.Getenv(prefix + "_API_KEY")
	secrets := os.Getenv(prefix + "_API_SECRET")
	if names == "" && keys == "" && secrets == "" {
		return fallback, nil
	}

	n, k, s := splitList(names), splitList(keys), splitList(secrets)
	if len(n) != len(k) || len(n) != len(s) {
		return nil, fmt.Errorf("%s_NAME, %s_API_KEY and %s_API_SECRET must list the same number of accounts (got %d, %d, %d)",
			prefix, prefix, prefix, len(n), len(k), len(s))
	}

	accounts := make([]AccountConfig, len(n))
	for i := range n {
		accounts[i] = AccountConfig{Name: n[i], APIKey: k[i], APISecret: s[i]}
	}
	return accounts, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
