package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	if len(c.Jobs) == 0 {
		return errors.New("jobs is required")
	}
	for _, j := range c.Jobs {
		switch j {
		case JobOrderBook, JobNewOrders, JobJournalOrders:
		default:
			return fmt.Errorf("unknown job %q", j)
		}
	}

	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if err := c.Sheets.validate(); err != nil {
		return err
	}

	if c.RunsJob(JobOrderBook) || c.RunsJob(JobNewOrders) {
		if len(c.Exchanges.Binance)+len(c.Exchanges.Mexc) == 0 {
			return errors.New("exchanges: at least one binance or mexc account is required")
		}
	}
	for i, a := range c.Exchanges.Binance {
		if err := a.validate(fmt.Sprintf("exchanges.binance[%d]", i)); err != nil {
			return err
		}
	}
	for i, a := range c.Exchanges.Mexc {
		if err := a.validate(fmt.Sprintf("exchanges.mexc[%d]", i)); err != nil {
			return err
		}
	}

	if c.RunsJob(JobJournalOrders) {
		if c.Notion.Token == "" {
			return errors.New("notion.token is required")
		}
		if c.Notion.JournalDatabaseID == "" {
			return errors.New("notion.journal_database_id is required")
		}
	}

	if c.Archive.Enabled() {
		if err := c.Archive.validate("archive"); err != nil {
			return err
		}
	}

	return nil
}

func (s *SheetsConfig) validate() error {
	if s.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id is required")
	}
	if s.ServiceAccountFile != "" {
		return nil
	}
	if s.UserTokenFile == "" {
		return errors.New("sheets.service_account_file or sheets.user_token_file is required")
	}
	if s.UserSecretFile == "" {
		return errors.New("sheets.user_secret_file is required")
	}
	return nil
}

func (a *AccountConfig) validate(prefix string) error {
	if a.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if a.APIKey == "" {
		return fmt.Errorf("%s.api_key is required", prefix)
	}
	if a.APISecret == "" {
		return fmt.Errorf("%s.api_secret is required", prefix)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
