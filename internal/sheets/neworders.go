package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rtpsquire/squire/internal/model"
)

// Checkpoint region markers.
const (
	checkpointHeader = "Account"
	deactivated      = "Deactivated"
)

// newOrdersHeader heads the orders region below the breaker.
var newOrdersHeader = []string{
	"Last Updated", "Account", "Symbol", "Side", "Average", "Executed", "Fee", "Fee Currency", "Order ID",
}

// Checkpoint is an account's last updated time from the new orders sheet.
type Checkpoint struct {
	Account string
	At      time.Time
	Present bool  // False when the cell is blank
	Err     error // Set when the cell does not parse
}

// AccountOrders are the orders found for one account label.
type AccountOrders struct {
	Account string
	Orders  []model.Order
}

// breakerIndex returns the zero-based index of the breaker row.
func (s *Store) breakerIndex(sheet [][]string) (int, error) {
	for i, r := range sheet {
		if strings.TrimSpace(cell(r, 0)) == s.cfg.Breaker {
			return i, nil
		}
	}
	return 0, fmt.Errorf("breaker row %q not found in sheet %q", s.cfg.Breaker, s.cfg.NewOrdersSheet)
}

// Checkpoints returns the checkpoint of every active account, in sheet
// order. Rows above the breaker are "<account label> | <last updated>";
// the header row and accounts marked Deactivated are skipped.
func (s *Store) Checkpoints(ctx context.Context) ([]Checkpoint, error) {
	sheet, err := s.sheet(ctx, s.cfg.NewOrdersSheet)
	if err != nil {
		return nil, err
	}
	breaker, err := s.breakerIndex(sheet)
	if err != nil {
		return nil, err
	}

	var out []Checkpoint
	for _, r := range sheet[:breaker] {
		account := strings.TrimSpace(cell(r, 0))
		value := strings.TrimSpace(cell(r, 1))
		if account == "" || account == checkpointHeader || value == deactivated {
			continue
		}

		cp := Checkpoint{Account: account}
		if value != "" {
			at, err := time.ParseInLocation(CheckpointFormat, value, s.cfg.Location)
			if err != nil {
				cp.Err = fmt.Errorf("parse last updated %q: %w", value, err)
			} else {
				cp.At, cp.Present = at, true
			}
		}
		out = append(out, cp)
	}

	s.logger.Info("read checkpoints", "accounts", len(out))
	return out, nil
}

// SetCheckpoint writes an account's last updated time.
func (s *Store) SetCheckpoint(ctx context.Context, account string, at time.Time) error {
	sheet, err := s.sheet(ctx, s.cfg.NewOrdersSheet)
	if err != nil {
		return err
	}
	breaker, err := s.breakerIndex(sheet)
	if err != nil {
		return err
	}

	for i, r := range sheet[:breaker] {
		if strings.TrimSpace(cell(r, 0)) != account {
			continue
		}
		a1 := cellA1(s.cfg.NewOrdersSheet, 1, i+1)
		value := at.In(s.cfg.Location).Format(CheckpointFormat)
		if err := s.values.Update(ctx, a1, [][]string{{value}}); err != nil {
			return fmt.Errorf("set checkpoint for %q: %w", account, err)
		}
		s.logger.Info("set checkpoint", "account", account, "at", value)
		return nil
	}
	return fmt.Errorf("account %q not found above the breaker row", account)
}

// ReplaceNewOrders clears everything below the breaker row and writes the
// header followed by every order, accounts in the given order.
func (s *Store) ReplaceNewOrders(ctx context.Context, accounts []AccountOrders) error {
	sheet, err := s.sheet(ctx, s.cfg.NewOrdersSheet)
	if err != nil {
		return err
	}
	breaker, err := s.breakerIndex(sheet)
	if err != nil {
		return err
	}
	start := breaker + 2 // 1-based row after the breaker

	clearRange := fmt.Sprintf("%s!A%d:Z", quoteSheet(s.cfg.NewOrdersSheet), start)
	if err := s.values.Clear(ctx, clearRange); err != nil {
		return fmt.Errorf("clear new orders: %w", err)
	}

	data := [][]string{newOrdersHeader}
	for _, ao := range accounts {
		for _, o := range ao.Orders {
			data = append(data, s.newOrderRow(ao.Account, o))
		}
	}

	a1 := fmt.Sprintf("%s!A%d", quoteSheet(s.cfg.NewOrdersSheet), start)
	if err := s.values.Update(ctx, a1, data); err != nil {
		return fmt.Errorf("write new orders: %w", err)
	}

	s.logger.Info("replaced new orders", "orders", len(data)-1, "start_row", start)
	return nil
}

func (s *Store) newOrderRow(account string, o model.Order) []string {
	var fee, feeCurrency string
	if o.Fee != nil {
		fee, feeCurrency = o.Fee.Amount.String(), o.Fee.Currency
	}
	return []string{
		o.Timestamp.In(s.cfg.Location).Format(CheckpointFormat),
		account,
		o.Symbol,
		string(o.Side),
		o.AveragePrice.String(),
		o.ExecutedQuantity.String(),
		fee,
		feeCurrency,
		o.OrderID,
	}
}
