// Package sheets is the tabular store backed by Google Sheets.
//
// It reads and writes two sheets of one spreadsheet:
//
//   - The order book: a header row followed by one order per row, fourteen
//     columns wide (see Column). A row whose refresh column is TRUE is
//     pending reconciliation.
//   - The new orders sheet: an "Account | Last Updated" checkpoint region,
//     a breaker row, then the orders region rewritten by each run.
//
// Sheet contents are cached per sheet. The cache is filled on first read
// and is only changed by RefreshCache and Invalidate; writes go straight to
// the spreadsheet.
package sheets
