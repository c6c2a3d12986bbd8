// Package archive keeps a PostgreSQL copy of every order the jobs fetch.
//
// Rows are upserted into order_archive keyed by (account, symbol, order_id),
// since exchanges number orders per symbol. The table holds the latest state
// seen for each order along with the run and job that last saw it. Archiving
// is optional and never fails a job.
package archive
