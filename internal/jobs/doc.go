// Package jobs holds the reconciliation jobs and the runner that executes
// them in sequence.
//
// Each job contains failures to the smallest unit of work: one order book
// row, one account or one journal entry. Only a failure to read the work
// list itself ends a job early, and even then the runner moves on to the
// next job.
package jobs
