// Package report turns reconciliation results into the CSV mismatch log and
// the console summary.
package report
