// Package localtree lists local dataset directories for reconciliation,
// partitioning each directory's children into non-empty and empty folders and
// non-empty and zero-byte files.
package localtree
