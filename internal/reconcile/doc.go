// Package reconcile compares a local dataset directory tree with the
// matching remote container hierarchy and classifies every discrepancy into
// one of six categories.
//
// Reconciler walks both trees depth-first, pairing children by name. Remote
// containers are listed through a RemoteTreeClient and local directories
// through a LocalTreeReader; each call returns its own Result which callers
// merge, so sibling subtrees may be reconciled concurrently.
package reconcile
