// Package pennsieve talks to the Pennsieve REST API: it exchanges profile
// credentials for an access token, resolves a dataset's top-level SDS
// folders, and lists package children for reconciliation.
package pennsieve
