// Package credentials locates the Pennsieve API key pair, either from a
// profile in the Pennsieve CLI configuration file or from env:/file: token
// sources that override it.
package credentials
