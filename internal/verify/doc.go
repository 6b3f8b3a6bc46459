// Package verify implements the dataset verification workflow used by the
// sdsaudit CLI.
//
// It exposes CommandBuilder for wiring the verify Cobra command, Service for
// driving a verification programmatically, and the collaborator interfaces
// for credentials, authentication, the remote session, the local tree, and
// prompting.
package verify
