package verify

import (
	"context"

	"github.com/temirov/sdsaudit/internal/credentials"
	"github.com/temirov/sdsaudit/internal/reconcile"
)

// CredentialsLoader resolves the Pennsieve API key pair.
type CredentialsLoader interface {
	Load(request credentials.Request) (credentials.Credentials, error)
}

// ProfileCatalog exposes the profiles available in the profile file.
type ProfileCatalog interface {
	DefaultProfile(profileFilePath string) (string, error)
	Profiles(profileFilePath string) ([]string, error)
}

// Authenticator exchanges an API key pair for an access token.
type Authenticator interface {
	Authenticate(executionContext context.Context, apiToken string, apiSecret string) (string, error)
}

// RemoteSession is an authenticated view of the remote dataset store.
type RemoteSession interface {
	reconcile.RemoteTreeClient
	ResolveTopLevelContainers(executionContext context.Context, datasetID string, names []string) (map[string]string, error)
}

// RemoteSessionFactory opens a RemoteSession for an access token.
type RemoteSessionFactory func(accessToken string) RemoteSession

// LocalTree lists local directories and checks the dataset root.
type LocalTree interface {
	reconcile.LocalTreeReader
	IsDirectory(path string) (bool, error)
}

// Prompter collects missing inputs and confirmations interactively.
type Prompter interface {
	Ask(prompt string) (string, error)
	Confirm(prompt string) (bool, error)
}
