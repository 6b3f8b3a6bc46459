package verify

import (
	"errors"

	"github.com/temirov/sdsaudit/internal/credentials"
	"github.com/temirov/sdsaudit/internal/pennsieve"
)

var (
	// ErrLocalRootMissing reports a local dataset folder that does not exist
	// or is not a directory.
	ErrLocalRootMissing = errors.New("local dataset folder does not exist or is not a directory")
	// ErrDatasetMissing reports an empty or unknown dataset identifier.
	ErrDatasetMissing = errors.New("pennsieve dataset not found")
	// ErrAuthenticationFailed reports a failed token exchange.
	ErrAuthenticationFailed = pennsieve.ErrAuthenticationFailed
	// ErrProfileNotFound reports a missing credentials profile.
	ErrProfileNotFound = credentials.ErrProfileNotFound
)
