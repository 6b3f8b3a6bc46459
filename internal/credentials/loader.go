package credentials

import (
	"fmt"
	"strings"
)

const (
	apiTokenSourceTemplateConstant  = "api token source: %w"
	apiSecretSourceTemplateConstant = "api secret source: %w"
)

// Request describes where to look for a key pair. Non-empty sources take
// precedence over the profile values; the profile file is not consulted when
// both sources are given.
type Request struct {
	ProfileFile     string
	Profile         string
	APITokenSource  string
	APISecretSource string
}

// RequiresProfile reports whether the profile file has to be read.
func (request Request) RequiresProfile() bool {
	return len(strings.TrimSpace(request.APITokenSource)) == 0 || len(strings.TrimSpace(request.APISecretSource)) == 0
}

// Loader combines profile and source lookups.
type Loader struct {
	profileReader  *ProfileReader
	sourceResolver *SourceResolver
}

// NewLoader constructs a Loader.
func NewLoader(profileReader *ProfileReader, sourceResolver *SourceResolver) *Loader {
	if profileReader == nil {
		profileReader = NewProfileReader(nil)
	}
	if sourceResolver == nil {
		sourceResolver = NewSourceResolver(nil, nil)
	}
	return &Loader{profileReader: profileReader, sourceResolver: sourceResolver}
}

// Load resolves the key pair described by the request.
func (loader *Loader) Load(request Request) (Credentials, error) {
	var credentials Credentials
	if request.RequiresProfile() {
		profileCredentials, profileError := loader.profileReader.Read(request.ProfileFile, request.Profile)
		if profileError != nil {
			return Credentials{}, profileError
		}
		credentials = profileCredentials
	}

	if len(strings.TrimSpace(request.APITokenSource)) > 0 {
		token, tokenError := loader.resolve(request.APITokenSource)
		if tokenError != nil {
			return Credentials{}, fmt.Errorf(apiTokenSourceTemplateConstant, tokenError)
		}
		credentials.APIToken = token
	}

	if len(strings.TrimSpace(request.APISecretSource)) > 0 {
		secret, secretError := loader.resolve(request.APISecretSource)
		if secretError != nil {
			return Credentials{}, fmt.Errorf(apiSecretSourceTemplateConstant, secretError)
		}
		credentials.APISecret = secret
	}

	return credentials, nil
}

func (loader *Loader) resolve(sourceValue string) (string, error) {
	source, parseError := ParseSource(sourceValue)
	if parseError != nil {
		return "", parseError
	}
	return loader.sourceResolver.Resolve(source)
}
