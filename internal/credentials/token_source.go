package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

const (
	sourceSeparatorConstant             = ":"
	environmentSourceKindValueConstant  = "env"
	fileSourceKindValueConstant         = "file"
	sourceMissingMessageConstant        = "secret source must be provided"
	environmentNameMissingMessage       = "environment variable name must be provided"
	filePathMissingMessageConstant      = "secret file path must be provided"
	environmentValueMissingTemplate     = "environment variable %s is not set"
	sourceFileReadErrorTemplateConstant = "unable to read secret file %s: %w"
	sourceFileEmptyTemplateConstant     = "secret file %s is empty"
	unsupportedSourceKindTemplate       = "unsupported secret source type %q"
)

// SourceKind names where a secret value is read from.
type SourceKind string

// Supported source kinds.
const (
	SourceKindEnvironment SourceKind = SourceKind(environmentSourceKindValueConstant)
	SourceKindFile        SourceKind = SourceKind(fileSourceKindValueConstant)
)

// Source points at a single secret value.
type Source struct {
	Kind      SourceKind
	Reference string
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// ParseSource interprets "env:NAME", "file:/path" or a bare environment
// variable name.
func ParseSource(sourceValue string) (Source, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return Source{}, errors.New(sourceMissingMessageConstant)
	}

	kindValue, reference, hasKind := strings.Cut(trimmedValue, sourceSeparatorConstant)
	if !hasKind {
		return Source{Kind: SourceKindEnvironment, Reference: trimmedValue}, nil
	}
	reference = strings.TrimSpace(reference)

	switch SourceKind(strings.ToLower(strings.TrimSpace(kindValue))) {
	case SourceKindEnvironment:
		if len(reference) == 0 {
			return Source{}, errors.New(environmentNameMissingMessage)
		}
		return Source{Kind: SourceKindEnvironment, Reference: reference}, nil
	case SourceKindFile:
		if len(reference) == 0 {
			return Source{}, errors.New(filePathMissingMessageConstant)
		}
		return Source{Kind: SourceKindFile, Reference: reference}, nil
	default:
		return Source{}, fmt.Errorf(unsupportedSourceKindTemplate, kindValue)
	}
}

// SourceResolver reads secret values from environment variables or files.
type SourceResolver struct {
	environmentLookup EnvironmentLookup
	fileSystem        afero.Fs
}

// NewSourceResolver constructs a SourceResolver. Nil arguments select the
// process environment and the OS filesystem.
func NewSourceResolver(environmentLookup EnvironmentLookup, fileSystem afero.Fs) *SourceResolver {
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &SourceResolver{environmentLookup: environmentLookup, fileSystem: fileSystem}
}

// Resolve returns the trimmed secret value the source points at.
func (resolver *SourceResolver) Resolve(source Source) (string, error) {
	switch source.Kind {
	case SourceKindEnvironment:
		value, found := resolver.environmentLookup(source.Reference)
		trimmedValue := strings.TrimSpace(value)
		if !found || len(trimmedValue) == 0 {
			return "", fmt.Errorf(environmentValueMissingTemplate, source.Reference)
		}
		return trimmedValue, nil
	case SourceKindFile:
		contents, readError := afero.ReadFile(resolver.fileSystem, source.Reference)
		if readError != nil {
			return "", fmt.Errorf(sourceFileReadErrorTemplateConstant, source.Reference, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(sourceFileEmptyTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	default:
		return "", fmt.Errorf(unsupportedSourceKindTemplate, source.Kind)
	}
}
