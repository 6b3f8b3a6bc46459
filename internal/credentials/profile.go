package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

const (
	globalSectionNameConstant        = "global"
	defaultProfileKeyConstant        = "default_profile"
	apiTokenKeyConstant              = "api_token"
	apiSecretKeyConstant             = "api_secret"
	profileFileReadTemplateConstant  = "read profile file %s: %w"
	profileFileParseTemplateConstant = "parse profile file %s: %w"
	profileMissingTemplateConstant   = "%w: %q in %s"
	profileIncompleteTemplate        = "%w: profile %q lacks %s"
)

var (
	// ErrProfileNotFound reports a missing profile section or an absent
	// default profile.
	ErrProfileNotFound = errors.New("pennsieve profile not found")
	// ErrProfileFileMissing reports that the profile file does not exist.
	ErrProfileFileMissing = errors.New("pennsieve profile file not found")
	// ErrCredentialsIncomplete reports a profile without an API token or secret.
	ErrCredentialsIncomplete = errors.New("pennsieve credentials incomplete")
)

// Credentials is a Pennsieve API key pair.
type Credentials struct {
	APIToken  string
	APISecret string
}

// ProfileReader reads profiles from a Pennsieve CLI config.ini file.
type ProfileReader struct {
	fileSystem afero.Fs
}

// NewProfileReader constructs a ProfileReader. A nil filesystem selects the
// OS filesystem.
func NewProfileReader(fileSystem afero.Fs) *ProfileReader {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &ProfileReader{fileSystem: fileSystem}
}

// DefaultProfile returns the [global] default_profile value, or an empty
// string when none is configured.
func (reader *ProfileReader) DefaultProfile(profileFilePath string) (string, error) {
	file, loadError := reader.load(profileFilePath)
	if loadError != nil {
		return "", loadError
	}
	return defaultProfile(file), nil
}

// Profiles lists the credential profiles defined in the file.
func (reader *ProfileReader) Profiles(profileFilePath string) ([]string, error) {
	file, loadError := reader.load(profileFilePath)
	if loadError != nil {
		return nil, loadError
	}

	var profiles []string
	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection || name == globalSectionNameConstant {
			continue
		}
		profiles = append(profiles, name)
	}
	return profiles, nil
}

// Read returns the credentials of the named profile. An empty name selects
// the default profile.
func (reader *ProfileReader) Read(profileFilePath string, profileName string) (Credentials, error) {
	file, loadError := reader.load(profileFilePath)
	if loadError != nil {
		return Credentials{}, loadError
	}

	selectedProfile := strings.TrimSpace(profileName)
	if len(selectedProfile) == 0 {
		selectedProfile = defaultProfile(file)
	}
	if len(selectedProfile) == 0 || selectedProfile == globalSectionNameConstant || !file.HasSection(selectedProfile) {
		return Credentials{}, fmt.Errorf(profileMissingTemplateConstant, ErrProfileNotFound, selectedProfile, profileFilePath)
	}

	section := file.Section(selectedProfile)
	credentials := Credentials{
		APIToken:  strings.TrimSpace(section.Key(apiTokenKeyConstant).String()),
		APISecret: strings.TrimSpace(section.Key(apiSecretKeyConstant).String()),
	}
	if len(credentials.APIToken) == 0 {
		return Credentials{}, fmt.Errorf(profileIncompleteTemplate, ErrCredentialsIncomplete, selectedProfile, apiTokenKeyConstant)
	}
	if len(credentials.APISecret) == 0 {
		return Credentials{}, fmt.Errorf(profileIncompleteTemplate, ErrCredentialsIncomplete, selectedProfile, apiSecretKeyConstant)
	}
	return credentials, nil
}

func (reader *ProfileReader) load(profileFilePath string) (*ini.File, error) {
	contents, readError := afero.ReadFile(reader.fileSystem, profileFilePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, fmt.Errorf(profileFileReadTemplateConstant, profileFilePath, errors.Join(ErrProfileFileMissing, readError))
		}
		return nil, fmt.Errorf(profileFileReadTemplateConstant, profileFilePath, readError)
	}

	file, parseError := ini.Load(contents)
	if parseError != nil {
		return nil, fmt.Errorf(profileFileParseTemplateConstant, profileFilePath, parseError)
	}
	return file, nil
}

func defaultProfile(file *ini.File) string {
	if !file.HasSection(globalSectionNameConstant) {
		return ""
	}
	return strings.TrimSpace(file.Section(globalSectionNameConstant).Key(defaultProfileKeyConstant).String())
}
