package verify

import (
	"strings"
	"time"

	"github.com/temirov/sdsaudit/internal/pennsieve"
	"github.com/temirov/sdsaudit/internal/report"
)

const (
	defaultProfileFileConstant   = "~/.pennsieve/config.ini"
	defaultParallelismConstant   = 1
	defaultRetryIntervalConstant = time.Second
)

// CommandConfiguration captures persistent settings for the verify command.
type CommandConfiguration struct {
	DatasetID           string `mapstructure:"dataset"`
	Root                string `mapstructure:"root"`
	Output              string `mapstructure:"output"`
	Profile             string `mapstructure:"profile"`
	Parallelism         int    `mapstructure:"parallelism"`
	CountEmptyAsPresent bool   `mapstructure:"count_empty_as_present"`
	AssumeYes           bool   `mapstructure:"assume_yes"`
}

// PennsieveConfiguration captures API access settings.
type PennsieveConfiguration struct {
	APIURL          string        `mapstructure:"api_url"`
	PageSize        int           `mapstructure:"page_size"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryCount      int           `mapstructure:"retry_count"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	ProfileFile     string        `mapstructure:"profile_file"`
	APITokenSource  string        `mapstructure:"api_token_source"`
	APISecretSource string        `mapstructure:"api_secret_source"`
}

// DefaultCommandConfiguration returns baseline values for the verify command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Output:      report.DefaultFileName,
		Parallelism: defaultParallelismConstant,
	}
}

// DefaultPennsieveConfiguration returns baseline values for API access.
func DefaultPennsieveConfiguration() PennsieveConfiguration {
	return PennsieveConfiguration{
		APIURL:        pennsieve.DefaultBaseURL,
		PageSize:      pennsieve.DefaultPageSize,
		Timeout:       pennsieve.DefaultTimeout,
		RetryCount:    pennsieve.DefaultRetryCount,
		RetryInterval: defaultRetryIntervalConstant,
		ProfileFile:   defaultProfileFileConstant,
	}
}

// Sanitize trims configured values and applies defaults to unset ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.DatasetID = strings.TrimSpace(configuration.DatasetID)
	sanitized.Root = strings.TrimSpace(configuration.Root)
	sanitized.Output = strings.TrimSpace(configuration.Output)
	if len(sanitized.Output) == 0 {
		sanitized.Output = report.DefaultFileName
	}
	sanitized.Profile = strings.TrimSpace(configuration.Profile)
	if sanitized.Parallelism < 1 {
		sanitized.Parallelism = defaultParallelismConstant
	}
	return sanitized
}

// Sanitize trims configured values and applies defaults to unset ones.
func (configuration PennsieveConfiguration) Sanitize() PennsieveConfiguration {
	defaults := DefaultPennsieveConfiguration()
	sanitized := configuration
	sanitized.APIURL = strings.TrimSpace(configuration.APIURL)
	if len(sanitized.APIURL) == 0 {
		sanitized.APIURL = defaults.APIURL
	}
	if sanitized.PageSize <= 0 {
		sanitized.PageSize = defaults.PageSize
	}
	if sanitized.Timeout <= 0 {
		sanitized.Timeout = defaults.Timeout
	}
	if sanitized.RetryCount < 0 {
		sanitized.RetryCount = 0
	}
	if sanitized.RetryInterval < 0 {
		sanitized.RetryInterval = 0
	}
	sanitized.ProfileFile = strings.TrimSpace(configuration.ProfileFile)
	if len(sanitized.ProfileFile) == 0 {
		sanitized.ProfileFile = defaults.ProfileFile
	}
	sanitized.APITokenSource = strings.TrimSpace(configuration.APITokenSource)
	sanitized.APISecretSource = strings.TrimSpace(configuration.APISecretSource)
	return sanitized
}

// ClientConfiguration converts the settings into a pennsieve.Configuration.
func (configuration PennsieveConfiguration) ClientConfiguration(userAgent string) pennsieve.Configuration {
	return pennsieve.Configuration{
		BaseURL:       configuration.APIURL,
		PageSize:      configuration.PageSize,
		Timeout:       configuration.Timeout,
		RetryCount:    configuration.RetryCount,
		RetryInterval: configuration.RetryInterval,
		UserAgent:     userAgent,
	}
}
