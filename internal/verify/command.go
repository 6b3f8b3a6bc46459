package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sdsaudit/internal/credentials"
	"github.com/temirov/sdsaudit/internal/localtree"
	"github.com/temirov/sdsaudit/internal/pennsieve"
	"github.com/temirov/sdsaudit/internal/reconcile"
)

const (
	commandUseConstant                 = "verify"
	commandShortDescriptionConstant    = "Compare a local SDS dataset folder with a Pennsieve dataset"
	commandLongDescriptionConstant     = "verify walks the primary, source, derivative, code, docs, protocol, stimulus, and analysis folders of a local dataset, compares them by name with the matching Pennsieve dataset, prints a summary, and writes the mismatches to a CSV file."
	unexpectedArgumentsErrorConstant   = "verify does not accept positional arguments"
	commandExecutionErrorTemplate      = "verify failed: %w"
	datasetFlagNameConstant            = "dataset"
	datasetFlagDescriptionConstant     = "Pennsieve dataset identifier (prompted when empty)"
	rootFlagNameConstant               = "root"
	rootFlagDescriptionConstant        = "Local dataset folder (prompted when empty)"
	outputFlagNameConstant             = "output"
	outputFlagDescriptionConstant      = "CSV file receiving the mismatch log"
	profileFlagNameConstant            = "profile"
	profileFlagDescriptionConstant     = "Profile in the Pennsieve config.ini (defaults to [global] default_profile)"
	parallelismFlagNameConstant        = "parallelism"
	parallelismFlagDescriptionConstant = "Number of sibling folders compared concurrently"
	countEmptyFlagNameConstant         = "count-empty-as-present"
	countEmptyFlagDescriptionConstant  = "Treat empty local folders and 0kb local files as present when looking for items missing locally"
	assumeYesFlagNameConstant          = "yes"
	assumeYesFlagShorthandConstant     = "y"
	assumeYesFlagDescriptionConstant   = "Overwrite an existing CSV file without asking"
	userAgentConstant                  = "sdsaudit"
	invalidParallelismTemplateConstant = "parallelism must be at least 1, got %d"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current verify command configuration.
type ConfigurationProvider func() CommandConfiguration

// PennsieveConfigurationProvider returns the current API access configuration.
type PennsieveConfigurationProvider func() PennsieveConfiguration

// CommandBuilder assembles the verify cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider                 LoggerProvider
	ConfigurationProvider          ConfigurationProvider
	PennsieveConfigurationProvider PennsieveConfigurationProvider
	FileSystem                     afero.Fs
	EnvironmentLookup              credentials.EnvironmentLookup
	CognitoClientFactory           pennsieve.CognitoClientFactory
	Authenticator                  Authenticator
	SessionFactory                 RemoteSessionFactory
	Prompter                       Prompter
	Clock                          Clock
}

// Build constructs the cobra command for dataset verification.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(datasetFlagNameConstant, "", datasetFlagDescriptionConstant)
	command.Flags().String(rootFlagNameConstant, "", rootFlagDescriptionConstant)
	command.Flags().String(outputFlagNameConstant, defaults.Output, outputFlagDescriptionConstant)
	command.Flags().String(profileFlagNameConstant, "", profileFlagDescriptionConstant)
	command.Flags().Int(parallelismFlagNameConstant, defaults.Parallelism, parallelismFlagDescriptionConstant)
	command.Flags().Bool(countEmptyFlagNameConstant, false, countEmptyFlagDescriptionConstant)
	command.Flags().BoolP(assumeYesFlagNameConstant, assumeYesFlagShorthandConstant, false, assumeYesFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorConstant)
	}

	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	service := builder.buildService(command)
	if _, runError := service.Run(command.Context(), options); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, runError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (Options, error) {
	configuration := builder.resolveConfiguration()
	pennsieveConfiguration := builder.resolvePennsieveConfiguration()

	datasetFlagValue, datasetFlagError := command.Flags().GetString(datasetFlagNameConstant)
	if datasetFlagError != nil {
		return Options{}, datasetFlagError
	}

	rootFlagValue, rootFlagError := command.Flags().GetString(rootFlagNameConstant)
	if rootFlagError != nil {
		return Options{}, rootFlagError
	}

	outputFlagValue, outputFlagError := command.Flags().GetString(outputFlagNameConstant)
	if outputFlagError != nil {
		return Options{}, outputFlagError
	}
	outputValue := configuration.Output
	if command.Flags().Changed(outputFlagNameConstant) {
		outputValue = outputFlagValue
	}

	profileFlagValue, profileFlagError := command.Flags().GetString(profileFlagNameConstant)
	if profileFlagError != nil {
		return Options{}, profileFlagError
	}

	parallelismValue := configuration.Parallelism
	if command.Flags().Changed(parallelismFlagNameConstant) {
		parallelismFlagValue, parallelismFlagError := command.Flags().GetInt(parallelismFlagNameConstant)
		if parallelismFlagError != nil {
			return Options{}, parallelismFlagError
		}
		if parallelismFlagValue < 1 {
			return Options{}, fmt.Errorf(invalidParallelismTemplateConstant, parallelismFlagValue)
		}
		parallelismValue = parallelismFlagValue
	}

	countEmptyValue := configuration.CountEmptyAsPresent
	if command.Flags().Changed(countEmptyFlagNameConstant) {
		countEmptyValue, _ = command.Flags().GetBool(countEmptyFlagNameConstant)
	}

	assumeYesValue := configuration.AssumeYes
	if command.Flags().Changed(assumeYesFlagNameConstant) {
		assumeYesValue, _ = command.Flags().GetBool(assumeYesFlagNameConstant)
	}

	presenceMode := reconcile.PresenceNonEmptyOnly
	if countEmptyValue {
		presenceMode = reconcile.PresenceIncludeEmpty
	}

	return Options{
		DatasetID:       selectStringValue(datasetFlagValue, configuration.DatasetID),
		Root:            selectStringValue(rootFlagValue, configuration.Root),
		OutputPath:      outputValue,
		ProfileFile:     pennsieveConfiguration.ProfileFile,
		Profile:         selectStringValue(profileFlagValue, configuration.Profile),
		APITokenSource:  pennsieveConfiguration.APITokenSource,
		APISecretSource: pennsieveConfiguration.APISecretSource,
		Parallelism:     parallelismValue,
		PresenceMode:    presenceMode,
		AssumeYes:       assumeYesValue,
	}, nil
}

func (builder *CommandBuilder) buildService(command *cobra.Command) *Service {
	logger := builder.resolveLogger()
	pennsieveConfiguration := builder.resolvePennsieveConfiguration()
	clientConfiguration := pennsieveConfiguration.ClientConfiguration(userAgentConstant)

	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}

	authenticator := builder.Authenticator
	if authenticator == nil {
		authenticator = pennsieve.NewAuthenticator(clientConfiguration, builder.CognitoClientFactory, logger)
	}

	sessionFactory := builder.SessionFactory
	if sessionFactory == nil {
		sessionFactory = func(accessToken string) RemoteSession {
			return pennsieve.NewClient(clientConfiguration, accessToken, logger)
		}
	}

	prompter := builder.Prompter
	if prompter == nil {
		prompter = NewIOPrompter(command.InOrStdin(), command.OutOrStdout())
	}

	profileReader := credentials.NewProfileReader(fileSystem)

	return NewService(ServiceDependencies{
		CredentialsLoader: credentials.NewLoader(profileReader, credentials.NewSourceResolver(builder.EnvironmentLookup, fileSystem)),
		ProfileCatalog:    profileReader,
		Authenticator:     authenticator,
		SessionFactory:    sessionFactory,
		LocalTree:         localtree.NewReader(fileSystem),
		FileSystem:        fileSystem,
		Prompter:          prompter,
		Logger:            logger,
		OutputWriter:      command.OutOrStdout(),
		Clock:             builder.Clock,
	})
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolvePennsieveConfiguration() PennsieveConfiguration {
	if builder.PennsieveConfigurationProvider == nil {
		return DefaultPennsieveConfiguration()
	}
	return builder.PennsieveConfigurationProvider().Sanitize()
}

func selectStringValue(flagValue string, configurationValue string) string {
	if trimmed := strings.TrimSpace(flagValue); len(trimmed) > 0 {
		return trimmed
	}
	return strings.TrimSpace(configurationValue)
}
