package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/sdsaudit/internal/credentials"
	"github.com/temirov/sdsaudit/internal/pennsieve"
	"github.com/temirov/sdsaudit/internal/reconcile"
	"github.com/temirov/sdsaudit/internal/report"
	pathutils "github.com/temirov/sdsaudit/internal/utils/path"
)

const (
	datasetPromptConstant               = "Enter the Pennsieve dataset ID: "
	rootPromptConstant                  = "Enter the path to your local dataset folder: "
	profilePromptConstant               = "Enter the Pennsieve profile name: "
	profilePromptWithChoicesTemplate    = "Enter the Pennsieve profile name (%s): "
	overwritePromptTemplateConstant     = "%s already exists. Overwrite? [y/N]: "
	profileChoiceSeparatorConstant      = ", "
	startingMessageConstant             = "Checking for differences between the local dataset and Pennsieve. This may take a while for large datasets..."
	exportedMessageTemplateConstant     = "Logs exported to %s\n"
	skippedExportMessageTemplate        = "Kept existing %s; logs were not exported\n"
	datasetLookupErrorTemplateConstant  = "%w: %s: %w"
	rootErrorTemplateConstant           = "%w: %s"
	rootCheckErrorTemplateConstant      = "check local dataset folder %s: %w"
	credentialsErrorTemplateConstant    = "load pennsieve credentials: %w"
	authenticationErrorTemplate         = "authenticate with pennsieve: %w"
	reconciliationErrorTemplateConstant = "verify dataset %s: %w"
	summaryErrorTemplateConstant        = "write summary: %w"
	reportCreateErrorTemplateConstant   = "create report %s: %w"
	reportWriteErrorTemplateConstant    = "write report %s: %w"
	promptErrorTemplateConstant         = "read %s: %w"
	datasetInputNameConstant            = "dataset id"
	rootInputNameConstant               = "local dataset folder"
	profileInputNameConstant            = "profile name"
	overwriteInputNameConstant          = "overwrite confirmation"
	usingDatasetMessageConstant         = "using dataset"
	authenticatedMessageConstant        = "obtained access token"
	resolvedContainersMessageConstant   = "resolved top-level folders"
	missingContainerMessageConstant     = "dataset has no top-level folder"
	verificationCompleteMessageConstant = "verification complete"
	reportSkippedMessageConstant        = "existing report kept"
	logFieldDatasetConstant             = "dataset"
	logFieldRootConstant                = "root"
	logFieldFolderConstant              = "folder"
	logFieldFoldersConstant             = "folders"
	logFieldMismatchesConstant          = "mismatches"
	logFieldElapsedConstant             = "elapsed"
	logFieldOutputConstant              = "output"
)

// Service coordinates input resolution, authentication, reconciliation,
// and reporting.
type Service struct {
	credentialsLoader CredentialsLoader
	profileCatalog    ProfileCatalog
	authenticator     Authenticator
	sessionFactory    RemoteSessionFactory
	localTree         LocalTree
	fileSystem        afero.Fs
	prompter          Prompter
	homeExpander      *pathutils.HomeExpander
	logger            *zap.Logger
	outputWriter      io.Writer
	clock             Clock
}

// ServiceDependencies groups the collaborators of a Service.
type ServiceDependencies struct {
	CredentialsLoader CredentialsLoader
	ProfileCatalog    ProfileCatalog
	Authenticator     Authenticator
	SessionFactory    RemoteSessionFactory
	LocalTree         LocalTree
	FileSystem        afero.Fs
	Prompter          Prompter
	HomeExpander      *pathutils.HomeExpander
	Logger            *zap.Logger
	OutputWriter      io.Writer
	Clock             Clock
}

// NewService constructs a Service using the provided dependencies.
func NewService(dependencies ServiceDependencies) *Service {
	service := &Service{
		credentialsLoader: dependencies.CredentialsLoader,
		profileCatalog:    dependencies.ProfileCatalog,
		authenticator:     dependencies.Authenticator,
		sessionFactory:    dependencies.SessionFactory,
		localTree:         dependencies.LocalTree,
		fileSystem:        dependencies.FileSystem,
		prompter:          dependencies.Prompter,
		homeExpander:      dependencies.HomeExpander,
		logger:            dependencies.Logger,
		outputWriter:      dependencies.OutputWriter,
		clock:             dependencies.Clock,
	}
	if service.fileSystem == nil {
		service.fileSystem = afero.NewOsFs()
	}
	if service.homeExpander == nil {
		service.homeExpander = pathutils.NewHomeExpander()
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	if service.outputWriter == nil {
		service.outputWriter = io.Discard
	}
	if service.clock == nil {
		service.clock = SystemClock{}
	}
	return service
}

// Run verifies the local dataset folder against the remote dataset, prints
// the summary, and writes the mismatch log. No report is written when any
// step fails.
func (service *Service) Run(executionContext context.Context, options Options) (Outcome, error) {
	startedAt := service.clock.Now()

	datasetID, datasetError := service.resolveDatasetID(options.DatasetID)
	if datasetError != nil {
		return Outcome{}, datasetError
	}

	rootPath, rootError := service.resolveRoot(options.Root)
	if rootError != nil {
		return Outcome{}, rootError
	}

	apiKey, credentialsError := service.resolveCredentials(options)
	if credentialsError != nil {
		return Outcome{}, fmt.Errorf(credentialsErrorTemplateConstant, credentialsError)
	}

	accessToken, authenticationError := service.authenticator.Authenticate(executionContext, apiKey.APIToken, apiKey.APISecret)
	if authenticationError != nil {
		return Outcome{}, fmt.Errorf(authenticationErrorTemplate, authenticationError)
	}
	service.logger.Info(authenticatedMessageConstant)

	session := service.sessionFactory(accessToken)
	folderNames := pennsieve.SDSFolderNames()
	containers, containersError := session.ResolveTopLevelContainers(executionContext, datasetID, folderNames)
	if containersError != nil {
		if errors.Is(containersError, pennsieve.ErrNotFound) {
			return Outcome{}, fmt.Errorf(datasetLookupErrorTemplateConstant, ErrDatasetMissing, datasetID, containersError)
		}
		return Outcome{}, fmt.Errorf(reconciliationErrorTemplateConstant, datasetID, containersError)
	}
	service.logger.Info(
		usingDatasetMessageConstant,
		zap.String(logFieldDatasetConstant, datasetID),
		zap.String(logFieldRootConstant, rootPath),
	)
	service.logger.Debug(resolvedContainersMessageConstant, zap.Int(logFieldFoldersConstant, len(containers)))

	roots := make([]reconcile.Root, 0, len(folderNames))
	for _, folderName := range folderNames {
		containerID := containers[folderName]
		if len(containerID) == 0 {
			service.logger.Debug(missingContainerMessageConstant, zap.String(logFieldFolderConstant, folderName))
		}
		roots = append(roots, reconcile.Root{
			Name:        folderName,
			LocalPath:   filepath.Join(rootPath, folderName),
			ContainerID: containerID,
		})
	}

	fmt.Fprintln(service.outputWriter, startingMessageConstant)

	reconciler := reconcile.NewReconciler(session, service.localTree, service.logger, reconcile.Options{
		PresenceMode: options.PresenceMode,
		Parallelism:  options.Parallelism,
	})
	result, reconcileError := reconciler.Run(executionContext, roots)
	if reconcileError != nil {
		return Outcome{}, fmt.Errorf(reconciliationErrorTemplateConstant, datasetID, reconcileError)
	}

	if summaryError := report.WriteSummary(service.outputWriter, result); summaryError != nil {
		return Outcome{}, fmt.Errorf(summaryErrorTemplateConstant, summaryError)
	}

	outputPath := strings.TrimSpace(options.OutputPath)
	if len(outputPath) == 0 {
		outputPath = report.DefaultFileName
	}
	outputPath = service.homeExpander.Expand(outputPath)

	written, exportError := service.exportReport(outputPath, result, options.AssumeYes)
	if exportError != nil {
		return Outcome{}, exportError
	}

	elapsed := service.clock.Now().Sub(startedAt)
	service.logger.Info(
		verificationCompleteMessageConstant,
		zap.String(logFieldDatasetConstant, datasetID),
		zap.Int(logFieldMismatchesConstant, result.Total()),
		zap.Duration(logFieldElapsedConstant, elapsed),
	)

	return Outcome{
		DatasetID:     datasetID,
		Root:          rootPath,
		Result:        result,
		OutputPath:    outputPath,
		ReportWritten: written,
		Elapsed:       elapsed,
	}, nil
}

func (service *Service) resolveDatasetID(candidate string) (string, error) {
	datasetID := strings.TrimSpace(candidate)
	if len(datasetID) == 0 {
		answer, askError := service.ask(datasetPromptConstant, datasetInputNameConstant)
		if askError != nil {
			return "", askError
		}
		datasetID = answer
	}
	if len(datasetID) == 0 {
		return "", ErrDatasetMissing
	}
	return datasetID, nil
}

func (service *Service) resolveRoot(candidate string) (string, error) {
	rootPath := strings.TrimSpace(candidate)
	if len(rootPath) == 0 {
		answer, askError := service.ask(rootPromptConstant, rootInputNameConstant)
		if askError != nil {
			return "", askError
		}
		rootPath = answer
	}
	if len(rootPath) == 0 {
		return "", ErrLocalRootMissing
	}

	rootPath = filepath.Clean(service.homeExpander.Expand(rootPath))
	isDirectory, checkError := service.localTree.IsDirectory(rootPath)
	if checkError != nil {
		return "", fmt.Errorf(rootCheckErrorTemplateConstant, rootPath, checkError)
	}
	if !isDirectory {
		return "", fmt.Errorf(rootErrorTemplateConstant, ErrLocalRootMissing, rootPath)
	}
	return rootPath, nil
}

func (service *Service) resolveCredentials(options Options) (credentials.Credentials, error) {
	request := credentials.Request{
		ProfileFile:     service.homeExpander.Expand(strings.TrimSpace(options.ProfileFile)),
		Profile:         strings.TrimSpace(options.Profile),
		APITokenSource:  options.APITokenSource,
		APISecretSource: options.APISecretSource,
	}

	if request.RequiresProfile() && len(request.Profile) == 0 {
		profile, profileError := service.resolveProfile(request.ProfileFile)
		if profileError != nil {
			return credentials.Credentials{}, profileError
		}
		request.Profile = profile
	}

	return service.credentialsLoader.Load(request)
}

func (service *Service) resolveProfile(profileFile string) (string, error) {
	if service.profileCatalog == nil {
		return "", nil
	}

	defaultProfile, defaultError := service.profileCatalog.DefaultProfile(profileFile)
	if defaultError != nil {
		return "", defaultError
	}
	if len(defaultProfile) > 0 {
		return defaultProfile, nil
	}

	prompt := profilePromptConstant
	if profiles, profilesError := service.profileCatalog.Profiles(profileFile); profilesError == nil && len(profiles) > 0 {
		prompt = fmt.Sprintf(profilePromptWithChoicesTemplate, strings.Join(profiles, profileChoiceSeparatorConstant))
	}

	profile, askError := service.ask(prompt, profileInputNameConstant)
	if askError != nil {
		return "", askError
	}
	if len(profile) == 0 {
		return "", ErrProfileNotFound
	}
	return profile, nil
}

func (service *Service) exportReport(outputPath string, result reconcile.Result, assumeYes bool) (bool, error) {
	exists, existsError := afero.Exists(service.fileSystem, outputPath)
	if existsError != nil {
		return false, fmt.Errorf(reportCreateErrorTemplateConstant, outputPath, existsError)
	}

	if exists && !assumeYes && service.prompter != nil {
		confirmed, confirmError := service.prompter.Confirm(fmt.Sprintf(overwritePromptTemplateConstant, outputPath))
		if confirmError != nil {
			return false, fmt.Errorf(promptErrorTemplateConstant, overwriteInputNameConstant, confirmError)
		}
		if !confirmed {
			service.logger.Info(reportSkippedMessageConstant, zap.String(logFieldOutputConstant, outputPath))
			fmt.Fprintf(service.outputWriter, skippedExportMessageTemplate, outputPath)
			return false, nil
		}
	}

	reportFile, createError := service.fileSystem.Create(outputPath)
	if createError != nil {
		return false, fmt.Errorf(reportCreateErrorTemplateConstant, outputPath, createError)
	}

	writeError := report.WriteCSV(reportFile, report.Export(result))
	closeError := reportFile.Close()
	if writeError != nil {
		return false, fmt.Errorf(reportWriteErrorTemplateConstant, outputPath, writeError)
	}
	if closeError != nil {
		return false, fmt.Errorf(reportWriteErrorTemplateConstant, outputPath, closeError)
	}

	fmt.Fprintf(service.outputWriter, exportedMessageTemplateConstant, outputPath)
	return true, nil
}

func (service *Service) ask(prompt string, inputName string) (string, error) {
	if service.prompter == nil {
		return "", nil
	}
	answer, askError := service.prompter.Ask(prompt)
	if askError != nil {
		return "", fmt.Errorf(promptErrorTemplateConstant, inputName, askError)
	}
	return strings.TrimSpace(answer), nil
}
