package verify_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/sdsaudit/internal/credentials"
	"github.com/temirov/sdsaudit/internal/localtree"
	"github.com/temirov/sdsaudit/internal/pennsieve"
	"github.com/temirov/sdsaudit/internal/reconcile"
	pathutils "github.com/temirov/sdsaudit/internal/utils/path"
	"github.com/temirov/sdsaudit/internal/verify"
)

const (
	testDatasetIDConstant     = "N:dataset:42"
	testAccessTokenConstant   = "access-token"
	testHomeDirectoryConstant = "/home/researcher"
	testDatasetRootConstant   = "/data/dataset"
	testProfileFileConstant   = "/home/researcher/.pennsieve/config.ini"
	testOutputPathConstant    = "/work/source-mismatch-logs.csv"
	testProfileContents       = "[global]\ndefault_profile = lab\n\n[lab]\napi_token = lab-token\napi_secret = lab-secret\n"
	testCSVHeaderConstant     = "Mismatch description,Folder/file path\n"
)

type fakeRemoteSession struct {
	mutex      sync.Mutex
	containers map[string]string
	children   map[string][]reconcile.RemoteEntry
	resolveErr error
	listed     []string
}

func (session *fakeRemoteSession) ListChildren(_ context.Context, containerID string) ([]reconcile.RemoteEntry, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.listed = append(session.listed, containerID)
	entries, found := session.children[containerID]
	if !found {
		return nil, &pennsieve.APIError{Operation: "list", StatusCode: 404}
	}
	return entries, nil
}

func (session *fakeRemoteSession) ResolveTopLevelContainers(_ context.Context, datasetID string, names []string) (map[string]string, error) {
	if session.resolveErr != nil {
		return nil, session.resolveErr
	}
	if datasetID != testDatasetIDConstant {
		return nil, &pennsieve.APIError{Operation: "dataset", StatusCode: 404}
	}
	resolved := map[string]string{}
	for _, name := range names {
		if identifier, found := session.containers[name]; found {
			resolved[name] = identifier
		}
	}
	return resolved, nil
}

type fakeAuthenticator struct {
	receivedToken  string
	receivedSecret string
	err            error
}

func (authenticator *fakeAuthenticator) Authenticate(_ context.Context, apiToken string, apiSecret string) (string, error) {
	authenticator.receivedToken = apiToken
	authenticator.receivedSecret = apiSecret
	if authenticator.err != nil {
		return "", authenticator.err
	}
	return testAccessTokenConstant, nil
}

type scriptedPrompter struct {
	answers      []string
	confirmation bool
	prompts      []string
}

func (prompter *scriptedPrompter) Ask(prompt string) (string, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	if len(prompter.answers) == 0 {
		return "", nil
	}
	answer := prompter.answers[0]
	prompter.answers = prompter.answers[1:]
	return answer, nil
}

func (prompter *scriptedPrompter) Confirm(prompt string) (bool, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	return prompter.confirmation, nil
}

type fixedClock struct {
	moments []time.Time
}

func (clock *fixedClock) Now() time.Time {
	moment := clock.moments[0]
	if len(clock.moments) > 1 {
		clock.moments = clock.moments[1:]
	}
	return moment
}

func collection(identifier string, name string) reconcile.RemoteEntry {
	return reconcile.RemoteEntry{Identifier: identifier, Name: name, Kind: reconcile.EntryKindCollection}
}

func leaf(identifier string, name string) reconcile.RemoteEntry {
	return reconcile.RemoteEntry{Identifier: identifier, Name: name, Kind: reconcile.EntryKindLeaf}
}

// newDatasetFileSystem lays out a dataset where primary matches partially,
// source exists only locally, and docs exists only remotely.
func newDatasetFileSystem(testInstance *testing.T) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	writeFile := func(relativePath string, contents string) {
		require.NoError(testInstance, afero.WriteFile(fileSystem, filepath.Join(testDatasetRootConstant, relativePath), []byte(contents), 0o644))
	}
	writeFile("primary/a.txt", "alpha")
	writeFile("primary/b.txt", "beta")
	writeFile("primary/empty.txt", "")
	writeFile("primary/sub1/c.txt", "gamma")
	writeFile("primary/sub2/d.txt", "delta")
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Join(testDatasetRootConstant, "primary", "hollow"), 0o755))
	writeFile("source/raw.bin", "raw")
	require.NoError(testInstance, afero.WriteFile(fileSystem, testProfileFileConstant, []byte(testProfileContents), 0o600))
	return fileSystem
}

func newDatasetSession() *fakeRemoteSession {
	return &fakeRemoteSession{
		containers: map[string]string{
			"primary": "N:collection:primary",
			"docs":    "N:collection:docs",
		},
		children: map[string][]reconcile.RemoteEntry{
			"N:collection:primary": {
				leaf("N:package:a", "a.txt"),
				collection("N:collection:sub1", "sub1"),
				collection("N:collection:hollow", "hollow"),
				leaf("N:package:x", "x.txt"),
			},
			"N:collection:sub1": {
				leaf("N:package:c", "c.txt"),
			},
			"N:collection:docs": {
				leaf("N:package:readme", "readme.md"),
			},
		},
	}
}

func newTestService(fileSystem afero.Fs, session *fakeRemoteSession, authenticator *fakeAuthenticator, prompter verify.Prompter, output *bytes.Buffer) *verify.Service {
	profileReader := credentials.NewProfileReader(fileSystem)
	return verify.NewService(verify.ServiceDependencies{
		CredentialsLoader: credentials.NewLoader(profileReader, credentials.NewSourceResolver(func(string) (string, bool) { return "", false }, fileSystem)),
		ProfileCatalog:    profileReader,
		Authenticator:     authenticator,
		SessionFactory: func(accessToken string) verify.RemoteSession {
			if accessToken != testAccessTokenConstant {
				panic(fmt.Sprintf("unexpected access token %q", accessToken))
			}
			return session
		},
		LocalTree:    localtree.NewReader(fileSystem),
		FileSystem:   fileSystem,
		Prompter:     prompter,
		HomeExpander: pathutils.NewHomeExpanderWithProvider(func() (string, error) { return testHomeDirectoryConstant, nil }),
		Logger:       zap.NewNop(),
		OutputWriter: output,
	})
}

func baseOptions() verify.Options {
	return verify.Options{
		DatasetID:   testDatasetIDConstant,
		Root:        testDatasetRootConstant,
		OutputPath:  testOutputPathConstant,
		ProfileFile: "~/.pennsieve/config.ini",
		Parallelism: 1,
	}
}

func TestServiceRunWritesReport(testInstance *testing.T) {
	testInstance.Parallel()

	expectedCSV := testCSVHeaderConstant +
		"Folder in local dataset but not on Pennsieve,primary/sub2\n" +
		"Folder in local dataset but not on Pennsieve,source\n" +
		"File in local dataset but not on Pennsieve,primary/b.txt\n" +
		"0kb file in local dataset but not on Pennsieve,primary/empty.txt\n" +
		"Folder on Pennsieve but not in local dataset,primary/hollow\n" +
		"File on Pennsieve but not in local dataset,primary/x.txt\n" +
		"File on Pennsieve but not in local dataset,docs/readme.md\n" +
		"Empty local folder uploaded to Pennsieve,primary/hollow\n"

	testCases := []struct {
		name        string
		parallelism int
	}{
		{name: "sequential", parallelism: 1},
		{name: "parallel", parallelism: 4},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			fileSystem := newDatasetFileSystem(subTest)
			authenticator := &fakeAuthenticator{}
			var output bytes.Buffer
			service := newTestService(fileSystem, newDatasetSession(), authenticator, &scriptedPrompter{}, &output)

			options := baseOptions()
			options.Parallelism = testCase.parallelism
			outcome, runError := service.Run(context.Background(), options)
			require.NoError(subTest, runError)

			require.Equal(subTest, "lab-token", authenticator.receivedToken)
			require.Equal(subTest, "lab-secret", authenticator.receivedSecret)
			require.True(subTest, outcome.ReportWritten)
			require.Equal(subTest, testOutputPathConstant, outcome.OutputPath)
			require.Equal(subTest, 8, outcome.Result.Total())

			contents, readError := afero.ReadFile(fileSystem, testOutputPathConstant)
			require.NoError(subTest, readError)
			require.Equal(subTest, expectedCSV, string(contents))

			require.Contains(subTest, output.String(), "Number of folders in local dataset but not on Pennsieve: 2\n")
			require.Contains(subTest, output.String(), "Number of files on Pennsieve but not in local dataset: 2\n")
			require.Contains(subTest, output.String(), "Logs exported to "+testOutputPathConstant+"\n")
		})
	}
}

func TestServiceRunIsIdempotent(testInstance *testing.T) {
	testInstance.Parallel()

	fileSystem := newDatasetFileSystem(testInstance)
	options := baseOptions()
	options.AssumeYes = true

	var firstContents []byte
	for iteration := 0; iteration < 2; iteration++ {
		var output bytes.Buffer
		service := newTestService(fileSystem, newDatasetSession(), &fakeAuthenticator{}, &scriptedPrompter{}, &output)
		_, runError := service.Run(context.Background(), options)
		require.NoError(testInstance, runError)

		contents, readError := afero.ReadFile(fileSystem, testOutputPathConstant)
		require.NoError(testInstance, readError)
		if iteration == 0 {
			firstContents = contents
			continue
		}
		require.Equal(testInstance, firstContents, contents)
	}
}

func TestServiceRunPresenceModeIncludeEmpty(testInstance *testing.T) {
	testInstance.Parallel()

	fileSystem := newDatasetFileSystem(testInstance)
	var output bytes.Buffer
	service := newTestService(fileSystem, newDatasetSession(), &fakeAuthenticator{}, &scriptedPrompter{}, &output)

	options := baseOptions()
	options.PresenceMode = reconcile.PresenceIncludeEmpty
	outcome, runError := service.Run(context.Background(), options)
	require.NoError(testInstance, runError)
	require.Empty(testInstance, outcome.Result.RemoteOnlyFolders)
	require.Equal(testInstance, []string{"primary/hollow"}, outcome.Result.EmptyLocalFoldersOnRemote)
}

func TestServiceRunPromptsForMissingInputs(testInstance *testing.T) {
	testInstance.Parallel()

	fileSystem := newDatasetFileSystem(testInstance)
	prompter := &scriptedPrompter{answers: []string{" " + testDatasetIDConstant + " ", testDatasetRootConstant}}
	var output bytes.Buffer
	service := newTestService(fileSystem, newDatasetSession(), &fakeAuthenticator{}, prompter, &output)

	options := baseOptions()
	options.DatasetID = ""
	options.Root = ""
	outcome, runError := service.Run(context.Background(), options)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, testDatasetIDConstant, outcome.DatasetID)
	require.Equal(testInstance, testDatasetRootConstant, outcome.Root)
	require.Len(testInstance, prompter.prompts, 2)
}

func TestServiceRunPromptsForProfileWithoutDefault(testInstance *testing.T) {
	testInstance.Parallel()

	fileSystem := newDatasetFileSystem(testInstance)
	require.NoError(testInstance, afero.WriteFile(fileSystem, testProfileFileConstant, []byte("[lab]\napi_token = lab-token\napi_secret = lab-secret\n\n[other]\napi_token = t\napi_secret = s\n"), 0o600))
	prompter := &scriptedPrompter{answers: []string{"other"}}
	authenticator := &fakeAuthenticator{}
	var output bytes.Buffer
	service := newTestService(fileSystem, newDatasetSession(), authenticator, prompter, &output)

	_, runError := service.Run(context.Background(), baseOptions())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, "t", authenticator.receivedToken)
	require.Len(testInstance, prompter.prompts, 1)
	require.Contains(testInstance, prompter.prompts[0], "lab, other")
}

func TestServiceRunOverwriteConfirmation(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name            string
		confirmation    bool
		assumeYes       bool
		expectedWritten bool
		expectedPrompts int
	}{
		{name: "declined", confirmation: false, expectedWritten: false, expectedPrompts: 1},
		{name: "accepted", confirmation: true, expectedWritten: true, expectedPrompts: 1},
		{name: "assume_yes", assumeYes: true, expectedWritten: true, expectedPrompts: 0},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			fileSystem := newDatasetFileSystem(subTest)
			require.NoError(subTest, afero.WriteFile(fileSystem, testOutputPathConstant, []byte("previous"), 0o644))
			prompter := &scriptedPrompter{confirmation: testCase.confirmation}
			var output bytes.Buffer
			service := newTestService(fileSystem, newDatasetSession(), &fakeAuthenticator{}, prompter, &output)

			options := baseOptions()
			options.AssumeYes = testCase.assumeYes
			outcome, runError := service.Run(context.Background(), options)
			require.NoError(subTest, runError)
			require.Equal(subTest, testCase.expectedWritten, outcome.ReportWritten)
			require.Len(subTest, prompter.prompts, testCase.expectedPrompts)

			contents, readError := afero.ReadFile(fileSystem, testOutputPathConstant)
			require.NoError(subTest, readError)
			if testCase.expectedWritten {
				require.True(subTest, strings.HasPrefix(string(contents), testCSVHeaderConstant))
				return
			}
			require.Equal(subTest, "previous", string(contents))
		})
	}
}

func TestServiceRunFailures(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name          string
		mutateOptions func(*verify.Options)
		mutateSession func(*fakeRemoteSession)
		authError     error
		expectedError error
	}{
		{
			name:          "missing_root",
			mutateOptions: func(options *verify.Options) { options.Root = "/data/absent" },
			expectedError: verify.ErrLocalRootMissing,
		},
		{
			name:          "root_is_a_file",
			mutateOptions: func(options *verify.Options) { options.Root = testDatasetRootConstant + "/primary/a.txt" },
			expectedError: verify.ErrLocalRootMissing,
		},
		{
			name:          "unknown_dataset",
			mutateOptions: func(options *verify.Options) { options.DatasetID = "N:dataset:unknown" },
			expectedError: verify.ErrDatasetMissing,
		},
		{
			name:          "unknown_profile",
			mutateOptions: func(options *verify.Options) { options.Profile = "absent" },
			expectedError: verify.ErrProfileNotFound,
		},
		{
			name:          "authentication_rejected",
			authError:     fmt.Errorf("%w: rejected", pennsieve.ErrAuthenticationFailed),
			expectedError: verify.ErrAuthenticationFailed,
		},
		{
			name: "remote_listing_failure",
			mutateSession: func(session *fakeRemoteSession) {
				delete(session.children, "N:collection:sub1")
			},
			expectedError: pennsieve.ErrNotFound,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			fileSystem := newDatasetFileSystem(subTest)
			session := newDatasetSession()
			if testCase.mutateSession != nil {
				testCase.mutateSession(session)
			}
			options := baseOptions()
			if testCase.mutateOptions != nil {
				testCase.mutateOptions(&options)
			}
			var output bytes.Buffer
			service := newTestService(fileSystem, session, &fakeAuthenticator{err: testCase.authError}, &scriptedPrompter{}, &output)

			_, runError := service.Run(context.Background(), options)
			require.Error(subTest, runError)
			require.True(subTest, errors.Is(runError, testCase.expectedError), runError.Error())

			exists, existsError := afero.Exists(fileSystem, testOutputPathConstant)
			require.NoError(subTest, existsError)
			require.False(subTest, exists)
		})
	}
}

func TestServiceRunReportsElapsedTime(testInstance *testing.T) {
	testInstance.Parallel()

	fileSystem := newDatasetFileSystem(testInstance)
	startedAt := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	profileReader := credentials.NewProfileReader(fileSystem)
	session := newDatasetSession()
	service := verify.NewService(verify.ServiceDependencies{
		CredentialsLoader: credentials.NewLoader(profileReader, nil),
		ProfileCatalog:    profileReader,
		Authenticator:     &fakeAuthenticator{},
		SessionFactory:    func(string) verify.RemoteSession { return session },
		LocalTree:         localtree.NewReader(fileSystem),
		FileSystem:        fileSystem,
		HomeExpander:      pathutils.NewHomeExpanderWithProvider(func() (string, error) { return testHomeDirectoryConstant, nil }),
		Clock:             &fixedClock{moments: []time.Time{startedAt, startedAt.Add(90 * time.Second)}},
	})

	outcome, runError := service.Run(context.Background(), baseOptions())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 90*time.Second, outcome.Elapsed)
}
