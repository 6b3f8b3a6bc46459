package verify_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/sdsaudit/internal/verify"
)

func TestCommandBuilderResolvesOptions(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name               string
		configuration      verify.CommandConfiguration
		arguments          []string
		expectedOutputPath string
		expectRemoteOnly   bool
		expectError        bool
	}{
		{
			name: "configuration_values",
			configuration: verify.CommandConfiguration{
				DatasetID: testDatasetIDConstant,
				Root:      testDatasetRootConstant,
				Output:    "/work/from-config.csv",
			},
			arguments:          []string{},
			expectedOutputPath: "/work/from-config.csv",
			expectRemoteOnly:   true,
		},
		{
			name: "flags_override_configuration",
			configuration: verify.CommandConfiguration{
				DatasetID: "N:dataset:ignored",
				Root:      "/ignored",
				Output:    "/work/from-config.csv",
			},
			arguments: []string{
				"--dataset", testDatasetIDConstant,
				"--root", testDatasetRootConstant,
				"--output", "/work/from-flag.csv",
				"--parallelism", "3",
				"--count-empty-as-present",
			},
			expectedOutputPath: "/work/from-flag.csv",
			expectRemoteOnly:   false,
		},
		{
			name:          "configuration_presence_mode",
			configuration: verify.CommandConfiguration{DatasetID: testDatasetIDConstant, Root: testDatasetRootConstant, CountEmptyAsPresent: true},
			arguments:     []string{"--yes"},
			// empty output falls back to the default file name
			expectedOutputPath: "source-mismatch-logs.csv",
			expectRemoteOnly:   false,
		},
		{
			name:          "invalid_parallelism",
			configuration: verify.CommandConfiguration{DatasetID: testDatasetIDConstant, Root: testDatasetRootConstant},
			arguments:     []string{"--parallelism", "0"},
			expectError:   true,
		},
		{
			name:          "positional_arguments_rejected",
			configuration: verify.CommandConfiguration{DatasetID: testDatasetIDConstant, Root: testDatasetRootConstant},
			arguments:     []string{"extra"},
			expectError:   true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			fileSystem := newDatasetFileSystem(subTest)
			session := newDatasetSession()
			builder := verify.CommandBuilder{
				LoggerProvider: func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: func() verify.CommandConfiguration {
					return testCase.configuration
				},
				PennsieveConfigurationProvider: func() verify.PennsieveConfiguration {
					pennsieveConfiguration := verify.DefaultPennsieveConfiguration()
					pennsieveConfiguration.ProfileFile = testProfileFileConstant
					return pennsieveConfiguration
				},
				FileSystem:     fileSystem,
				Authenticator:  &fakeAuthenticator{},
				SessionFactory: func(string) verify.RemoteSession { return session },
				Prompter:       &scriptedPrompter{},
			}

			command, buildError := builder.Build()
			require.NoError(subTest, buildError)

			var output bytes.Buffer
			command.SetOut(&output)
			command.SetErr(&output)
			command.SetArgs(testCase.arguments)
			command.SetContext(context.Background())

			executionError := command.Execute()
			if testCase.expectError {
				require.Error(subTest, executionError)
				return
			}
			require.NoError(subTest, executionError)

			contents, readError := afero.ReadFile(fileSystem, testCase.expectedOutputPath)
			require.NoError(subTest, readError)
			require.Equal(subTest, testCase.expectRemoteOnly, strings.Contains(string(contents), "Folder on Pennsieve but not in local dataset,primary/hollow"))
		})
	}
}

func TestCommandBuilderDeclaresFlags(testInstance *testing.T) {
	testInstance.Parallel()

	builder := verify.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, "verify", command.Name())

	for _, flagName := range []string{"dataset", "root", "output", "profile", "parallelism", "count-empty-as-present", "yes"} {
		require.NotNil(testInstance, command.Flags().Lookup(flagName), flagName)
	}
	require.Equal(testInstance, "y", command.Flags().Lookup("yes").Shorthand)
	require.Equal(testInstance, "1", command.Flags().Lookup("parallelism").DefValue)
	require.Equal(testInstance, "source-mismatch-logs.csv", command.Flags().Lookup("output").DefValue)
}
