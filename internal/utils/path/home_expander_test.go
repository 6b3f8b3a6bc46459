package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/sdsaudit/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/researcher"

func TestHomeExpanderExpand(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name         string
		input        string
		expectedPath string
	}{
		{name: "bare_tilde", input: "~", expectedPath: testHomeDirectoryConstant},
		{name: "tilde_prefix", input: "~/.pennsieve/config.ini", expectedPath: filepath.Join(testHomeDirectoryConstant, ".pennsieve", "config.ini")},
		{name: "absolute_path", input: "/data/dataset", expectedPath: "/data/dataset"},
		{name: "relative_path", input: "dataset", expectedPath: "dataset"},
		{name: "other_user", input: "~someone/dataset", expectedPath: "~someone/dataset"},
		{name: "empty", input: "", expectedPath: ""},
	}

	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return testHomeDirectoryConstant, nil
	})

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()
			require.Equal(subTest, testCase.expectedPath, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderProviderFailure(testInstance *testing.T) {
	testInstance.Parallel()

	calls := 0
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		calls++
		return "", errors.New("no home")
	})

	require.Equal(testInstance, "~/dataset", expander.Expand("~/dataset"))
	require.Equal(testInstance, "~", expander.Expand("~"))
	require.Equal(testInstance, 1, calls)
}
