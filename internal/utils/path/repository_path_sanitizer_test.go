package pathutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/gitstat/internal/utils/path"
)

const (
	testCaseAbsolutePathSuffixConstant       = "repository-path-sanitizer"
	testCaseSecondPathSuffixConstant         = "second-repository"
	testCaseTildeRelativePathConstant        = "Projects/example"
	testCaseWhitespacePrefixConstant         = "  "
	testCaseWhitespaceSuffixConstant         = "\t"
	testCaseGitDirectoryNameConstant         = ".git"
	testCaseSanitizerDefaultCaseNameConstant = "default_configuration"
	testCaseGitSuffixCaseNameConstant        = "git_directory_suffix"
	testCaseDuplicateCaseNameConstant        = "duplicates_removed"
	testCaseHomeDirectoryConstant            = "/home/tester"
)

func TestRepositoryPathSanitizerNormalizesInputs(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	absolutePath := filepath.Join(temporaryDirectory, testCaseAbsolutePathSuffixConstant)
	secondPath := filepath.Join(temporaryDirectory, testCaseSecondPathSuffixConstant)
	tildeInput := filepath.Join("~", testCaseTildeRelativePathConstant)
	expandedTilde := filepath.Join(testCaseHomeDirectoryConstant, testCaseTildeRelativePathConstant)

	homeExpander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return testCaseHomeDirectoryConstant, nil
	})

	testCases := []struct {
		name            string
		sanitizer       *pathutils.RepositoryPathSanitizer
		inputs          []string
		expectedOutputs []string
	}{
		{
			name:      testCaseSanitizerDefaultCaseNameConstant,
			sanitizer: pathutils.NewRepositoryPathSanitizerWithExpander(homeExpander),
			inputs: []string{
				"",
				testCaseWhitespacePrefixConstant + absolutePath + testCaseWhitespaceSuffixConstant,
				testCaseWhitespacePrefixConstant + tildeInput + testCaseWhitespaceSuffixConstant,
			},
			expectedOutputs: []string{absolutePath, expandedTilde},
		},
		{
			name:            testCaseGitSuffixCaseNameConstant,
			sanitizer:       pathutils.NewRepositoryPathSanitizerWithExpander(homeExpander),
			inputs:          []string{filepath.Join(absolutePath, testCaseGitDirectoryNameConstant)},
			expectedOutputs: []string{absolutePath},
		},
		{
			name:      testCaseDuplicateCaseNameConstant,
			sanitizer: pathutils.NewRepositoryPathSanitizerWithExpander(homeExpander),
			inputs: []string{
				absolutePath,
				secondPath,
				absolutePath + string(os.PathSeparator),
				filepath.Join(absolutePath, testCaseGitDirectoryNameConstant),
			},
			expectedOutputs: []string{absolutePath, secondPath},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			sanitized := testCase.sanitizer.Sanitize(testCase.inputs)
			require.Equal(subTest, testCase.expectedOutputs, sanitized)
		})
	}
}

func TestRepositoryPathSanitizerReturnsNilForEmptyResults(testInstance *testing.T) {
	sanitizer := pathutils.NewRepositoryPathSanitizer()

	sanitized := sanitizer.Sanitize([]string{"   ", "\n"})
	require.Nil(testInstance, sanitized)
}

func TestRepositoryPathSanitizerDropsSymlinkedRepeats(testInstance *testing.T) {
	temporaryDirectory, resolveError := filepath.EvalSymlinks(testInstance.TempDir())
	require.NoError(testInstance, resolveError)
	repositoryPath := filepath.Join(temporaryDirectory, testCaseAbsolutePathSuffixConstant)
	require.NoError(testInstance, os.MkdirAll(repositoryPath, 0o755))
	linkPath := filepath.Join(temporaryDirectory, "link")
	if symlinkError := os.Symlink(repositoryPath, linkPath); symlinkError != nil {
		testInstance.Skip("symlinks unavailable")
	}

	sanitized := pathutils.NewRepositoryPathSanitizer().Sanitize([]string{linkPath, repositoryPath})
	require.Equal(testInstance, []string{linkPath}, sanitized)
}
