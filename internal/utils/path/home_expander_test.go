package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/gitstat/internal/utils/path"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	homeExpander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return testCaseHomeDirectoryConstant, nil
	})

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare_tilde", input: "~", expected: testCaseHomeDirectoryConstant},
		{name: "tilde_slash", input: "~/code/gitstat", expected: filepath.Join(testCaseHomeDirectoryConstant, "code", "gitstat")},
		{name: "relative_path", input: "relative/path", expected: "relative/path"},
		{name: "other_user", input: "~other/path", expected: "~other/path"},
		{name: "empty", input: "", expected: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, homeExpander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderLooksUpHomeOnce(testInstance *testing.T) {
	lookups := 0
	homeExpander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		lookups++
		return testCaseHomeDirectoryConstant, nil
	})

	homeExpander.Expand("~/first")
	homeExpander.Expand("~/second")
	require.Equal(testInstance, 1, lookups)
}

func TestHomeExpanderKeepsPathWhenLookupFails(testInstance *testing.T) {
	homeExpander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return "", errors.New("no home")
	})
	require.Equal(testInstance, "~/code", homeExpander.Expand("~/code"))

	var nilExpander *pathutils.HomeExpander
	require.Equal(testInstance, "~/code", nilExpander.Expand("~/code"))
}
