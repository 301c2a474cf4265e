package utils_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitstat/internal/utils"
)

const (
	testExitStatusCauseMessageConstant = "worker count must be at least 1"
	testExitStatusWrapTemplateConstant = "command failed: %w"
)

func TestExitStatusError(testInstance *testing.T) {
	cause := errors.New(testExitStatusCauseMessageConstant)

	testCases := []struct {
		name            string
		err             error
		expectFound     bool
		expectedCode    int
		expectedMessage string
		expectSilent    bool
	}{
		{
			name:            "silent_status",
			err:             utils.NewExitStatusError(1, nil),
			expectFound:     true,
			expectedCode:    1,
			expectedMessage: "exit status 1",
			expectSilent:    true,
		},
		{
			name:            "status_with_cause",
			err:             utils.NewExitStatusError(3, cause),
			expectFound:     true,
			expectedCode:    3,
			expectedMessage: testExitStatusCauseMessageConstant,
		},
		{
			name:            "wrapped_status",
			err:             fmt.Errorf(testExitStatusWrapTemplateConstant, utils.NewExitStatusError(2, cause)),
			expectFound:     true,
			expectedCode:    2,
			expectedMessage: testExitStatusCauseMessageConstant,
		},
		{
			name:        "plain_error",
			err:         cause,
			expectFound: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			exitStatus, found := utils.ExitStatusFromError(testCase.err)
			require.Equal(subTest, testCase.expectFound, found)
			if !testCase.expectFound {
				return
			}
			require.Equal(subTest, testCase.expectedCode, exitStatus.Code)
			require.Equal(subTest, testCase.expectedMessage, exitStatus.Error())
			require.Equal(subTest, testCase.expectSilent, exitStatus.Silent())
		})
	}

	require.ErrorIs(testInstance, utils.NewExitStatusError(3, cause), cause)
}
