package status_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/shared"
	"github.com/temirov/gitstat/internal/status"
)

const (
	testRepositoryPathTemplateConstant = "/tmp/projects/repo-%02d"
	testSimulatedDelayConstant         = 100 * time.Millisecond
)

func descriptorsFor(count int) []shared.RepoDescriptor {
	descriptors := make([]shared.RepoDescriptor, 0, count)
	for index := 0; index < count; index++ {
		descriptors = append(descriptors, shared.RepoDescriptor{Path: fmt.Sprintf(testRepositoryPathTemplateConstant, index)})
	}
	return descriptors
}

func TestNewSchedulerValidation(testInstance *testing.T) {
	_, workerError := status.NewScheduler(0, time.Second, nil, nil)
	require.ErrorIs(testInstance, workerError, status.ErrWorkerCountInvalid)
	require.True(testInstance, status.IsConfigurationError(workerError))

	_, timeoutError := status.NewScheduler(1, 0, nil, nil)
	require.ErrorIs(testInstance, timeoutError, status.ErrTaskTimeoutInvalid)
}

func TestSchedulerRunsTasksInParallel(testInstance *testing.T) {
	const repositoryCount = 8
	scheduler, schedulerError := status.NewScheduler(repositoryCount, time.Minute, nil, nil)
	require.NoError(testInstance, schedulerError)

	classify := func(executionContext context.Context, descriptor shared.RepoDescriptor) status.StatusResult {
		time.Sleep(testSimulatedDelayConstant)
		return status.StatusResult{Repository: descriptor, Path: descriptor.Path}
	}

	startTime := time.Now()
	results, runError := scheduler.Run(context.Background(), descriptorsFor(repositoryCount), classify)
	elapsed := time.Since(startTime)

	require.NoError(testInstance, runError)
	require.Len(testInstance, results, repositoryCount)
	require.Less(testInstance, elapsed, testSimulatedDelayConstant*repositoryCount/2)
}

func TestSchedulerBoundsConcurrency(testInstance *testing.T) {
	const workerCount = 3
	scheduler, schedulerError := status.NewScheduler(workerCount, time.Minute, nil, nil)
	require.NoError(testInstance, schedulerError)

	var running atomic.Int32
	var peak atomic.Int32
	classify := func(executionContext context.Context, descriptor shared.RepoDescriptor) status.StatusResult {
		current := running.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return status.StatusResult{Repository: descriptor, Path: descriptor.Path}
	}

	results, runError := scheduler.Run(context.Background(), descriptorsFor(12), classify)
	require.NoError(testInstance, runError)
	require.Len(testInstance, results, 12)
	require.LessOrEqual(testInstance, peak.Load(), int32(workerCount))
}

func TestSchedulerRecoversFromPanics(testInstance *testing.T) {
	core, observedLogs := observer.New(zapcore.ErrorLevel)
	scheduler, schedulerError := status.NewScheduler(2, time.Minute, nil, zap.New(core))
	require.NoError(testInstance, schedulerError)

	descriptors := descriptorsFor(4)
	classify := func(executionContext context.Context, descriptor shared.RepoDescriptor) status.StatusResult {
		if descriptor.Path == descriptors[1].Path {
			panic("boom")
		}
		return status.StatusResult{Repository: descriptor, Path: descriptor.Path}
	}

	results, runError := scheduler.Run(context.Background(), descriptors, classify)
	require.NoError(testInstance, runError)
	require.Len(testInstance, results, 4)

	failures := 0
	for _, result := range results {
		if result.Failure == nil {
			continue
		}
		failures++
		require.Equal(testInstance, descriptors[1].Path, result.Path)
		require.Equal(testInstance, gitquery.ErrorKindUnknown, result.Failure.Kind)
		require.Equal(testInstance, "classification panicked: boom", result.Failure.Diagnostic)
	}
	require.Equal(testInstance, 1, failures)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("repository task panicked").Len())
}

func TestSchedulerAppliesTaskTimeout(testInstance *testing.T) {
	scheduler, schedulerError := status.NewScheduler(1, 20*time.Millisecond, nil, nil)
	require.NoError(testInstance, schedulerError)

	classify := func(executionContext context.Context, descriptor shared.RepoDescriptor) status.StatusResult {
		<-executionContext.Done()
		return status.StatusResult{Repository: descriptor, Path: descriptor.Path, Failure: gitquery.NewRepositoryError(gitquery.ErrorKindTimeout, executionContext.Err().Error())}
	}

	results, runError := scheduler.Run(context.Background(), descriptorsFor(1), classify)
	require.NoError(testInstance, runError)
	require.Len(testInstance, results, 1)
	require.Equal(testInstance, gitquery.ErrorKindTimeout, results[0].Failure.Kind)
}

func TestSchedulerReportsProgress(testInstance *testing.T) {
	progressObserver := &recordingProgressObserver{}
	scheduler, schedulerError := status.NewScheduler(3, time.Minute, progressObserver, nil)
	require.NoError(testInstance, schedulerError)

	classify := func(executionContext context.Context, descriptor shared.RepoDescriptor) status.StatusResult {
		return status.StatusResult{Repository: descriptor, Path: descriptor.Path}
	}

	_, runError := scheduler.Run(context.Background(), descriptorsFor(5), classify)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, [][2]int{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}}, progressObserver.notifications)
}

func TestSchedulerStopsDispatchWhenAborted(testInstance *testing.T) {
	scheduler, schedulerError := status.NewScheduler(1, time.Minute, nil, nil)
	require.NoError(testInstance, schedulerError)

	executionContext, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started atomic.Int32
	classify := func(taskContext context.Context, descriptor shared.RepoDescriptor) status.StatusResult {
		if started.Add(1) == 1 {
			cancel()
			time.Sleep(10 * time.Millisecond)
		}
		if taskContext.Err() != nil {
			return status.StatusResult{Repository: descriptor, Path: descriptor.Path, Failure: gitquery.NewRepositoryError(gitquery.ErrorKindTimeout, taskContext.Err().Error())}
		}
		return status.StatusResult{Repository: descriptor, Path: descriptor.Path}
	}

	results, runError := scheduler.Run(executionContext, descriptorsFor(6), classify)
	require.ErrorIs(testInstance, runError, context.Canceled)
	require.NotEmpty(testInstance, results)
	for _, result := range results {
		require.Nil(testInstance, result.Failure)
	}
	require.Less(testInstance, len(results), 6)
	require.Equal(testInstance, int32(len(results)), started.Load())
}
