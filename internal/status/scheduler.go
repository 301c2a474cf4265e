package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitstat/internal/gitquery"
	"github.com/temirov/gitstat/internal/repos/shared"
)

const (
	taskPanicDiagnosticTemplateConstant = "classification panicked: %v"
	taskPanicMessageConstant            = "repository task panicked"
	runAbortedMessageConstant           = "status run aborted; in-flight repositories finished"
	logFieldPanicConstant               = "panic"
	logFieldCompletedConstant           = "completed"
	logFieldTotalConstant               = "total"
)

// ProgressObserver is notified after every repository finishes.
type ProgressObserver interface {
	TaskCompleted(completed int, total int)
}

// ClassifyFunc classifies one repository within the supplied context.
type ClassifyFunc func(executionContext context.Context, descriptor shared.RepoDescriptor) StatusResult

type noopProgressObserver struct{}

func (noopProgressObserver) TaskCompleted(int, int) {}

// Scheduler runs classifications on a bounded pool of goroutines.
type Scheduler struct {
	workerCount int
	taskTimeout time.Duration
	observer    ProgressObserver
	logger      *zap.Logger
}

// NewScheduler validates the pool size and timeout and constructs a Scheduler.
func NewScheduler(workerCount int, taskTimeout time.Duration, observer ProgressObserver, logger *zap.Logger) (*Scheduler, error) {
	if workerCount < 1 {
		return nil, ErrWorkerCountInvalid
	}
	if taskTimeout <= 0 {
		return nil, ErrTaskTimeoutInvalid
	}
	if observer == nil {
		observer = noopProgressObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{workerCount: workerCount, taskTimeout: taskTimeout, observer: observer, logger: logger}, nil
}

// Run classifies every descriptor and returns results in completion order.
// Cancelling executionContext stops dispatch; tasks already running finish on a
// detached context bounded by the task timeout and their results are returned
// together with the context error.
func (scheduler *Scheduler) Run(executionContext context.Context, descriptors []shared.RepoDescriptor, classify ClassifyFunc) ([]StatusResult, error) {
	totalTasks := len(descriptors)
	results := make([]StatusResult, 0, totalTasks)
	var resultsMutex sync.Mutex
	completedTasks := 0

	taskParentContext := context.WithoutCancel(executionContext)

	workerGroup := &errgroup.Group{}
	workerGroup.SetLimit(scheduler.workerCount)

	for _, descriptor := range descriptors {
		if executionContext.Err() != nil {
			break
		}
		workerGroup.Go(func() error {
			if executionContext.Err() != nil {
				return nil
			}
			result := scheduler.runTask(taskParentContext, descriptor, classify)

			resultsMutex.Lock()
			defer resultsMutex.Unlock()
			results = append(results, result)
			completedTasks++
			scheduler.observer.TaskCompleted(completedTasks, totalTasks)
			return nil
		})
	}
	_ = workerGroup.Wait()

	if abortError := executionContext.Err(); abortError != nil {
		scheduler.logger.Warn(
			runAbortedMessageConstant,
			zap.Int(logFieldCompletedConstant, len(results)),
			zap.Int(logFieldTotalConstant, totalTasks),
		)
		return results, abortError
	}
	return results, nil
}

func (scheduler *Scheduler) runTask(parentContext context.Context, descriptor shared.RepoDescriptor, classify ClassifyFunc) (result StatusResult) {
	taskContext, cancel := context.WithTimeout(parentContext, scheduler.taskTimeout)
	defer cancel()

	defer func() {
		if recovered := recover(); recovered != nil {
			scheduler.logger.Error(
				taskPanicMessageConstant,
				zap.String(logFieldRepositoryPathConstant, descriptor.Path),
				zap.Any(logFieldPanicConstant, recovered),
			)
			result = failureResult(descriptor, descriptor.Path, gitquery.NewRepositoryError(gitquery.ErrorKindUnknown, fmt.Sprintf(taskPanicDiagnosticTemplateConstant, recovered)))
		}
	}()

	return classify(taskContext, descriptor)
}
