package queue

import "errors"

var (
	ErrStorageNil          = errors.New("queue storage is nil")
	ErrEmptyQueueName      = errors.New("queue name is empty")
	ErrEmptyJobType        = errors.New("job type is empty")
	ErrPayloadNil          = errors.New("payload cannot be nil")
	ErrInvalidPriority     = errors.New("priority must be between 0 and 100")
	ErrInvalidPayload      = errors.New("invalid job payload")
	ErrHandlerNil          = errors.New("handler cannot be nil")
	ErrHandlerExists       = errors.New("handler already registered for job type")
	ErrNoHandlers          = errors.New("no processors registered")
	ErrAlreadyRunning      = errors.New("queue already running")
	ErrNotRunning          = errors.New("queue not running")
	ErrJobNotFound         = errors.New("job not found")
	ErrJobNotActive        = errors.New("job is not active")
	ErrJobNotFailed        = errors.New("job is not in failed state")
	ErrJobExists           = errors.New("job already exists")
	ErrNoJobToClaim        = errors.New("no job available to claim")
	ErrJobStalled          = errors.New("job stalled more than allowable limit")
	ErrShutdownTimeout     = errors.New("shutdown timeout exceeded")
	ErrHealthcheckFailed   = errors.New("queue healthcheck failed")
	ErrQueueOverloaded     = errors.New("queue processors are at capacity")
	ErrInvalidStatusFilter = errors.New("invalid job status filter")
	ErrQueueNil            = errors.New("queue is nil")
	ErrEmptyScheduleName   = errors.New("schedule name is empty")
	ErrScheduleNil         = errors.New("schedule is nil")
	ErrScheduleExists      = errors.New("schedule already registered")
	ErrNoSchedules         = errors.New("no schedules registered")
)

// permanentError marks a failure that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the job fails immediately regardless of remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// ErrJobTimeout is returned when an attempt exceeds the processor timeout.
var ErrJobTimeout = errors.New("job attempt timed out")
