package jobs

import "errors"

var (
	ErrMissingDependency = errors.New("missing job dependency")
	ErrUnknownQueue      = errors.New("unknown queue")
	ErrUnknownJobType    = errors.New("job type is not registered on queue")
	ErrMissingUserID     = errors.New("job payload has no user id")
	ErrInvalidEmail      = errors.New("invalid recipient email")
	ErrEmptyMessage      = errors.New("chat message is empty")
	ErrEmptyProgress     = errors.New("progress update has no measurements")
	ErrInvalidCalories   = errors.New("daily calories must be positive")
	ErrWorkoutOwnership  = errors.New("workout belongs to another user")
	ErrRegistryRunning   = errors.New("registry already running")
	ErrInvalidSchedule   = errors.New("invalid schedule")
)
