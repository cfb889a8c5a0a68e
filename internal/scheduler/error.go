package scheduler

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrSchedulerNotAvailable indicates the scheduler is not available
	ErrSchedulerNotAvailable = errors.New("scheduler is not available")

	// ErrSchedulerNotFound indicates the scheduler binary was not found
	ErrSchedulerNotFound = errors.New("scheduler binary not found in PATH")

	// ErrAlreadyInJob indicates we're already inside a scheduler job
	ErrAlreadyInJob = errors.New("already inside a scheduler job")

	// ErrSubmitFileNotFound indicates the submit description does not exist
	ErrSubmitFileNotFound = errors.New("submit file not found")

	// ErrJobIDParseFailed indicates parsing job ID from output failed
	ErrJobIDParseFailed = errors.New("failed to parse job ID from scheduler output")
)

// SubmissionError represents an error during job submission
type SubmissionError struct {
	Scheduler  string // Scheduler name
	JobName    string // Job name
	ExitStatus int    // Exit status of the submit tool
	Output     string // Scheduler output
	Err        error  // Underlying error
}

func (e *SubmissionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s submission failed for job %s (status %d): %v\nOutput: %s",
			e.Scheduler, e.JobName, e.ExitStatus, e.Err, e.Output)
	}
	return fmt.Sprintf("%s submission failed for job %s (status %d): %v",
		e.Scheduler, e.JobName, e.ExitStatus, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NewSubmissionError creates a new SubmissionError
func NewSubmissionError(scheduler string, jobName string, exitStatus int, output string, err error) *SubmissionError {
	return &SubmissionError{
		Scheduler:  scheduler,
		JobName:    jobName,
		ExitStatus: exitStatus,
		Output:     output,
		Err:        err,
	}
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}
