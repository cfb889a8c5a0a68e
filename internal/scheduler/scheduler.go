// Package scheduler wraps the HTCondor command-line tools used to submit
// job bundles.
package scheduler

import (
	"context"
	"os"
)

// SchedulerType represents the type of job scheduler
type SchedulerType string

const (
	SchedulerHTCondor SchedulerType = "HTCondor"
)

// SchedulerInfo holds information about the detected scheduler
type SchedulerInfo struct {
	Type      string // Scheduler type
	Binary    string // Path to scheduler binary (e.g., "/usr/bin/condor_submit")
	Version   string // Scheduler version (if available)
	InJob     bool   // Whether we're currently inside a scheduled job
	Available bool   // Whether scheduler is available for job submission
}

// SubmitResult is what the scheduler reported for one submission.
type SubmitResult struct {
	ExitStatus int    // Exit status of the submit tool; -1 if it did not run
	ClusterID  string // Cluster ID assigned by the scheduler, if parsed
	Output     string // Combined stdout and stderr
}

// Scheduler defines the interface for job schedulers
type Scheduler interface {
	// IsAvailable checks if the scheduler is available and we're not already in a job
	IsAvailable() bool

	// GetInfo returns information about the scheduler
	GetInfo() *SchedulerInfo

	// Submit submits a submit description file. The result is returned
	// whenever the tool ran, also alongside a non-nil error.
	Submit(ctx context.Context, submitPath string) (*SubmitResult, error)
}

// Detect returns the HTCondor scheduler for preferredBin, or condor_submit on
// PATH when preferredBin is empty.
func Detect(preferredBin string) (Scheduler, error) {
	sched, err := NewHTCondorSchedulerWithBinary(preferredBin)
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// IsInsideJob checks if we're currently running inside an HTCondor job.
// This is useful to avoid nested job submission.
func IsInsideJob() bool {
	_, ok := os.LookupEnv("_CONDOR_JOB_AD")
	return ok
}
