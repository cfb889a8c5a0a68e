package jobs

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrJobDirExists indicates the job directory is already present and neither
	// force nor reuse was requested
	ErrJobDirExists = errors.New("job directory already exists")

	// ErrInputListMissing indicates inputfiles.dat is absent from a reused job directory
	ErrInputListMissing = errors.New("input file list not found")

	// ErrInputListEmpty indicates no input files were found for a sample
	ErrInputListEmpty = errors.New("input file list is empty")

	// ErrInvalidParams indicates template parameters are incomplete
	ErrInvalidParams = errors.New("invalid bundle parameters")
)

// BundleError represents an error writing one of the files of a job bundle
type BundleError struct {
	JobDir string // Job directory
	Path   string // File being written
	Err    error  // Underlying error
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("failed to write %s for job %s: %v", e.Path, e.JobDir, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// NewBundleError creates a new BundleError
func NewBundleError(jobDir, path string, err error) *BundleError {
	return &BundleError{
		JobDir: jobDir,
		Path:   path,
		Err:    err,
	}
}

// IsBundleError checks if an error is a BundleError
func IsBundleError(err error) bool {
	var be *BundleError
	return errors.As(err, &be)
}
