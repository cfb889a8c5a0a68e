package submitter

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrMissingCMSSWBase indicates CMSSW_BASE is not set (cmsenv was not run)
	ErrMissingCMSSWBase = errors.New("CMSSW_BASE is not set; run cmsenv in your CMSSW area first")

	// ErrMissingTag indicates no production tag was given
	ErrMissingTag = errors.New("production tag is required")

	// ErrMissingInput indicates no manifest was given
	ErrMissingInput = errors.New("input manifest is required")

	// ErrSchedulerRequired indicates submission was requested without a scheduler
	ErrSchedulerRequired = errors.New("a scheduler is required unless running with --dryrun")
)

// InvalidOutputDirError is returned when a sample's output directory is not
// on EOS. It aborts the whole run: every later sample would hit the same
// misconfigured path.
type InvalidOutputDirError struct {
	Sample string
	Dir    string
}

func (e *InvalidOutputDirError) Error() string {
	return fmt.Sprintf("output directory %s for sample %s is not on /eos", e.Dir, e.Sample)
}

// IsInvalidOutputDirError checks if an error is an InvalidOutputDirError
func IsInvalidOutputDirError(err error) bool {
	var oe *InvalidOutputDirError
	return errors.As(err, &oe)
}
