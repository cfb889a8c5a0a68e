// Package jobs lays out per-sample job directories and writes their bundles:
// the worker wrapper script.sh, the submit description condor.sub, and the
// inputfiles.dat list that condor iterates over.
package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitordossantos/NUCoffea/internal/utils"
)

// Bundle file names inside a job directory.
const (
	ScriptFile    = "script.sh"
	SubmitFile    = "condor.sub"
	InputListFile = "inputfiles.dat"
)

// DirName returns the job directory name for a sample: jobs_<tag>_<sample>.
func DirName(tag, sample string) string {
	return strings.Join([]string{"jobs", tag, sample}, "_")
}

// PrepareOptions controls how an existing job directory is treated.
type PrepareOptions struct {
	Force bool // remove an existing directory and start over
	Reuse bool // keep an existing directory as is (submit-only runs)
}

// PrepareResult reports what Prepare did.
type PrepareResult int

const (
	Created PrepareResult = iota
	Recreated
	Reused
)

func (r PrepareResult) String() string {
	switch r {
	case Created:
		return "created"
	case Recreated:
		return "recreated"
	case Reused:
		return "reused"
	default:
		return fmt.Sprintf("PrepareResult(%d)", int(r))
	}
}

// Prepare makes sure dir exists and is ready to receive a bundle.
// An existing directory is an ErrJobDirExists error unless opts asks to force
// or reuse it. Force wins over Reuse.
func Prepare(dir string, opts PrepareOptions) (PrepareResult, error) {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.Mkdir(dir, utils.PermDir); err != nil {
			return Created, fmt.Errorf("failed to create job directory %s: %w", dir, err)
		}
		return Created, nil
	case err != nil:
		return Created, fmt.Errorf("failed to stat job directory %s: %w", dir, err)
	case !info.IsDir():
		return Created, fmt.Errorf("%s exists and is not a directory", dir)
	}

	if opts.Force {
		utils.PrintWarning(" %s already exists, forcing its deletion!", utils.StylePath(dir))
		if err := os.RemoveAll(dir); err != nil {
			return Recreated, fmt.Errorf("failed to remove job directory %s: %w", dir, err)
		}
		if err := os.Mkdir(dir, utils.PermDir); err != nil {
			return Recreated, fmt.Errorf("failed to create job directory %s: %w", dir, err)
		}
		return Recreated, nil
	}

	if opts.Reuse {
		utils.PrintDebug("Reusing job directory %s", utils.StylePath(dir))
		return Reused, nil
	}

	return Created, fmt.Errorf("%w: %s", ErrJobDirExists, dir)
}

// WriteInputList writes one path per line to dir/inputfiles.dat.
func WriteInputList(dir string, paths []string) error {
	target := filepath.Join(dir, InputListFile)
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(target, []byte(b.String()), utils.PermFile); err != nil {
		return NewBundleError(dir, target, err)
	}
	return nil
}

// ReadInputList returns the paths listed in dir/inputfiles.dat.
func ReadInputList(dir string) ([]string, error) {
	target := filepath.Join(dir, InputListFile)
	if !utils.FileExists(target) {
		return nil, fmt.Errorf("%w: %s", ErrInputListMissing, target)
	}
	paths, err := utils.ReadLines(target)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInputListEmpty, target)
	}
	return paths, nil
}

// WriteBundle writes script.sh (executable) and condor.sub into dir.
func WriteBundle(dir, script, submit string) error {
	scriptPath := filepath.Join(dir, ScriptFile)
	if err := os.WriteFile(scriptPath, []byte(script), utils.PermExec); err != nil {
		return NewBundleError(dir, scriptPath, err)
	}
	// WriteFile keeps the mode of an existing file; reused dirs may hold a 0644 script.
	if err := os.Chmod(scriptPath, utils.PermExec); err != nil {
		return NewBundleError(dir, scriptPath, err)
	}

	submitPath := filepath.Join(dir, SubmitFile)
	if err := os.WriteFile(submitPath, []byte(submit), utils.PermFile); err != nil {
		return NewBundleError(dir, submitPath, err)
	}
	return nil
}

// SubmitPath returns the condor.sub path of dir.
func SubmitPath(dir string) string {
	return filepath.Join(dir, SubmitFile)
}
