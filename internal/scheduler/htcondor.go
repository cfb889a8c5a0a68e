package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vitordossantos/NUCoffea/internal/utils"
	"golang.org/x/mod/semver"
)

// MinHTCondorVersion is the oldest release that understands
// "queue <var> from <file>".
const MinHTCondorVersion = "8.4.0"

// HTCondorScheduler implements the Scheduler interface for HTCondor
type HTCondorScheduler struct {
	condorSubmitBin string
	workDir         string
	jobIDRe         *regexp.Regexp
}

// NewHTCondorScheduler creates a new HTCondor scheduler instance using condor_submit from PATH
func NewHTCondorScheduler() (*HTCondorScheduler, error) {
	return newHTCondorSchedulerWithBinary("")
}

// NewHTCondorSchedulerWithBinary creates an HTCondor scheduler using an explicit condor_submit path
func NewHTCondorSchedulerWithBinary(condorSubmitBin string) (*HTCondorScheduler, error) {
	return newHTCondorSchedulerWithBinary(condorSubmitBin)
}

func newHTCondorSchedulerWithBinary(condorSubmitBin string) (*HTCondorScheduler, error) {
	binPath := condorSubmitBin
	if binPath == "" {
		var err error
		binPath, err = exec.LookPath("condor_submit")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
	} else {
		if !strings.ContainsRune(binPath, filepath.Separator) {
			if found, err := exec.LookPath(binPath); err == nil {
				binPath = found
			}
		}
		if absPath, err := filepath.Abs(binPath); err == nil {
			binPath = absPath
		}
		info, err := os.Stat(binPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrSchedulerNotFound, binPath)
		}
	}

	return &HTCondorScheduler{
		condorSubmitBin: binPath,
		jobIDRe:         regexp.MustCompile(`submitted to cluster (\d+)`),
	}, nil
}

// SetWorkDir sets the directory condor_submit runs in. Relative paths in the
// generated submit files are resolved against it. Empty means the current directory.
func (h *HTCondorScheduler) SetWorkDir(dir string) {
	h.workDir = dir
}

// IsAvailable checks if HTCondor is available and we're not inside an HTCondor job
func (h *HTCondorScheduler) IsAvailable() bool {
	if h.condorSubmitBin == "" {
		return false
	}
	return !IsInsideJob()
}

// GetInfo returns information about the HTCondor scheduler
func (h *HTCondorScheduler) GetInfo() *SchedulerInfo {
	info := &SchedulerInfo{
		Type:      string(SchedulerHTCondor),
		Binary:    h.condorSubmitBin,
		InJob:     IsInsideJob(),
		Available: h.IsAvailable(),
	}

	if h.condorSubmitBin != "" {
		if version, err := h.getHTCondorVersion(); err == nil {
			info.Version = version
		}
	}

	return info
}

// getHTCondorVersion attempts to get the HTCondor version
func (h *HTCondorScheduler) getHTCondorVersion() (string, error) {
	cmd := exec.Command(h.condorSubmitBin, "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return parseHTCondorVersion(string(output)), nil
}

// parseHTCondorVersion extracts X.Y.Z from output like
// "$CondorVersion: 10.0.0 2022-10-05 BuildID: ... $". Falls back to the first line.
func parseHTCondorVersion(output string) string {
	versionStr := strings.TrimSpace(output)
	lines := strings.Split(versionStr, "\n")
	line := lines[0]
	if strings.Contains(line, "$CondorVersion:") {
		parts := strings.Fields(line)
		for i, p := range parts {
			if p == "$CondorVersion:" && i+1 < len(parts) {
				return parts[i+1]
			}
		}
	}
	return strings.TrimSpace(line)
}

// CheckVersion reports whether version is at least MinHTCondorVersion.
// Unparseable versions are reported as supported.
func CheckVersion(version string) bool {
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return true
	}
	return semver.Compare(v, "v"+MinHTCondorVersion) >= 0
}

// Submit runs condor_submit on submitPath.
// A non-zero exit status yields a SubmissionError; the SubmitResult is returned either way
// so the caller can log the status.
func (h *HTCondorScheduler) Submit(ctx context.Context, submitPath string) (*SubmitResult, error) {
	jobName := filepath.Base(filepath.Dir(submitPath))
	result := &SubmitResult{ExitStatus: -1}

	if !utils.FileExists(h.resolve(submitPath)) {
		return result, fmt.Errorf("%w: %s", ErrSubmitFileNotFound, submitPath)
	}

	cmd := exec.CommandContext(ctx, h.condorSubmitBin, submitPath)
	cmd.Dir = h.workDir
	utils.PrintDebug("Executing: %s", utils.StyleCommand(strings.Join(cmd.Args, " ")))

	output, err := cmd.CombinedOutput()
	result.Output = string(output)
	if cmd.ProcessState != nil {
		result.ExitStatus = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			result.ExitStatus = -1
		}
		return result, NewSubmissionError(string(SchedulerHTCondor), jobName, result.ExitStatus, strings.TrimSpace(result.Output), err)
	}

	// Example: "3 job(s) submitted to cluster 12345."
	matches := h.jobIDRe.FindStringSubmatch(result.Output)
	if len(matches) < 2 {
		return result, fmt.Errorf("%w: %s", ErrJobIDParseFailed, strings.TrimSpace(result.Output))
	}
	result.ClusterID = matches[1]
	return result, nil
}

// resolve returns p as seen from the directory condor_submit runs in.
func (h *HTCondorScheduler) resolve(p string) string {
	if filepath.IsAbs(p) || h.workDir == "" {
		return p
	}
	return filepath.Join(h.workDir, p)
}

var _ Scheduler = (*HTCondorScheduler)(nil)
