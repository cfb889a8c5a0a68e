// Package submitter drives a submission: for every dataset of the manifest it
// prepares a job directory, lists the inputs on EOS, writes the bundle and
// hands it to condor_submit.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitordossantos/NUCoffea/internal/config"
	"github.com/vitordossantos/NUCoffea/internal/jobs"
	"github.com/vitordossantos/NUCoffea/internal/manifest"
	"github.com/vitordossantos/NUCoffea/internal/scheduler"
	"github.com/vitordossantos/NUCoffea/internal/storage"
	"github.com/vitordossantos/NUCoffea/internal/utils"
)

// Options are the per-run choices made on the command line.
type Options struct {
	Input      string // manifest path
	Tag        string // production tag
	IsMC       int    // 1 for simulation, 0 for data
	Queue      string // +JobFlavour
	Era        string
	Force      bool // recreate existing job directories
	SubmitOnly bool // reuse job directories and their inputfiles.dat
	DryRun     bool // write bundles without calling condor_submit
}

// Defaults for Options fields left empty.
const (
	DefaultQueue = "testmatch"
	DefaultEra   = "2017"
)

// Summary counts what happened to each dataset of a run.
type Summary struct {
	BatchID   string
	Total     int // datasets in the manifest
	Prepared  int // bundles written
	Submitted int // bundles accepted by condor_submit
	Skipped   int // existing job directories left alone
	Failed    int // listing, writing or submission failures
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Submitter runs one submission.
type Submitter struct {
	opts    Options
	cfg     *config.Config
	lister  storage.Lister
	sched   scheduler.Scheduler
	sleep   SleepFunc
	workDir string
	batchID string
}

// Option configures a Submitter
type Option func(*Submitter)

// WithLister sets how input directories are listed
func WithLister(l storage.Lister) Option {
	return func(s *Submitter) {
		s.lister = l
	}
}

// WithScheduler sets the scheduler bundles are submitted to
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(s *Submitter) {
		s.sched = sched
	}
}

// WithSleep replaces the pause between samples
func WithSleep(fn SleepFunc) Option {
	return func(s *Submitter) {
		s.sleep = fn
	}
}

// WithWorkDir sets the directory job directories are created in. Submit
// paths handed to the scheduler are relative to it, so the scheduler must run
// there too.
func WithWorkDir(dir string) Option {
	return func(s *Submitter) {
		s.workDir = dir
	}
}

// WithBatchID fixes the batch ID instead of generating one
func WithBatchID(id string) Option {
	return func(s *Submitter) {
		s.batchID = id
	}
}

// New validates opts against cfg and returns a Submitter.
func New(cfg *config.Config, opts Options, options ...Option) (*Submitter, error) {
	if opts.Input == "" {
		return nil, ErrMissingInput
	}
	if opts.Tag == "" {
		return nil, ErrMissingTag
	}
	if cfg.CMSSWBase == "" {
		return nil, ErrMissingCMSSWBase
	}
	if opts.Queue == "" {
		opts.Queue = DefaultQueue
	}
	if opts.Era == "" {
		opts.Era = DefaultEra
	}

	s := &Submitter{
		opts:  opts,
		cfg:   cfg,
		sleep: sleepContext,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.lister == nil {
		s.lister = storage.NewLocalLister()
	}
	if s.sched == nil && !opts.DryRun {
		return nil, ErrSchedulerRequired
	}
	if s.batchID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate batch ID: %w", err)
		}
		s.batchID = id.String()
	}
	return s, nil
}

// BatchID returns the ID written as +SubmitBatch into every condor.sub of this run.
func (s *Submitter) BatchID() string {
	return s.batchID
}

// Run processes every dataset of the manifest in order. Per-sample problems
// are logged and counted; Run only returns an error for a broken manifest,
// an output directory off EOS, or cancellation.
func (s *Submitter) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{BatchID: s.batchID}

	datasets, err := manifest.Load(s.opts.Input, s.opts.IsMC != 0)
	if err != nil {
		return summary, err
	}
	summary.Total = len(datasets)
	if len(datasets) == 0 {
		utils.PrintWarning("No datasets found in %s", utils.StylePath(s.opts.Input))
		return summary, nil
	}
	utils.PrintDebug("Batch %s: %d dataset(s) from %s", s.batchID, len(datasets), s.opts.Input)

	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		err := s.processSample(ctx, ds, summary)
		switch {
		case err == nil:
		case errors.Is(err, jobs.ErrJobDirExists):
			utils.PrintError(" %s already exist !", utils.StylePath(jobs.DirName(s.opts.Tag, ds.Name)))
			summary.Skipped++
		case IsInvalidOutputDirError(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return summary, err
		default:
			utils.PrintError("%s: %v", utils.StyleName(ds.Name), err)
			summary.Failed++
		}
	}

	return summary, nil
}

func (s *Submitter) processSample(ctx context.Context, ds manifest.Dataset, summary *Summary) error {
	utils.PrintMessage("-- sample_name : %s", ds.Path)

	jobDir := jobs.DirName(s.opts.Tag, ds.Name)
	localDir := filepath.Join(s.workDir, jobDir)

	res, err := jobs.Prepare(localDir, jobs.PrepareOptions{
		Force: s.opts.Force,
		Reuse: s.opts.SubmitOnly,
	})
	if err != nil {
		return err
	}
	utils.PrintDebug("Job directory %s %s", utils.StylePath(jobDir), res)

	inDir := s.cfg.InputDir(s.opts.Tag, ds.Name)
	if s.opts.SubmitOnly {
		files, err := jobs.ReadInputList(localDir)
		if err != nil {
			return err
		}
		utils.PrintDebug("Reusing %d input file(s) from %s", len(files), jobs.InputListFile)
	} else {
		files, err := s.lister.List(ctx, inDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			utils.PrintWarning("No input files found in %s", utils.StylePath(inDir))
		}
		if err := jobs.WriteInputList(localDir, files); err != nil {
			return err
		}
		utils.PrintDebug("Listed %d input file(s) from %s", len(files), utils.StylePath(inDir))
	}

	if err := s.sleep(ctx, s.cfg.SubmitDelay); err != nil {
		return err
	}

	outDir := s.cfg.OutputDir(s.opts.Tag, ds.Name)
	if !strings.Contains(outDir, "/eos") {
		return &InvalidOutputDirError{Sample: ds.Name, Dir: outDir}
	}
	// Printed even in quiet mode: users copy it to create the output area.
	fmt.Fprintf(utils.Stdout, " mkdir -p %s\n", outDir)

	script, err := jobs.RenderScript(jobs.ScriptParams{
		CMSSWBase: s.cfg.CMSSWBase,
		ScramArch: s.cfg.ScramArch,
		IsMC:      s.opts.IsMC,
		Era:       s.opts.Era,
		EOSOutDir: outDir,
	})
	if err != nil {
		return err
	}
	submit, err := jobs.RenderSubmit(jobs.SubmitParams{
		JobDir:        jobDir,
		Queue:         s.opts.Queue,
		TransferFiles: s.cfg.TransferFiles,
		RequestDisk:   s.cfg.RequestDisk,
		BatchID:       s.batchID,
	})
	if err != nil {
		return err
	}
	if err := jobs.WriteBundle(localDir, script, submit); err != nil {
		return err
	}
	summary.Prepared++

	if s.opts.DryRun {
		utils.PrintNote("Dry run: %s not submitted", utils.StylePath(jobs.SubmitPath(jobDir)))
		return nil
	}

	result, err := s.sched.Submit(ctx, jobs.SubmitPath(jobDir))
	if result != nil {
		utils.PrintMessage("condor submission status : %d", result.ExitStatus)
	}
	if err != nil {
		if errors.Is(err, scheduler.ErrJobIDParseFailed) {
			// condor_submit exited cleanly; only the cluster id is unknown.
			utils.PrintWarning("%v", err)
			summary.Submitted++
			return nil
		}
		return err
	}
	utils.PrintSuccess("%s submitted to cluster %s", utils.StyleName(ds.Name), utils.StyleNumber(result.ClusterID))
	summary.Submitted++
	return nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
