package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vitordossantos/NUCoffea/internal/config"
	"github.com/vitordossantos/NUCoffea/internal/scheduler"
	"github.com/vitordossantos/NUCoffea/internal/storage"
	"github.com/vitordossantos/NUCoffea/internal/submitter"
	"github.com/vitordossantos/NUCoffea/internal/utils"
)

var (
	debugMode bool
	quietMode bool
	cfgFile   string

	runOpts submitter.Options
)

// singleDashLongFlags are historical spellings users type with one dash.
// pflag would read -isMC as -i sMC, so they are rewritten before parsing.
var singleDashLongFlags = map[string]string{
	"-isMC": "--isMC",
	"-dry":  "--dryrun",
}

// viperFlags binds root flags to config keys so they override the config file.
var viperFlags = map[string]string{
	"delay":   "submit.delay",
	"storage": "storage.backend",
}

var rootCmd = &cobra.Command{
	Use:   "wssubmit",
	Short: "wssubmit: write and submit per-sample HTCondor job bundles.",
	Long: `Write one HTCondor job directory per dataset of a manifest and submit it.

For every dataset line of the input file a directory jobs_<tag>_<sample> is
created holding script.sh, condor.sub and inputfiles.dat (the files found in
the sample's EOS directory). condor_submit is then run on condor.sub unless
--dryrun is given.

CMSSW_BASE must be set (run cmsenv first).`,
	Example: `  wssubmit -i data.txt -t SGP2016 --dryrun
  wssubmit -i data.txt -t SGP2016 -isMC 0 -e 2018 -q workday
  wssubmit -i data.txt -t SGP2016 -s         # resubmit prepared directories`,
	Version:       config.VERSION,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.QuietMode = quietMode
		if debugMode {
			utils.DebugMode = true
		}

		// Step 1: .env from the working directory
		if err := config.LoadDotEnv(""); err != nil {
			utils.PrintWarning("%v", err)
		}

		// Step 2: Load defaults
		config.LoadDefaults()

		// Step 3: Initialize Viper (config file, env vars)
		if err := config.InitViper(cfgFile); err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			utils.PrintDebug("Using config file: %s", utils.StylePath(used))
		}

		// Step 4: Load values from Viper into Global config
		if err := config.LoadFromViper(); err != nil {
			return err
		}
		config.Global.Debug = debugMode

		utils.PrintDebug("wssubmit Version: %s", utils.StyleInfo(config.VERSION))
		utils.PrintDebug("CMSSW_BASE: %s", config.Global.CMSSWBase)
		utils.PrintDebug("EOS base: %s", config.Global.EOSBase)
		utils.PrintDebug("Storage backend: %s", config.Global.Storage.Backend)
		if config.Global.SchedulerBin != "" {
			utils.PrintDebug("Scheduler Binary: %s", config.Global.SchedulerBin)
		}
		return nil
	},

	RunE: runSubmit,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		utils.PrintError("%v", err)
		var outErr *submitter.InvalidOutputDirError
		if errors.As(err, &outErr) {
			utils.PrintHint("Output directories must be on EOS; check paths.eos_base, paths.group_base and paths.user_base")
		}
		if errors.Is(err, submitter.ErrMissingCMSSWBase) {
			utils.PrintHint("Run %s in your CMSSW area first", utils.StyleCommand("cmsenv"))
		}
		os.Exit(1)
	}
}

// normalizeArgs rewrites single-dash long flags to their double-dash form.
// Everything after a bare "--" is left alone.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := singleDashLongFlags[name]; ok {
			if hasValue {
				long += "=" + value
			}
			out = append(out, long)
			continue
		}
		out = append(out, arg)
	}
	return out
}

// bindFlags binds each named flag of fs to its viper key.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	lister, err := storage.New(config.Global.Storage)
	if err != nil {
		return err
	}

	options := []submitter.Option{
		submitter.WithLister(lister),
		submitter.WithWorkDir(cwd),
	}
	if !runOpts.DryRun {
		sched, err := newScheduler(cwd)
		if err != nil {
			return err
		}
		options = append(options, submitter.WithScheduler(sched))
	}

	sub, err := submitter.New(&config.Global, runOpts, options...)
	if err != nil {
		return err
	}
	utils.PrintDebug("Batch ID: %s", sub.BatchID())

	summary, err := sub.Run(ctx)
	printSummary(summary)
	if errors.Is(err, context.Canceled) {
		utils.PrintWarning("Interrupted; remaining samples were not processed")
		return nil
	}
	return err
}

// newScheduler locates condor_submit and checks it can be used from here.
func newScheduler(workDir string) (*scheduler.HTCondorScheduler, error) {
	sched, err := scheduler.NewHTCondorSchedulerWithBinary(config.Global.SchedulerBin)
	if err != nil {
		utils.PrintHint("Use %s to only write the job directories", utils.StyleCommand("--dryrun"))
		return nil, err
	}
	if scheduler.IsInsideJob() {
		return nil, scheduler.ErrAlreadyInJob
	}
	if !sched.IsAvailable() {
		return nil, scheduler.ErrSchedulerNotAvailable
	}

	info := sched.GetInfo()
	if info.Version != "" && !scheduler.CheckVersion(info.Version) {
		utils.PrintWarning("HTCondor %s is older than %s; 'queue ... from' may not be supported",
			info.Version, scheduler.MinHTCondorVersion)
	}
	sched.SetWorkDir(workDir)
	return sched, nil
}

func printSummary(s *submitter.Summary) {
	if s == nil {
		return
	}
	utils.PrintMessage("Batch %s: %s dataset(s), %s prepared, %s submitted, %s skipped, %s failed",
		utils.StyleInfo(s.BatchID),
		utils.StyleNumber(s.Total),
		utils.StyleNumber(s.Prepared),
		utils.StyleNumber(s.Submitted),
		utils.StyleNumber(s.Skipped),
		utils.StyleNumber(s.Failed))
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: search ~/.config/wssubmit, ~/.wssubmit, /etc/wssubmit, .)")

	flags := rootCmd.Flags()
	flags.StringVarP(&runOpts.Input, "input", "i", "", "Manifest with one dataset path per line")
	flags.StringVarP(&runOpts.Tag, "tag", "t", "", "Production tag, used in EOS paths and job directory names")
	flags.IntVar(&runOpts.IsMC, "isMC", 1, "1 for simulation, 0 for data (also -isMC)")
	flags.StringVarP(&runOpts.Queue, "queue", "q", submitter.DefaultQueue, "HTCondor +JobFlavour")
	flags.StringVarP(&runOpts.Era, "era", "e", submitter.DefaultEra, "Data-taking era passed to the job")
	flags.BoolVarP(&runOpts.Force, "force", "f", false, "Delete and recreate existing job directories")
	flags.BoolVarP(&runOpts.SubmitOnly, "submit", "s", false, "Only submit: reuse existing job directories and their inputfiles.dat")
	flags.BoolVar(&runOpts.DryRun, "dryrun", false, "Write job directories without running condor_submit (also -dry)")
	flags.String("delay", "", "Pause between samples, e.g. 10s or 00:00:10 (overrides submit.delay)")
	flags.String("storage", "", "Input listing backend: local or s3 (overrides storage.backend)")

	_ = rootCmd.MarkFlagRequired("input")
	_ = rootCmd.MarkFlagRequired("tag")
	_ = rootCmd.MarkFlagFilename("input")
	_ = rootCmd.RegisterFlagCompletionFunc("storage", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"local", "s3"}, cobra.ShellCompDirectiveNoFileComp
	})

	if err := bindFlags(flags, viperFlags); err != nil {
		panic(err)
	}
}
