package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitordossantos/NUCoffea/internal/config"
	"github.com/vitordossantos/NUCoffea/internal/scheduler"
	"github.com/vitordossantos/NUCoffea/internal/utils"
)

var schedulerCmd = &cobra.Command{
	Use:     "scheduler",
	Aliases: []string{"sched"},
	Short:   "Display HTCondor information",
	Long: `Display information about the HTCondor installation used for submission.

Shows the condor_submit binary, its version, and availability status.`,
	Example: `  wssubmit scheduler           # Show scheduler information
  wssubmit sched              # Short alias`,
	Args: cobra.NoArgs,
	Run:  runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) {
	sched, err := scheduler.Detect(config.Global.SchedulerBin)
	if err != nil {
		if scheduler.IsInsideJob() {
			utils.PrintMessage("Scheduler Status: %s", utils.StyleWarning("Unavailable (inside job)"))
			utils.PrintMessage("")
			utils.PrintMessage("You are currently inside an HTCondor job; submission is disabled to prevent nested submissions.")
			return
		}

		utils.PrintMessage("Scheduler Status: %s", utils.StyleError("Not Found"))
		utils.PrintMessage("")
		utils.PrintMessage("condor_submit was not found on PATH and scheduler_bin is not set.")
		utils.PrintHint("Use %s to write job directories without submitting", utils.StyleCommand("--dryrun"))
		return
	}

	info := sched.GetInfo()

	// Structured output, no [SUB] prefix
	out := utils.Stdout
	fmt.Fprintln(out, "Scheduler Information:")
	fmt.Fprintf(out, "  Type:      %s\n", utils.StyleInfo(info.Type))
	fmt.Fprintf(out, "  Binary:    %s\n", utils.StylePath(info.Binary))

	if info.Version != "" {
		fmt.Fprintf(out, "  Version:   %s\n", utils.StyleNumber(info.Version))
		if !scheduler.CheckVersion(info.Version) {
			fmt.Fprintf(out, "             %s\n", utils.StyleWarning(
				fmt.Sprintf("older than %s; 'queue ... from' may not be supported", scheduler.MinHTCondorVersion)))
		}
	}

	if info.InJob {
		fmt.Fprintf(out, "  Status:    %s (inside job)\n", utils.StyleError("Unavailable"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "You are currently inside an HTCondor job (_CONDOR_JOB_AD is set).")
		fmt.Fprintln(out, "Job submission is disabled to prevent nested job submissions.")
		return
	} else if info.Available {
		fmt.Fprintf(out, "  Status:    %s\n", utils.StyleSuccess("Available"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "The scheduler is available and ready for job submission.")
	} else {
		fmt.Fprintf(out, "  Status:    %s\n", utils.StyleError("Unavailable"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Scheduler detected but not available for job submission.")
	}
}
