package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vitordossantos/NUCoffea/internal/config"
	"github.com/vitordossantos/NUCoffea/internal/utils"
)

var (
	showPath      bool
	initPath      string
	initOverwrite bool
)

// secretKeys are masked by `config show`.
var secretKeys = map[string]bool{
	"storage.s3.access_key": true,
	"storage.s3.secret_key": true,
}

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ConfigKeys, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// getConfigEnvVars returns the sorted environment variables that override config keys.
func getConfigEnvVars() []string {
	vars := make([]string, 0, len(config.ConfigKeys))
	for _, key := range config.ConfigKeys {
		vars = append(vars, config.EnvVarForKey(key))
	}
	sort.Strings(vars)
	return vars
}

// formatValue renders a viper value for display.
func formatValue(key string, value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(v, ",")
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	}
	s := fmt.Sprint(value)
	if secretKeys[key] && s != "" {
		return "********"
	}
	return s
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wssubmit configuration",
	Long: `Manage wssubmit configuration settings.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (WSSUBMIT_*, CMSSW_BASE, and a .env file)
  3. Config file (--config, or the first of ~/.config/wssubmit/config.yaml,
     ~/.wssubmit/config.yaml, /etc/wssubmit/config.yaml, ./config.yaml)
  4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display current configuration values and their sources.

Shows:
  - Config file search paths and which one is in use
  - All configuration settings
  - Environment variable overrides`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showPath {
			configPath, err := config.GetUserConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}
			fmt.Fprintln(utils.Stdout, configPath)
			return nil
		}

		out := utils.Stdout
		fmt.Fprintln(out, utils.StyleTitle("Config File Search Paths:"))
		foundActive := false
		for i, sp := range config.GetConfigSearchPaths() {
			status := ""
			if sp.InUse {
				status = " " + utils.StyleSuccess("← in use")
				foundActive = true
			} else if utils.FileExists(sp.Path) {
				status = " " + utils.StyleInfo("(exists)")
			}
			fmt.Fprintf(out, "  %d. %s%s\n", i+1, sp.Path, status)
		}
		if used := viper.ConfigFileUsed(); used != "" && !foundActive {
			fmt.Fprintf(out, "  %s %s\n", utils.StylePath(used), utils.StyleSuccess("← in use (--config)"))
		} else if !foundActive {
			fmt.Fprintf(out, "  %s (use 'wssubmit config init' to create)\n", utils.StyleWarning("No config file found"))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Current Configuration:"))
		for _, key := range config.ConfigKeys {
			fmt.Fprintf(out, "  %-24s %s\n", key+":", formatValue(key, viper.Get(key)))
		}
		if config.Global.SchedulerBin != "" {
			fmt.Fprintf(out, "  %-24s %s\n", "(resolved scheduler):", utils.StylePath(config.Global.SchedulerBin))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Environment Variable Overrides:"))
		hasEnvOverrides := false
		for _, envVar := range getConfigEnvVars() {
			if val, ok := os.LookupEnv(envVar); ok {
				if strings.HasSuffix(envVar, "_KEY") && val != "" {
					val = "********"
				}
				fmt.Fprintf(out, "  %s=%s\n", envVar, val)
				hasEnvOverrides = true
			}
		}
		if !hasEnvOverrides {
			fmt.Fprintf(out, "  %s\n", utils.StyleInfo("none"))
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value.

Examples:
  wssubmit config get paths.eos_base
  wssubmit config get submit.delay`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !viper.IsSet(key) {
			return fmt.Errorf("unknown config key: %s", key)
		}
		fmt.Fprintln(utils.Stdout, formatValue(key, viper.Get(key)))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with the current settings",
	Long: `Create a configuration file holding the current settings (defaults,
environment overrides and any config file already loaded).

condor_submit is detected on PATH and written as scheduler_bin.
CMSSW_BASE is never written; it comes from the shell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := initPath
		if configPath == "" {
			var err error
			configPath, err = config.GetUserConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}
		}

		if utils.FileExists(configPath) && !initOverwrite {
			if !utils.IsInteractiveShell() {
				return fmt.Errorf("config file already exists: %s (use --overwrite)", configPath)
			}
			utils.PrintWarning("Config file already exists: %s", configPath)
			fmt.Print("Overwrite? [y/N]: ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				utils.PrintNote("Cancelled")
				return nil
			}
		}

		if viper.GetString("scheduler_bin") == "" {
			if bin := config.DetectSchedulerBin(); bin != "" {
				viper.Set("scheduler_bin", bin)
			}
		}

		written, err := config.SaveConfig(configPath)
		if err != nil {
			return err
		}
		utils.PrintSuccess("Config file created")
		fmt.Fprintf(utils.Stdout, "  Location: %s\n", utils.StylePath(written))

		fmt.Fprintln(utils.Stdout)
		fmt.Fprintln(utils.Stdout, utils.StyleTitle("Detected settings:"))
		if schedulerBin := viper.GetString("scheduler_bin"); schedulerBin != "" {
			fmt.Fprintf(utils.Stdout, "  Scheduler: %s\n", schedulerBin)
		} else {
			fmt.Fprintf(utils.Stdout, "  Scheduler: %s\n", utils.StyleWarning("not found"))
		}
		if config.Global.CMSSWBase == "" {
			utils.PrintHint("CMSSW_BASE is not set; run cmsenv before submitting")
		}
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&showPath, "path", false, "Show only the user config file path")
	configInitCmd.Flags().StringVarP(&initPath, "output", "o", "", "Write to this path instead of the user config file")
	configInitCmd.Flags().BoolVar(&initOverwrite, "overwrite", false, "Overwrite an existing config file without asking")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(configCmd)
}
