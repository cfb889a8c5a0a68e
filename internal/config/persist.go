package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vitordossantos/NUCoffea/internal/utils"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// EnvPrefix prefixes every environment override (WSSUBMIT_SUBMIT_DELAY, ...).
const EnvPrefix = "WSSUBMIT"

// appDirName is the directory name used under the user/system config roots.
const appDirName = "wssubmit"

// ConfigSearchPath describes one location InitViper looks for a config file.
type ConfigSearchPath struct {
	Path  string
	InUse bool
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment. Variables already set are not overridden. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if !utils.FileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	utils.PrintDebug("Loaded environment from %s", utils.StylePath(path))
	return nil
}

// configDirs returns the config search directories, highest priority first.
func configDirs() []string {
	var dirs []string
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userConfigDir, appDirName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "."+appDirName))
	}
	dirs = append(dirs, filepath.Join("/etc", appDirName), ".")
	return dirs
}

// InitViper initializes Viper with proper search paths and defaults.
// Command-line flags (bound by cobra) win over environment variables
// (WSSUBMIT_*, plus CMSSW_BASE), which win over the config file, which wins
// over defaults. The config file is cfgFile when set, otherwise the first
// config.yaml found in ~/.config/wssubmit, ~/.wssubmit, /etc/wssubmit or ".".
func InitViper(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(ConfigFilename)
		viper.SetConfigType(ConfigType)
		for _, dir := range configDirs() {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// CMSSW_BASE is set by cmsenv and is never prefixed.
	if err := viper.BindEnv("cmssw_base", "CMSSW_BASE"); err != nil {
		return err
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("scheduler_bin", "")
	viper.SetDefault("scram_arch", DefaultScramArch)

	viper.SetDefault("paths.eos_base", DefaultEOSBase)
	viper.SetDefault("paths.group_base", DefaultGroupBase)
	viper.SetDefault("paths.user_base", DefaultUserBase)

	viper.SetDefault("submit.delay", "10s")
	viper.SetDefault("submit.request_disk", 1000000)
	viper.SetDefault("submit.transfer_files", DefaultTransferFiles)

	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.s3.endpoint", "")
	viper.SetDefault("storage.s3.access_key", "")
	viper.SetDefault("storage.s3.secret_key", "")
	viper.SetDefault("storage.s3.bucket", "")
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.use_ssl", true)
	viper.SetDefault("storage.s3.prefix", "/eos/cms/")
}

// ConfigKeys lists the keys shown by `config show` and written by `config init`.
var ConfigKeys = []string{
	"cmssw_base",
	"scheduler_bin",
	"scram_arch",
	"paths.eos_base",
	"paths.group_base",
	"paths.user_base",
	"submit.delay",
	"submit.request_disk",
	"submit.transfer_files",
	"storage.backend",
	"storage.s3.endpoint",
	"storage.s3.access_key",
	"storage.s3.secret_key",
	"storage.s3.bucket",
	"storage.s3.region",
	"storage.s3.use_ssl",
	"storage.s3.prefix",
}

// EnvVarForKey returns the environment variable that overrides key.
func EnvVarForKey(key string) string {
	if key == "cmssw_base" {
		return "CMSSW_BASE"
	}
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+appDirName, ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, appDirName, ConfigFilename+"."+ConfigType), nil
}

// GetConfigSearchPaths lists candidate config files and marks the one Viper loaded.
func GetConfigSearchPaths() []ConfigSearchPath {
	used := viper.ConfigFileUsed()
	var paths []ConfigSearchPath
	for _, dir := range configDirs() {
		p := filepath.Join(dir, ConfigFilename+"."+ConfigType)
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		usedAbs, _ := filepath.Abs(used)
		paths = append(paths, ConfigSearchPath{Path: p, InUse: used != "" && abs == usedAbs})
	}
	return paths
}

// unsavedKeys are never written by SaveConfig. CMSSW_BASE belongs to the
// shell's CMSSW area; credentials stay in the environment or .env.
var unsavedKeys = map[string]bool{
	"cmssw_base":            true,
	"storage.s3.access_key": true,
	"storage.s3.secret_key": true,
}

// SaveConfig saves current Viper config to path, or the user config file if empty.
func SaveConfig(path string) (string, error) {
	if path == "" {
		var err error
		path, err = GetUserConfigPath()
		if err != nil {
			return "", fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	out := viper.New()
	for _, key := range ConfigKeys {
		if unsavedKeys[key] {
			continue
		}
		out.Set(key, viper.Get(key))
	}
	if err := out.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// ValidateBinary checks if a binary exists and is executable
func ValidateBinary(binPath string) bool {
	if binPath == "" {
		return false
	}

	if filepath.IsAbs(binPath) {
		info, err := os.Stat(binPath)
		if err != nil {
			return false
		}
		return !info.IsDir() && info.Mode()&0111 != 0
	}

	_, err := exec.LookPath(binPath)
	return err == nil
}

// DetectSchedulerBin returns the absolute path of condor_submit on PATH, or "".
func DetectSchedulerBin() string {
	if path, err := exec.LookPath("condor_submit"); err == nil {
		return path
	}
	return ""
}

// LoadFromViper loads config from Viper into Global struct
func LoadFromViper() error {
	Global.CMSSWBase = strings.TrimSpace(viper.GetString("cmssw_base"))

	if arch := viper.GetString("scram_arch"); arch != "" {
		Global.ScramArch = arch
	}

	if bin := viper.GetString("scheduler_bin"); bin != "" && ValidateBinary(bin) {
		Global.SchedulerBin = bin
	} else {
		if bin != "" {
			utils.PrintWarning("Configured scheduler_bin %s is not executable; searching PATH", utils.StylePath(bin))
		}
		Global.SchedulerBin = DetectSchedulerBin()
	}

	if v := viper.GetString("paths.eos_base"); v != "" {
		Global.EOSBase = v
	}
	// group_base may be set to "" to disable the output remapping.
	Global.GroupBase = viper.GetString("paths.group_base")
	if v := viper.GetString("paths.user_base"); v != "" {
		Global.UserBase = v
	}

	if v := viper.GetString("submit.delay"); v != "" {
		dur, err := utils.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("submit.delay: %w", err)
		}
		Global.SubmitDelay = dur
	}
	if v := viper.GetInt64("submit.request_disk"); v > 0 {
		Global.RequestDisk = v
	}
	if files := transferFiles(); len(files) > 0 {
		Global.TransferFiles = files
	}

	if v := strings.ToLower(viper.GetString("storage.backend")); v != "" {
		if v != "local" && v != "s3" {
			return fmt.Errorf("storage.backend: unknown backend %q (use local or s3)", v)
		}
		Global.Storage.Backend = v
	}
	Global.Storage.S3 = S3Config{
		Endpoint:  viper.GetString("storage.s3.endpoint"),
		AccessKey: viper.GetString("storage.s3.access_key"),
		SecretKey: viper.GetString("storage.s3.secret_key"),
		Bucket:    viper.GetString("storage.s3.bucket"),
		Region:    viper.GetString("storage.s3.region"),
		UseSSL:    viper.GetBool("storage.s3.use_ssl"),
		Prefix:    viper.GetString("storage.s3.prefix"),
	}

	return nil
}

// transferFiles accepts both a YAML list and a comma-separated env value.
func transferFiles() []string {
	raw := viper.Get("submit.transfer_files")
	if s, ok := raw.(string); ok {
		return utils.SplitList(s)
	}
	var out []string
	for _, f := range viper.GetStringSlice("submit.transfer_files") {
		out = append(out, utils.SplitList(f)...)
	}
	return out
}
