package config

import (
	"strings"
	"time"
)

const VERSION = "0.3.0"

// Default locations. {tag} and {sample} are substituted per dataset.
const (
	DefaultEOSBase   = "/eos/cms/store/group/phys_smp/ZZTo2L2NNu/VBS/{tag}/{sample}/"
	DefaultGroupBase = "cms/store/group/phys_exotica"
	DefaultUserBase  = "user/j/jabernha"
	DefaultScramArch = "slc6_amd64_gcc630"
)

// DefaultTransferFiles are shipped with every job, relative to the job's initialdir.
var DefaultTransferFiles = []string{
	"../../condor_WS_proc.py",
	"../../data.txt",
	"../../WSProducer.py",
}

// S3Config holds settings for the S3 gateway in front of EOS.
type S3Config struct {
	Endpoint  string // host:port
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// Prefix is stripped from EOS paths to form object keys (e.g. "/eos/cms/").
	Prefix string
}

// StorageConfig selects how input directories are listed.
type StorageConfig struct {
	Backend string // "local" or "s3"
	S3      S3Config
}

// Config holds global application settings
type Config struct {
	Debug   bool
	Version string

	CMSSWBase    string
	ScramArch    string
	SchedulerBin string

	EOSBase   string
	GroupBase string
	UserBase  string

	SubmitDelay   time.Duration
	RequestDisk   int64
	TransferFiles []string

	Storage StorageConfig
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to built-in defaults.
func LoadDefaults() {
	Global = Config{
		Debug:   false,
		Version: VERSION,

		ScramArch: DefaultScramArch,

		EOSBase:   DefaultEOSBase,
		GroupBase: DefaultGroupBase,
		UserBase:  DefaultUserBase,

		SubmitDelay:   10 * time.Second,
		RequestDisk:   1000000,
		TransferFiles: append([]string(nil), DefaultTransferFiles...),

		Storage: StorageConfig{
			Backend: "local",
			S3: S3Config{
				Region: "us-east-1",
				UseSSL: true,
				Prefix: "/eos/cms/",
			},
		},
	}
}

// InputDir returns the EOS directory holding the inputs of sample for tag.
func (c *Config) InputDir(tag, sample string) string {
	return FormatEOSPath(c.EOSBase, tag, sample)
}

// OutputDir returns the EOS directory the jobs copy their trees to: the
// input directory with the group area swapped for the user area.
func (c *Config) OutputDir(tag, sample string) string {
	in := c.InputDir(tag, sample)
	if c.GroupBase == "" {
		return in
	}
	return strings.ReplaceAll(in, c.GroupBase, c.UserBase)
}

// FormatEOSPath substitutes {tag} and {sample} in base.
func FormatEOSPath(base, tag, sample string) string {
	return strings.NewReplacer("{tag}", tag, "{sample}", sample).Replace(base)
}
