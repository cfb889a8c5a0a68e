package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	LoadDefaults()
	t.Cleanup(viper.Reset)
}

func TestFormatEOSPath(t *testing.T) {
	got := FormatEOSPath(DefaultEOSBase, "SGP2016", "DYJetsToLL")
	want := "/eos/cms/store/group/phys_smp/ZZTo2L2NNu/VBS/SGP2016/DYJetsToLL/"
	if got != want {
		t.Errorf("FormatEOSPath = %q; want %q", got, want)
	}
}

func TestOutputDir(t *testing.T) {
	resetConfig(t)

	// Default group area does not occur in the default EOS base.
	if got, want := Global.OutputDir("T", "S"), Global.InputDir("T", "S"); got != want {
		t.Errorf("OutputDir = %q; want unchanged %q", got, want)
	}

	Global.EOSBase = "/eos/cms/store/group/phys_exotica/{tag}/{sample}/"
	got := Global.OutputDir("T", "S")
	want := "/eos/user/j/jabernha/T/S/"
	if got != want {
		t.Errorf("OutputDir = %q; want %q", got, want)
	}

	Global.GroupBase = ""
	if got := Global.OutputDir("T", "S"); got != Global.InputDir("T", "S") {
		t.Errorf("OutputDir with empty group base = %q", got)
	}
}

func TestInitViperReadsConfigFile(t *testing.T) {
	resetConfig(t)
	t.Setenv("CMSSW_BASE", "/afs/cern.ch/user/j/jabernha/CMSSW_10_2_13")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `scram_arch: slc7_amd64_gcc700
paths:
  eos_base: /eos/user/j/jabernha/{tag}/{sample}/
submit:
  delay: "00:00:02"
  request_disk: 2000000
  transfer_files:
    - ../../a.py
    - ../../b.txt
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := InitViper(cfgPath); err != nil {
		t.Fatalf("InitViper failed: %v", err)
	}
	if err := LoadFromViper(); err != nil {
		t.Fatalf("LoadFromViper failed: %v", err)
	}

	if Global.CMSSWBase != "/afs/cern.ch/user/j/jabernha/CMSSW_10_2_13" {
		t.Errorf("CMSSWBase = %q", Global.CMSSWBase)
	}
	if Global.ScramArch != "slc7_amd64_gcc700" {
		t.Errorf("ScramArch = %q", Global.ScramArch)
	}
	if Global.EOSBase != "/eos/user/j/jabernha/{tag}/{sample}/" {
		t.Errorf("EOSBase = %q", Global.EOSBase)
	}
	if Global.SubmitDelay != 2*time.Second {
		t.Errorf("SubmitDelay = %v; want 2s", Global.SubmitDelay)
	}
	if Global.RequestDisk != 2000000 {
		t.Errorf("RequestDisk = %d", Global.RequestDisk)
	}
	if len(Global.TransferFiles) != 2 || Global.TransferFiles[1] != "../../b.txt" {
		t.Errorf("TransferFiles = %v", Global.TransferFiles)
	}
	// Untouched keys keep their defaults.
	if Global.GroupBase != DefaultGroupBase {
		t.Errorf("GroupBase = %q; want default", Global.GroupBase)
	}
}

func TestEnvOverridesTransferFiles(t *testing.T) {
	resetConfig(t)
	t.Setenv("WSSUBMIT_SUBMIT_TRANSFER_FILES", "../../x.py, ../../y.py")
	t.Setenv("WSSUBMIT_SUBMIT_DELAY", "0")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitViper(cfgPath); err != nil {
		t.Fatalf("InitViper failed: %v", err)
	}
	if err := LoadFromViper(); err != nil {
		t.Fatalf("LoadFromViper failed: %v", err)
	}

	want := []string{"../../x.py", "../../y.py"}
	if len(Global.TransferFiles) != len(want) {
		t.Fatalf("TransferFiles = %v; want %v", Global.TransferFiles, want)
	}
	for i := range want {
		if Global.TransferFiles[i] != want[i] {
			t.Errorf("TransferFiles[%d] = %q; want %q", i, Global.TransferFiles[i], want[i])
		}
	}
	if Global.SubmitDelay != 0 {
		t.Errorf("SubmitDelay = %v; want 0", Global.SubmitDelay)
	}
}

func TestLoadFromViperRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"storage.backend": "xrootd",
		"submit.delay":    "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			resetConfig(t)
			setDefaults()
			viper.Set(key, value)
			if err := LoadFromViper(); err == nil {
				t.Errorf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestEnvVarForKey(t *testing.T) {
	cases := map[string]string{
		"cmssw_base":          "CMSSW_BASE",
		"submit.delay":        "WSSUBMIT_SUBMIT_DELAY",
		"storage.s3.endpoint": "WSSUBMIT_STORAGE_S3_ENDPOINT",
	}
	for key, want := range cases {
		if got := EnvVarForKey(key); got != want {
			t.Errorf("EnvVarForKey(%q) = %q; want %q", key, got, want)
		}
	}
}

func TestSaveConfigSkipsCMSSWBase(t *testing.T) {
	resetConfig(t)
	setDefaults()
	viper.Set("cmssw_base", "/some/area")
	viper.Set("scram_arch", "el9_amd64_gcc12")
	viper.Set("storage.s3.secret_key", "hunter2")

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	written, err := SaveConfig(path)
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if written != path {
		t.Errorf("SaveConfig wrote %q; want %q", written, path)
	}

	check := viper.New()
	check.SetConfigFile(path)
	if err := check.ReadInConfig(); err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if check.IsSet("cmssw_base") {
		t.Errorf("cmssw_base should not be persisted")
	}
	if check.IsSet("storage.s3.secret_key") {
		t.Errorf("storage.s3.secret_key should not be persisted")
	}
	if got := check.GetString("scram_arch"); got != "el9_amd64_gcc12" {
		t.Errorf("scram_arch = %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WSSUBMIT_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WSSUBMIT_TEST_DOTENV", "")
	os.Unsetenv("WSSUBMIT_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("WSSUBMIT_TEST_DOTENV"); got != "from-file" {
		t.Errorf("WSSUBMIT_TEST_DOTENV = %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should not be an error: %v", err)
	}
}
