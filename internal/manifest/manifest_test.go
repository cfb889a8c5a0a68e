package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleManifest = `/DYJetsToLL_M-50_TuneCP5_13TeV-madgraphMLM-pythia8/RunIIFall17NanoAODv4-PU2017_v1/NANOAODSIM
# /WZTo3LNu_TuneCP5_13TeV-amcatnloFXFX-pythia8/RunIIFall17NanoAODv4/NANOAODSIM

ZZTo2L2Nu_13TeV_powheg_pythia8
/ZZTo2L2Nu_13TeV_powheg_pythia8/RunIIFall17NanoAODv4-PU2017_v1/NANOAODSIM # old
/GluGluToContinToZZTo2e2nu_13TeV_MCFM701_pythia8/RunIIFall17NanoAODv4-PU2017_v2/NANOAODSIM
`

func TestParseMC(t *testing.T) {
	datasets, err := Parse(strings.NewReader(sampleManifest), true)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []struct {
		name string
		line int
	}{
		{"DYJetsToLL_M-50_TuneCP5_13TeV-madgraphMLM-pythia8", 1},
		{"GluGluToContinToZZTo2e2nu_13TeV_MCFM701_pythia8", 6},
	}
	if len(datasets) != len(want) {
		t.Fatalf("got %d datasets, want %d: %+v", len(datasets), len(want), datasets)
	}
	for i, w := range want {
		if datasets[i].Name != w.name {
			t.Errorf("datasets[%d].Name = %q; want %q", i, datasets[i].Name, w.name)
		}
		if datasets[i].Line != w.line {
			t.Errorf("datasets[%d].Line = %d; want %d", i, datasets[i].Line, w.line)
		}
	}
}

func TestSampleName(t *testing.T) {
	tests := []struct {
		path string
		isMC bool
		want string
	}{
		{"/DoubleMuon/Run2017B-Nano14Dec2018-v1/NANOAOD", false, "DoubleMuon_Run2017B-Nano14Dec2018-v1"},
		{"/DoubleMuon/Run2017B-Nano14Dec2018-v1/NANOAOD", true, "DoubleMuon"},
		{"/SingleElectron", false, "SingleElectron"},
		{"/SingleElectron", true, "SingleElectron"},
		{"a/b/c", true, "b"},
		{"a/b/c", false, "b_c"},
		{"noslash", true, ""},
	}
	for _, tt := range tests {
		if got := SampleName(tt.path, tt.isMC); got != tt.want {
			t.Errorf("SampleName(%q, %v) = %q; want %q", tt.path, tt.isMC, got, tt.want)
		}
	}
}

func TestSkip(t *testing.T) {
	cases := map[string]bool{
		"":                      true,
		"noslash":               true,
		"#/A/B/C":               true,
		"/A/B/C # comment":      true,
		"/A/B/C":                false,
		"/A":                    false,
		"relative/path/dataset": false,
	}
	for line, want := range cases {
		if got := Skip(line); got != want {
			t.Errorf("Skip(%q) = %v; want %v", line, got, want)
		}
	}
}

func TestParseStripsCarriageReturns(t *testing.T) {
	datasets, err := Parse(strings.NewReader("/DoubleEG/Run2017C-v1/NANOAOD\r\n"), false)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(datasets) != 1 {
		t.Fatalf("got %d datasets, want 1", len(datasets))
	}
	if datasets[0].Name != "DoubleEG_Run2017C-v1" {
		t.Errorf("Name = %q", datasets[0].Name)
	}
	if strings.HasSuffix(datasets[0].Path, "\r") {
		t.Errorf("Path keeps trailing carriage return: %q", datasets[0].Path)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte(sampleManifest), 0644); err != nil {
		t.Fatal(err)
	}
	datasets, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(datasets) != 2 {
		t.Errorf("got %d datasets, want 2", len(datasets))
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"), true)
	if !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("Load(missing) error = %v; want ErrManifestNotFound", err)
	}
}
