// Package manifest reads the dataset list that drives a submission.
//
// A manifest is plain text with one dataset path per line, e.g.
//
//	/DYJetsToLL_M-50_TuneCP5_13TeV-madgraphMLM-pythia8/RunIIFall17NanoAODv4-PU2017_v1/NANOAODSIM
//	# /WZTo3LNu_TuneCP5_13TeV-amcatnloFXFX-pythia8/.../NANOAODSIM
//
// Any line containing '#' is ignored, as is any line without a '/' separator.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrManifestNotFound indicates the manifest file does not exist
var ErrManifestNotFound = errors.New("manifest file not found")

// Dataset is one usable manifest entry.
type Dataset struct {
	Path string // Line as written in the manifest
	Name string // Sample name used for job directories and EOS paths
	Line int    // 1-based line number in the manifest
}

// Load opens path and parses it. See Parse.
func Load(path string, isMC bool) ([]Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f, isMC)
}

// Parse reads every dataset from r. isMC selects the sample naming rule.
func Parse(r io.Reader, isMC bool) ([]Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	var out []Dataset
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if Skip(line) {
			continue
		}
		out = append(out, Dataset{
			Path: line,
			Name: SampleName(line, isMC),
			Line: i + 1,
		})
	}
	return out, nil
}

// Skip reports whether a manifest line is a comment or has no path elements.
func Skip(line string) bool {
	return strings.Contains(line, "#") || len(strings.Split(line, "/")) <= 1
}

// SampleName derives the sample name of a dataset path.
//
// MC samples are named after the primary dataset (second '/' element). Data
// samples also carry the processed dataset so different eras do not collide:
// "/DoubleMuon/Run2017B-Nano14Dec2018-v1/NANOAOD" -> "DoubleMuon_Run2017B-Nano14Dec2018-v1".
func SampleName(path string, isMC bool) string {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return ""
	}
	if isMC {
		return parts[1]
	}
	end := 3
	if end > len(parts) {
		end = len(parts)
	}
	return strings.Join(parts[1:end], "_")
}
