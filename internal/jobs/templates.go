package jobs

import (
	"fmt"
	"strings"
	"text/template"
)

// scriptTemplateText is the worker-node wrapper. condor passes $1 = ProcId and
// $2 = the input file of that proc (one line of inputfiles.dat).
const scriptTemplateText = `#!/bin/bash
set -e
source /cvmfs/cms.cern.ch/cmsset_default.sh
export SCRAM_ARCH={{.ScramArch}}

cd {{.CMSSWBase}}
eval ` + "`scramv1 runtime -sh`" + `
echo
echo $_CONDOR_SCRATCH_DIR
cd   $_CONDOR_SCRATCH_DIR
echo
echo "... start job at" ` + "`date \"+%Y-%m-%d %H:%M:%S\"`" + `
echo "----- directory before running:"
ls -lR .
echo "----- CMSSW BASE, python path, pwd:"
echo "+ CMSSW_BASE  = $CMSSW_BASE"
echo "+ PYTHON_PATH = $PYTHON_PATH"
echo "+ PWD         = $PWD"
{{.CMSSWBase}}/venv/bin/python condor_WS_proc.py --jobNum $1 --isMC {{.IsMC}} --era {{.Era}} --infile $2
echo "----- transfer output to eos :"
xrdcp -s -f tree_$1.root {{.EOSOutDir}}
echo "----- directory after running :"
ls -lR .
echo " ------ THE END (everyone dies !) ----- "
`

// submitTemplateText is the condor submit description. One proc is queued
// per line of inputfiles.dat, with the line bound to $(jobid).
const submitTemplateText = `
request_disk          = {{.RequestDisk}}
executable            = {{.JobDir}}/script.sh
arguments             = $(ProcId) $(jobid)
transfer_input_files  = {{join .TransferFiles ","}}
output                = $(ClusterId).$(ProcId).out
error                 = $(ClusterId).$(ProcId).err
log                   = $(ClusterId).$(ProcId).log
initialdir            = {{.JobDir}}
transfer_output_files = ""
+JobFlavour           = "{{.Queue}}"
{{- if .BatchID}}
+SubmitBatch          = "{{.BatchID}}"
{{- end}}

queue jobid from {{.JobDir}}/inputfiles.dat
`

var templateFuncs = template.FuncMap{"join": strings.Join}

var (
	scriptTemplate = template.Must(template.New("script.sh").Parse(scriptTemplateText))
	submitTemplate = template.Must(template.New("condor.sub").Funcs(templateFuncs).Parse(submitTemplateText))
)

// ScriptParams fills the wrapper script template.
type ScriptParams struct {
	CMSSWBase string
	ScramArch string
	IsMC      int
	Era       string
	EOSOutDir string
}

// SubmitParams fills the submit description template.
type SubmitParams struct {
	JobDir        string
	Queue         string
	TransferFiles []string
	RequestDisk   int64
	BatchID       string // optional, written as +SubmitBatch
}

// RenderScript renders script.sh.
func RenderScript(p ScriptParams) (string, error) {
	if p.CMSSWBase == "" {
		return "", fmt.Errorf("%w: CMSSW base is empty", ErrInvalidParams)
	}
	if p.ScramArch == "" {
		return "", fmt.Errorf("%w: SCRAM_ARCH is empty", ErrInvalidParams)
	}
	var b strings.Builder
	if err := scriptTemplate.Execute(&b, p); err != nil {
		return "", fmt.Errorf("failed to render script.sh: %w", err)
	}
	return b.String(), nil
}

// RenderSubmit renders condor.sub.
func RenderSubmit(p SubmitParams) (string, error) {
	if p.JobDir == "" {
		return "", fmt.Errorf("%w: job directory is empty", ErrInvalidParams)
	}
	if p.Queue == "" {
		return "", fmt.Errorf("%w: queue is empty", ErrInvalidParams)
	}
	var b strings.Builder
	if err := submitTemplate.Execute(&b, p); err != nil {
		return "", fmt.Errorf("failed to render condor.sub: %w", err)
	}
	return b.String(), nil
}
