package job

import "strconv"

// Mode is the closed set of run modes. Each mode fixes a step budget and
// a tensorboard subdirectory.
type Mode int

const (
	ModeStandard Mode = iota
	ModePerfTest
	ModeGraphExtraction
)

const (
	// ExtractGraphsEnvKey requests a compile-and-trace-only run used for
	// build validation.
	ExtractGraphsEnvKey = `NEURON_EXTRACT_GRAPHS_ONLY`
	// PerfTestEnvKey holds the numeric perf-test toggle; any value > 0
	// selects the short performance run.
	PerfTestEnvKey = `PERF_TEST`
)

type ModeSpec struct {
	MaxSteps int
	TBSubdir string
}

var modeSpecs = map[Mode]ModeSpec{
	ModeGraphExtraction: {MaxSteps: 10, TBSubdir: `graph`},
	ModePerfTest:        {MaxSteps: 400, TBSubdir: `perf`},
	ModeStandard:        {MaxSteps: 30000, TBSubdir: `train`},
}

func (m Mode) Spec() ModeSpec {
	return modeSpecs[m]
}

func (m Mode) String() string {
	switch m {
	case ModeGraphExtraction:
		return `graph-extraction`
	case ModePerfTest:
		return `perf-test`
	default:
		return `standard`
	}
}

// DetectMode selects the run mode from the environment. The selection is
// total: graph extraction wins over perf test, which wins over the
// standard long run, regardless of how many toggles are set.
func DetectMode(getenv func(string) string) Mode {
	if truthy(getenv(ExtractGraphsEnvKey)) {
		return ModeGraphExtraction
	}
	if n, err := strconv.Atoi(getenv(PerfTestEnvKey)); err == nil && n > 0 {
		return ModePerfTest
	}
	return ModeStandard
}

func truthy(val string) bool {
	if len(val) == 0 {
		return false
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n != 0
	}
	return val != `false`
}
