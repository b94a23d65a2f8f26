package neuronrun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	var f FlagSet
	require.NoError(t, f.Parse([]string{`run_llama_nxd.py`}))
	assert.Equal(t, 32, f.NprocPerNode)
	assert.Equal(t, 32, f.TensorParallel)
	assert.Equal(t, 4, f.PipelineParallel)
	assert.Equal(t, 1024, f.GlobalBatch)
	assert.Equal(t, 4096, f.SeqLen)
	assert.Equal(t, uint16(41000), f.MasterPort)
	assert.Equal(t, `torchrun`, f.Torchrun)
	assert.Equal(t, `run_llama_nxd.py`, f.Prog)
	assert.Empty(t, f.Args)
}

func TestParsePassthroughArgs(t *testing.T) {
	var f FlagSet
	err := f.Parse([]string{`--tp`, `8`, `--timeout`, `90m`, `train.py`, `--`, `--num_layer`, `4`})
	require.NoError(t, err)
	assert.Equal(t, 8, f.TensorParallel)
	assert.Equal(t, 90*time.Minute, f.Timeout)
	assert.Equal(t, `train.py`, f.Prog)
	assert.Equal(t, []string{`--num_layer`, `4`}, f.Args)
}

func TestParseErrors(t *testing.T) {
	var f FlagSet
	assert.ErrorIs(t, f.Parse(nil), errMissingProgramName)

	var g FlagSet
	assert.Error(t, g.Parse([]string{`--timeout`, `forever`, `train.py`}))

	var h FlagSet
	assert.Error(t, h.Parse([]string{`--nproc-per-node`, `0`, `train.py`}))

	var i FlagSet
	assert.Error(t, i.Parse([]string{`--master-port`, `0`, `train.py`}))
}

func TestParseLogfile(t *testing.T) {
	var f FlagSet
	require.NoError(t, f.Parse([]string{`--logfile`, `neuron-run.log`, `train.py`}))
	assert.Equal(t, `neuron-run.log`, f.Logfile)
}
