// Package job assembles the torchrun invocation for one node: launch
// topology flags, training flags, and the accelerator runtime environment.
package job

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/mlfoundry/neuronrun/plan"
	"github.com/mlfoundry/neuronrun/proc"
)

const (
	fiProviderEnvKey    = `FI_PROVIDER`
	fiDeviceRDMAEnvKey  = `FI_EFA_USE_DEVICE_RDMA`
	fiForkSafeEnvKey    = `FI_EFA_FORK_SAFE`
	rtAsyncExecEnvKey   = `NEURON_RT_ASYNC_EXEC_MAX_INFLIGHT_REQUESTS`
	mallocArenaEnvKey   = `MALLOC_ARENA_MAX`
	downcastBF16EnvKey  = `XLA_DOWNCAST_BF16`
	compilerFlagsEnvKey = `NEURON_CC_FLAGS`
)

type Job struct {
	Torchrun string
	Prog     string
	Args     []string

	GlobalBatch int
	SeqLen      int
	Parallel    plan.Parallelism
	Hyper       Hyperparameters

	CacheDir string
	LogDir   string
}

// RuntimeEnvs is the accelerator runtime environment handed to the child
// process. It is attached to the invocation explicitly, never set on the
// launcher's own process.
func (j Job) RuntimeEnvs() proc.Envs {
	return proc.Envs{
		fiProviderEnvKey:    `efa`,
		fiDeviceRDMAEnvKey:  `1`,
		fiForkSafeEnvKey:    `1`,
		rtAsyncExecEnvKey:   `3`,
		mallocArenaEnvKey:   `64`,
		downcastBF16EnvKey:  `1`,
		compilerFlagsEnvKey: fmt.Sprintf("--model-type transformer --distribution-strategy=llm-training --cache_dir=%s", j.CacheDir),
	}
}

func (j Job) TBDir(c plan.Cluster, mode Mode) string {
	return path.Join(j.LogDir, c.JobID, mode.Spec().TBSubdir)
}

// NewProc builds the torchrun invocation for this node of the cluster.
func (j Job) NewProc(c plan.Cluster, d plan.Degrees, mode Mode) proc.Proc {
	args := []string{
		`--nproc_per_node`, strconv.Itoa(c.NprocPerNode),
		`--nnodes`, strconv.Itoa(c.Nnodes()),
		`--node_rank`, strconv.Itoa(c.NodeRank),
		`--master_addr`, c.MasterAddr,
		`--master_port`, strconv.Itoa(int(c.MasterPort)),
		j.Prog,
		`--tensor_parallel_size`, strconv.Itoa(j.Parallel.Tensor),
		`--pipeline_parallel_size`, strconv.Itoa(j.Parallel.Pipeline),
		`--train_batch_size`, strconv.Itoa(d.ReplicaBatch),
		`--num_microbatches`, strconv.Itoa(d.Microbatches),
		`--seq_len`, strconv.Itoa(j.SeqLen),
		`--max_steps`, strconv.Itoa(mode.Spec().MaxSteps),
		`--tb_dir`, j.TBDir(c, mode),
		`--lr`, formatFloat(j.Hyper.LR),
		`--min_lr`, formatFloat(j.Hyper.MinLR),
		`--beta1`, formatFloat(j.Hyper.Beta1),
		`--beta2`, formatFloat(j.Hyper.Beta2),
		`--weight_decay`, formatFloat(j.Hyper.WeightDecay),
		`--warmup_steps`, strconv.Itoa(j.Hyper.WarmupSteps),
		`--constant_steps`, strconv.Itoa(j.Hyper.ConstantSteps),
		`--scheduler_type`, j.Hyper.Scheduler,
		`--seed`, strconv.Itoa(j.Hyper.Seed),
		`--use_sequence_parallel`, `1`,
		`--use_selective_checkpoint`, `1`,
		`--use_zero1_optimizer`, `1`,
	}
	args = append(args, j.Args...)
	envs := j.RuntimeEnvs()
	envs.AddIfMissing(`PYTHONUNBUFFERED`, `1`)
	return proc.Proc{
		Name:   fmt.Sprintf("%s.%d", c.JobID, c.NodeRank),
		Prog:   j.Torchrun,
		Args:   args,
		Envs:   envs,
		LogDir: path.Join(j.LogDir, c.JobID),
	}
}

// Prepare creates the directories the run writes into.
func (j Job) Prepare(c plan.Cluster, mode Mode) error {
	for _, dir := range []string{path.Join(j.LogDir, c.JobID), j.TBDir(c, mode), j.CacheDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s: %v", dir, err)
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
