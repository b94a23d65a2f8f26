package app

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mlfoundry/neuronrun/job"
	"github.com/mlfoundry/neuronrun/log"
	"github.com/mlfoundry/neuronrun/neuronrun"
	"github.com/mlfoundry/neuronrun/plan"
	"github.com/mlfoundry/neuronrun/platforms/slurm"
	"github.com/mlfoundry/neuronrun/proc"
	"github.com/mlfoundry/neuronrun/runner/local"
	"github.com/mlfoundry/neuronrun/runner/remote"
	"github.com/mlfoundry/neuronrun/utils"
	"github.com/mlfoundry/neuronrun/utils/xterm"
)

func Main(args []string) {
	var f neuronrun.FlagSet
	neuronrun.Init(&f, args)
	if logfile := f.Logfile; len(logfile) > 0 {
		if len(f.LogDir) > 0 {
			logfile = path.Join(f.LogDir, logfile)
		}
		if err := os.MkdirAll(path.Dir(logfile), os.ModePerm); err != nil {
			log.Warnf("failed to create log dir %s: %v", path.Dir(logfile), err)
		}
		lf, err := os.Create(logfile)
		if err != nil {
			utils.ExitErr(err)
		}
		defer lf.Close()
		log.SetOutput(lf)
	}
	t0 := time.Now()
	defer func(prog string) { log.Debugf("%s finished, took %s", prog, time.Since(t0)) }(utils.ProgName())
	if len(f.EnvFile) > 0 {
		if err := godotenv.Load(f.EnvFile); err != nil {
			utils.ExitErr(fmt.Errorf("failed to load %s: %v", f.EnvFile, err))
		}
	}

	cluster, sshHosts, err := resolveCluster(&f)
	if err != nil {
		utils.ExitErr(err)
	}

	par := plan.Parallelism{Tensor: f.TensorParallel, Pipeline: f.PipelineParallel}
	degrees, err := par.Derive(cluster.WorldProcs(), f.GlobalBatch)
	if err != nil {
		utils.ExitErr(err)
	}
	mode := job.DetectMode(os.Getenv)
	log.Infof("mode=%s: %d nodes x %d procs, dp=%d, batch/replica=%d, %d steps",
		mode, cluster.Nnodes(), cluster.NprocPerNode, degrees.DataParallel,
		degrees.ReplicaBatch, mode.Spec().MaxSteps)

	hyper, err := job.LoadHyperparameters(f.HyperFile)
	if err != nil {
		utils.ExitErr(err)
	}
	j := job.Job{
		Torchrun:    f.Torchrun,
		Prog:        f.Prog,
		Args:        f.Args,
		GlobalBatch: f.GlobalBatch,
		SeqLen:      f.SeqLen,
		Parallel:    par,
		Hyper:       hyper,
		CacheDir:    f.CacheDir,
		LogDir:      f.LogDir,
	}

	if f.DryRun {
		fmt.Print(j.NewProc(*cluster, degrees, mode).Script())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	trap(cancel)
	if f.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	if len(sshHosts) > 0 {
		runRemote(ctx, &f, j, *cluster, degrees, mode, sshHosts)
		return
	}
	runLocal(ctx, &f, j, *cluster, degrees, mode)
}

// resolveCluster picks the launch topology: a SLURM allocation when its
// environment is present, an ssh host list when -H names several
// machines, and a single local node otherwise. The returned host list is
// non-empty only in the ssh case.
func resolveCluster(f *neuronrun.FlagSet) (*plan.Cluster, []string, error) {
	if slurm.Detected() {
		c, err := slurm.ParseEnv(f.NprocPerNode, f.MasterPort)
		return c, nil, err
	}
	if len(f.Hosts) > 0 {
		hosts := strings.Split(f.Hosts, ",")
		if len(hosts) == 1 {
			c := plan.SingleNodeCluster(f.NprocPerNode, f.MasterPort)
			c.Hosts = hosts
			c.MasterAddr = hosts[0]
			return &c, nil, nil
		}
		c := &plan.Cluster{
			Hosts:        hosts,
			NodeRank:     0,
			NprocPerNode: f.NprocPerNode,
			MasterAddr:   hosts[0],
			MasterPort:   f.MasterPort,
			JobID:        fmt.Sprintf("ssh-%d", time.Now().Unix()),
		}
		return c, hosts, c.Validate()
	}
	c := plan.SingleNodeCluster(f.NprocPerNode, f.MasterPort)
	return &c, nil, nil
}

func runLocal(ctx context.Context, f *neuronrun.FlagSet, j job.Job, c plan.Cluster, d plan.Degrees, mode job.Mode) {
	if !f.NoReservePorts {
		if err := utils.ReserveLocalPort(c.MasterPort); err != nil {
			utils.ExitErr(err)
		}
	}
	if err := j.Prepare(c, mode); err != nil {
		utils.ExitErr(err)
	}
	p := j.NewProc(c, d, mode)
	log.Infof("running %s", p.CommandLine())
	r := local.Runner{
		Name:       p.Name,
		Color:      xterm.BasicColors.Choose(c.NodeRank),
		LogDir:     p.LogDir,
		VerboseLog: !f.NoConsole,
	}
	t0 := time.Now()
	code, err := r.RunProc(ctx, p)
	if err != nil {
		utils.ExitErr(err)
	}
	log.Infof("%s finished with code %d, took %s", p.Name, code, time.Since(t0))
	if code != 0 {
		os.Exit(code)
	}
}

func runRemote(ctx context.Context, f *neuronrun.FlagSet, j job.Job, c plan.Cluster, d plan.Degrees, mode job.Mode, hosts []string) {
	var ps []proc.Proc
	for rank, host := range hosts {
		nc := c
		nc.NodeRank = rank
		p := j.NewProc(nc, d, mode)
		p.Hostname = host
		ps = append(ps, p)
	}
	log.Infof("launching %s over ssh", utils.Pluralize(len(ps), "node", "nodes"))
	dur, err := utils.Measure(func() error {
		return remote.RunAll(ctx, f.User, ps, !f.NoConsole, j.LogDir)
	})
	if err != nil {
		utils.ExitErr(err)
	}
	log.Infof("all %d nodes finished, took %s", len(ps), dur)
}

func trap(cancel context.CancelFunc) {
	utils.Trap(func(sig os.Signal) {
		log.Warnf("%s trapped", sig)
		cancel()
	})
}
