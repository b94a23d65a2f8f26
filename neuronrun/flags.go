// Package neuronrun holds the launcher's command line surface.
package neuronrun

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/mlfoundry/neuronrun/utils"
)

type FlagSet struct {
	NprocPerNode     int    `long:"nproc-per-node" default:"32" description:"worker processes per node"`
	TensorParallel   int    `long:"tp" default:"32" description:"tensor parallel degree"`
	PipelineParallel int    `long:"pp" default:"4" description:"pipeline parallel degree"`
	GlobalBatch      int    `long:"global-batch" default:"1024" description:"global batch size"`
	SeqLen           int    `long:"seq-len" default:"4096" description:"sequence length"`
	MasterPort       uint16 `long:"master-port" default:"41000" description:"rendezvous port"`

	Hosts string `short:"H" long:"hosts" description:"comma separated host list for ssh launch (ignored under SLURM)"`
	User  string `short:"u" long:"user" description:"user name for ssh"`

	Torchrun  string `long:"torchrun" default:"torchrun" description:"distributed launch command"`
	CacheDir  string `long:"cache-dir" default:"/var/tmp/neuron-compile-cache" description:"compiler cache directory"`
	LogDir    string `long:"logdir" default:"logs" description:"log output directory"`
	Logfile   string `long:"logfile" description:"mirror the launcher's own log to this file under logdir"`
	HyperFile string `long:"hyper" description:"YAML file overriding optimizer hyperparameters"`
	EnvFile   string `long:"env-file" description:"dotenv file loaded before environment inspection"`

	TimeoutStr     string `long:"timeout" description:"abort the run after this duration, e.g. 2h"`
	NoConsole      bool   `long:"no-console" description:"don't mirror task output to the terminal"`
	Quiet          bool   `short:"q" long:"quiet" description:"don't log environment info"`
	DryRun         bool   `long:"dry-run" description:"print the assembled command instead of running it"`
	NoReservePorts bool   `long:"no-reserve-ports" description:"skip reserving the rendezvous port in the kernel"`

	Timeout time.Duration

	Prog string
	Args []string
}

var errMissingProgramName = errors.New("missing training program name")

func (f *FlagSet) Parse(args []string) error {
	parser := flags.NewParser(f, flags.HelpFlag|flags.PassDoubleDash)
	rest, err := parser.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(f.TimeoutStr) > 0 {
		if f.Timeout, err = time.ParseDuration(f.TimeoutStr); err != nil {
			return fmt.Errorf("failed to parse --timeout: %v", err)
		}
	}
	if f.NprocPerNode < 1 {
		return errors.New("--nproc-per-node must be at least 1")
	}
	if f.MasterPort == 0 {
		return errors.New("--master-port must not be 0")
	}
	if len(rest) < 1 {
		return errMissingProgramName
	}
	f.Prog = rest[0]
	f.Args = rest[1:]
	return nil
}

func Init(f *FlagSet, args []string) {
	if err := f.Parse(args); err != nil {
		utils.ExitErr(err)
	}
	if !f.Quiet {
		utils.LogArgs()
		utils.LogSlurmEnv()
		utils.LogNeuronEnv()
		utils.LogFabricEnv()
	}
}
