package utils

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"
)

func ProgName() string {
	return path.Base(os.Args[0])
}

func LogArgs() {
	for i, a := range os.Args {
		fmt.Printf("[arg] [%d]=%s\n", i, a)
	}
}

func LogEnvWithPrefix(prefix string, logPrefix string) {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			fmt.Printf("[%s]: %s\n", logPrefix, kv)
		}
	}
}

func LogNeuronEnv() {
	LogEnvWithPrefix(`NEURON_`, `neuron-env`)
}

func LogFabricEnv() {
	LogEnvWithPrefix(`FI_`, `fabric-env`)
}

func LogSlurmEnv() {
	LogEnvWithPrefix(`SLURM_`, `slurm-env`)
}

func ExitErr(err error) {
	fmt.Fprintf(os.Stderr, "exit on error: %v\n", err)
	os.Exit(1)
}

func Measure(f func() error) (time.Duration, error) {
	t0 := time.Now()
	err := f()
	d := time.Since(t0)
	return d, err
}

func Pluralize(n int, singular, plural string) string {
	if n > 1 {
		return fmt.Sprintf("%d %s", n, plural)
	}
	return fmt.Sprintf("%d %s", n, singular)
}
