// Package local runs the assembled training command on this node, teeing
// its output to the terminal and a per-run log file.
package local

import (
	"context"
	"errors"
	"os/exec"
	"path"
	"syscall"

	"github.com/mlfoundry/neuronrun/proc"
	"github.com/mlfoundry/neuronrun/utils/iostream"
	"github.com/mlfoundry/neuronrun/utils/xterm"
)

type Runner struct {
	Name       string
	Color      xterm.Color
	LogDir     string
	VerboseLog bool
}

// Run starts the command and blocks until it finishes or ctx is done.
// The returned error is cmd.Wait's own; log-file trouble inside the tee
// never leaks into it, so the child's exit status survives intact.
func (r Runner) Run(ctx context.Context, cmd *exec.Cmd) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	var redirectors []*iostream.StdWriters
	if r.VerboseLog {
		redirectors = append(redirectors, iostream.NewXTermRedirector(r.Name, r.Color))
	}
	if len(r.LogDir) > 0 {
		redirectors = append(redirectors, iostream.NewFileRedirector(path.Join(r.LogDir, r.Name)))
	}
	results := iostream.StdReaders{Stdout: stdout, Stderr: stderr}
	ioDone := results.Stream(redirectors...)
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan error)
	go func() {
		ioDone.Wait() // drain pipes before Wait closes them
		done <- cmd.Wait()
	}()
	select {
	case <-ctx.Done():
		cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// RunProc runs p and returns its exit code.
func (r Runner) RunProc(ctx context.Context, p proc.Proc) (int, error) {
	err := r.Run(ctx, p.Cmd())
	code, ok := ExitCode(err)
	if !ok {
		return 1, err
	}
	return code, nil
}

// ExitCode maps the error from Run to the child's exit status: 0 on
// success, the child's own code on plain failure, 128+signal when killed.
// ok is false when err does not carry an exit status at all.
func ExitCode(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return 0, false
	}
	if ws, isWait := ee.Sys().(syscall.WaitStatus); isWait && ws.Signaled() {
		return 128 + int(ws.Signal()), true
	}
	return ee.ExitCode(), true
}
