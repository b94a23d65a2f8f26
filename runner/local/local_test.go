package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlfoundry/neuronrun/proc"
)

func shProc(script string) proc.Proc {
	return proc.Proc{
		Name: `test`,
		Prog: `/bin/sh`,
		Args: []string{`-c`, script},
		Envs: proc.Envs{},
	}
}

func TestRunProcExitCodePassThrough(t *testing.T) {
	r := Runner{Name: `test`, LogDir: t.TempDir()}
	code, err := r.RunProc(context.Background(), shProc(`echo hello; exit 3`))
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestRunProcSuccess(t *testing.T) {
	logDir := t.TempDir()
	r := Runner{Name: `test`, LogDir: logDir}
	code, err := r.RunProc(context.Background(), shProc(`echo out; echo err >&2`))
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	out, err := os.ReadFile(filepath.Join(logDir, `test.stdout.log`))
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(out))
	errLog, err := os.ReadFile(filepath.Join(logDir, `test.stderr.log`))
	require.NoError(t, err)
	assert.Equal(t, "err\n", string(errLog))
}

func TestRunProcExitCodeSurvivesLogFailure(t *testing.T) {
	// point LogDir at a file so the log dir cannot be created
	base := t.TempDir()
	block := filepath.Join(base, `blocked`)
	require.NoError(t, os.WriteFile(block, nil, 0644))
	r := Runner{Name: `x`, LogDir: filepath.Join(block, `sub`)}
	code, err := r.RunProc(context.Background(), shProc(`exit 3`))
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	r := Runner{Name: `test`, LogDir: t.TempDir()}
	_, err := r.RunProc(ctx, shProc(`sleep 10`))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExitCode(t *testing.T) {
	code, ok := ExitCode(nil)
	assert.True(t, ok)
	assert.Equal(t, 0, code)

	_, ok = ExitCode(context.Canceled)
	assert.False(t, ok)
}
