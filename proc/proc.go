package proc

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
)

type Envs map[string]string

func (e Envs) AddIfMissing(k, v string) {
	if _, ok := e[k]; !ok {
		e[k] = v
	}
}

// Proc is one invocation of the external training launcher on one node.
type Proc struct {
	Name     string
	Prog     string
	Args     []string
	Envs     Envs
	Hostname string
	LogDir   string
}

func (p Proc) Cmd() *exec.Cmd {
	cmd := exec.Command(p.Prog, p.Args...)
	cmd.Env = updatedEnvFrom(p.Envs, os.Environ())
	return cmd
}

// CommandLine renders the invocation for logging.
func (p Proc) CommandLine() string {
	return shellquote.Join(append([]string{p.Prog}, p.Args...)...)
}

// Script renders the invocation as a shell command, used by the ssh
// runner and -dry-run. Env keys are sorted so the output is stable.
func (p Proc) Script() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "env \\\n")
	var keys []string
	for k := range p.Envs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "\t%s=%s \\\n", k, shellquote.Join(p.Envs[k]))
	}
	fmt.Fprintf(buf, "\t%s\n", p.CommandLine())
	return buf.String()
}

func updatedEnvFrom(newValues Envs, oldEnvs []string) []string {
	envMap := parseEnv(oldEnvs)
	for k, v := range newValues {
		envMap[k] = v
	}
	var envs []string
	for k, v := range envMap {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

func parseEnv(envs []string) Envs {
	envMap := make(Envs)
	for _, kv := range envs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}
	return envMap
}
