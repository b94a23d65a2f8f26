// Package slurm detects a SLURM allocation and turns it into a launch plan.
package slurm

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/mlfoundry/neuronrun/log"
	"github.com/mlfoundry/neuronrun/plan"
)

const (
	TaskNumEnvKey  = `SLURM_NTASKS`
	NodeIDEnvKey   = `SLURM_NODEID`
	JobIDEnvKey    = `SLURM_JOB_ID`
	NodeListEnvKey = `SLURM_JOB_NODELIST`
)

var schedulerEnvKeys = []string{TaskNumEnvKey, NodeIDEnvKey, JobIDEnvKey, NodeListEnvKey}

// for tests
var lookupHost = net.LookupHost

// Detected reports whether any SLURM scheduler variable is present.
// A partial environment is still "detected"; ParseEnv will then fail
// loudly instead of silently falling back to a single-node run.
func Detected() bool {
	for _, k := range schedulerEnvKeys {
		if _, ok := os.LookupEnv(k); ok {
			return true
		}
	}
	return false
}

// ParseEnv reads the SLURM environment and resolves the coordination
// address from the first node of the allocation.
func ParseEnv(nprocPerNode int, masterPort uint16) (*plan.Cluster, error) {
	ntasks, err := requireInt(TaskNumEnvKey)
	if err != nil {
		return nil, err
	}
	nodeID, err := requireInt(NodeIDEnvKey)
	if err != nil {
		return nil, err
	}
	jobID := os.Getenv(JobIDEnvKey)
	if len(jobID) == 0 {
		return nil, fmt.Errorf("%s not set", JobIDEnvKey)
	}
	nodeList := os.Getenv(NodeListEnvKey)
	if len(nodeList) == 0 {
		return nil, fmt.Errorf("%s not set", NodeListEnvKey)
	}
	hosts, err := ExpandNodeList(nodeList)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s=%q: %v", NodeListEnvKey, nodeList, err)
	}
	if len(hosts) != ntasks {
		return nil, fmt.Errorf("%s=%d does not match %d nodes in %q", TaskNumEnvKey, ntasks, len(hosts), nodeList)
	}
	if nodeID < 0 || nodeID >= ntasks {
		return nil, fmt.Errorf("%s=%d out of range [0, %d)", NodeIDEnvKey, nodeID, ntasks)
	}
	master, err := resolveMaster(hosts[0])
	if err != nil {
		return nil, err
	}
	log.Infof("SLURM job %s: %d nodes, self=%d, master=%s:%d", jobID, ntasks, nodeID, master, masterPort)
	c := &plan.Cluster{
		Hosts:        hosts,
		NodeRank:     nodeID,
		NprocPerNode: nprocPerNode,
		MasterAddr:   master,
		MasterPort:   masterPort,
		JobID:        jobID,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func requireInt(key string) (int, error) {
	val := os.Getenv(key)
	if len(val) == 0 {
		return 0, fmt.Errorf("%s not set", key)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not an integer", key, val)
	}
	return n, nil
}

func resolveMaster(host string) (string, error) {
	addrs, err := lookupHost(host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve master node %q: %v", host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no address for master node %q", host)
	}
	return addrs[0], nil
}
