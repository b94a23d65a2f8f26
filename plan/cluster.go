// Package plan models the launch topology and the parallelism arithmetic
// that turns a cluster shape into per-replica training parameters.
package plan

import (
	"errors"
	"fmt"
)

const DefaultMasterPort uint16 = 41000

// Cluster is the resolved launch topology: one torchrun per host, each
// spawning NprocPerNode workers, all rendezvousing at MasterAddr:MasterPort.
type Cluster struct {
	Hosts        []string
	NodeRank     int
	NprocPerNode int
	MasterAddr   string
	MasterPort   uint16
	JobID        string
}

func (c Cluster) Nnodes() int {
	return len(c.Hosts)
}

// WorldProcs is the total worker count across all nodes.
func (c Cluster) WorldProcs() int {
	return c.Nnodes() * c.NprocPerNode
}

func (c Cluster) SingleNode() bool {
	return c.Nnodes() == 1
}

var (
	errNoHosts         = errors.New("cluster has no hosts")
	errNoMaster        = errors.New("cluster has no master address")
	errBadNprocPerNode = errors.New("nproc per node must be at least 1")
)

func (c Cluster) Validate() error {
	if c.Nnodes() < 1 {
		return errNoHosts
	}
	if c.NprocPerNode < 1 {
		return errBadNprocPerNode
	}
	if c.NodeRank < 0 || c.NodeRank >= c.Nnodes() {
		return fmt.Errorf("node rank %d out of range [0, %d)", c.NodeRank, c.Nnodes())
	}
	if len(c.MasterAddr) == 0 {
		return errNoMaster
	}
	return nil
}

// SingleNodeCluster is the fallback topology used when no scheduler
// environment is present.
func SingleNodeCluster(nprocPerNode int, port uint16) Cluster {
	return Cluster{
		Hosts:        []string{`127.0.0.1`},
		NodeRank:     0,
		NprocPerNode: nprocPerNode,
		MasterAddr:   `127.0.0.1`,
		MasterPort:   port,
		JobID:        `local`,
	}
}
