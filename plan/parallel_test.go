package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name        string
		tp, pp      int
		world       int
		globalBatch int
		want        Degrees
	}{
		{`llama-70B-4node`, 32, 4, 128, 1024, Degrees{DataParallel: 1, ReplicaBatch: 1024, Microbatches: 1024}},
		{`llama-70B-8node`, 32, 4, 256, 1024, Degrees{DataParallel: 2, ReplicaBatch: 512, Microbatches: 512}},
		{`single-replica`, 8, 1, 8, 16, Degrees{DataParallel: 1, ReplicaBatch: 16, Microbatches: 16}},
		{`dp-heavy`, 2, 1, 32, 1024, Degrees{DataParallel: 16, ReplicaBatch: 64, Microbatches: 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parallelism{Tensor: tt.tp, Pipeline: tt.pp}
			got, err := p.Derive(tt.world, tt.globalBatch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.ReplicaBatch, got.Microbatches)
		})
	}
}

func TestDeriveErrors(t *testing.T) {
	tests := []struct {
		name        string
		tp, pp      int
		world       int
		globalBatch int
	}{
		{`world-not-divisible`, 32, 4, 100, 1024},
		{`world-too-small`, 32, 4, 64, 1024},
		{`batch-not-divisible`, 2, 1, 32, 1000},
		{`zero-tensor-degree`, 0, 4, 128, 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parallelism{Tensor: tt.tp, Pipeline: tt.pp}
			_, err := p.Derive(tt.world, tt.globalBatch)
			assert.Error(t, err)
		})
	}
}

func TestClusterWorldProcs(t *testing.T) {
	c := Cluster{
		Hosts:        []string{`trn1-1`, `trn1-2`, `trn1-3`, `trn1-4`},
		NodeRank:     2,
		NprocPerNode: 32,
		MasterAddr:   `10.0.0.1`,
		MasterPort:   DefaultMasterPort,
	}
	require.NoError(t, c.Validate())
	assert.Equal(t, 128, c.WorldProcs())
	assert.False(t, c.SingleNode())
}

func TestSingleNodeCluster(t *testing.T) {
	c := SingleNodeCluster(32, DefaultMasterPort)
	require.NoError(t, c.Validate())
	assert.True(t, c.SingleNode())
	assert.Equal(t, 0, c.NodeRank)
	assert.Equal(t, 32, c.WorldProcs())
	assert.Equal(t, `127.0.0.1`, c.MasterAddr)
}

func TestClusterValidate(t *testing.T) {
	c := SingleNodeCluster(32, DefaultMasterPort)
	c.NodeRank = 1
	assert.Error(t, c.Validate())
	c = SingleNodeCluster(0, DefaultMasterPort)
	assert.Error(t, c.Validate())
}
