package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandNodeList(t *testing.T) {
	tests := []struct {
		list string
		want []string
	}{
		{`trn1-1`, []string{`trn1-1`}},
		{`trn1-[1-4]`, []string{`trn1-1`, `trn1-2`, `trn1-3`, `trn1-4`}},
		{`trn1-[1-3,9]`, []string{`trn1-1`, `trn1-2`, `trn1-3`, `trn1-9`}},
		{`node[01-03]`, []string{`node01`, `node02`, `node03`}},
		{`trn1-[1-2],head`, []string{`trn1-1`, `trn1-2`, `head`}},
		{`a,b,c`, []string{`a`, `b`, `c`}},
		{`compute-[7]`, []string{`compute-7`}},
		{`rack[1-2]-node`, []string{`rack1-node`, `rack2-node`}},
		{`a[1-2]b[3-4]`, []string{`a1b3`, `a1b4`, `a2b3`, `a2b4`}},
		{`r[1-2]n[01-02]`, []string{`r1n01`, `r1n02`, `r2n01`, `r2n02`}},
	}
	for _, tt := range tests {
		t.Run(tt.list, func(t *testing.T) {
			got, err := ExpandNodeList(tt.list)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandNodeListErrors(t *testing.T) {
	for _, list := range []string{``, `,`, `n[1-`, `n]1[`, `n[a-b]`, `n[3-1]`, `a[1-2]b[3-`} {
		t.Run(list, func(t *testing.T) {
			_, err := ExpandNodeList(list)
			assert.Error(t, err)
		})
	}
}

func setFullEnv(t *testing.T) {
	t.Setenv(TaskNumEnvKey, `4`)
	t.Setenv(NodeIDEnvKey, `2`)
	t.Setenv(JobIDEnvKey, `1234`)
	t.Setenv(NodeListEnvKey, `trn1-[1-4]`)
}

func fakeLookup(t *testing.T) {
	orig := lookupHost
	lookupHost = func(host string) ([]string, error) {
		return []string{`10.1.2.3`}, nil
	}
	t.Cleanup(func() { lookupHost = orig })
}

func TestParseEnv(t *testing.T) {
	setFullEnv(t)
	fakeLookup(t)
	require.True(t, Detected())
	c, err := ParseEnv(32, 41000)
	require.NoError(t, err)
	assert.Equal(t, []string{`trn1-1`, `trn1-2`, `trn1-3`, `trn1-4`}, c.Hosts)
	assert.Equal(t, 2, c.NodeRank)
	assert.Equal(t, 128, c.WorldProcs())
	assert.Equal(t, `10.1.2.3`, c.MasterAddr)
	assert.Equal(t, uint16(41000), c.MasterPort)
	assert.Equal(t, `1234`, c.JobID)
}

func TestParseEnvPartial(t *testing.T) {
	setFullEnv(t)
	fakeLookup(t)
	t.Setenv(NodeListEnvKey, ``)
	require.True(t, Detected())
	_, err := ParseEnv(32, 41000)
	assert.Error(t, err)
}

func TestParseEnvNodeCountMismatch(t *testing.T) {
	setFullEnv(t)
	fakeLookup(t)
	t.Setenv(TaskNumEnvKey, `8`)
	_, err := ParseEnv(32, 41000)
	assert.Error(t, err)
}

func TestParseEnvBadRank(t *testing.T) {
	setFullEnv(t)
	fakeLookup(t)
	t.Setenv(NodeIDEnvKey, `4`)
	_, err := ParseEnv(32, 41000)
	assert.Error(t, err)
}
