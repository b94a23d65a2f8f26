package plan

import (
	"errors"
	"fmt"
)

// Parallelism is the fixed model-parallel shape of a training run.
type Parallelism struct {
	Tensor   int
	Pipeline int
}

// Degrees holds the values derived from the cluster shape and the global
// batch size. Microbatches always equals ReplicaBatch: one sample per
// pipeline microbatch.
type Degrees struct {
	DataParallel int
	ReplicaBatch int
	Microbatches int
}

var errBadParallelism = errors.New("tensor and pipeline degrees must be at least 1")

func (p Parallelism) Validate() error {
	if p.Tensor < 1 || p.Pipeline < 1 {
		return errBadParallelism
	}
	return nil
}

// Derive computes the data-parallel degree and per-replica batch size.
// Divisibility is a hard precondition: a world size that does not split
// evenly into model replicas, or a global batch that does not split evenly
// across replicas, is a configuration error, never a silent truncation.
func (p Parallelism) Derive(worldProcs, globalBatch int) (Degrees, error) {
	if err := p.Validate(); err != nil {
		return Degrees{}, err
	}
	modelProcs := p.Tensor * p.Pipeline
	if worldProcs < modelProcs {
		return Degrees{}, fmt.Errorf("world size %d is smaller than one model replica (tp=%d x pp=%d)", worldProcs, p.Tensor, p.Pipeline)
	}
	if worldProcs%modelProcs != 0 {
		return Degrees{}, fmt.Errorf("world size %d not divisible by tp=%d x pp=%d", worldProcs, p.Tensor, p.Pipeline)
	}
	dp := worldProcs / modelProcs
	if globalBatch%dp != 0 {
		return Degrees{}, fmt.Errorf("global batch size %d not divisible by data-parallel degree %d", globalBatch, dp)
	}
	b := globalBatch / dp
	return Degrees{
		DataParallel: dp,
		ReplicaBatch: b,
		Microbatches: b,
	}, nil
}
