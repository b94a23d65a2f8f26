package job

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Hyperparameters are the fixed optimizer settings passed through to the
// training entry point. They are not derived from the cluster shape.
type Hyperparameters struct {
	LR            float64 `yaml:"lr"`
	MinLR         float64 `yaml:"min_lr"`
	Beta1         float64 `yaml:"beta1"`
	Beta2         float64 `yaml:"beta2"`
	WeightDecay   float64 `yaml:"weight_decay"`
	WarmupSteps   int     `yaml:"warmup_steps"`
	ConstantSteps int     `yaml:"constant_steps"`
	Scheduler     string  `yaml:"scheduler"`
	Seed          int     `yaml:"seed"`
}

func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		LR:            1.5e-4,
		MinLR:         1.5e-5,
		Beta1:         0.9,
		Beta2:         0.95,
		WeightDecay:   0.01,
		WarmupSteps:   2000,
		ConstantSteps: 0,
		Scheduler:     `cosine`,
		Seed:          1234,
	}
}

// LoadHyperparameters overlays a YAML file on the defaults. An empty path
// returns the defaults unchanged.
func LoadHyperparameters(path string) (Hyperparameters, error) {
	h := DefaultHyperparameters()
	if len(path) == 0 {
		return h, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return h, fmt.Errorf("failed to read hyperparameter file: %v", err)
	}
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("failed to parse %s: %v", path, err)
	}
	return h, nil
}
