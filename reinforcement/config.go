package reinforcement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Algorithm names accepted in the config's algorithm section.
const (
	ValueIteration  = "value-iteration"
	PolicyIteration = "policy-iteration"
)

// Hyper-parameter keys and their defaults.
const (
	DiscountKey      = "discount"
	NoiseKey         = "noise"
	LivingRewardKey  = "livingReward"
	EpsilonKey       = "epsilon"
	IterationsKey    = "iterations"
	MaxEvalRoundsKey = "maxEvalRounds"

	defaultDiscount   = 0.9
	defaultNoise      = 0.2
	defaultIterations = 100
	defaultLayout     = "book"
)

// ErrInvalidConfig is returned by Validate for out-of-range parameters.
var ErrInvalidConfig = errors.New("invalid config")

// OuterConfig is the config document envelope: a kind and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// TrainingConfig holds the planner and environment parameters kept outside of code:
// the discount, gridworld noise and living reward, stopping thresholds, which
// algorithm to run on which layout, and an optional wall-clock deadline.
// Viper lowercases keys, hence the lowercase yaml tags.
type TrainingConfig struct {
	// HyperParams is a key-val pair of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// Algorithm is an alg selector, e.g. name: value-iteration.
	Algorithm map[string]string `yaml:"algorithm"`
	// Grid selects the environment, e.g. layout: bridge.
	Grid map[string]string `yaml:"grid"`
	// TrainingDeadline is a duration describing when to terminate training.
	TrainingDeadline map[string]string `yaml:"trainingdeadline"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// SetHyperParam overwrites or appends a hyper-parameter, e.g. from a command line flag.
func (cfg *TrainingConfig) SetHyperParam(param string, val float64) {
	for i := range cfg.HyperParams {
		if cfg.HyperParams[i].Key == param {
			cfg.HyperParams[i].Val = val
			return
		}
	}
	cfg.HyperParams = append(cfg.HyperParams, HyperParameter{Key: param, Val: val})
}

func (cfg *TrainingConfig) Discount() float64 {
	return cfg.GetHyperParamOrDefault(DiscountKey, defaultDiscount)
}

func (cfg *TrainingConfig) Noise() float64 {
	return cfg.GetHyperParamOrDefault(NoiseKey, defaultNoise)
}

func (cfg *TrainingConfig) LivingReward() float64 {
	return cfg.GetHyperParamOrDefault(LivingRewardKey, 0)
}

func (cfg *TrainingConfig) Epsilon() float64 {
	return cfg.GetHyperParamOrDefault(EpsilonKey, DefaultEpsilon)
}

// Iterations is the driver's iteration budget; zero means run until convergence.
func (cfg *TrainingConfig) Iterations() int {
	return int(cfg.GetHyperParamOrDefault(IterationsKey, defaultIterations))
}

// MaxEvalRounds bounds a single policy evaluation; zero means unbounded.
func (cfg *TrainingConfig) MaxEvalRounds() int {
	return int(cfg.GetHyperParamOrDefault(MaxEvalRoundsKey, 0))
}

func (cfg *TrainingConfig) AlgorithmName() string {
	if name, ok := cfg.Algorithm["name"]; ok && name != "" {
		return name
	}
	return ValueIteration
}

func (cfg *TrainingConfig) LayoutName() string {
	if name, ok := cfg.Grid["layout"]; ok && name != "" {
		return name
	}
	return defaultLayout
}

// Validate checks parameter ranges. Epsilon must be positive, since a zero threshold
// never ends an evaluation whose delta has reached exactly zero.
func (cfg *TrainingConfig) Validate() error {
	if d := cfg.Discount(); d < 0 || d > 1 {
		return fmt.Errorf("%w: discount %v outside [0,1]", ErrInvalidConfig, d)
	}
	if n := cfg.Noise(); n < 0 || n > 1 {
		return fmt.Errorf("%w: noise %v outside [0,1]", ErrInvalidConfig, n)
	}
	if e := cfg.Epsilon(); e <= 0 {
		return fmt.Errorf("%w: epsilon %v must be positive", ErrInvalidConfig, e)
	}
	if cfg.Iterations() < 0 || cfg.MaxEvalRounds() < 0 {
		return fmt.Errorf("%w: negative iteration bound", ErrInvalidConfig)
	}
	switch name := cfg.AlgorithmName(); name {
	case ValueIteration, PolicyIteration:
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, name)
	}
	if cfg.AlgorithmName() == PolicyIteration && cfg.Discount() == 1 && cfg.MaxEvalRounds() == 0 {
		return fmt.Errorf("%w: undiscounted policy iteration needs %s", ErrInvalidConfig, MaxEvalRoundsKey)
	}
		if _, err := cfg.deadline(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (cfg *TrainingConfig) deadline() (time.Duration, error) {
	val, ok := cfg.TrainingDeadline["duration"]
	if !ok {
		return 0, nil
	}
	return time.ParseDuration(val)
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *TrainingConfig) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	duration, err := cfg.deadline()
	if err != nil {
		return nil, nil, err
	}
	if duration > 0 {
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// FromYaml reads a config file.
func FromYaml(path string) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(vp)
}

// FromReader reads a yaml config document from @r.
func FromReader(r io.Reader) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigType("yaml")
	if err := vp.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(vp)
}

// DefaultConfig returns the config used when no file is given.
func DefaultConfig() *TrainingConfig {
	cfg, err := FromReader(bytes.NewBufferString(defaultYaml))
	if err != nil {
		panic(err)
	}
	return cfg
}

const defaultYaml = `
kind: planning
def:
  algorithm:
    name: value-iteration
  grid:
    layout: book
  hyperParams:
    - key: discount
      val: 0.9
    - key: noise
      val: 0.2
    - key: livingReward
      val: 0.0
    - key: epsilon
      val: 0.000001
    - key: iterations
      val: 100
`

// The definition is re-marshalled to yaml so that the inner document decodes with yaml
// tags, independent of the envelope.
func decode(vp *viper.Viper) (*TrainingConfig, error) {
	outerConfig := &OuterConfig{}
	if err := vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(outerConfig.Def)
	if err != nil {
		return nil, err
	}

	innerConfig := &TrainingConfig{}
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}
	return innerConfig, nil
}
