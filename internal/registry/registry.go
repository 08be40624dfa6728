// Package registry maps the environment and algorithm ids referenced by
// grid files to their Go constructors, and validates that a loaded config
// model only references registered ids.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/zhangsongtt/rlop/internal/config"
	"github.com/zhangsongtt/rlop/internal/env"
	"github.com/zhangsongtt/rlop/internal/env/cartpole"
	"github.com/zhangsongtt/rlop/internal/env/lunarlander"
	"github.com/zhangsongtt/rlop/internal/env/vecenv"
	"github.com/zhangsongtt/rlop/internal/ppo"
)

// Agent is a trainable policy, the product of an algorithm factory.
type Agent interface {
	Learn(ctx context.Context, totalTimesteps int, monitor ppo.MonitorFunc) error
	Predict(obs []float64, deterministic bool) int
}

// AlgoFactory builds an agent for one run of an experiment.
type AlgoFactory func(e *config.Experiment, venv *vecenv.VecEnv, seed int64) Agent

// Registry holds the known environment and algorithm constructors.
type Registry struct {
	envs  map[string]env.Maker
	algos map[string]AlgoFactory
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		envs:  make(map[string]env.Maker),
		algos: make(map[string]AlgoFactory),
	}
}

// Default returns a registry with every built-in environment and algorithm.
func Default() *Registry {
	r := New()
	r.RegisterEnv("lunarlander", lunarlander.Maker)
	r.RegisterEnv("cartpole", cartpole.Maker)
	r.RegisterAlgo("ppo", func(e *config.Experiment, venv *vecenv.VecEnv, seed int64) Agent {
		return ppo.New(e.PPO, venv, seed)
	})
	return r
}

// RegisterEnv adds an environment constructor. Re-registering an id is a
// programmer error.
func (r *Registry) RegisterEnv(id string, maker env.Maker) {
	if _, dup := r.envs[id]; dup {
		panic(fmt.Sprintf("registry: environment %q registered twice", id))
	}
	r.envs[id] = maker
}

// RegisterAlgo adds an algorithm factory. Re-registering an id is a
// programmer error.
func (r *Registry) RegisterAlgo(id string, factory AlgoFactory) {
	if _, dup := r.algos[id]; dup {
		panic(fmt.Sprintf("registry: algorithm %q registered twice", id))
	}
	r.algos[id] = factory
}

// Env looks up an environment constructor.
func (r *Registry) Env(id string) (env.Maker, error) {
	maker, ok := r.envs[id]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q (known: %v)", id, r.envIDs())
	}
	return maker, nil
}

// Algo looks up an algorithm factory.
func (r *Registry) Algo(id string) (AlgoFactory, error) {
	factory, ok := r.algos[id]
	if !ok {
		return nil, fmt.Errorf("unknown algorithm %q (known: %v)", id, r.algoIDs())
	}
	return factory, nil
}

// Validate checks that every experiment in the model references registered
// environment and algorithm ids.
func (r *Registry) Validate(m *config.Model) error {
	for _, e := range m.Experiments {
		if _, err := r.Env(e.EnvID); err != nil {
			return fmt.Errorf("experiment %q: %w", e.Name, err)
		}
		if _, err := r.Algo(e.AlgoID); err != nil {
			return fmt.Errorf("experiment %q: %w", e.Name, err)
		}
	}
	return nil
}

func (r *Registry) envIDs() []string {
	ids := make([]string, 0, len(r.envs))
	for id := range r.envs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) algoIDs() []string {
	ids := make([]string, 0, len(r.algos))
	for id := range r.algos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
