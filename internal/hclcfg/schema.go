package hclcfg

// The decode schema mirrors the grid-file shape. All attributes are
// optional pointers so unset fields fall back to the reference defaults
// instead of zero values.

type fileConfig struct {
	Experiments []*experimentBlock `hcl:"experiment,block"`
}

type experimentBlock struct {
	Name           string  `hcl:"name,label"`
	Env            *string `hcl:"env,optional"`
	Algo           *string `hcl:"algo,optional"`
	Repetitions    *int    `hcl:"repetitions,optional"`
	TotalTimesteps *int    `hcl:"total_timesteps,optional"`
	NumEnvs        *int    `hcl:"num_envs,optional"`
	EvalEpisodes   *int    `hcl:"eval_episodes,optional"`
	Seed           *int64  `hcl:"seed,optional"`
	OutputDir      *string `hcl:"output_dir,optional"`

	PPO *ppoBlock `hcl:"ppo,block"`
}

type ppoBlock struct {
	LearningRate       *float64 `hcl:"learning_rate,optional"`
	RolloutSteps       *int     `hcl:"rollout_steps,optional"`
	BatchSize          *int     `hcl:"batch_size,optional"`
	Epochs             *int     `hcl:"epochs,optional"`
	Gamma              *float64 `hcl:"gamma,optional"`
	GAELambda          *float64 `hcl:"gae_lambda,optional"`
	ClipRange          *float64 `hcl:"clip_range,optional"`
	NormalizeAdvantage *bool    `hcl:"normalize_advantage,optional"`
	EntropyCoef        *float64 `hcl:"entropy_coef,optional"`
	ValueCoef          *float64 `hcl:"value_coef,optional"`
	MaxGradNorm        *float64 `hcl:"max_grad_norm,optional"`
	TargetKL           *float64 `hcl:"target_kl,optional"`
	HiddenSizes        []int    `hcl:"hidden_sizes,optional"`
}
