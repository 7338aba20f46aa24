// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig       `yaml:"world"`
	Species    []SpeciesConfig   `yaml:"species"`
	Scheduler  SchedulerConfig   `yaml:"scheduler"`
	Benchmark  BenchmarkConfig   `yaml:"benchmark"`

	// Derived values computed after loading.
	Derived Derived `yaml:"-"`
}

// WorldConfig holds world geometry and global population bounds.
type WorldConfig struct {
	WidthUnits              float64 `yaml:"width_units"`
	HeightUnits             float64 `yaml:"height_units"`
	SpatialCellSize         float64 `yaml:"spatial_cell_size"`
	InitialAgentsPerSpecies int     `yaml:"initial_agents_per_species"`
	PopulationCapMultiplier float64 `yaml:"population_cap_multiplier"`
	OffspringBudgetPerStep  int     `yaml:"offspring_budget_per_step"`
	MinAgentFloor           int     `yaml:"min_agent_floor"`
	TrailDiffuseRate        float64 `yaml:"trail_diffuse_rate"`
	TrailDecayRate          float64 `yaml:"trail_decay_rate"`
}

// MotionConfig holds per-species kinematic constants.
type MotionConfig struct {
	MoveSpeed           float64 `yaml:"move_speed"`
	TurnSpeedDegrees    float64 `yaml:"turn_speed_degrees"`
	SensorAngleDegrees  float64 `yaml:"sensor_angle_degrees"`
	SensorOffsetDist    float64 `yaml:"sensor_offset_distance"`
	InertiaStiffness    float64 `yaml:"inertia_stiffness"`
	InertiaDamping      float64 `yaml:"inertia_damping"`
	InertiaBlend        float64 `yaml:"inertia_blend"`
}

// TrailWeightConfig holds how strongly a species senses its own vs. other channels.
type TrailWeightConfig struct {
	Self  float64 `yaml:"self"`
	Other float64 `yaml:"other"`
}

// FlockingConfig holds boids-style neighbor terms.
type FlockingConfig struct {
	Alignment        float64 `yaml:"alignment"`
	Cohesion         float64 `yaml:"cohesion"`
	Separation       float64 `yaml:"separation"`
	SeparationRadius float64 `yaml:"separation_radius"`
	QuorumThreshold  float64 `yaml:"quorum_threshold"`
	SameSpeciesBoost float64 `yaml:"same_species_boost"`
}

// OscillatorConfig holds the internal sinusoidal bias every species carries.
type OscillatorConfig struct {
	Strength  float64 `yaml:"strength"`
	Frequency float64 `yaml:"frequency"`
}

// FoodEconomyConfig holds the food-economy energy path (see PopulationDynamicsConfig).
type FoodEconomyConfig struct {
	Enabled            bool    `yaml:"enabled"`
	EatRate            float64 `yaml:"eat_rate"`
	CanEatOtherTrails  bool    `yaml:"can_eat_other_trails"`
	TrailFoodValue     float64 `yaml:"trail_food_value"`
	MovementEnergyCost float64 `yaml:"movement_energy_cost"`
	CanSteal           bool    `yaml:"can_steal"`
	StealRadius        float64 `yaml:"steal_radius"`
	StealRatePerVictim float64 `yaml:"steal_rate_per_victim"`
	CanGive            bool    `yaml:"can_give"`
	GiveThreshold      float64 `yaml:"give_threshold"`
	GiveRate           float64 `yaml:"give_rate"`
}

// PopulationDynamicsConfig is the per-species Population-Dynamics Settings record.
type PopulationDynamicsConfig struct {
	DeathBehavior                  string            `yaml:"death_behavior"` // hard_death|rebirth|spore_burst
	LifespanSeconds                float64           `yaml:"lifespan_seconds"`
	RebirthEnabled                 bool              `yaml:"rebirth_enabled"`
	RebirthEnergy                  float64           `yaml:"rebirth_energy"`
	ConditionalRebirthEnabled      bool              `yaml:"conditional_rebirth_enabled"`
	RebirthPopulationThreshold     float64           `yaml:"rebirth_population_threshold"`
	SplitEnabled                   bool              `yaml:"split_enabled"`
	SplitEnergyThreshold           float64           `yaml:"split_energy_threshold"`
	SplitCooldownSeconds           float64           `yaml:"split_cooldown_seconds"`
	PreDeathBuddingEnabled         bool              `yaml:"pre_death_budding_enabled"`
	PreDeathBuddingEnergyThreshold float64           `yaml:"pre_death_budding_energy_threshold"`
	MatingEnabled                  bool              `yaml:"mating_enabled"`
	MatingRadius                   float64           `yaml:"mating_radius"`
	MatingEnergyCost               float64           `yaml:"mating_energy_cost"`
	OffspringEnergy                float64           `yaml:"offspring_energy"`
	MatingEnergyBonus              float64           `yaml:"mating_energy_bonus"`
	MatingCooldownSeconds          float64           `yaml:"mating_cooldown_seconds"`
	CrossSpeciesMatingAllowed      bool              `yaml:"cross_species_mating_allowed"`
	OnlyMateOtherSpecies           bool              `yaml:"only_mate_other_species"`
	HybridMutationRate             float64           `yaml:"hybrid_mutation_rate"`
	SporeCount                     int               `yaml:"spore_count"`
	SporeRadius                    float64           `yaml:"spore_radius"`
	SporeMutationRate              float64           `yaml:"spore_mutation_rate"`
	SporeEnergy                    float64           `yaml:"spore_energy"`
	FoodEconomy                    FoodEconomyConfig `yaml:"food_economy"`
	LegacyEnergyDecayPerSecond     float64           `yaml:"legacy_energy_decay_per_second"`
	LegacyNeighborGainPerNeighbor  float64           `yaml:"legacy_neighbor_gain_per_neighbor"`
}

// SpeciesConfig is the full per-species Species Policy record (spec's Data Model §3).
type SpeciesConfig struct {
	Name       string                   `yaml:"name"`
	Archetype  string                   `yaml:"archetype"`
	ColorRGB   [3]uint8                 `yaml:"color_rgb"`
	Motion     MotionConfig             `yaml:"motion"`
	TrailWeights TrailWeightConfig      `yaml:"trail_weights"`
	Flocking   FlockingConfig           `yaml:"flocking"`
	Oscillator OscillatorConfig         `yaml:"oscillator"`
	Population PopulationDynamicsConfig `yaml:"population_dynamics"`
}

// SchedulerConfig tunes the parallel worker pool (spec §4.6).
type SchedulerConfig struct {
	ChunkPolicy        string `yaml:"chunk_policy"` // static|dynamic|guided
	WorkerCount        int    `yaml:"worker_count"` // 0 => max(1, GOMAXPROCS-1)
	DynamicChunkSize   int    `yaml:"dynamic_chunk_size"`
	GuidedChunkDivisor int    `yaml:"guided_chunk_divisor"`
}

// SlimeEnergyConfig tunes the stigmergic benchmark agent's energy bookkeeping.
type SlimeEnergyConfig struct {
	MaxEnergy           float64 `yaml:"max_energy"`
	BaseDrain           float64 `yaml:"base_drain"`
	FoodGain            float64 `yaml:"food_gain"`
	TrailGain           float64 `yaml:"trail_gain"`
	LowSignalPenalty    float64 `yaml:"low_signal_penalty"`
	GoalFieldBonus      float64 `yaml:"goal_field_bonus"`
	StaleTrailPenalty   float64 `yaml:"stale_trail_penalty"`
	StickyTrailPenalty  float64 `yaml:"sticky_trail_penalty"`
	GoalProgressReward  float64 `yaml:"goal_progress_reward"`
	GoalProgressPenalty float64 `yaml:"goal_progress_penalty"`
}

// BenchmarkConfig tunes the race harness (spec §4.8).
type BenchmarkConfig struct {
	MazeCols             int               `yaml:"maze_cols"`
	MazeRows             int               `yaml:"maze_rows"`
	CellSizeWorldUnits   float64           `yaml:"cell_size_world_units"`
	Difficulty           float64           `yaml:"difficulty"`
	AgentsPerAlgorithm   int               `yaml:"agents_per_algorithm"`
	EnabledAlgorithms    []string          `yaml:"enabled_algorithms"`
	GoalScentRadiusCells int               `yaml:"goal_scent_radius_cells"`
	WallFollowFrames     int               `yaml:"wall_follow_frames"`
	PathMemoryLength     int               `yaml:"path_memory_length"`
	RespawnCooldownSecs  float64           `yaml:"respawn_cooldown_seconds"`
	RespawnPartialEnergy float64           `yaml:"respawn_partial_energy"`
	FoodWeight           float64           `yaml:"food_weight"`
	TrailWeight          float64           `yaml:"trail_weight"`
	SlimeEnergy          SlimeEnergyConfig `yaml:"slime_energy"`
}

// Derived holds values computed once after load, mirroring the teacher's DerivedConfig.
type Derived struct {
	SensorAngleRadians []float64 // index-aligned with Config.Species
	MaxTurnPerStep     []float64 // radians, index-aligned with Config.Species
	InertiaStiffness   []float64
	InertiaDamping     []float64
	GlobalPopulationCap int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// WriteYAML marshals the config back to YAML and writes it to path, so a run's
// output directory carries the exact settings it was produced under.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	n := len(c.Species)
	c.Derived.SensorAngleRadians = make([]float64, n)
	c.Derived.MaxTurnPerStep = make([]float64, n)
	c.Derived.InertiaStiffness = make([]float64, n)
	c.Derived.InertiaDamping = make([]float64, n)

	for i, sp := range c.Species {
		c.Derived.SensorAngleRadians[i] = sp.Motion.SensorAngleDegrees * math.Pi / 180.0
		turnSpeedRad := sp.Motion.TurnSpeedDegrees * math.Pi / 180.0
		// A generous per-step cap: the rule is never allowed to turn more
		// than one full turn-speed unit of heading change per step, clamped
		// so a misconfigured turn speed cannot wrap the agent multiple times.
		c.Derived.MaxTurnPerStep[i] = math.Min(math.Max(turnSpeedRad, 0), math.Pi)
		c.Derived.InertiaStiffness[i] = sp.Motion.InertiaStiffness
		c.Derived.InertiaDamping[i] = sp.Motion.InertiaDamping
	}

	c.Derived.GlobalPopulationCap = int(float64(c.World.InitialAgentsPerSpecies*n) * c.World.PopulationCapMultiplier)
}
