// Package config loads the self-play run configuration from an optional
// YAML file plus AUTOPLAY_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// Games is the number of self-play games to produce.
	Games int `mapstructure:"games"`
	// Parallelism is the number of games played concurrently.
	Parallelism int `mapstructure:"parallelism"`

	// WhiteThreads and BlackThreads are per-search worker counts.
	WhiteThreads int `mapstructure:"white_threads"`
	BlackThreads int `mapstructure:"black_threads"`

	// Per-move search limits; -1 leaves a bound unset.
	Visits     int64 `mapstructure:"visits"`
	Playouts   int64 `mapstructure:"playouts"`
	MoveTimeMS int64 `mapstructure:"movetime_ms"`

	SharedTree bool `mapstructure:"shared_tree"`
	ReuseTree  bool `mapstructure:"reuse_tree"`

	ResignPercentage   float64 `mapstructure:"resign_percentage"`
	ResignWDLStyle     bool    `mapstructure:"resign_wdlstyle"`
	ResignEarliestMove int     `mapstructure:"resign_earliest_move"`
	EnableResign       bool    `mapstructure:"enable_resign"`

	MinimumAllowedVisits   int  `mapstructure:"minimum_allowed_visits"`
	LegacyCastlingNotation bool `mapstructure:"legacy_castling_notation"`

	Training     bool   `mapstructure:"training"`
	TrainingFile string `mapstructure:"training_file"`
	OpeningsFile string `mapstructure:"openings_file"`
	ResultsDB    string `mapstructure:"results_db"`

	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("games", 1)
	v.SetDefault("parallelism", 1)
	v.SetDefault("white_threads", 1)
	v.SetDefault("black_threads", 1)
	v.SetDefault("visits", -1)
	v.SetDefault("playouts", -1)
	v.SetDefault("movetime_ms", -1)
	v.SetDefault("shared_tree", false)
	v.SetDefault("reuse_tree", false)
	v.SetDefault("resign_percentage", 0.0)
	v.SetDefault("resign_wdlstyle", false)
	v.SetDefault("resign_earliest_move", 0)
	v.SetDefault("enable_resign", false)
	v.SetDefault("minimum_allowed_visits", 0)
	v.SetDefault("legacy_castling_notation", false)
	v.SetDefault("training", true)
	v.SetDefault("training_file", "training.jsonl.gz")
	v.SetDefault("openings_file", "")
	v.SetDefault("results_db", "")
	v.SetDefault("debug", false)
}

// Setup loads configuration. cfgPath may be empty, in which case only
// defaults and environment overrides apply.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("autoplay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
