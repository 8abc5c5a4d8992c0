// Package config loads the engine's flat configuration object from a
// YAML or JSON file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/chapinhall-oss/reclink/internal/comparers"
)

// MatchType selects the cardinality regime of the final crosswalk.
type MatchType string

const (
	OneToOne   MatchType = "121"
	OneToMany  MatchType = "12M"
	ManyToOne  MatchType = "M21"
	ManyToMany MatchType = "M2M"
	Dedup      MatchType = "dedup"
)

// DatasetParam describes one side of the match (data_param.df_a / df_b).
type DatasetParam struct {
	Name     string            `mapstructure:"name"`
	Kind     string            `mapstructure:"kind"` // "csv" or "db"; df_b is not loaded when matchtype is dedup
	Filepath string            `mapstructure:"filepath"`
	Table    string            `mapstructure:"table"`
	IndvID   string            `mapstructure:"indv_id"`
	Vars     map[string]string `mapstructure:"vars"`
}

// CutoffScores are the shared similarity-score cutoffs the acceptor's
// masks and thresholds are built from.
type CutoffScores struct {
	NameHighScore     float64 `mapstructure:"name_high_score"`
	NameVeryHighScore float64 `mapstructure:"name_very_high_score"`
	IDHighScore       float64 `mapstructure:"id_high_score"`
	NameReviewScore   float64 `mapstructure:"name_review_score"`
	IDReviewScore     float64 `mapstructure:"id_review_score"`
}

// Parallelization carries the chunk sizes (by pass number) and worker
// pool size the driver dispatches with.
type Parallelization struct {
	ChunkSizes   map[string]int `mapstructure:"chunk_sizes"`
	NumProcesses int            `mapstructure:"num_processes"`
}

// ChunkSize returns the configured chunk size for a pass, or 500k if
// unset.
func (p Parallelization) ChunkSize(pass int) int {
	if p.ChunkSizes != nil {
		if n, ok := p.ChunkSizes[fmt.Sprint(pass)]; ok && n > 0 {
			return n
		}
	}
	return 500_000
}

// Config is the flat configuration object driving one match run.
type Config struct {
	MatchType       MatchType                 `mapstructure:"matchtype"`
	OutputDir       string                    `mapstructure:"output_dir"`
	DataParam       map[string]DatasetParam   `mapstructure:"data_param"`
	GroundTruthIDs  []string                  `mapstructure:"ground_truth_ids"`
	BlocksByPass    [][]string                `mapstructure:"blocks_by_pass"`
	CompNamesByPass [][]string                `mapstructure:"comp_names_by_pass"`
	SimParam        map[string]comparers.Param `mapstructure:"sim_param"`
	CutoffScores    CutoffScores              `mapstructure:"cutoff_scores"`
	Parallelization Parallelization           `mapstructure:"parallelization_metrics"`

	// AcceptorName selects a compiled-in Acceptor registered via
	// acceptor.Register.
	AcceptorName string `mapstructure:"acceptor_name"`
}

// ErrConfig wraps a configuration-validation failure. Surfaced before
// any pass runs.
type ErrConfig struct {
	Detail string
}

func (e *ErrConfig) Error() string { return "config: " + e.Detail }

// Load reads and validates a configuration file. File extension selects
// the format viper parses it with (.yaml/.yml or .json).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "yml" {
		ext = "yaml"
	}
	if ext != "" {
		v.SetConfigType(ext)
	}

	v.SetDefault("acceptor_name", "default")
	v.SetDefault("parallelization_metrics.num_processes", 4)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on an unrecognized comparer kind or a required
// key left empty. Per-pass missing-field conditions are not
// configuration errors; those are evaluated later, per table, by the
// blocker and comparer registry and are recovered by skipping.
func (c *Config) Validate() error {
	switch c.MatchType {
	case OneToOne, OneToMany, ManyToOne, ManyToMany, Dedup:
	default:
		return &ErrConfig{Detail: fmt.Sprintf("unrecognized matchtype %q", c.MatchType)}
	}
	if len(c.BlocksByPass) == 0 {
		return &ErrConfig{Detail: "blocks_by_pass must list at least one pass"}
	}
	if _, ok := c.DataParam["df_a"]; !ok {
		return &ErrConfig{Detail: "data_param.df_a is required"}
	}
	if c.MatchType != Dedup {
		if _, ok := c.DataParam["df_b"]; !ok {
			return &ErrConfig{Detail: "data_param.df_b is required unless matchtype is dedup"}
		}
	}
	for name, p := range c.SimParam {
		switch p.Comparer {
		case "jarowinkler", "levenshtein", "inv_jarowinkler", "exact",
			"numeric", "date", "byear", "bmonthbday", "minitial":
		default:
			return &ErrConfig{Detail: fmt.Sprintf("sim_param[%s]: unrecognized comparer kind %q", name, p.Comparer)}
		}
	}
	return nil
}

// WantedCompNames returns the de-duplicated union of every pass's
// comp_names_by_pass entries, the set comparers.Build needs to
// construct.
func (c *Config) WantedCompNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, names := range c.CompNamesByPass {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
