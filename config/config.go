// Package config loads the YAML configuration shared by the goalsnek binaries.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/brensch/goalsnek/learning"
	"github.com/brensch/goalsnek/logging"
	"github.com/brensch/goalsnek/pathfind"
	"github.com/brensch/goalsnek/session"
	"github.com/brensch/goalsnek/strategy"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Agent    AgentConfig    `yaml:"agent"`
	Learning LearningConfig `yaml:"learning"`
	History  HistoryConfig  `yaml:"history"`
	Log      logging.Config `yaml:"log"`
}

type ServerConfig struct {
	Listen string `yaml:"listen" validate:"required"`
	Author string `yaml:"author"`
	Color  string `yaml:"color" validate:"omitempty,hexcolor"`
	Head   string `yaml:"head"`
	Tail   string `yaml:"tail"`
}

type AgentConfig struct {
	Personality    string `yaml:"personality" validate:"oneof=hungry timid headhunter snacky qlearning"`
	MinHealth      int32  `yaml:"min_health" validate:"gte=0,lte=100"`
	HeadDangerCost int    `yaml:"head_danger_cost" validate:"gte=0,lte=100"`
	BlockHazards   bool   `yaml:"block_hazards"`
}

type LearningConfig struct {
	Scope        string  `yaml:"scope" validate:"oneof=session shared"`
	Alpha        float64 `yaml:"alpha" validate:"gt=0,lte=1"`
	Gamma        float64 `yaml:"gamma" validate:"gte=0,lte=1"`
	Epsilon      float64 `yaml:"epsilon" validate:"gte=0,lte=1"`
	Episodes     int     `yaml:"episodes" validate:"gte=1,lte=10000"`
	MaxSteps     int     `yaml:"max_steps" validate:"gte=1"`
	Width        int     `yaml:"width" validate:"gte=1,lte=64"`
	Height       int     `yaml:"height" validate:"gte=1,lte=64"`
	Seed         int64   `yaml:"seed"`
	SnapshotPath string  `yaml:"snapshot_path"`
}

type HistoryConfig struct {
	ExportDir string `yaml:"export_dir"`
}

func Default() Config {
	lc := learning.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Listen: ":8080",
			Author: "goalsnek",
			Color:  "#888888",
			Head:   "default",
			Tail:   "default",
		},
		Agent: AgentConfig{
			Personality:    strategy.HeadHunter.String(),
			MinHealth:      strategy.DefaultMinHealth,
			HeadDangerCost: pathfind.DefaultHeadDangerCost,
			BlockHazards:   true,
		},
		Learning: LearningConfig{
			Scope:    string(session.ScopeSession),
			Alpha:    lc.Alpha,
			Gamma:    lc.Gamma,
			Epsilon:  lc.Epsilon,
			Episodes: lc.Episodes,
			MaxSteps: lc.MaxSteps,
			Width:    lc.Width,
			Height:   lc.Height,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			v := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", v.Namespace(), v.Tag(), v.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Personality() (strategy.Personality, error) {
	return strategy.ParsePersonality(c.Agent.Personality)
}

func (c Config) Scope() (session.Scope, error) {
	return session.ParseScope(c.Learning.Scope)
}

func (c Config) LearnerConfig() learning.Config {
	return learning.Config{
		Alpha:    c.Learning.Alpha,
		Gamma:    c.Learning.Gamma,
		Epsilon:  c.Learning.Epsilon,
		Episodes: c.Learning.Episodes,
		MaxSteps: c.Learning.MaxSteps,
		Width:    c.Learning.Width,
		Height:   c.Learning.Height,
		Seed:     c.Learning.Seed,
	}
}

func (c Config) GraphOptions() pathfind.Options {
	return pathfind.Options{
		HeadDangerCost: c.Agent.HeadDangerCost,
		BlockHazards:   c.Agent.BlockHazards,
	}
}

func (c Config) Classifier() strategy.Classifier {
	return strategy.DefaultClassifier{MinHealth: c.Agent.MinHealth}
}
