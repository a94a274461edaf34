package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tmater/boostprobe/internal/proto"
	"github.com/tmater/boostprobe/internal/report"
	"github.com/tmater/boostprobe/internal/verdict"
)

// APIKeyEnv overrides target.api_key when set.
const APIKeyEnv = "BOOSTPROBE_API_KEY"

type Config struct {
	Target Target            `yaml:"target"`
	Cases  []proto.ProbeCase `yaml:"cases"`
	Policy string            `yaml:"policy"`
	Report string            `yaml:"report"`
	Alert  Alert             `yaml:"alert"`
	Store  Store             `yaml:"store"`
}

type Target struct {
	BaseURL string        `yaml:"base_url"`
	Path    string        `yaml:"path"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type Alert struct {
	Webhook string `yaml:"webhook"`
}

type Store struct {
	DSN string `yaml:"dsn"`
}

// Default returns the built-in suite: a local BoostBox with its 100KB body
// limit probed well under, just under and well over the limit.
func Default() *Config {
	return &Config{
		Target: Target{
			BaseURL: "http://localhost:8080",
			Path:    "/boost",
			APIKey:  "v4v4me",
			Timeout: 5 * time.Second,
		},
		Cases: []proto.ProbeCase{
			{Name: "under-limit", SizeKB: 50, Expect: proto.OutcomeAccept},
			{Name: "near-limit", SizeKB: 95, Expect: proto.OutcomeAccept},
			{Name: "over-limit", SizeKB: 150, Expect: proto.OutcomeReject},
		},
		Policy: "strict",
		Report: "text",
	}
}

// Load reads a YAML config file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	cfg.Cases = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Only a missing cases key falls back to the built-in suite; an explicit
	// empty list is left for Validate to reject.
	if cfg.Cases == nil {
		cfg.Cases = Default().Cases
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies the environment override, normalises case expectations and
// validates. Call it again after changing fields from flags.
func (c *Config) Finalize() error {
	if key := os.Getenv(APIKeyEnv); key != "" {
		c.Target.APIKey = key
	}
	for i := range c.Cases {
		o, err := proto.ParseOutcome(string(c.Cases[i].Expect))
		if err != nil {
			return fmt.Errorf("config: case %d: %w", i, err)
		}
		c.Cases[i].Expect = o
	}
	return c.Validate()
}

// Validate checks that the config describes a runnable suite.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid base_url %q", c.Target.BaseURL)
	}
	if !strings.HasPrefix(c.Target.Path, "/") {
		return fmt.Errorf("config: path %q must start with /", c.Target.Path)
	}
	if c.Target.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive")
	}
	if len(c.Cases) == 0 {
		return fmt.Errorf("config: no cases defined")
	}
	for i, pc := range c.Cases {
		if pc.SizeKB <= 0 {
			return fmt.Errorf("config: case %d: size_kb must be positive, got %d", i, pc.SizeKB)
		}
		if pc.Expect != proto.OutcomeAccept && pc.Expect != proto.OutcomeReject {
			return fmt.Errorf("config: case %d: expect must be accept or reject, got %q", i, pc.Expect)
		}
	}
	if _, err := verdict.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !slices.Contains(report.Formats, c.Report) {
		return fmt.Errorf("config: unknown report format %q", c.Report)
	}
	return nil
}

// ParseCase parses the "size:expect" form used on the command line, e.g. "150:reject".
func ParseCase(s string) (proto.ProbeCase, error) {
	size, expect, ok := strings.Cut(s, ":")
	if !ok {
		return proto.ProbeCase{}, fmt.Errorf("case %q: want size_kb:accept|reject", s)
	}
	kb, err := strconv.Atoi(strings.TrimSpace(size))
	if err != nil || kb <= 0 {
		return proto.ProbeCase{}, fmt.Errorf("case %q: invalid size %q", s, size)
	}
	o, err := proto.ParseOutcome(expect)
	if err != nil {
		return proto.ProbeCase{}, fmt.Errorf("case %q: %w", s, err)
	}
	return proto.ProbeCase{SizeKB: kb, Expect: o}, nil
}
