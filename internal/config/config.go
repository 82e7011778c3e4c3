// Package config loads the trackdyn run configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/gnss-dynamics/core"
	"github.com/signalsfoundry/gnss-dynamics/geodesy"
	"github.com/signalsfoundry/gnss-dynamics/timectrl"
)

// Scenario kinds.
const (
	KindStraight = "straight"
	KindTurn     = "turn"
	KindOrbit    = "orbit"
)

// DistanceConfig selects the distance function used for velocities.
type DistanceConfig struct {
	Method string `yaml:"method" validate:"oneof=haversine equirectangular chord"`
	Unit   string `yaml:"unit" validate:"oneof=miles mi km kilometers kilometres m meters metres"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// TracingConfig mirrors observability.TracingConfig.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter" validate:"oneof=stdout otlp"`
	Endpoint    string  `yaml:"endpoint" validate:"omitempty,hostname_port"`
	SampleRatio float64 `yaml:"sampleRatio" validate:"gte=0,lte=1"`
}

// MetricsConfig controls the optional /metrics listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

// Scenario describes one synthetic track. Speeds are metres per second,
// headings degrees clockwise from north, turn rates degrees per second.
type Scenario struct {
	Name     string  `yaml:"name" validate:"required"`
	Kind     string  `yaml:"kind" validate:"oneof=straight turn orbit"`
	StartLat float64 `yaml:"startLat" validate:"gte=-90,lte=90"`
	StartLon float64 `yaml:"startLon" validate:"gte=-180,lte=180"`
	Heading  float64 `yaml:"heading"`
	Speed    float64 `yaml:"speed" validate:"gte=0"`
	TurnRate float64 `yaml:"turnRate"`

	Start          time.Time     `yaml:"start"`
	Count          int           `yaml:"count" validate:"gte=2"`
	Step           time.Duration `yaml:"step" validate:"gt=0"`
	Jitter         time.Duration `yaml:"jitter" validate:"gte=0"`
	DuplicateEvery int           `yaml:"duplicateEvery" validate:"gte=0"`
	DropEvery      int           `yaml:"dropEvery" validate:"gte=0"`
	Seed           uint64        `yaml:"seed"`

	TLE1 string `yaml:"tle1" validate:"required_if=Kind orbit"`
	TLE2 string `yaml:"tle2" validate:"required_if=Kind orbit"`
}

// Schedule returns the fix schedule for the scenario.
func (s Scenario) Schedule() timectrl.Schedule {
	return timectrl.Schedule{
		Start:          s.Start,
		Step:           s.Step,
		Count:          s.Count,
		Jitter:         s.Jitter,
		DuplicateEvery: s.DuplicateEvery,
		DropEvery:      s.DropEvery,
		Seed:           s.Seed,
	}
}

// Config is the root configuration structure.
type Config struct {
	Distance  DistanceConfig `yaml:"distance"`
	Logging   LoggingConfig  `yaml:"logging"`
	Tracing   TracingConfig  `yaml:"tracing"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Scenarios []Scenario     `yaml:"scenarios" validate:"dive"`
}

// DefaultStart is used for straight and turn scenarios without a start.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

// Default returns the built-in configuration: haversine miles and three
// demo scenarios.
func Default() Config {
	return Config{
		Distance: DistanceConfig{Method: "haversine", Unit: "miles"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Tracing:  TracingConfig{Exporter: "stdout", SampleRatio: 1},
		Scenarios: []Scenario{
			{
				Name: "harbour-run", Kind: KindStraight,
				StartLat: 51.5, StartLon: -0.12, Heading: 60, Speed: 12,
				Start: DefaultStart, Count: 120, Step: 5 * time.Second,
				Jitter: 400 * time.Millisecond, DuplicateEvery: 17, DropEvery: 23, Seed: 1,
			},
			{
				Name: "holding-pattern", Kind: KindTurn,
				StartLat: 48.35, StartLon: 11.78, Heading: 0, Speed: 70, TurnRate: 3,
				Start: DefaultStart, Count: 90, Step: 2 * time.Second,
				Jitter: 200 * time.Millisecond, Seed: 2,
			},
			{
				Name: "iss", Kind: KindOrbit,
				Start: time.Date(2021, 10, 2, 14, 0, 0, 0, time.UTC),
				Count: 60, Step: 30 * time.Second,
				TLE1: issLine1, TLE2: issLine2,
			},
		},
	}
}

// Load reads path, layers it over Default, applies environment overrides
// and validates the result. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %q: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.fillScenarioDefaults()
	if err := cfg.Validate(); err != nil {
		if path == "" {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := env("TRACKDYN_DISTANCE"); v != "" {
		c.Distance.Method = v
	}
	if v := env("TRACKDYN_UNIT"); v != "" {
		c.Distance.Unit = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func env(key string) string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(key)))
}

func (c *Config) fillScenarioDefaults() {
	for i := range c.Scenarios {
		s := &c.Scenarios[i]
		if s.Kind == "" {
			s.Kind = KindStraight
		}
		if s.Start.IsZero() && s.Kind != KindOrbit {
			s.Start = DefaultStart
		}
	}
}

var validate = validator.New()

// Validate checks struct tags plus the rules tags cannot express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for _, s := range c.Scenarios {
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Kind == KindOrbit && s.Start.IsZero() {
			return fmt.Errorf("scenario %q: orbit scenarios need a start near the TLE epoch", s.Name)
		}
	}
	return nil
}

// ErrNoScenarios is returned by Select when nothing matches.
var ErrNoScenarios = errors.New("no matching scenarios")

// Select returns the scenarios named in names, in config order. With no
// names every scenario is returned.
func (c Config) Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		if len(c.Scenarios) == 0 {
			return nil, ErrNoScenarios
		}
		return c.Scenarios, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Scenario
	for _, s := range c.Scenarios {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("scenario %q: %w", n, ErrNoScenarios)
	}
	return out, nil
}

// DistanceFunc resolves the configured distance method and unit.
func (c Config) DistanceFunc() (core.DistanceFunc, error) {
	u, err := geodesy.ParseUnit(c.Distance.Unit)
	if err != nil {
		return nil, err
	}
	return geodesy.ByName(c.Distance.Method, u)
}
