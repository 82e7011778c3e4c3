package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackdyn.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Distance.Method != "haversine" || len(cfg.Scenarios) != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
distance:
  method: chord
  unit: km
logging:
  format: json
scenarios:
  - name: commute
    kind: straight
    startLat: 40.7
    startLon: -74.0
    heading: 90
    speed: 15
    count: 30
    step: 10s
    jitter: 1s
    dropEvery: 7
  - name: sat
    kind: orbit
    start: 2021-10-02T14:00:00Z
    count: 5
    step: 1m
    tle1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
    tle2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Distance.Method != "chord" || cfg.Distance.Unit != "km" {
		t.Fatalf("distance = %+v", cfg.Distance)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v, want default level kept", cfg.Logging)
	}
	if len(cfg.Scenarios) != 2 {
		t.Fatalf("scenarios = %d, want file list to replace defaults", len(cfg.Scenarios))
	}
	commute := cfg.Scenarios[0]
	if commute.Step != 10*time.Second || commute.Jitter != time.Second {
		t.Fatalf("durations = %v/%v", commute.Step, commute.Jitter)
	}
	if !commute.Start.Equal(DefaultStart) {
		t.Fatalf("start = %v, want default", commute.Start)
	}
	sched := commute.Schedule()
	if sched.Count != 30 || sched.DropEvery != 7 {
		t.Fatalf("schedule = %+v", sched)
	}
	if want := time.Date(2021, 10, 2, 14, 0, 0, 0, time.UTC); !cfg.Scenarios[1].Start.Equal(want) {
		t.Fatalf("orbit start = %v", cfg.Scenarios[1].Start)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRACKDYN_DISTANCE", "equirectangular")
	t.Setenv("TRACKDYN_UNIT", "m")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Distance.Method != "equirectangular" || cfg.Distance.Unit != "m" || cfg.Logging.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Distance, cfg.Logging)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown method": "distance:\n  method: vincenty\n",
		"orbit without tle": `
scenarios:
  - name: sat
    kind: orbit
    start: 2021-10-02T14:00:00Z
    count: 5
    step: 1m
`,
		"orbit without start": `
scenarios:
  - name: sat
    kind: orbit
    count: 5
    step: 1m
    tle1: a
    tle2: b
`,
		"duplicate names": `
scenarios:
  - {name: a, count: 3, step: 1s}
  - {name: a, count: 3, step: 1s}
`,
		"zero step":    "scenarios:\n  - {name: a, count: 3}\n",
		"bad latitude": "scenarios:\n  - {name: a, count: 3, step: 1s, startLat: 91}\n",
		"bad ratio":    "tracing:\n  sampleRatio: 2\n",
		"bad yaml":     "distance: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestSelect(t *testing.T) {
	cfg := Default()

	all, err := cfg.Select()
	if err != nil || len(all) != 3 {
		t.Fatalf("Select() = %d, %v", len(all), err)
	}
	some, err := cfg.Select("iss", "harbour-run")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(some) != 2 || some[0].Name != "harbour-run" || some[1].Name != "iss" {
		t.Fatalf("Select order = %+v", some)
	}
	if _, err := cfg.Select("nope"); !errors.Is(err, ErrNoScenarios) {
		t.Fatalf("err = %v, want ErrNoScenarios", err)
	}
}

func TestDistanceFunc(t *testing.T) {
	cfg := Default()
	cfg.Distance.Unit = "km"
	fn, err := cfg.DistanceFunc()
	if err != nil {
		t.Fatalf("DistanceFunc: %v", err)
	}
	d := fn(model.Position{}, model.Position{Longitude: 1})
	if math.Abs(d-111.32) > 0.1 {
		t.Fatalf("1 degree = %v km", d)
	}

	cfg.Distance.Method = "bogus"
	if _, err := cfg.DistanceFunc(); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}
