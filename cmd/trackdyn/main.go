package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/signalsfoundry/gnss-dynamics/internal/config"
	"github.com/signalsfoundry/gnss-dynamics/internal/logging"
	"github.com/signalsfoundry/gnss-dynamics/internal/observability"
	"github.com/signalsfoundry/gnss-dynamics/internal/pipeline"
	"github.com/signalsfoundry/gnss-dynamics/internal/synth"
	"github.com/signalsfoundry/gnss-dynamics/kb"
	"github.com/signalsfoundry/gnss-dynamics/model"
	"github.com/signalsfoundry/gnss-dynamics/timectrl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "trackdyn: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	distance    string
	unit        string
	scenarios   string
	metricsAddr string
	format      string
	precision   uint
	hold        bool
	replayTick  time.Duration
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("trackdyn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to a YAML run configuration (defaults to the built-in scenarios)")
	fs.StringVar(&o.distance, "distance", "", "distance method: haversine, equirectangular or chord")
	fs.StringVar(&o.unit, "unit", "", "distance unit: miles, km or m")
	fs.StringVar(&o.scenarios, "scenarios", "", "comma separated scenario names to run (default all)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (empty disables)")
	fs.StringVar(&o.format, "format", "text", "report format: text or json")
	fs.UintVar(&o.precision, "geohash-precision", pipeline.DefaultGeohashPrecision, "characters in the centre geohash")
	fs.BoolVar(&o.hold, "hold", false, "keep serving metrics after the report until interrupted")
	fs.DurationVar(&o.replayTick, "replay-tick", 0, "replay fixes into the track store in simulated ticks of this size (0 loads each track at once)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.replayTick < 0 {
		return o, fmt.Errorf("replay tick must not be negative")
	}
	if o.format != "text" && o.format != "json" {
		return o, fmt.Errorf("unknown report format %q", o.format)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.distance != "" {
		cfg.Distance.Method = opts.distance
	}
	if opts.unit != "" {
		cfg.Distance.Unit = opts.unit
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	distance, err := cfg.DistanceFunc()
	if err != nil {
		return err
	}

	ctx, log := logging.WithRunLogger(ctx, logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: stderr,
	}))
	ctx = logging.ContextWithLogger(ctx, log)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Writer:      stderr,
	}), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector, err := observability.NewDynamicsCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	metricsSrv := serveMetrics(ctx, cfg.Metrics.Addr, collector, log)

	var names []string
	if opts.scenarios != "" {
		names = strings.Split(opts.scenarios, ",")
	}
	scenarios, err := cfg.Select(names...)
	if err != nil {
		return err
	}

	store := kb.NewTrackStore()
	appends := 0
	unsubscribe := store.Subscribe(func(e kb.Event) {
		switch e.Type {
		case kb.EventTrackAdded:
			collector.SetTracks(store.Len())
		case kb.EventSamplesAppended:
			appends++
		}
	})
	defer unsubscribe()

	if err := loadScenarios(ctx, store, scenarios, opts.replayTick); err != nil {
		return err
	}

	log.Debug(ctx, "tracks loaded",
		logging.Int("tracks", store.Len()),
		logging.Int("append_batches", appends),
	)

	var summaries []pipeline.Summary
	for _, id := range store.IDs() {
		track, err := store.Track(id)
		if err != nil {
			return err
		}
		res, err := pipeline.Run(ctx, track, pipeline.Options{
			TrackID:          id,
			Distance:         distance,
			Logger:           log,
			Collector:        collector,
			GeohashPrecision: opts.precision,
		})
		if err != nil {
			if pipeline.IsInputError(err) {
				log.Warn(ctx, "skipping track", logging.String("track_id", id), logging.Err(err))
				continue
			}
			return fmt.Errorf("track %q: %w", id, err)
		}
		summaries = append(summaries, res.Summary)
	}

	if err := writeReport(stdout, opts.format, cfg.Distance.Unit, summaries); err != nil {
		return err
	}

	if metricsSrv != nil {
		if opts.hold {
			log.Info(ctx, "holding for metrics scrapes; interrupt to exit")
			<-ctx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// loadScenarios generates each scenario's track and stores it under the
// scenario name. With a positive tick the fixes are replayed into the
// store on a simulated clock instead of being appended in one go.
func loadScenarios(ctx context.Context, store *kb.TrackStore, scenarios []config.Scenario, tick time.Duration) error {
	log := logging.LoggerFromContext(ctx)
	ids := make([]string, 0, len(scenarios))
	tracks := make([][]*model.Sample, 0, len(scenarios))
	for _, sc := range scenarios {
		samples, err := buildTrack(sc)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		if err := store.AddTrack(sc.Name); err != nil {
			return err
		}
		log.Debug(ctx, "generated track",
			logging.String("track_id", sc.Name),
			logging.String("kind", sc.Kind),
			logging.Int("samples", len(samples)),
		)
		ids = append(ids, sc.Name)
		tracks = append(tracks, samples)
	}

	if tick <= 0 {
		for i, id := range ids {
			if err := store.Append(id, tracks[i]...); err != nil {
				return err
			}
		}
		return nil
	}
	return replay(ctx, store, ids, tracks, tick)
}

// replay appends every fix to the store once the simulated clock has
// reached its timestamp.
func replay(ctx context.Context, store *kb.TrackStore, ids []string, tracks [][]*model.Sample, tick time.Duration) error {
	var start, end time.Time
	for _, track := range tracks {
		if len(track) == 0 {
			continue
		}
		if first := track[0].Time(); start.IsZero() || first.Before(start) {
			start = first
		}
		if last := track[len(track)-1].Time(); last.After(end) {
			end = last
		}
	}
	if start.IsZero() {
		return nil
	}

	next := make([]int, len(tracks))
	var appendErr error
	deliver := func(now time.Time) {
		for i, track := range tracks {
			j := next[i]
			for j < len(track) && !track[j].Time().After(now) {
				j++
			}
			if j == next[i] || appendErr != nil {
				continue
			}
			appendErr = store.Append(ids[i], track[next[i]:j]...)
			next[i] = j
		}
	}

	clock := timectrl.NewClock(start, tick, timectrl.Accelerated)
	clock.AddListener(deliver)
	deliver(start)
	if err := clock.Run(ctx, end); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if appendErr != nil {
		return fmt.Errorf("replay: %w", appendErr)
	}
	logging.LoggerFromContext(ctx).Debug(ctx, "replay complete",
		logging.Int("tracks", len(ids)),
		logging.Duration("simulated", end.Sub(start)),
	)
	return nil
}

func buildTrack(sc config.Scenario) ([]*model.Sample, error) {
	start := model.Position{Latitude: sc.StartLat, Longitude: sc.StartLon}
	switch sc.Kind {
	case config.KindStraight:
		return synth.Straight(start, sc.Heading, sc.Speed, sc.Schedule())
	case config.KindTurn:
		return synth.Turn(start, sc.Heading, sc.Speed, sc.TurnRate, sc.Schedule())
	case config.KindOrbit:
		return synth.GroundTrack(sc.TLE1, sc.TLE2, sc.Schedule())
	default:
		return nil, fmt.Errorf("unknown scenario kind %q", sc.Kind)
	}
}

func serveMetrics(ctx context.Context, addr string, collector *observability.DynamicsCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(ctx, "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

type reportRow struct {
	Track         string     `json:"track"`
	Samples       int        `json:"samples"`
	Velocities    int        `json:"velocities"`
	Dropped       int        `json:"droppedVelocities"`
	Distance      float64    `json:"distance"`
	Unit          string     `json:"unit"`
	MaxSpeed      float64    `json:"maxSpeedPerHour"`
	AngularValues int        `json:"angularValues"`
	MeanAngular   float64    `json:"meanAngularVelocity"`
	Center        [2]float64 `json:"center"`
	Geohash       string     `json:"geohash"`
}

func writeReport(w io.Writer, format, unit string, summaries []pipeline.Summary) error {
	rows := make([]reportRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, reportRow{
			Track:         s.TrackID,
			Samples:       s.Samples,
			Velocities:    s.Velocities,
			Dropped:       s.DroppedVelocities,
			Distance:      s.TotalDistance,
			Unit:          unit,
			MaxSpeed:      s.MaxSpeed,
			AngularValues: s.AngularValues,
			MeanAngular:   s.MeanAngularVelocity,
			Center:        [2]float64{s.Center.Latitude, s.Center.Longitude},
			Geohash:       s.CenterGeohash,
		})
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "TRACK\tSAMPLES\tVELOCITIES\tDROPPED\tDISTANCE\tMAX SPEED\tANGULAR\tMEAN ANGULAR\tCENTRE\n")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f %s\t%.3f %s/h\t%d\t%.6f\t%s\n",
			r.Track, r.Samples, r.Velocities, r.Dropped,
			r.Distance, r.Unit, r.MaxSpeed, r.Unit,
			r.AngularValues, r.MeanAngular, r.Geohash,
		)
	}
	return tw.Flush()
}
