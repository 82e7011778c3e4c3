// Package pipeline runs the full derivation chain over one track and
// reports on it through logging, metrics and tracing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/gnss-dynamics/core"
	"github.com/signalsfoundry/gnss-dynamics/geodesy"
	"github.com/signalsfoundry/gnss-dynamics/internal/logging"
	"github.com/signalsfoundry/gnss-dynamics/internal/observability"
	"github.com/signalsfoundry/gnss-dynamics/model"
)

// ErrTooFewSamples is returned by Run when a track has fewer than the two
// samples needed to derive a velocity.
var ErrTooFewSamples = errors.New("too few samples")

// DefaultGeohashPrecision is used when Options.GeohashPrecision is zero.
const DefaultGeohashPrecision = 7

// maxGeohashPrecision is the longest hash that still fits a uint64.
const maxGeohashPrecision = 12

// Options configures a pipeline run. The zero value is usable: distances
// default to haversine miles and logging, metrics and tracing are off.
type Options struct {
	TrackID          string
	Distance         core.DistanceFunc
	Logger           logging.Logger
	Collector        *observability.DynamicsCollector
	GeohashPrecision uint
}

// Summary describes one track after a run.
type Summary struct {
	TrackID           string
	Samples           int
	Velocities        int
	DroppedVelocities int
	// TotalDistance is the sum of the distances of all derived velocities.
	TotalDistance float64
	MaxSpeed      float64
	// MeanAngularVelocity is zero when no angular velocity was produced.
	MeanAngularVelocity float64
	AngularValues       int
	Bounds              orb.Bound
	Center              model.Position
	CenterGeohash       string
	Elapsed             time.Duration
}

// Result is the full output of a pipeline run.
type Result struct {
	// Samples are the annotated copies of the input.
	Samples       []*model.Sample
	Velocities    []model.Velocity
	Accelerations []model.Vector2
	Angular       core.AngularReport
	Summary       Summary
}

// Run derives velocities, standalone accelerations, per-sample annotation
// and angular velocity for samples. The input is copied first so that
// callers can run the same track more than once; the input samples are
// never written.
func Run(ctx context.Context, samples []*model.Sample, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	log = log.With(logging.String("track_id", opts.TrackID))

	res, err := run(ctx, samples, opts, log)

	elapsed := time.Since(start)
	stats := observability.RunStats{Samples: len(samples), Elapsed: elapsed, Failed: err != nil}
	if err != nil {
		opts.Collector.ObserveRun(stats)
		log.Warn(ctx, "pipeline run failed", logging.Err(err))
		return nil, err
	}

	res.Summary.Elapsed = elapsed
	stats.Velocities = res.Summary.Velocities
	stats.VelocitiesDropped = res.Summary.DroppedVelocities
	stats.Angular = res.Summary.AngularValues
	stats.Skipped = make(map[string]int, len(res.Angular.Skipped))
	for reason, n := range res.Angular.Skipped {
		stats.Skipped[reason.String()] = n
	}
	opts.Collector.ObserveRun(stats)

	log.Info(ctx, "pipeline run complete",
		logging.Int("samples", res.Summary.Samples),
		logging.Int("velocities", res.Summary.Velocities),
		logging.Int("angular_values", res.Summary.AngularValues),
		logging.Float("total_distance", res.Summary.TotalDistance),
		logging.Duration("elapsed", elapsed),
	)
	return res, nil
}

func run(ctx context.Context, samples []*model.Sample, opts Options, log logging.Logger) (*Result, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("pipeline needs 2 samples, got %d: %w", len(samples), ErrTooFewSamples)
	}
	precision := opts.GeohashPrecision
	if precision == 0 {
		precision = DefaultGeohashPrecision
	}
	if precision > maxGeohashPrecision {
		return nil, fmt.Errorf("geohash precision %d exceeds %d", precision, maxGeohashPrecision)
	}
	distance := opts.Distance
	if distance == nil {
		distance = geodesy.Haversine(geodesy.Miles)
	}

	track := make([]*model.Sample, len(samples))
	for i, s := range samples {
		track[i] = s.Clone()
	}
	res := &Result{Samples: track}

	err := stage(ctx, "pipeline.velocity", opts.TrackID, len(track), func(ctx context.Context) error {
		res.Velocities = core.Velocities(track, distance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if dropped := len(track) - 1 - len(res.Velocities); dropped > 0 {
		log.Debug(ctx, "dropped velocities with zero elapsed time", logging.Int("dropped", dropped))
	}

	err = stage(ctx, "pipeline.acceleration", opts.TrackID, len(track), func(ctx context.Context) error {
		res.Accelerations = core.DeriveAccelerationSequence(res.Velocities)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = stage(ctx, "pipeline.annotate", opts.TrackID, len(track), func(ctx context.Context) error {
		_, err := core.Annotate(track, distance)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = stage(ctx, "pipeline.angular_velocity", opts.TrackID, len(track), func(ctx context.Context) error {
		report, err := core.DeriveAngularVelocityReport(track)
		res.Angular = report
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(res.Angular.Skipped) > 0 {
		log.Debug(ctx, "angular velocity skipped samples",
			logging.Int("missing_velocity", res.Angular.Skipped[core.SkipMissingVelocity]),
			logging.Int("zero_magnitude", res.Angular.Skipped[core.SkipZeroMagnitude]),
			logging.Int("acos_domain", res.Angular.Skipped[core.SkipAcosDomain]),
		)
	}

	res.Summary = summarize(opts.TrackID, track, res, precision)
	return res, nil
}

// stage runs fn inside a span, aborting early when ctx is done.
func stage(ctx context.Context, name, trackID string, samples int, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	ctx, span := observability.StartSpan(ctx, name, trackID, attribute.Int("samples", samples))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func summarize(id string, track []*model.Sample, res *Result, precision uint) Summary {
	s := Summary{
		TrackID:           id,
		Samples:           len(track),
		Velocities:        len(res.Velocities),
		DroppedVelocities: len(track) - 1 - len(res.Velocities),
		AngularValues:     len(res.Angular.Values),
	}
	for _, v := range res.Velocities {
		s.TotalDistance += v.Distance
		s.MaxSpeed = math.Max(s.MaxSpeed, v.Speed())
	}
	if n := len(res.Angular.Values); n > 0 {
		var sum float64
		for _, w := range res.Angular.Values {
			sum += w
		}
		s.MeanAngularVelocity = sum / float64(n)
	}
	s.Bounds = core.Bounds(track)
	s.Center = core.BoundsCenter(s.Bounds)
	s.CenterGeohash = geohash.EncodeWithPrecision(s.Center.Latitude, s.Center.Longitude, precision)
	return s
}

// IsInputError reports whether err came from a structurally unusable track
// rather than a failure inside the pipeline.
func IsInputError(err error) bool {
	return errors.Is(err, ErrTooFewSamples)
}
