// Package motion - Streaming motion analysis of grayscale frame sequences.
//
// An Analyzer pulls frames one at a time from a FrameSource, computes the frame delta
// and dense flow against the previous frame, reduces the flow to an R×R region grid
// and folds every signal into running statistics. At most two frame buffers, one
// flow field and O(R²) aggregator cells are live during a run, independent of the
// sequence length.
//
// State Machine:
//
//	AwaitingFirstFrame ──first frame──▶ Streaming ──io.EOF──▶ Done
//	        │                              │
//	        └──────────── error ───────────┴──────────────────▶ Done (no report)
package motion

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-motion/flow"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/regions"
	"github.com/nvr-ai/go-motion/stats"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// State is the lifecycle state of an Analyzer.
type State int

const (
	// AwaitingFirstFrame is the initial state.
	AwaitingFirstFrame State = iota
	// Streaming means the baseline is set and transitions are being folded.
	Streaming
	// Done is terminal.
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingFirstFrame:
		return "awaiting_first_frame"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Analyzer runs one motion analysis. It is single-use and not safe for concurrent
// use; independent runs each need their own Analyzer.
type Analyzer struct {
	cfg          Config
	newEstimator flow.Constructor
	logger       *zap.Logger
	observer     Observer
	id           string
	state        State
}

// NewAnalyzer validates cfg and creates an analyzer.
//
// Arguments:
//   - cfg: The analysis configuration.
//   - newEstimator: Builds the flow estimator from the first frame. When nil, one is
//     derived from cfg.Flow.
//   - logger: The logger, nil disables logging.
//
// Returns:
//   - *Analyzer: The analyzer in state AwaitingFirstFrame.
//   - error: An ErrConfig error if cfg is invalid.
//
// @example
// a, err := motion.NewAnalyzer(motion.DefaultConfig(), nil, logger)
// report, err := a.Run(ctx, source.NewSlice(frames))
func NewAnalyzer(cfg Config, newEstimator flow.Constructor, logger *zap.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if newEstimator == nil {
		ctor, err := flow.NewConstructor(cfg.Flow)
		if err != nil {
			return nil, newError(ErrConfig, err)
		}
		newEstimator = ctor
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.NewString()
	return &Analyzer{
		cfg:          cfg,
		newEstimator: newEstimator,
		logger:       logger.With(zap.String("run_id", id)),
		observer:     nopObserver{},
		id:           id,
		state:        AwaitingFirstFrame,
	}, nil
}

// SetObserver registers an observer for progress notifications. It must be called
// before Run.
func (a *Analyzer) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	a.observer = o
}

// ID returns the run id used in logs and observer notifications.
func (a *Analyzer) ID() string {
	return a.id
}

// State returns the current lifecycle state.
func (a *Analyzer) State() State {
	return a.state
}

// run holds the buffers of one Run.
type run struct {
	prev   *images.Frame
	delta  *images.Frame
	dec    regions.Decomposition
	agg    *stats.Aggregator
	report *Report
	frames int
}

// Run consumes src until it is exhausted and returns the report.
//
// Arguments:
//   - ctx: Checked between frames; cancellation aborts with ErrCancelled.
//   - src: The frame source.
//
// Returns:
//   - *Report: The complete report, nil on any error.
//   - error: One of ErrEmptySequence, ErrDimensionMismatch, ErrUpstreamFrame,
//     ErrCancelled, ErrConfig (estimator construction) or ErrAlreadyRun.
func (a *Analyzer) Run(ctx context.Context, src FrameSource) (*Report, error) {
	if a.state != AwaitingFirstFrame {
		return nil, ErrAlreadyRun
	}

	start := time.Now()
	r := &run{
		agg:    stats.NewAggregator(a.cfg.Regions * a.cfg.Regions),
		report: newReport(),
	}
	report, err := a.run(ctx, src, r)
	a.state = Done

	elapsed := time.Since(start)
	a.observer.ObserveRun(a.id, r.frames, elapsed, err)
	if err != nil {
		a.logger.Error("motion analysis failed",
			zap.Int("frames", r.frames), zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}
	a.logger.Info("motion analysis finished",
		zap.Int("frames", r.frames), zap.Duration("elapsed", elapsed))
	return report, nil
}

func (a *Analyzer) run(ctx context.Context, src FrameSource, r *run) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(ErrCancelled, err)
	}

	first, err := a.pull(ctx, src)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySequence
	}
	if err != nil {
		return nil, err
	}
	r.frames++

	est, err := a.newEstimator(first)
	if err != nil {
		return nil, newError(ErrConfig, errors.Wrap(err, "failed to create flow estimator"))
	}
	if closer, ok := est.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				a.logger.Warn("failed to close flow estimator", zap.Error(err))
			}
		}()
	}
	a.release(src)

	r.prev = first
	r.delta = images.NewFrame(first.Width, first.Height)
	a.state = Streaming
	a.logger.Info("motion analysis started",
		zap.Int("width", first.Width), zap.Int("height", first.Height), zap.Int("regions", a.cfg.Regions))

	for {
		if err := ctx.Err(); err != nil {
			return nil, newError(ErrCancelled, err)
		}

		frame, err := a.pull(ctx, src)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		r.frames++

		if err := a.step(est, r, frame); err != nil {
			return nil, err
		}
		a.release(src)

		// Swap: the frame becomes the previous one, the old buffer goes back to the source.
		old := r.prev
		r.prev = frame
		if rc, ok := src.(Recycler); ok {
			rc.Recycle(old)
		}
	}

	r.report.Frames = r.frames
	r.report.finish(r.agg)
	return r.report, nil
}

// step processes one frame transition.
func (a *Analyzer) step(est flow.Estimator, r *run, frame *images.Frame) error {
	start := time.Now()
	if err := images.CheckSameShape(r.prev, frame); err != nil {
		return newError(ErrDimensionMismatch, errors.Wrapf(err, "frame %d", r.frames-1))
	}

	if err := images.DeltaInto(r.delta, r.prev, frame, a.cfg.Amp); err != nil {
		return newError(ErrConfig, err)
	}
	delta := r.delta.Mean() / images.MaxIntensity

	res, err := est.Update(frame)
	if err != nil {
		if errors.Is(err, images.ErrDimensionMismatch) {
			return newError(ErrDimensionMismatch, err)
		}
		return errors.Wrapf(err, "flow update failed at frame %d", r.frames-1)
	}
	if err := regions.DecomposeInto(&r.dec, res.Field, a.cfg.Regions); err != nil {
		return newError(ErrConfig, err)
	}

	sample := stats.Sample{
		Delta:      delta,
		Dir:        res.Dir,
		Flow:       res.Dir.Mag(),
		RegionFlow: append([]float64(nil), r.dec.Energy...),
	}
	if err := r.agg.Fold(sample); err != nil {
		return err
	}

	rep := r.report
	rep.Angle = append(rep.Angle, res.Dir.Heading())
	rep.Dir = append(rep.Dir, res.Dir)
	rep.Delta = append(rep.Delta, sample.Delta)
	rep.Flow = append(rep.Flow, sample.Flow)
	rep.appendRegions(r.dec.Directions, r.dec.Energy)

	elapsed := time.Since(start)
	a.observer.ObserveFrame(a.id, sample, elapsed)
	if ce := a.logger.Check(zap.DebugLevel, "frame analyzed"); ce != nil {
		ce.Write(
			zap.Int("frame", r.frames-1),
			zap.String("checksum", images.ComputeFrameChecksum(frame)),
			zap.Float64("delta", sample.Delta),
			zap.Float64("flow", sample.Flow),
			zap.Duration("elapsed", elapsed),
		)
	}
	return nil
}

// pull reads the next frame. Source errors other than io.EOF are classified as
// cancellation when ctx is done and as upstream errors otherwise. Nil frames and
// frames whose Pix does not hold Width*Height samples are upstream errors.
func (a *Analyzer) pull(ctx context.Context, src FrameSource) (*images.Frame, error) {
	frame, err := src.Next(ctx)
	switch {
	case err != nil:
	case frame == nil:
		err = errors.New("frame source returned a nil frame")
	case frame.Width <= 0 || frame.Height <= 0 || len(frame.Pix) != frame.Width*frame.Height:
		err = errors.Errorf("malformed %dx%d frame with %d samples", frame.Width, frame.Height, len(frame.Pix))
	}
	switch {
	case err == nil:
		return frame, nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case ctx.Err() != nil:
		return nil, newError(ErrCancelled, err)
	default:
		return nil, newError(ErrUpstreamFrame, err)
	}
}

// release disposes the storage of the last yielded frame when configured.
func (a *Analyzer) release(src FrameSource) {
	if !a.cfg.DeleteConsumedFiles {
		return
	}
	rel, ok := src.(Releaser)
	if !ok {
		return
	}
	if err := rel.Release(); err != nil {
		a.logger.Warn("failed to release consumed frame", zap.Error(err))
	}
}
