// Package batch - Concurrent motion analysis of many artworks.
//
// Each artwork is an independent run with its own frame source, estimator and
// aggregator; runs share nothing but the logger and the metrics recorder.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nvr-ai/go-motion/motion"
	"github.com/nvr-ai/go-motion/report"
	"github.com/nvr-ai/go-motion/source"
	"github.com/nvr-ai/go-motion/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config configures a batch.
type Config struct {
	// Motion configures every run.
	Motion motion.Config
	// AssetDir holds the frame files named <id>-NNNN.<ext>.
	AssetDir string
	// OutDir receives one <id>-motion.json per artwork.
	OutDir string
	// Ext is the frame file extension.
	Ext string
	// Size is the longest frame side after resizing, 0 keeps the original size.
	Size int
	// Skip analyzes every n-th frame file.
	Skip int
	// Concurrency is the maximum number of runs in flight.
	Concurrency int
}

// Observer receives run and artwork level notifications.
type Observer interface {
	motion.Observer
	RunStarted()
	RunDone()
	ObserveArtwork(err error)
}

// Result is the outcome of one artwork.
type Result struct {
	ID       string        `json:"id"`
	RunID    string        `json:"runId"`
	Frames   int           `json:"frames"`
	Path     string        `json:"path,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Err      error         `json:"-"`
}

// Runner analyzes artworks concurrently.
type Runner struct {
	cfg      Config
	logger   *zap.Logger
	observer Observer
}

// NewRunner validates cfg and creates a runner.
//
// Arguments:
//   - cfg: The batch configuration.
//   - logger: The logger, nil disables logging.
//   - observer: Optional metrics observer, may be nil.
//
// Returns:
//   - *Runner: The runner.
//   - error: An error if cfg is invalid.
func NewRunner(cfg Config, logger *zap.Logger, observer Observer) (*Runner, error) {
	if err := cfg.Motion.Validate(); err != nil {
		return nil, err
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Skip < 1 {
		cfg.Skip = 1
	}
	if cfg.Ext == "" {
		return nil, errors.New("frame extension must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger, observer: observer}, nil
}

// Run analyzes every id and returns one result per id, in input order.
//
// A failing artwork does not stop the others; its error is stored in its Result and
// counted in the returned error. Cancelling ctx stops pending artworks.
//
// Arguments:
//   - ctx: Cancels the batch.
//   - ids: Artwork ids.
//
// Returns:
//   - []Result: One result per id.
//   - error: Non-nil if any artwork failed or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, ids []string) ([]Result, error) {
	if err := os.MkdirAll(r.cfg.OutDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", r.cfg.OutDir)
	}

	results := make([]Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			results[i] = r.analyze(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("batch finished", zap.Int("artworks", len(ids)), zap.Int("failed", failed))

	if err := ctx.Err(); err != nil {
		return results, errors.Wrap(err, "batch cancelled")
	}
	if failed > 0 {
		return results, errors.Errorf("%d of %d artworks failed", failed, len(ids))
	}
	return results, nil
}

func (r *Runner) analyze(ctx context.Context, id string) Result {
	start := time.Now()
	res := Result{ID: id}
	log := r.logger.With(zap.String("artwork", id))

	if r.observer != nil {
		r.observer.RunStarted()
		defer r.observer.RunDone()
	}

	res.Err = func() error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "artwork skipped")
		}
		paths, err := util.FramePaths(r.cfg.AssetDir, id, r.cfg.Ext, r.cfg.Skip)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return errors.Wrapf(motion.ErrEmptySequence, "no frames for %s in %s", id, r.cfg.AssetDir)
		}

		src, err := source.NewFiles(paths, r.cfg.Size, log)
		if err != nil {
			return err
		}
		a, err := motion.NewAnalyzer(r.cfg.Motion, nil, log)
		if err != nil {
			return err
		}
		res.RunID = a.ID()
		if r.observer != nil {
			a.SetObserver(r.observer)
		}

		rep, err := a.Run(ctx, src)
		if err != nil {
			return err
		}
		res.Frames = rep.Frames

		path := filepath.Join(r.cfg.OutDir, report.FileName(id))
		if err := report.WriteJSON(path, rep); err != nil {
			return err
		}
		res.Path = path
		return nil
	}()
	res.Duration = time.Since(start)
	if res.Err != nil {
		res.Error = res.Err.Error()
	}

	if r.observer != nil {
		r.observer.ObserveArtwork(res.Err)
	}
	if res.Err != nil {
		log.Error("artwork analysis failed", zap.Error(res.Err))
	} else {
		log.Info("artwork analyzed",
			zap.String("run_id", res.RunID), zap.Int("frames", res.Frames), zap.String("report", res.Path))
	}
	return res
}

// Discover lists the artwork ids that have frame files in dir, sorted.
func Discover(dir, ext string) ([]string, error) {
	ext = strings.TrimPrefix(ext, ".")
	re, err := regexp.Compile(`^(.+)-\d{4}\.` + regexp.QuoteMeta(ext) + `$`)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", dir)
	}

	seen := map[string]bool{}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	}
	sort.Strings(ids)
	return ids, nil
}
