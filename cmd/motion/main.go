// Command motion extracts frames from artwork videos, analyzes their motion and
// renders reports.
//
// Usage:
//
//	motion extract -video clip.mp4 -dir assets -from 0 -to 10 -fps 15
//	motion analyze -asset-dir assets -out-dir reports [-id a,b] [-video clip.mp4]
//	motion plot -report reports/a-motion.json -out a.png
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nvr-ai/go-motion/batch"
	"github.com/nvr-ai/go-motion/config"
	"github.com/nvr-ai/go-motion/flow"
	"github.com/nvr-ai/go-motion/logger"
	"github.com/nvr-ai/go-motion/metrics"
	"github.com/nvr-ai/go-motion/motion"
	"github.com/nvr-ai/go-motion/report"
	"github.com/nvr-ai/go-motion/source"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "extract":
		err = runExtract(ctx, os.Args[2:])
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "plot":
		err = runPlot(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "motion %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: motion <command> [flags]

commands:
  extract   split a video into numbered still frames with ffmpeg
  analyze   analyze frame sequences and write <id>-motion.json reports
  plot      render a report as PNG charts and print its summary

run "motion <command> -h" for the flags of a command`)
}

// load resolves the configuration file and environment, then applies the flags that
// were set explicitly on fs.
func load(fs *flag.FlagSet, path string, apply map[string]func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if fn, ok := apply[f.Name]; ok {
			fn(cfg)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExtract(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var (
		configPath = fs.String("config", "", "YAML configuration file")
		video      = fs.String("video", "", "input video (required)")
		from       = fs.Float64("from", 0, "start timestamp in seconds")
		to         = fs.Float64("to", 10, "end timestamp in seconds")
		fps        = fs.Int("fps", 15, "frames extracted per second")
		width      = fs.Int("width", 0, "output width, 0 keeps the video size")
		height     = fs.Int("height", 0, "output height, 0 keeps the video size")
		ext        = fs.String("ext", "png", "frame image extension")
		dir        = fs.String("dir", "", "output directory, the temp dir when empty")
		ffmpeg     = fs.String("ffmpeg", "ffmpeg", "ffmpeg binary")
		logLevel   = fs.String("log-level", "info", "log level")
	)
	fs.Parse(args)
	if *video == "" {
		return fmt.Errorf("-video is required")
	}

	cfg, err := load(fs, *configPath, map[string]func(*config.Config){
		"from":      func(c *config.Config) { c.Extract.From = *from },
		"to":        func(c *config.Config) { c.Extract.To = *to },
		"fps":       func(c *config.Config) { c.Extract.FPS = *fps },
		"width":     func(c *config.Config) { c.Extract.Width = *width },
		"height":    func(c *config.Config) { c.Extract.Height = *height },
		"ext":       func(c *config.Config) { c.Extract.Ext = *ext },
		"dir":       func(c *config.Config) { c.Extract.Dir = *dir },
		"ffmpeg":    func(c *config.Config) { c.FFmpeg = *ffmpeg },
		"log-level": func(c *config.Config) { c.LogLevel = *logLevel },
	})
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	extraction, err := source.NewExtractor(cfg.FFmpeg, log).Extract(ctx, *video, cfg.Extract)
	if err != nil {
		return err
	}
	return printJSON(extraction)
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	var (
		configPath  = fs.String("config", "", "YAML configuration file")
		assetDir    = fs.String("asset-dir", ".", "directory holding <id>-NNNN.<ext> frames")
		outDir      = fs.String("out-dir", ".", "directory receiving <id>-motion.json reports")
		ids         = fs.String("id", "", "comma separated artwork ids, all ids in -asset-dir when empty")
		video       = fs.String("video", "", "analyze a video directly instead of frame files")
		ext         = fs.String("ext", "png", "frame image extension")
		size        = fs.Int("size", 0, "longest frame side after resizing, 0 keeps the original size")
		skip        = fs.Int("skip", 1, "analyze every n-th frame file")
		deleteFiles = fs.Bool("delete", false, "delete frame files once analyzed")
		regions     = fs.Int("regions", 6, "regions per axis")
		amp         = fs.Float64("amp", 1, "delta amplification")
		mode        = fs.String("mode", string(flow.ModeGradient), "flow estimator: gradient, block, farneback or onnx")
		model       = fs.String("model", "", "ONNX flow model for -mode onnx")
		concurrency = fs.Int("concurrency", 2, "artworks analyzed in parallel")
		metricsAddr = fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
		logLevel    = fs.String("log-level", "info", "log level")
	)
	fs.Parse(args)

	cfg, err := load(fs, *configPath, map[string]func(*config.Config){
		"asset-dir":    func(c *config.Config) { c.AssetDir = *assetDir },
		"out-dir":      func(c *config.Config) { c.OutDir = *outDir },
		"ext":          func(c *config.Config) { c.Ext = *ext },
		"size":         func(c *config.Config) { c.Size = *size },
		"skip":         func(c *config.Config) { c.Skip = *skip },
		"delete":       func(c *config.Config) { c.Motion.DeleteConsumedFiles = *deleteFiles },
		"regions":      func(c *config.Config) { c.Motion.Regions = *regions },
		"amp":          func(c *config.Config) { c.Motion.Amp = *amp },
		"mode":         func(c *config.Config) { c.Motion.Flow.Mode = flow.Mode(*mode) },
		"model":        func(c *config.Config) { c.Motion.Flow.ONNX.ModelPath = *model },
		"concurrency":  func(c *config.Config) { c.Concurrency = *concurrency },
		"metrics-addr": func(c *config.Config) { c.MetricsAddr = *metricsAddr },
		"log-level":    func(c *config.Config) { c.LogLevel = *logLevel },
	})
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		srv := metrics.StartServer(cfg.MetricsAddr, prometheus.DefaultGatherer, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	if *video != "" {
		return analyzeVideo(ctx, cfg, *video, recorder, log)
	}

	var artworks []string
	if *ids != "" {
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				artworks = append(artworks, id)
			}
		}
	} else if artworks, err = batch.Discover(cfg.AssetDir, cfg.Ext); err != nil {
		return err
	}
	if len(artworks) == 0 {
		return fmt.Errorf("no artworks found in %s", cfg.AssetDir)
	}

	runner, err := batch.NewRunner(batch.Config{
		Motion:      cfg.Motion,
		AssetDir:    cfg.AssetDir,
		OutDir:      cfg.OutDir,
		Ext:         cfg.Ext,
		Size:        cfg.Size,
		Skip:        cfg.Skip,
		Concurrency: cfg.Concurrency,
	}, log, recorder)
	if err != nil {
		return err
	}

	results, err := runner.Run(ctx, artworks)
	if printErr := printJSON(results); printErr != nil {
		return printErr
	}
	return err
}

// analyzeVideo runs one analysis straight from a video decoded with OpenCV.
func analyzeVideo(ctx context.Context, cfg *config.Config, path string, recorder *metrics.Recorder, log *zap.Logger) error {
	src, err := source.OpenVideo(path, cfg.Size, log)
	if err != nil {
		return err
	}
	defer src.Close()

	a, err := motion.NewAnalyzer(cfg.Motion, nil, log)
	if err != nil {
		return err
	}
	a.SetObserver(recorder)
	recorder.RunStarted()
	defer recorder.RunDone()

	rep, err := a.Run(ctx, src)
	recorder.ObserveArtwork(err)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(cfg.OutDir, report.FileName(id))
	if err := report.WriteJSON(out, rep); err != nil {
		return err
	}
	log.Info("video analyzed", zap.String("run_id", a.ID()), zap.Int("frames", rep.Frames), zap.String("report", out))
	return nil
}

func runPlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	var (
		in         = fs.String("report", "", "motion report JSON (required)")
		out        = fs.String("out", "", "time series PNG, <report>.png when empty")
		regionsOut = fs.String("regions-out", "", "optional per-region peak flow PNG")
		title      = fs.String("title", "", "chart title, the report name when empty")
	)
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("-report is required")
	}

	rep, err := report.ReadJSON(*in)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	if *title == "" {
		*title = name
	}
	if *out == "" {
		*out = strings.TrimSuffix(*in, filepath.Ext(*in)) + ".png"
	}

	if err := report.PlotTimeSeries(rep, *title, *out); err != nil {
		return err
	}
	if *regionsOut != "" {
		if err := report.PlotRegions(rep, *title, *regionsOut); err != nil {
			return err
		}
	}
	return printJSON(report.Summarize(rep))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
