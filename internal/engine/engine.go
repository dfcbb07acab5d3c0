package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scenecomposer/internal/config"
	"github.com/ivlev/scenecomposer/internal/director"
	"github.com/ivlev/scenecomposer/internal/renderer"
	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
	"github.com/ivlev/scenecomposer/internal/system"
)

// BenchmarkLog is appended to in the output directory when stats are enabled
const BenchmarkLog = "benchmark.log"

// Project turns one script file into a sequence document
type Project struct {
	Config   *config.Config
	Director *director.Director
	Client   director.SceneComposer // required in llm mode
	Logger   *zap.Logger
	Out      io.Writer           // user-facing status, os.Stdout when nil
	Gatherer prometheus.Gatherer // metrics source for reports, prometheus.DefaultGatherer when nil

	mu sync.Mutex // serializes Out and the benchmark log across batch workers
}

func NewProject(cfg *config.Config, d *director.Director, client director.SceneComposer, logger *zap.Logger) *Project {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Project{
		Config:   cfg,
		Director: d,
		Client:   client,
		Logger:   logger,
		Out:      os.Stdout,
	}
}

// Job names the input script and where its outputs go.
// An empty OutputPath gets a timestamped name in the configured output directory.
type Job struct {
	InputPath      string
	OutputPath     string
	StoryboardPath string
	Title          string // overrides the script title
}

type Result struct {
	Job
	Scenes      int
	Frames      int
	Sequence    *renderer.Sequence
	ComposeTime time.Duration
	TotalTime   time.Duration
}

func (p *Project) Run(ctx context.Context, job Job) (*Result, error) {
	startTime := time.Now()

	s, err := script.Load(job.InputPath)
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", job.InputPath, err)
	}

	if job.OutputPath == "" {
		job.OutputPath = director.GenerateSequencePath(p.Config.OutputDir, job.InputPath)
	}
	title := s.Title
	if job.Title != "" {
		title = job.Title
	}

	composeStart := time.Now()
	scenes, err := p.Director.Compose(ctx, s.Sections, director.ComposeConfig{
		Mode:   director.Mode(p.Config.Mode),
		Client: p.Client,
	})
	if err != nil {
		return nil, fmt.Errorf("compose %s: %w", job.InputPath, err)
	}
	composeTime := time.Since(composeStart)

	seq := renderer.ToSequence(scenes, s.Durations(), nil, renderer.Options{
		ID:     sequenceID(job.InputPath),
		Title:  title,
		FPS:    p.Config.FPS,
		Width:  p.Config.Width,
		Height: p.Config.Height,
	})
	if err := renderer.WriteSequence(seq, job.OutputPath); err != nil {
		return nil, fmt.Errorf("write sequence: %w", err)
	}

	if job.StoryboardPath != "" {
		if err := writeStoryboard(job.StoryboardPath, seq, scenes); err != nil {
			return nil, err
		}
	}

	frames := 0
	for _, sc := range seq.Scenes {
		frames += sc.DurationInFrames
	}

	res := &Result{
		Job:         job,
		Scenes:      len(seq.Scenes),
		Frames:      frames,
		Sequence:    &seq,
		ComposeTime: composeTime,
		TotalTime:   time.Since(startTime),
	}
	p.Logger.Info("sequence written",
		zap.String("input", job.InputPath),
		zap.String("output", job.OutputPath),
		zap.Int("scenes", res.Scenes),
		zap.Int("frames", res.Frames),
		zap.Duration("elapsed", res.TotalTime),
	)

	if p.Config.ShowStats {
		p.report(ctx, res)
	}
	return res, nil
}

func writeStoryboard(path string, seq renderer.Sequence, composed []scene.Composed) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create storyboard dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create storyboard: %w", err)
	}
	if err := renderer.RenderStoryboard(f, seq, composed); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// report prints the performance report and appends a line to the benchmark log
func (p *Project) report(ctx context.Context, res *Result) {
	seconds := float64(res.Frames) / float64(max(res.Sequence.FPS, 1))
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.3fs\n"+
			"Composition: %.3fs\n"+
			"Scenes: %d\n"+
			"Timeline: %d frames (%.1fs)\n"+
			"----------------------------\n",
		p.Config.BuildVersion, res.TotalTime.Seconds(), res.ComposeTime.Seconds(), res.Scenes, res.Frames, seconds,
	)

	if stats, err := system.ResourceStats(ctx, 100*time.Millisecond); err == nil {
		report += stats.Report()
	} else {
		p.Logger.Warn("resource stats unavailable", zap.Error(err))
	}
	if metrics, err := MetricsReport(p.gatherer()); err == nil {
		report += metrics
	} else {
		p.Logger.Warn("metrics unavailable", zap.Error(err))
	}

	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Mode: %s | Scenes: %d | Frames: %d | Total: %.3fs | Compose: %.3fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(res.InputPath),
		p.Config.Mode,
		res.Scenes,
		res.Frames,
		res.TotalTime.Seconds(),
		res.ComposeTime.Seconds(),
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out(), report)
	if err := appendBenchmark(filepath.Join(p.Config.OutputDir, BenchmarkLog), logEntry); err != nil {
		fmt.Fprintf(p.out(), "[!] Failed to write %s: %v\n", BenchmarkLog, err)
	}
}

func appendBenchmark(path, entry string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteMetrics exports the composer metrics to Config.MetricsPath; a no-op when it is empty
func (p *Project) WriteMetrics() error {
	if p.Config.MetricsPath == "" {
		return nil
	}
	return WriteMetrics(p.Config.MetricsPath, p.gatherer())
}

func (p *Project) gatherer() prometheus.Gatherer {
	if p.Gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return p.Gatherer
}

func (p *Project) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out(), format, args...)
}

func (p *Project) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

// Batch composes many scripts concurrently. Each sequence is independent;
// a failing file does not stop the others.
type Batch struct {
	Project     *Project
	Workers     int // defaults to the number of CPUs
	OutDir      string
	Storyboards bool // also write <name>.storyboard.png
}

// Run writes <name>.sequence.json into OutDir for every input. Results keep input order
// and are nil for failed files; the returned error joins every per-file failure.
func (b *Batch) Run(ctx context.Context, inputs []string) ([]*Result, error) {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*Result, len(inputs))
	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", input, err))
				mu.Unlock()
				return nil
			}

			name := baseName(input)
			job := Job{
				InputPath:  input,
				OutputPath: filepath.Join(b.OutDir, name+".sequence.json"),
			}
			if b.Storyboards {
				job.StoryboardPath = filepath.Join(b.OutDir, name+".storyboard.png")
			}

			res, err := b.Project.Run(ctx, job)
			if err != nil {
				b.Project.Logger.Error("batch item failed", zap.String("input", input), zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			results[i] = res
			b.Project.printf("[>] Ready: %s (%d scenes)\n", res.OutputPath, res.Scenes)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// sequenceID derives a stable document id from the script file name so repeated runs
// produce identical output. An empty result lets the renderer assign a uuid.
func sequenceID(path string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func baseName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(name, " ", "_")
}
