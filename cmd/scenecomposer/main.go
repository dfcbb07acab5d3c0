package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/ivlev/scenecomposer/internal/assets"
	"github.com/ivlev/scenecomposer/internal/config"
	"github.com/ivlev/scenecomposer/internal/director"
	"github.com/ivlev/scenecomposer/internal/engine"
	"github.com/ivlev/scenecomposer/internal/llm"
	"github.com/ivlev/scenecomposer/internal/logger"
	"github.com/ivlev/scenecomposer/internal/script"
)

// buildVersion is set with -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

type options struct {
	input      string
	output     string
	configPath string
	title      string
	storyboard string
	prompts    bool
	batch      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("[-] Error: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scenecomposer", flag.ContinueOnError)

	var opts options
	fs.StringVar(&opts.input, "input", "", "Script file (default: newest script in the input directory)")
	fs.StringVar(&opts.output, "output", "", "Sequence file, .json or .yaml (default: timestamped file in the output directory)")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&opts.title, "title", "", "Sequence title (default: script title)")
	fs.StringVar(&opts.storyboard, "storyboard", "", "Also write a PNG storyboard to this path")
	fs.BoolVar(&opts.prompts, "prompts", false, "Write the model prompts for every section instead of composing")
	fs.StringVar(&opts.batch, "batch", "", "Compose every script in this directory")

	mode := fs.String("mode", "", "Composition mode: rules or llm")
	fps := fs.Int("fps", 0, "FPS")
	width := fs.Int("width", 0, "Width")
	height := fs.Int("height", 0, "Height")
	preset := fs.String("preset", "", "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	assetsDir := fs.String("assets", "", "Asset root to scan for files missing from the catalog")
	workers := fs.Int("workers", 0, "Concurrent scripts in batch mode (default: CPU count)")
	stats := fs.Bool("stats", false, "Print a performance report and append to benchmark.log")
	endCard := fs.String("endcard-url", "", "URL shown as a QR code on the last scene")
	metrics := fs.String("metrics", "", "Write composer metrics in the Prometheus text format to this path")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg.BuildVersion = buildVersion

	// explicitly set flags win over file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "fps":
			cfg.FPS = *fps
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "preset":
			cfg.Preset = *preset
		case "assets":
			cfg.AssetsDir = *assetsDir
		case "workers":
			cfg.Workers = *workers
		case "stats":
			cfg.ShowStats = *stats
		case "endcard-url":
			cfg.EndCardURL = *endCard
		case "metrics":
			cfg.MetricsPath = *metrics
		}
	})
	cfg.ApplyPreset()
	if err := cfg.Validate(); err != nil {
		return err
	}

	lg, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.Log.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync()

	for _, d := range []string{cfg.InputDir, cfg.OutputDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}

	registry := assets.Default()
	if cfg.AssetsDir != "" {
		added, err := registry.Refresh(ctx, cfg.AssetsDir)
		if err != nil {
			return fmt.Errorf("scan assets: %w", err)
		}
		fmt.Fprintf(stdout, "[*] Asset catalog: %d entries (%d new from %s)\n", registry.Len(), added, cfg.AssetsDir)
	}

	d := director.NewDirector(
		director.WithFPS(cfg.FPS),
		director.WithPalette(cfg.Palette),
		director.WithRegistry(registry),
		director.WithLogger(lg),
		director.WithEndCardURL(cfg.EndCardURL),
	)

	var client director.SceneComposer
	if cfg.Mode == string(director.ModeLLM) {
		c, err := llm.New(cfg.LLM.APIKey,
			llm.WithModel(cfg.LLM.Model),
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithTimeout(cfg.LLM.Timeout),
			llm.WithRateLimit(cfg.LLM.RatePerSec, cfg.LLM.Burst),
			llm.WithRegistry(registry),
			llm.WithLogger(lg),
		)
		if err != nil {
			return fmt.Errorf("init llm client: %w", err)
		}
		client = c
		fmt.Fprintf(stdout, "[*] LLM mode: %s\n", cfg.LLM.Model)
	}

	project := engine.NewProject(cfg, d, client, lg)
	project.Out = stdout

	if opts.batch != "" {
		err := runBatch(ctx, project, opts.batch, stdout)
		return errors.Join(err, writeMetrics(project, stdout))
	}

	inputPath := opts.input
	if inputPath == "" {
		latest, err := script.FindLatest(cfg.InputDir)
		if err != nil {
			return fmt.Errorf("%w. Put a script into %s/", err, cfg.InputDir)
		}
		inputPath = latest
		fmt.Fprintf(stdout, "[*] Selected script: %s\n", inputPath)
	}

	if opts.prompts {
		return writePrompts(d, inputPath, opts.output, stdout)
	}

	fmt.Fprintln(stdout, "--- [PROJECT: SCENE COMPOSER] ---")
	fmt.Fprintf(stdout, "[*] Script: %s | Mode: %s\n", inputPath, cfg.Mode)
	fmt.Fprintf(stdout, "[*] Canvas: %dx%d @ %d FPS\n", cfg.Width, cfg.Height, cfg.FPS)
	fmt.Fprintln(stdout, "---------------------------------")

	res, err := project.Run(ctx, engine.Job{
		InputPath:      inputPath,
		OutputPath:     opts.output,
		StoryboardPath: opts.storyboard,
		Title:          opts.title,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "[+++] Success! %d scenes, %d frames: %s\n", res.Scenes, res.Frames, res.OutputPath)
	if res.StoryboardPath != "" {
		fmt.Fprintf(stdout, "[+++] Storyboard: %s\n", res.StoryboardPath)
	}
	return writeMetrics(project, stdout)
}

func writeMetrics(project *engine.Project, stdout io.Writer) error {
	if err := project.WriteMetrics(); err != nil {
		return err
	}
	if path := project.Config.MetricsPath; path != "" {
		fmt.Fprintf(stdout, "[+++] Metrics: %s\n", path)
	}
	return nil
}

func runBatch(ctx context.Context, project *engine.Project, dir string, stdout io.Writer) error {
	inputs, err := script.List(dir)
	if err != nil {
		return fmt.Errorf("list scripts: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no script files found in %s", dir)
	}
	fmt.Fprintf(stdout, "[*] Batch: %d scripts from %s\n", len(inputs), dir)

	b := &engine.Batch{
		Project:     project,
		Workers:     project.Config.Workers,
		OutDir:      project.Config.OutputDir,
		Storyboards: true,
	}
	results, err := b.Run(ctx, inputs)

	done := 0
	for _, r := range results {
		if r != nil {
			done++
		}
	}
	fmt.Fprintf(stdout, "[+++] Batch finished: %d/%d sequences in %s\n", done, len(inputs), b.OutDir)
	if err != nil {
		project.Logger.Error("batch finished with failures", zap.Int("failed", len(inputs)-done))
		return err
	}
	return nil
}

func writePrompts(d *director.Director, inputPath, output string, stdout io.Writer) error {
	s, err := script.Load(inputPath)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(d.GeneratePrompts(s.Sections), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prompts: %w", err)
	}

	if output == "" {
		_, err = stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "[+++] Prompts for %d sections: %s\n", len(s.Sections), output)
	return nil
}
