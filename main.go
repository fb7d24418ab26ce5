package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"webreplay/application/replay"
	"webreplay/config"
	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
	"webreplay/infrastructure/browser"
	"webreplay/infrastructure/clock"
	"webreplay/log"
	"webreplay/presentation/console"
)

var (
	configPath  string
	browserKind string
	headed      bool
	video       bool
	videoDir    string
	timing      bool
	timingMode  string
	speed       float64
	verbose     bool
	debug       bool
)

// exitStatus maps the run result to the process exit code:
// 0 success, 1 partial, 2 failed or cancelled, 3 run never started.
var exitStatus int

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "webreplay <recording.json>",
		Short: "Replay recorded browser sessions against a live site",
		Long: `webreplay loads a recorded browser session and re-executes its
actions in a real browser, resolving each recorded element against the
live DOM and correcting for navigation drift along the way.

Example:
  webreplay --timing --video checkout-flow.json`,
		Args:          cobra.ExactArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a yaml config file")
	rootCmd.Flags().StringVar(&browserKind, "browser", "", "Browser: chromium, firefox, webkit")
	rootCmd.Flags().BoolVar(&headed, "headed", false, "Run with a visible browser window")
	rootCmd.Flags().BoolVar(&video, "video", false, "Record the run as a video")
	rootCmd.Flags().StringVar(&videoDir, "video-dir", "", "Directory for recorded videos")
	rootCmd.Flags().BoolVar(&timing, "timing", false, "Reproduce recorded pacing between actions")
	rootCmd.Flags().StringVar(&timingMode, "timing-mode", "", "Pacing mode: instant, fast, realistic")
	rootCmd.Flags().Float64Var(&speed, "speed", 0, "Speed multiplier override (0.5 = half speed)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show per-action progress")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(3)
	}
	os.Exit(exitStatus)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	config.DebugLoggingEnabled = cfg.Debug
	log.InitializeDefaultLogger()

	rec, err := entities.LoadRecording(args[0])
	if err != nil {
		return fmt.Errorf("failed to load recording: %w", err)
	}

	driver, err := browser.NewDriver()
	if err != nil {
		return err
	}
	defer driver.Stop()

	reporter := console.NewReporter(os.Stdout, verbose)
	engine := replay.NewEngine(driver, clock.System{}, reporter, engineOptions(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := engine.Run(ctx, rec)
	exitStatus = exitCode(result)
	return nil
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("browser") {
		cfg.Browser.Kind = browserKind
	}
	if cmd.Flags().Changed("headed") {
		cfg.Browser.Headless = !headed
	}
	if cmd.Flags().Changed("video") {
		cfg.Video.Enabled = video
	}
	if cmd.Flags().Changed("video-dir") {
		cfg.Video.Dir = videoDir
	}
	if cmd.Flags().Changed("timing") {
		cfg.Timing.Enabled = timing
	}
	if cmd.Flags().Changed("timing-mode") {
		cfg.Timing.Mode = timingMode
	}
	if cmd.Flags().Changed("speed") {
		cfg.Timing.SpeedMultiplier = speed
	}
	if debug {
		cfg.Debug = true
	}
}

func engineOptions(cfg *config.Config) replay.Options {
	return replay.Options{
		Browser:         interfaces.BrowserKind(cfg.Browser.Kind),
		Headless:        cfg.Browser.Headless,
		Video:           cfg.Video.Enabled,
		VideoDir:        cfg.Video.Dir,
		Timeout:         time.Duration(cfg.TimeoutMillis) * time.Millisecond,
		EnableTiming:    cfg.Timing.Enabled,
		TimingMode:      replay.TimingMode(cfg.Timing.Mode),
		SpeedMultiplier: cfg.Timing.SpeedMultiplier,
		MaxActionDelay:  time.Duration(cfg.Timing.MaxActionDelayMillis) * time.Millisecond,
	}
}

func exitCode(result *entities.RunResult) int {
	switch result.Status {
	case entities.StatusSuccess:
		return 0
	case entities.StatusPartial:
		return 1
	default:
		if result.Attempted() == 0 {
			return 3
		}
		return 2
	}
}
