package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/shamir-accel/pkg/accel"
	"github.com/Davincible/shamir-accel/pkg/config"
	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/driver"
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	device *accel.Device
	driver *driver.Driver
	json   bool

	// in is shared so successive prompts read from one buffer.
	in *bufio.Reader
}

// NewRootCommand builds the shamir-accel command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shamir-accel",
		Short: "Shamir's Secret Sharing on a GF(2^n) accelerator model",
		Long: `shamir-accel drives a cycle-level model of a memory-mapped Shamir
accelerator. The device evaluates share polynomials, reconstructs secrets by
Lagrange interpolation at zero, and brute-forces the secret behind a
degree-1 share, in GF(2^8), GF(2^16) or GF(2^32).

Configuration is read from --config, $SHAMIR_ACCEL_CONFIG or
$XDG_CONFIG_HOME/shamir-accel/config.yaml, and SHAMIR_ACCEL_* environment
variables override individual keys (e.g. SHAMIR_ACCEL_DEVICE_LANES=8).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")

	root.AddCommand(
		newVersionCommand(a, version),
		newBruteCommand(a),
		newGenerateCommand(a),
		newSplitCommand(a),
		newReconstructCommand(a),
		newNewShareCommand(a),
		newDemoCommand(a),
		newBenchCommand(a),
		newBytesCommand(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	verbose, _ := cmd.Flags().GetBool("verbose")
	a.json, _ = cmd.Flags().GetBool("json")

	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log, verbose)
	slog.SetDefault(a.logger)

	if !cfg.UI.Color || a.json {
		color.NoColor = true
	}

	a.device = accel.New(accel.Config{
		Lanes:  cfg.Device.Lanes,
		Logger: a.logger,
	})

	drvCfg := driver.Config{
		MaxPolls:   cfg.Driver.MaxPolls,
		PollRate:   cfg.Driver.PollRate,
		PollBurst:  cfg.Driver.PollBurst,
		Interrupts: cfg.Driver.Interrupts,
		Logger:     a.logger,
	}
	if cfg.Driver.Interrupts {
		drvCfg.Line = a.device
	}
	a.driver, err = driver.New(a.device, drvCfg)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	a.in = bufio.NewReader(cmd.InOrStdin())

	a.logger.Debug("Device ready",
		"lanes", cfg.Device.Lanes,
		"interrupts", cfg.Driver.Interrupts,
		"hw_version", a.driver.Version())
	return nil
}

// field resolves a --field flag, falling back to device.field from config.
func (a *app) field(flag string) (gf.Field, error) {
	if flag == "" {
		flag = a.cfg.Device.Field
	}
	return gf.ParseField(flag)
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
