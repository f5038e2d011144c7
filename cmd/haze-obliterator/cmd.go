package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"haze-obliterator/internal/config"
	"haze-obliterator/internal/export/raw"
	"haze-obliterator/internal/logger"
	"haze-obliterator/internal/opencv"
	"haze-obliterator/internal/pipeline"
	"haze-obliterator/internal/shutdown"
)

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           AppName,
		Short:         "Single-pass saturation-based image dehazing",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(newDehazeCmd(), newExportRawCmd())
	return rootCmd
}

func newDehazeCmd() *cobra.Command {
	dehazeCmd := &cobra.Command{
		Use:   "dehaze INPUT",
		Short: "Remove haze from an image",
		Args:  cobra.ExactArgs(1),
		RunE:  DehazeHandler,
	}

	dehazeCmd.Flags().StringP("config", "c", config.DefaultPath, "Path to the TOML configuration file")
	dehazeCmd.Flags().StringP("output", "o", "", "Restored image path (default from config)")
	dehazeCmd.Flags().StringP("transmission", "t", "", "Also write the transmission map to this path")
	dehazeCmd.Flags().String("backend", "", "Division backend: float or fixed")
	dehazeCmd.Flags().String("erosion", "", "Erosion: cascade, direct or opencv")
	dehazeCmd.Flags().String("decoder", "", "Decoder: go or opencv")
	dehazeCmd.Flags().Int("workers", 0, "Row-band workers (0 uses every CPU)")
	dehazeCmd.Flags().Int("window", 0, "Odd dark-channel window size")
	return dehazeCmd
}

func newExportRawCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export-raw INPUT",
		Short: "Write an image as a headerless RGB frame for the hardware simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  ExportRawHandler,
	}

	exportCmd.Flags().StringP("output", "o", "image.bin", "Frame output path")
	exportCmd.Flags().Int("width", raw.DefaultWidth, "Frame width")
	exportCmd.Flags().Int("height", raw.DefaultHeight, "Frame height")
	return exportCmd
}

// determineLogLevel prefers LOG_LEVEL/DEBUG from the environment over the
// configured level.
func determineLogLevel(configured string) zerolog.Level {
	fallback, err := logger.ParseLevel(configured)
	if err != nil {
		fallback = zerolog.InfoLevel
	}
	return logger.LevelFromEnv(fallback)
}

// applyFlags lets explicitly set flags override the file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("output") {
		if cfg.Output.Restored, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("transmission") {
		if cfg.Output.Transmission, err = flags.GetString("transmission"); err != nil {
			return err
		}
	}
	if flags.Changed("backend") {
		if cfg.Numeric.Backend, err = flags.GetString("backend"); err != nil {
			return err
		}
	}
	if flags.Changed("erosion") {
		if cfg.Performance.Erosion, err = flags.GetString("erosion"); err != nil {
			return err
		}
	}
	if flags.Changed("decoder") {
		if cfg.Performance.Decoder, err = flags.GetString("decoder"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Performance.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("window") {
		if cfg.Algorithm.WindowSize, err = flags.GetInt("window"); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

// openCVOptions supplies the gocv components the configuration selects.
func openCVOptions(cfg *config.Config) []pipeline.Option {
	var opts []pipeline.Option
	if cfg.Performance.Decoder == config.DecoderOpenCV {
		opts = append(opts, pipeline.WithLoader(opencv.NewLoader()))
	}
	if cfg.Performance.Resizer == config.ResizerOpenCV {
		opts = append(opts, pipeline.WithResizer(opencv.NewResizer()))
	}
	if cfg.Performance.Erosion == config.ErosionOpenCV {
		opts = append(opts, pipeline.WithEroder(opencv.NewEroder()))
	}
	return opts
}

func DehazeHandler(cmd *cobra.Command, args []string) error {
	bootLog := logger.NewConsoleLogger(determineLogLevel(""))

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath, bootLog)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	log := logger.NewConsoleLogger(determineLogLevel(cfg.Log.Level))

	coordinator, err := pipeline.New(cfg, log, openCVOptions(cfg)...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sm := shutdown.NewManager(ctx, log)
	sm.Listen()
	defer sm.Shutdown()

	result, err := coordinator.RunFile(sm.Context(), args[0])
	if err != nil {
		return err
	}

	saver := pipeline.NewSaver(log, cfg.Output.Format)
	if err := saver.SaveImage(cfg.Output.Restored, result.Restored); err != nil {
		return err
	}
	if cfg.Output.Transmission != "" {
		if err := saver.SaveMap(cfg.Output.Transmission, result.Transmission); err != nil {
			return err
		}
	}

	printSummary(cmd.OutOrStdout(), cfg, result)
	return nil
}

func printSummary(w io.Writer, cfg *config.Config, res *pipeline.Result) {
	m := res.Metrics
	fmt.Fprintf(w, "restored      %s (%dx%d)\n", cfg.Output.Restored, res.Restored.Width, res.Restored.Height)
	if cfg.Output.Transmission != "" {
		fmt.Fprintf(w, "transmission  %s\n", cfg.Output.Transmission)
	}
	fmt.Fprintf(w, "light         %s at (%d,%d)\n", res.Light, res.LightAt.X, res.LightAt.Y)
	fmt.Fprintf(w, "t min/mean/max %.3f / %.3f / %.3f\n", m.TransmissionMin, m.TransmissionMean, m.TransmissionMax)
	fmt.Fprintf(w, "psnr          %.2f dB\n", m.PSNR)
	for _, s := range m.Stages {
		fmt.Fprintf(w, "  %-18s %v\n", s.Name, s.Duration.Round(time.Microsecond))
	}
	fmt.Fprintf(w, "total         %v\n", m.Total.Round(time.Microsecond))
	if res.Warning != nil {
		fmt.Fprintf(w, "warning       %v\n", res.Warning)
	}
}

func ExportRawHandler(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return err
	}
	height, err := cmd.Flags().GetInt("height")
	if err != nil {
		return err
	}

	n, err := raw.ExportFile(args[0], output, width, height)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved resized image (%dx%d) to %s\nTotal bytes: %d\n", width, height, output, n)
	return nil
}
