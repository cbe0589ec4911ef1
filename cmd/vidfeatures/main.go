package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keagan/vidfeatures/internal/ai"
	"github.com/keagan/vidfeatures/internal/config"
	"github.com/keagan/vidfeatures/internal/ffmpeg"
	"github.com/keagan/vidfeatures/internal/logging"
	"github.com/keagan/vidfeatures/internal/pipeline"
	"github.com/keagan/vidfeatures/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	logFile string

	logSink *os.File

	stride       int
	cutThreshold float64
	sampleRate   int
	modelPath    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if logSink != nil {
		logSink.Close()
	}
	if shutdownErr := ai.ShutdownRuntime(); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("onnxruntime shutdown failed")
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vidfeatures",
	Short: "vidfeatures - summary features for short video clips",
	Long:  "Extracts hard-cut count, average optical-flow motion and person/object detection ratio from video clips.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			logSink = f
			logging.Init(verbose, f)
		} else {
			logging.Init(verbose)
		}

		cfg, err := resolveConfig(cmd, cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append JSON log events to this file")

	addAnalyzerFlags(extractCmd)
	addAnalyzerFlags(analyzeCmd)

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(probeCmd)
}

func addAnalyzerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&stride, "stride", 0, "keep every Nth decoded frame (default from config: 5)")
	cmd.Flags().Float64Var(&cutThreshold, "cut-threshold", 0, "histogram distance counted as a hard cut (default from config: 0.6)")
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "run detection on every Nth retained frame (default from config: 10)")
	cmd.Flags().StringVar(&modelPath, "model", "", "YOLOv8 ONNX model path")
}

// resolveConfig loads the config file, applies explicitly set flags and only
// then validates, so a flag can repair a bad file value
func resolveConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over the loaded config
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("stride") {
		cfg.Frames.Stride = stride
	}
	if flags.Changed("cut-threshold") {
		cfg.Cuts.Threshold = cutThreshold
	}
	if flags.Changed("sample-rate") {
		cfg.Detection.SampleRate = sampleRate
	}
	if flags.Changed("model") {
		cfg.Detection.ModelPath = modelPath
	}
}

var extractCmd = &cobra.Command{
	Use:   "extract [dir]",
	Short: "Extract features for every matching video in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		dir := cfg.Batch.Dir
		if len(args) == 1 {
			dir = args[0]
		}

		pipe, err := pipeline.NewFromConfig(log.Logger, cfg)
		if err != nil {
			return err
		}

		rule := util.MatchRule{
			Prefix:     cfg.Batch.Prefix,
			Extension:  cfg.Batch.Extension,
			FoldPrefix: cfg.Batch.FoldPrefix,
		}

		batch := pipeline.NewBatch(log.Logger, pipe, rule, cmd.OutOrStdout())
		report, err := batch.Run(cmd.Context(), dir)
		if err != nil {
			return err
		}

		log.Info().
			Int("videos", report.Total()).
			Int("failed", len(report.Failures)).
			Msg("extraction complete")

		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input video]",
	Short: "Extract features for a single video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.NewFromConfig(log.Logger, cfg)
		if err != nil {
			return err
		}

		record, err := pipe.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		data, err := record.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [input video]",
	Short: "Show container metadata reported by ffprobe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, err := ffmpeg.New(log.Logger)
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File:       %s\n", info.FilePath)
		fmt.Fprintf(out, "Container:  %s\n", info.Container)
		fmt.Fprintf(out, "Duration:   %s\n", util.FormatDuration(info.Duration))
		fmt.Fprintf(out, "Resolution: %dx%d @ %.2f fps\n", info.Width, info.Height, info.FPS)
		fmt.Fprintf(out, "Frames:     %d\n", info.FrameCount)
		fmt.Fprintf(out, "Video:      %s\n", info.VideoCodec)
		if info.HasAudio {
			fmt.Fprintf(out, "Audio:      %s\n", info.AudioCodec)
		}
		return nil
	},
}
