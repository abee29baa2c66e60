package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/chunkscribe/internal/audio"
	"github.com/fmueller/chunkscribe/internal/config"
	"github.com/fmueller/chunkscribe/internal/logging"
	"github.com/fmueller/chunkscribe/internal/pipeline"
	"github.com/fmueller/chunkscribe/internal/platform"
	"github.com/fmueller/chunkscribe/internal/version"
	"github.com/fmueller/chunkscribe/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	defaultInputDir      = "input"
	defaultInputFilename = "input.wav"
	defaultSkipSeconds   = 1.0
)

type appState struct {
	verbose       bool
	jsonLogs      bool
	noProgress    bool
	inputDir      string
	inputFilename string
	outputDir     string
	skipSeconds   float64
	segmentLength time.Duration
	language      string
	model         string
	bitrate       string
	ffmpegPath    string
	envFile       string

	logger *zap.Logger
	now    func() time.Time

	loadConfigFn  func(envFile string) (*config.Config, error)
	newClientFn   func(cfg *config.Config) whisper.Client
	newSplitterFn func() pipeline.Splitter
}

func newAppState() *appState {
	app := &appState{
		inputDir:      defaultInputDir,
		inputFilename: defaultInputFilename,
		outputDir:     ".",
		skipSeconds:   defaultSkipSeconds,
		segmentLength: audio.DefaultSegmentLength,
		language:      whisper.DefaultLanguage,
		model:         whisper.DefaultModel,
		bitrate:       audio.DefaultBitrate,
		ffmpegPath:    audio.DefaultFFmpeg,
		envFile:       config.DefaultEnvFile,
		now:           time.Now,
	}
	app.loadConfigFn = config.Load
	app.newClientFn = app.openAIClient
	app.newSplitterFn = app.ffmpegSegmenter
	return app
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunkscribe",
		Short: "Split a WAV recording into segments and transcribe them",
		Long: "Split a WAV recording into five-minute MP3 segments, transcribe each segment\n" +
			"with the OpenAI transcription API and write the combined text to result.txt\n" +
			"inside a fresh result_<timestamp> directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs, Name: "chunkscribe"})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindInputFlags(cmd, app)
	bindTranscriptionFlags(cmd, app)
	bindEncodingFlags(cmd, app)

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindInputFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.inputFilename, "input-filename", app.inputFilename, "WAV file to transcribe, relative to --input-dir")
	cmd.Flags().StringVar(&app.inputDir, "input-dir", app.inputDir, "Directory holding the input recording")
	cmd.Flags().StringVar(&app.outputDir, "output-dir", app.outputDir, "Directory in which the result_<timestamp> run directory is created")
	cmd.Flags().Float64Var(&app.skipSeconds, "skip", app.skipSeconds, "Seconds to skip from the beginning of the recording")
	cmd.Flags().StringVar(&app.envFile, "env-file", app.envFile, "Optional dotenv file holding OPENAI_API_KEY")
}

func bindTranscriptionFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.language, "language", app.language, "Spoken language code (en|de|fr|...); detection is not supported")
	cmd.Flags().StringVar(&app.model, "model", app.model, "Transcription model name")
}

func bindEncodingFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().DurationVar(&app.segmentLength, "segment-length", app.segmentLength, "Length of each audio segment")
	cmd.Flags().StringVar(&app.bitrate, "bitrate", app.bitrate, "MP3 bitrate of the segments")
	cmd.Flags().StringVar(&app.ffmpegPath, "ffmpeg", app.ffmpegPath, "ffmpeg executable name or path")
}

func (a *appState) run(ctx context.Context, out io.Writer) error {
	cfg, err := a.loadConfigFn(a.envFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	inputPath := a.inputPath()
	if err := pipeline.CheckInput(inputPath); err != nil {
		return err
	}

	language, err := sanitizeLanguage(a.language)
	if err != nil {
		return err
	}
	skip, err := skipDuration(a.skipSeconds)
	if err != nil {
		return err
	}
	if a.segmentLength <= 0 {
		return fmt.Errorf("--segment-length must be positive, got %s", a.segmentLength)
	}

	reporter := newProgressReporter(a.progressEnabled())
	p, err := pipeline.New(pipeline.Config{
		InputPath: inputPath,
		OutputDir: a.outputDir,
		Skip:      skip,
		Language:  language,
		Model:     strings.TrimSpace(a.model),
		Now:       a.now,
	}, a.newSplitterFn(), a.newClientFn(cfg), pipeline.WithLogger(a.log()), pipeline.WithReporter(reporter))
	if err != nil {
		return err
	}

	a.log().Info("starting run",
		zap.String("input", inputPath),
		zap.Duration("skip", skip),
		zap.Duration("segment_length", a.segmentLength),
		zap.String("language", language),
	)
	result, err := p.Run(ctx)
	if err != nil {
		if result.Dir.Path != "" {
			a.log().Warn("run aborted; partial output left in run directory", zap.String("dir", result.Dir.Path))
		}
		if errors.Is(err, audio.ErrFFmpegNotFound) {
			return fmt.Errorf("%w (%s, or point --ffmpeg at an existing binary)", err, platform.CurrentFFmpegInstallHint())
		}
		return err
	}

	fmt.Fprintln(out, result.ResultPath)
	return nil
}

func (a *appState) inputPath() string {
	name := strings.TrimSpace(a.inputFilename)
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(a.inputDir, name)
}

func (a *appState) openAIClient(cfg *config.Config) whisper.Client {
	return whisper.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, a.log().Named("whisper"))
}

func (a *appState) ffmpegSegmenter() pipeline.Splitter {
	encoder := audio.NewFFmpegEncoder(a.ffmpegPath, a.log().Named("ffmpeg"))
	return audio.NewSegmenter(encoder, a.segmentLength, a.bitrate, a.log().Named("segmenter"))
}

func (a *appState) log() *zap.Logger {
	return logging.OrNop(a.logger)
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func sanitizeLanguage(input string) (string, error) {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return whisper.DefaultLanguage, nil
	}
	if trimmed == "auto" {
		return "", errors.New("language detection is not supported; pass a language code such as --language en")
	}
	return trimmed, nil
}

func skipDuration(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("--skip must be a finite number of seconds, got %v", seconds)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("%w: --skip %v", pipeline.ErrNegativeSkip, seconds)
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}
