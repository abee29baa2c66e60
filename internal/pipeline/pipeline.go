package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fmueller/chunkscribe/internal/audio"
	"github.com/fmueller/chunkscribe/internal/whisper"
	"go.uber.org/zap"
)

var (
	ErrInputNotFound = errors.New("input file not found")
	ErrNegativeSkip  = errors.New("skip offset must not be negative")
)

type Stage string

const (
	StageSplit       Stage = "Splitting"
	StageTranscribe  Stage = "Transcribing"
	StageConcatenate Stage = "Concatenating"
)

// Config is fixed for the lifetime of a Pipeline; nothing is read from the
// environment once it is built.
type Config struct {
	InputPath string
	OutputDir string
	Skip      time.Duration
	Language  string
	Model     string
	Now       func() time.Time
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return errors.New("input path is required")
	}
	if c.Skip < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeSkip, c.Skip)
	}
	return nil
}

// Splitter produces the segment audio files of a run.
type Splitter interface {
	Split(ctx context.Context, source string, skip time.Duration, dest func(index int) string) ([]audio.Segment, error)
}

// Reporter receives stage progress. total is the number of units in the
// stage, or 0 when unknown.
type Reporter interface {
	StageStarted(stage Stage, total int)
	UnitDone(stage Stage)
	StageFinished(stage Stage)
}

type nopReporter struct{}

func (nopReporter) StageStarted(Stage, int) {}
func (nopReporter) UnitDone(Stage)          {}
func (nopReporter) StageFinished(Stage)     {}

type Option func(*Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithReporter(reporter Reporter) Option {
	return func(p *Pipeline) {
		if reporter != nil {
			p.reporter = reporter
		}
	}
}

// Pipeline runs split, transcribe and concatenate once per Run call.
type Pipeline struct {
	cfg      Config
	splitter Splitter
	client   whisper.Client
	logger   *zap.Logger
	reporter Reporter
}

func New(cfg Config, splitter Splitter, client whisper.Client, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if splitter == nil {
		return nil, errors.New("splitter is required")
	}
	if client == nil {
		return nil, errors.New("transcription client is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Language == "" {
		cfg.Language = whisper.DefaultLanguage
	}
	if cfg.Model == "" {
		cfg.Model = whisper.DefaultModel
	}

	p := &Pipeline{
		cfg:      cfg,
		splitter: splitter,
		client:   client,
		logger:   zap.NewNop(),
		reporter: nopReporter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type Result struct {
	Dir        RunDir
	ResultPath string
	Segments   []audio.Segment
}

// Run checks the input before anything is written, then creates a fresh run
// directory and executes the three stages in order. On failure the returned
// Result still names the run directory when one was created.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if err := CheckInput(p.cfg.InputPath); err != nil {
		return Result{}, err
	}

	dir, err := CreateRunDir(p.cfg.OutputDir, p.cfg.Now())
	if err != nil {
		return Result{}, err
	}
	result := Result{Dir: dir, ResultPath: dir.ResultPath()}
	p.logger.Info("run directory created", zap.String("dir", dir.Path))

	var segments []audio.Segment
	err = p.stage(StageSplit, 0, func() error {
		var splitErr error
		segments, splitErr = p.splitter.Split(ctx, p.cfg.InputPath, p.cfg.Skip, func(index int) string {
			return dir.SegmentPath(index, audio.SegmentFormat)
		})
		return splitErr
	})
	if err != nil {
		return result, fmt.Errorf("split %s: %w", p.cfg.InputPath, err)
	}
	result.Segments = segments
	if err := checkContiguous(segments); err != nil {
		return result, err
	}

	count := len(segments)
	if count == 0 {
		p.logger.Warn("no audio left after skip; result will be empty", zap.Duration("skip", p.cfg.Skip))
	}

	transcriber := &Transcriber{
		Client:    p.client,
		Language:  p.cfg.Language,
		Model:     p.cfg.Model,
		Logger:    p.logger,
		OnSegment: func(int) { p.reporter.UnitDone(StageTranscribe) },
	}
	if err := p.stage(StageTranscribe, count, func() error {
		return transcriber.Run(ctx, dir, count)
	}); err != nil {
		return result, err
	}

	if err := p.stage(StageConcatenate, 0, func() error {
		return Concatenate(dir, count)
	}); err != nil {
		return result, err
	}

	p.logger.Info("transcription complete", zap.String("result", result.ResultPath), zap.Int("segments", count))
	return result, nil
}

func (p *Pipeline) stage(stage Stage, total int, fn func() error) error {
	p.logger.Info(strings.ToLower(string(stage))+"...", zap.Int("units", total))
	started := time.Now()

	p.reporter.StageStarted(stage, total)
	err := fn()
	p.reporter.StageFinished(stage)

	if err != nil {
		p.logger.Warn(strings.ToLower(string(stage))+" failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return err
	}
	p.logger.Debug(strings.ToLower(string(stage))+" finished", zap.Duration("elapsed", time.Since(started)))
	return nil
}

// CheckInput fails with ErrInputNotFound unless path is a readable regular
// file.
func CheckInput(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInputNotFound, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInputNotFound, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInputNotFound, path)
	}
	return nil
}

func checkContiguous(segments []audio.Segment) error {
	for i, segment := range segments {
		if segment.Index != i {
			return fmt.Errorf("segment indices are not contiguous: position %d holds index %d", i, segment.Index)
		}
	}
	return nil
}
