package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fmueller/chunkscribe/internal/audio"
	"github.com/fmueller/chunkscribe/internal/whisper"
	"go.uber.org/zap"
)

// Transcriber sends every segment of a run to the transcription service, one
// request at a time, and stores the raw reply next to its plain text.
type Transcriber struct {
	Client   whisper.Client
	Language string
	Model    string
	Logger   *zap.Logger

	// OnSegment is called after segment index has been persisted.
	OnSegment func(index int)
}

// Run transcribes segments [0, count) of dir in ascending order and stops at
// the first failure.
func (t *Transcriber) Run(ctx context.Context, dir RunDir, count int) error {
	if t.Client == nil {
		return fmt.Errorf("transcriber has no client")
	}

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.transcribeSegment(ctx, dir, i); err != nil {
			return fmt.Errorf("transcribe segment %d: %w", i, err)
		}
		if t.OnSegment != nil {
			t.OnSegment(i)
		}
	}
	return nil
}

func (t *Transcriber) transcribeSegment(ctx context.Context, dir RunDir, index int) error {
	audioPath := dir.SegmentPath(index, audio.SegmentFormat)
	f, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("open segment audio: %w", err)
	}
	defer f.Close()

	started := time.Now()
	transcript, err := t.Client.Transcribe(ctx, whisper.Request{
		Audio:    f,
		Filename: filepath.Base(audioPath),
		Language: t.Language,
		Model:    t.Model,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(dir.SegmentPath(index, JSONExt), transcript.Raw, 0o644); err != nil {
		return fmt.Errorf("write raw transcript: %w", err)
	}
	if err := os.WriteFile(dir.SegmentPath(index, TextExt), []byte(transcript.PlainText()), 0o644); err != nil {
		return fmt.Errorf("write plain transcript: %w", err)
	}

	t.log().Info("segment transcribed",
		zap.Int("index", index),
		zap.Int("spans", len(transcript.Segments)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (t *Transcriber) log() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}
