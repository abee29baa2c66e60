package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSegmentLength = 5 * time.Minute
	SegmentFormat        = "mp3"
)

// Segment is an encoded slice of the source recording, numbered from 0.
type Segment struct {
	Index    int
	Path     string
	Start    time.Duration
	Duration time.Duration
}

// Segmenter cuts a WAV recording into fixed-length compressed segments.
type Segmenter struct {
	Encoder Encoder
	Length  time.Duration
	Bitrate string
	Logger  *zap.Logger

	probeFn func(path string) (Info, error)
}

func NewSegmenter(encoder Encoder, length time.Duration, bitrate string, logger *zap.Logger) *Segmenter {
	if length <= 0 {
		length = DefaultSegmentLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{Encoder: encoder, Length: length, Bitrate: bitrate, Logger: logger, probeFn: Probe}
}

// Split trims skip from the start of source and encodes the rest into
// segments written to dest(index). The returned slice is ordered by index and
// its length is the segment count; an empty slice means nothing was left
// after trimming.
func (s *Segmenter) Split(ctx context.Context, source string, skip time.Duration, dest func(index int) string) ([]Segment, error) {
	if s.Encoder == nil {
		return nil, errors.New("segmenter has no encoder")
	}
	if dest == nil {
		return nil, errors.New("segment destination is required")
	}
	if skip < 0 {
		return nil, fmt.Errorf("skip must not be negative, got %s", skip)
	}

	probe := s.probeFn
	if probe == nil {
		probe = Probe
	}

	info, err := probe(source)
	if err != nil {
		return nil, fmt.Errorf("read source recording %s: %w", source, err)
	}

	spans := Plan(info.Duration, skip, s.Length)
	s.log().Info("source recording loaded",
		zap.String("source", source),
		zap.Duration("duration", info.Duration),
		zap.Duration("skip", skip),
		zap.Int("sample_rate", info.SampleRate),
		zap.Int("channels", info.Channels),
		zap.Int("segments", len(spans)),
	)
	if len(spans) == 0 {
		s.log().Warn("nothing left to split after skip", zap.Duration("duration", info.Duration), zap.Duration("skip", skip))
		return []Segment{}, nil
	}

	segments := make([]Segment, 0, len(spans))
	for _, span := range spans {
		if err := ctx.Err(); err != nil {
			return segments, err
		}

		path := dest(span.Index)
		if err := s.Encoder.Encode(ctx, EncodeRequest{
			Source:      source,
			Destination: path,
			Start:       span.Start,
			Duration:    span.Duration,
			Bitrate:     s.Bitrate,
		}); err != nil {
			return segments, fmt.Errorf("encode segment %d: %w", span.Index, err)
		}

		s.log().Debug("segment written", zap.Int("index", span.Index), zap.String("path", path), zap.Duration("start", span.Start), zap.Duration("duration", span.Duration))
		segments = append(segments, Segment{
			Index:    span.Index,
			Path:     path,
			Start:    span.Start,
			Duration: span.Duration,
		})
	}

	return segments, nil
}

func (s *Segmenter) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
