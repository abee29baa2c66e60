package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrFFmpegNotFound = errors.New("ffmpeg executable not found")

const (
	DefaultFFmpeg  = "ffmpeg"
	DefaultBitrate = "64k"
)

type EncodeRequest struct {
	Source      string
	Destination string
	Start       time.Duration
	Duration    time.Duration
	Bitrate     string
}

// Encoder writes one time slice of a source recording as a compressed file.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) error
}

// FFmpegEncoder slices and encodes with the ffmpeg executable. The executable
// is resolved on every call so a missing binary surfaces as ErrFFmpegNotFound
// at encode time rather than at construction.
type FFmpegEncoder struct {
	Executable string
	Logger     *zap.Logger
}

func NewFFmpegEncoder(executable string, logger *zap.Logger) *FFmpegEncoder {
	if strings.TrimSpace(executable) == "" {
		executable = DefaultFFmpeg
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegEncoder{Executable: executable, Logger: logger}
}

func (e *FFmpegEncoder) Encode(ctx context.Context, req EncodeRequest) error {
	if strings.TrimSpace(req.Source) == "" {
		return errors.New("source path is required")
	}
	if strings.TrimSpace(req.Destination) == "" {
		return errors.New("destination path is required")
	}
	if req.Duration <= 0 {
		return fmt.Errorf("segment duration must be positive, got %s", req.Duration)
	}

	executable, err := exec.LookPath(e.Executable)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFFmpegNotFound, e.Executable, err)
	}

	if err := os.MkdirAll(filepath.Dir(req.Destination), 0o755); err != nil {
		return fmt.Errorf("create segment directory: %w", err)
	}

	args := ffmpegArgs(req)
	cmd := exec.CommandContext(ctx, executable, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log().Debug("running ffmpeg", zap.String("ffmpeg", executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		errText := strings.TrimSpace(stderr.String())
		if errText != "" {
			return fmt.Errorf("ffmpeg encode %s failed: %w (%s)", filepath.Base(req.Destination), err, errText)
		}
		return fmt.Errorf("ffmpeg encode %s failed: %w", filepath.Base(req.Destination), err)
	}

	return nil
}

func (e *FFmpegEncoder) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// ffmpegArgs seeks before -i, which is sample accurate for PCM input.
func ffmpegArgs(req EncodeRequest) []string {
	bitrate := strings.TrimSpace(req.Bitrate)
	if bitrate == "" {
		bitrate = DefaultBitrate
	}

	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatSeconds(req.Start),
		"-t", formatSeconds(req.Duration),
		"-i", req.Source,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", bitrate,
		req.Destination,
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
