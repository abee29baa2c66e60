package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	runDirPrefix    = "result_"
	runDirTimestamp = "20060102_150405"

	ResultFileName = "result.txt"
	JSONExt        = "json"
	TextExt        = "txt"
)

// RunDir is the output directory owned by a single invocation.
type RunDir struct {
	Path string
}

// CreateRunDir creates <base>/result_<timestamp>. It refuses to reuse an
// existing directory.
func CreateRunDir(base string, startedAt time.Time) (RunDir, error) {
	if base == "" {
		base = "."
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return RunDir{}, fmt.Errorf("create output directory %s: %w", base, err)
	}

	path := filepath.Join(base, RunDirName(startedAt))
	if err := os.Mkdir(path, 0o755); err != nil {
		return RunDir{}, fmt.Errorf("create run directory: %w", err)
	}
	return RunDir{Path: path}, nil
}

func RunDirName(startedAt time.Time) string {
	return runDirPrefix + startedAt.Format(runDirTimestamp)
}

// SegmentPath returns segment_<index>.<ext> inside the run directory.
func (r RunDir) SegmentPath(index int, ext string) string {
	return filepath.Join(r.Path, fmt.Sprintf("segment_%d.%s", index, ext))
}

func (r RunDir) ResultPath() string {
	return filepath.Join(r.Path, ResultFileName)
}
