package cli

import (
	"os"
	"sync"
	"time"

	"github.com/fmueller/chunkscribe/internal/pipeline"
	"github.com/schollz/progressbar/v3"
)

type stopFunc func()

func startSpinner(enabled bool, description string) stopFunc {
	if !enabled {
		return func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}

func newCountBar(description string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// progressReporter shows a spinner for stages of unknown size and a counting
// bar for the per-segment transcription stage.
type progressReporter struct {
	enabled bool
	stop    stopFunc
	bar     *progressbar.ProgressBar
}

func newProgressReporter(enabled bool) *progressReporter {
	return &progressReporter{enabled: enabled}
}

func (r *progressReporter) StageStarted(stage pipeline.Stage, total int) {
	r.StageFinished(stage)
	if !r.enabled {
		return
	}

	if total <= 0 {
		r.stop = startSpinner(true, string(stage))
		return
	}
	r.bar = newCountBar(string(stage), total)
}

func (r *progressReporter) UnitDone(pipeline.Stage) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *progressReporter) StageFinished(pipeline.Stage) {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}
