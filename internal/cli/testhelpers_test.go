package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fmueller/chunkscribe/internal/audio"
	"github.com/fmueller/chunkscribe/internal/config"
	"github.com/fmueller/chunkscribe/internal/pipeline"
	"github.com/fmueller/chunkscribe/internal/whisper"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runAppCommand(t, newAppState(), args)
}

func runAppCommand(t *testing.T, app *appState, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

// fakeApp returns an appState whose collaborators never leave the process.
func fakeApp(t *testing.T, durations ...time.Duration) (*appState, *fakeClient) {
	t.Helper()

	client := &fakeClient{}
	app := newAppState()
	app.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	app.loadConfigFn = func(string) (*config.Config, error) {
		return &config.Config{APIKey: "test-key", BaseURL: whisper.DefaultBaseURL, Timeout: time.Minute}, nil
	}
	app.newClientFn = func(*config.Config) whisper.Client { return client }
	app.newSplitterFn = func() pipeline.Splitter { return &fakeSplitter{durations: durations} }
	return app, client
}

func writeInput(t *testing.T, dir string, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	samples := make([]int16, 800)
	require.NoError(t, os.WriteFile(path, makePCM16WAVForTest(samples, 8000, 1), 0o644))
	return path
}

type fakeSplitter struct {
	durations []time.Duration
	skip      time.Duration
	source    string
}

func (s *fakeSplitter) Split(_ context.Context, source string, skip time.Duration, dest func(int) string) ([]audio.Segment, error) {
	s.source = source
	s.skip = skip

	segments := make([]audio.Segment, 0, len(s.durations))
	start := skip
	for i, d := range s.durations {
		path := dest(i)
		if err := os.WriteFile(path, []byte(fmt.Sprintf("audio-%d", i)), 0o644); err != nil {
			return nil, err
		}
		segments = append(segments, audio.Segment{Index: i, Path: path, Start: start, Duration: d})
		start += d
	}
	return segments, nil
}

type fakeClient struct {
	requests []whisper.Request
}

func (c *fakeClient) Transcribe(_ context.Context, req whisper.Request) (whisper.Transcript, error) {
	body, err := io.ReadAll(req.Audio)
	if err != nil {
		return whisper.Transcript{}, err
	}
	c.requests = append(c.requests, req)

	text := "heard " + string(body)
	raw := fmt.Sprintf(`{"text":%q,"segments":[{"id":0,"start":0,"end":1,"text":%q}]}`, text, text)
	return whisper.Transcript{
		Raw:      []byte(raw),
		Text:     text,
		Segments: []whisper.Span{{ID: 0, Start: 0, End: 1, Text: text}},
	}, nil
}

func makePCM16WAVForTest(samples []int16, sampleRate int, channels int) []byte {
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}
