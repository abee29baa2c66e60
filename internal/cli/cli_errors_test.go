package cli

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fmueller/chunkscribe/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func TestCLIErrorCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{
			name:        "unknown command",
			args:        []string{"badcmd"},
			errContains: "unknown command",
		},
		{
			name:        "unknown root flag",
			args:        []string{"--badflag"},
			errContains: "unknown flag",
		},
		{
			name:        "invalid skip",
			args:        []string{"--skip", "soon"},
			errContains: "invalid argument",
		},
		{
			name:        "invalid segment length",
			args:        []string{"--segment-length", "long"},
			errContains: "invalid argument",
		},
		{
			name:        "version takes no args",
			args:        []string{"version", "extra"},
			errContains: "unknown command",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := runCommand(t, tt.args)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestMissingCredentialFailsBeforeRunDir(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	writeInput(t, dir, "input.wav")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	_, _, err := runCommand(t, []string{
		"--input-dir", dir,
		"--output-dir", outDir,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--no-progress",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMissingInputNamesPathAndCreatesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	app, client := fakeApp(t, defaultSegments()...)

	_, _, err := runAppCommand(t, app, []string{
		"--input-dir", dir,
		"--input-filename", "nope.wav",
		"--output-dir", outDir,
		"--no-progress",
	})
	require.ErrorIs(t, err, pipeline.ErrInputNotFound)
	require.Contains(t, err.Error(), filepath.Join(dir, "nope.wav"))
	require.Empty(t, client.requests)
	require.NoDirExists(t, outDir)
}

func TestRunRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "language detection", args: []string{"--language", "auto"}, errContains: "language detection is not supported"},
		{name: "negative skip", args: []string{"--skip", "-1"}, errContains: "skip"},
		{name: "zero segment length", args: []string{"--segment-length", "0s"}, errContains: "--segment-length must be positive"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeInput(t, dir, "input.wav")
			outDir := filepath.Join(dir, "out")
			app, _ := fakeApp(t, defaultSegments()...)

			args := append([]string{"--input-dir", dir, "--output-dir", outDir, "--no-progress"}, tt.args...)
			_, _, err := runAppCommand(t, app, args)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errContains)
			require.NoDirExists(t, outDir)
		})
	}
}

func TestSkipDurationRejectsNonFinite(t *testing.T) {
	t.Parallel()

	_, err := skipDuration(math.NaN())
	require.Error(t, err)

	_, err = skipDuration(math.Inf(1))
	require.Error(t, err)

	_, err = skipDuration(-0.5)
	require.ErrorIs(t, err, pipeline.ErrNegativeSkip)
}

func TestVersionFlagOutput(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, []string{"--version"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "chunkscribe v"), "expected version prefix, got: %s", stdout)
}

func TestVersionCommandOutput(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, []string{"version"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "chunkscribe v"), "expected version prefix, got: %s", stdout)
}
