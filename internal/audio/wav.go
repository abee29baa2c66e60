package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

// Info describes a WAV source recording.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	DataBytes  int64
	Duration   time.Duration
}

// streamedDataSize is the placeholder some writers put in the data chunk
// header when the length is unknown.
const streamedDataSize = 0xFFFFFFFF

// Probe reads the WAV headers of path and derives the playback duration from
// the size of the data chunk. Sample data is not decoded. A data size of 0,
// the streaming placeholder or anything past the end of the file is replaced
// by the bytes actually present after the data chunk header.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 || dec.BitDepth == 0 {
		return Info{}, ErrInvalidWAV
	}
	if err := validateFormat(dec.WavAudioFormat, dec.BitDepth); err != nil {
		return Info{}, err
	}

	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("%w: locate data chunk: %v", ErrInvalidWAV, err)
	}

	dataBytes, err := pcmBytes(f, dec.PCMLen())
	if err != nil {
		return Info{}, err
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		DataBytes:  dataBytes,
	}
	info.Duration = pcmDuration(info.DataBytes, info.SampleRate, info.Channels, info.BitDepth)
	return info, nil
}

// pcmBytes expects f to be positioned at the start of the sample data.
func pcmBytes(f *os.File, declared int64) (int64, error) {
	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("locate sample data: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat wav: %w", err)
	}

	available := max(stat.Size()-offset, 0)
	if declared <= 0 || declared == streamedDataSize || declared > available {
		return available, nil
	}
	return declared, nil
}

func validateFormat(audioFormat, bitDepth uint16) error {
	switch audioFormat {
	case formatPCM, formatExtensible:
		switch bitDepth {
		case 8, 16, 24, 32:
			return nil
		}
	case formatIEEEFloat:
		switch bitDepth {
		case 32, 64:
			return nil
		}
	}
	return fmt.Errorf("%w: format %d with %d bits per sample", ErrUnsupportedWAV, audioFormat, bitDepth)
}

// pcmDuration only counts whole frames; a trailing partial frame is ignored.
func pcmDuration(dataBytes int64, sampleRate, channels, bitDepth int) time.Duration {
	frameBytes := int64(channels * bitDepth / 8)
	if frameBytes <= 0 || sampleRate <= 0 || dataBytes <= 0 {
		return 0
	}

	frames := dataBytes / frameBytes
	seconds := frames / int64(sampleRate)
	rest := frames % int64(sampleRate)
	return time.Duration(seconds)*time.Second + time.Duration(rest)*time.Second/time.Duration(sampleRate)
}
