package whisper

import (
	"context"
	"io"
	"strings"
)

const (
	DefaultModel    = "whisper-1"
	DefaultLanguage = "en"
)

// Request is one audio blob to transcribe in a fixed language.
type Request struct {
	Audio    io.Reader
	Filename string
	Language string
	Model    string
}

// Span is a timed text entry of a verbose transcript.
type Span struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the decoded verbose response. Raw keeps the response body
// exactly as the service sent it.
type Transcript struct {
	Raw      []byte  `json:"-"`
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []Span  `json:"segments"`
}

// PlainText renders one line per span, in service order, without timing.
func (t Transcript) PlainText() string {
	var b strings.Builder
	for _, span := range t.Segments {
		b.WriteString(span.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

type Client interface {
	Transcribe(ctx context.Context, req Request) (Transcript, error)
}
