package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 10 * time.Minute

	transcriptionsPath = "/audio/transcriptions"
	responseFormat     = "verbose_json"
	maxErrorBody       = 4 << 10
)

var ErrUnauthorized = errors.New("transcription service rejected the credentials")

// APIError is a non-2xx reply from the transcription service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("transcription service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("transcription service returned status %d: %s", e.StatusCode, body)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// OpenAIClient talks to an OpenAI-compatible /audio/transcriptions endpoint.
type OpenAIClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *OpenAIClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

func (c *OpenAIClient) Transcribe(ctx context.Context, req Request) (Transcript, error) {
	if req.Audio == nil {
		return Transcript{}, errors.New("audio is required")
	}
	if strings.TrimSpace(req.Filename) == "" {
		return Transcript{}, errors.New("audio filename is required")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = DefaultLanguage
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", req.Filename)
	if err != nil {
		return Transcript{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return Transcript{}, fmt.Errorf("read audio %s: %w", req.Filename, err)
	}
	for _, field := range [][2]string{
		{"model", model},
		{"language", language},
		{"response_format", responseFormat},
	} {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return Transcript{}, fmt.Errorf("write form field %s: %w", field[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return Transcript{}, fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := c.endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Transcript{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	c.log().Debug("sending transcription request",
		zap.String("endpoint", endpoint),
		zap.String("file", req.Filename),
		zap.String("model", model),
		zap.String("language", language),
		zap.Int("bytes", body.Len()),
	)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Transcript{}, &APIError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcript{}, fmt.Errorf("read transcription response: %w", err)
	}

	var transcript Transcript
	if err := json.Unmarshal(raw, &transcript); err != nil {
		return Transcript{}, fmt.Errorf("decode transcription response: %w", err)
	}
	transcript.Raw = raw

	return transcript, nil
}

// endpoint accepts both a base URL and the full transcriptions URL.
func (c *OpenAIClient) endpoint() string {
	base := strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, transcriptionsPath) {
		return base
	}
	return base + transcriptionsPath
}

func (c *OpenAIClient) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return &http.Client{Timeout: DefaultTimeout}
	}
	return c.HTTPClient
}

func (c *OpenAIClient) log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
