// Package secondme calls the external SecondMe generation capability: a
// streaming chat endpoint that voices a character on a user's behalf, and an
// optional voice-synthesis endpoint.
package secondme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/SpokieKid/mystory/internal/models"
)

const (
	chatStreamPath = "/api/secondme/chat/stream"
	voicePath      = "/api/secondme/voice"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mystory_generation_requests_total",
			Help: "Total number of requests to the SecondMe chat stream API.",
		},
		[]string{"status"},
	)
	generationRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mystory_generation_request_duration_seconds",
			Help:    "Histogram of SecondMe chat stream request durations.",
			Buckets: prometheus.DefBuckets,
		},
	)
	generationUtteranceChars = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mystory_generation_utterance_chars",
			Help:    "Histogram of generated utterance lengths in characters.",
			Buckets: prometheus.LinearBuckets(50, 50, 10),
		},
	)
)

// Generator produces one in-character utterance for a prompt, authored by
// the credential's owner.
type Generator interface {
	GenerateDialogue(ctx context.Context, credential, prompt string) (string, error)
}

// VoiceSynthesizer turns utterance text into an audio resource reference.
// An empty reference with a nil error is a valid "no audio" outcome.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, credential, text string) (string, error)
}

// Client talks to the SecondMe API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a SecondMe client with a bounded per-call timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		timeout:    timeout,
		logger:     logger.Named("SecondMeClient"),
	}
}

type chatStreamRequest struct {
	Message string `json:"message"`
}

// GenerateDialogue sends the prompt and folds the streamed deltas into the
// final utterance text. A stream that yields zero characters is a failure.
func (c *Client) GenerateDialogue(ctx context.Context, credential, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatStreamRequest{Message: prompt})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", models.ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatStreamPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		generationRequestsTotal.With(prometheus.Labels{"status": "transport_error"}).Inc()
		c.logger.Warn("Chat stream request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		generationRequestsTotal.With(prometheus.Labels{"status": "http_error"}).Inc()
		c.logger.Warn("Chat stream returned non-2xx status", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: upstream status %d", models.ErrGenerationFailed, resp.StatusCode)
	}

	text := NewDeltaScanner(resp.Body).Collect()
	duration := time.Since(start)

	if text == "" {
		generationRequestsTotal.With(prometheus.Labels{"status": "empty_response"}).Inc()
		c.logger.Warn("Chat stream yielded no content", zap.Duration("duration", duration))
		return "", fmt.Errorf("%w: empty stream", models.ErrGenerationFailed)
	}

	generationRequestsTotal.With(prometheus.Labels{"status": "success"}).Inc()
	generationRequestDuration.Observe(duration.Seconds())
	generationUtteranceChars.Observe(float64(len([]rune(text))))
	c.logger.Debug("Utterance generated",
		zap.Duration("duration", duration),
		zap.Int("chars", len([]rune(text))),
	)
	return text, nil
}

type voiceRequest struct {
	Text string `json:"text"`
}

type voiceResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		URL      string `json:"url"`
		AudioURL string `json:"audioUrl"`
	} `json:"data"`
}

// Synthesize requests speech for the utterance text in the credential
// owner's voice. Absence of audio is not an error: any failure yields an
// empty reference.
func (c *Client) Synthesize(ctx context.Context, credential, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(voiceRequest{Text: text})
	if err != nil {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+voicePath, bytes.NewReader(body))
	if err != nil {
		return "", nil
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Voice synthesis request failed", zap.Error(err))
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Voice synthesis returned non-2xx status", zap.Int("status", resp.StatusCode))
		return "", nil
	}

	var vr voiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		c.logger.Warn("Voice synthesis response is malformed", zap.Error(err))
		return "", nil
	}
	if vr.Code != 0 {
		c.logger.Warn("Voice synthesis rejected", zap.Int("code", vr.Code), zap.String("message", vr.Message))
		return "", nil
	}
	if vr.Data.URL != "" {
		return vr.Data.URL, nil
	}
	return vr.Data.AudioURL, nil
}
