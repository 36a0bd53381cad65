// Package vision reads medicine names from prescription photos with a multimodal model
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/pharmavoz/backend/internal/domain"
)

const defaultModel = "gemini-2.0-flash"

const prescriptionPrompt = `Actúa como un farmacéutico experto.
Analiza la imagen de este récipe médico y extrae el nombre del medicamento recetado,
incluyendo la concentración si aparece (mg, ml, etc).
Responde estrictamente en formato JSON: {"medicamento": "<nombre>"}.
Si no puedes leer ningún medicamento responde {"medicamento": ""}.`

// Config holds Gemini client configuration
type Config struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	Logger            *zerolog.Logger
}

// generator is the part of *genai.GenerativeModel the client needs
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements domain.VisionClient
type GeminiClient struct {
	client      *genai.Client
	model       generator
	rateLimiter *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger
}

// NewGeminiClient creates a client for the configured model
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing api key", domain.ErrVisionUnavailable)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}

	model := client.GenerativeModel(modelName)
	// Low temperature keeps the extraction literal
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(256)
	model.ResponseMIMEType = "application/json"

	c := newClient(model, cfg.RequestsPerMinute, cfg.Logger)
	c.client = client
	return c, nil
}

func newClient(model generator, requestsPerMinute int, logger *zerolog.Logger) *GeminiClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 15
	}

	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}

	return &GeminiClient{
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 3),
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		logger:      l,
	}
}

// ExtractMedicineName sends the photo with a fixed instruction and parses the answer.
// An empty string with a nil error means the model saw no medicine.
func (c *GeminiClient) ExtractMedicineName(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", domain.ErrInvalidRequest
	}

	parts := []genai.Part{
		genai.ImageData(imageFormat(mimeType), image),
		genai.Text(prescriptionPrompt),
	}

	// Retry up to maxAttempts times for transient failures
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.model.GenerateContent(ctx, parts...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", err
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("vision request failed")
			lastErr = fmt.Errorf("%w: %v", domain.ErrVisionFailure, err)

			if attempt < c.maxAttempts {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(time.Duration(attempt) * c.backoff):
				}
			}
			continue
		}

		name := ParseMedicineName(extractText(resp))
		c.logger.Debug().Str("medicine", name).Int("attempt", attempt).Msg("vision extraction done")
		return name, nil
	}

	c.logger.Error().Err(lastErr).Msg("all vision attempts failed")
	return "", lastErr
}

// Close releases the underlying client
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.WriteString(string(text))
			}
		}
	}
	return result.String()
}

// imageFormat turns "image/jpeg" into the "jpeg" genai.ImageData expects
func imageFormat(mimeType string) string {
	format := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
	if i := strings.IndexByte(format, ';'); i >= 0 {
		format = format[:i]
	}
	switch format {
	case "", "jpg", "pjpeg":
		return "jpeg"
	}
	return format
}
