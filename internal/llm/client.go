// Package llm wraps the language model behind a thin, best-effort
// extraction interface. Responses that cannot be parsed degrade to an
// empty mapping; the caller is expected to treat that as "nothing
// detected" rather than an error.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/anigil002/trackerupdates/internal/models"
)

// ErrNotConfigured is returned while no API key has been supplied.
var ErrNotConfigured = errors.New("language model not configured")

// Client is the extraction client. It starts unconfigured and becomes
// usable once Initialize is called with an API key.
type Client struct {
	mu        sync.RWMutex
	model     llms.Model
	modelName string
	log       *slog.Logger
}

// NewClient creates an unconfigured client for the given model name.
func NewClient(modelName string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{modelName: modelName, log: logger}
}

// Initialize (re)creates the underlying model client with the API key.
func (c *Client) Initialize(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("empty API key")
	}
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(c.modelName),
	)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
	c.log.Info("llm.initialized", "model", c.modelName)
	return nil
}

// Ready reports whether an API key has been configured.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model != nil
}

// ExtractEmail runs the recruitment-field checklist over an email and
// returns whatever fields the model recognized. An unparsable response
// yields an empty mapping, not an error.
func (c *Client) ExtractEmail(ctx context.Context, msg models.EmailMessage) (models.ExtractedFields, error) {
	response, err := c.generate(ctx, "extract_email", buildEmailPrompt(msg))
	if err != nil {
		return nil, err
	}
	return decodeFields(response), nil
}

// ParseCommand turns a free-text instruction into an action name plus
// parameters. An unparsable response yields a zero ParsedCommand.
func (c *Client) ParseCommand(ctx context.Context, command string) (models.ParsedCommand, error) {
	response, err := c.generate(ctx, "parse_command", buildCommandPrompt(command))
	if err != nil {
		return models.ParsedCommand{}, err
	}
	return decodeCommand(response), nil
}

func (c *Client) generate(ctx context.Context, op, prompt string) (string, error) {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()
	if model == nil {
		return "", ErrNotConfigured
	}

	reqID := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.request", "op", op, "req_id", reqID, "prompt_len", len(prompt))

	response, err := llms.GenerateFromSinglePrompt(ctx, model, prompt)
	if err != nil {
		c.log.Error("llm.request_failed", "op", op, "req_id", reqID,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("model call failed: %w", err)
	}

	c.log.Info("llm.response", "op", op, "req_id", reqID,
		"response_len", len(response), "elapsed_ms", time.Since(start).Milliseconds())
	return response, nil
}
