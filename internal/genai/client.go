// Package genai talks to the OpenAI API for pattern analysis and speech.
package genai

import (
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config selects models and transport settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	SpeechModel    string
	Voice          string
	MaxRetries     int
	RequestTimeout time.Duration
	MaxOutput      int64
}

// Client wraps an OpenAI client configured for the journal.
type Client struct {
	api openai.Client
	cfg Config
}

// New creates a Client. An API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("genai: api key is empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("genai: model is empty")
	}
	if cfg.MaxOutput == 0 {
		cfg.MaxOutput = 1200
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	return &Client{api: openai.NewClient(opts...), cfg: cfg}, nil
}
