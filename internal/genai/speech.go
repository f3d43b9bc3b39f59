package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Synthesize reads text aloud and returns base64 raw PCM (mono, 24 kHz,
// signed 16-bit little-endian).
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	if c.cfg.SpeechModel == "" {
		return "", errors.New("genai: speech model is empty")
	}
	voice := c.cfg.Voice
	if voice == "" {
		voice = "nova"
	}
	resp, err := c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input: text,
		Model: openai.SpeechModel(c.cfg.SpeechModel),
	},
		option.WithJSONSet("voice", voice),
		option.WithJSONSet("response_format", "pcm"),
	)
	if err != nil {
		return "", fmt.Errorf("genai: speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("genai: read speech: %w", err)
	}
	if len(audio) == 0 {
		return "", errors.New("genai: empty speech response")
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}
