package genai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
	"github.com/starford/maeum/internal/models"
)

// analysisReply mirrors models.PatternAnalysis with schema tags.
type analysisReply struct {
	Summary  string         `json:"summary" jsonschema:"required,description=Two warm sentences about the user's overall mood tendencies"`
	Patterns []patternReply `json:"patterns" jsonschema:"required"`
}

type patternReply struct {
	Situation   string `json:"situation" jsonschema:"required"`
	MoodEmoji   string `json:"moodEmoji" jsonschema:"required"`
	Description string `json:"description" jsonschema:"required"`
}

var analysisSchema = GenerateSchema[analysisReply]()

// Analyze sends the rendered journal and decodes the structured reply.
func (c *Client) Analyze(ctx context.Context, instructions, prompt string) (models.PatternAnalysis, error) {
	params := responses.ResponseNewParams{
		Model:           c.cfg.Model,
		MaxOutputTokens: openai.Int(c.cfg.MaxOutput),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "PatternAnalysis",
					Schema:      analysisSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Mood pattern analysis JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := c.api.Responses.New(ctx, params)
	if err != nil {
		return models.PatternAnalysis{}, fmt.Errorf("genai: analyze: %w", err)
	}

	var reply analysisReply
	if err := decodeModelJSON(resp.OutputText(), &reply); err != nil {
		return models.PatternAnalysis{}, err
	}
	out := models.PatternAnalysis{Summary: reply.Summary, Patterns: make([]models.Pattern, 0, len(reply.Patterns))}
	for _, p := range reply.Patterns {
		out.Patterns = append(out.Patterns, models.Pattern{
			Situation:   p.Situation,
			MoodGlyph:   p.MoodEmoji,
			Description: p.Description,
		})
	}
	return out, nil
}
