package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient forces structured output via a single synthetic tool
// whose input_schema is req.Schema, then reads the tool_use block back out
// — Anthropic has no native response_format like OpenAI's, but a forced
// single-tool call gives the same schema-conformant-or-refused contract.
type AnthropicClient struct {
	client anthropic.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (c *AnthropicClient) CallStructured(ctx context.Context, req CallRequest) (json.RawMessage, CompletionStatus, error) {
	var schema map[string]interface{}
	if err := json.Unmarshal(req.Schema, &schema); err != nil {
		return nil, Incomplete, fmt.Errorf("anthropic: decode schema: %w", err)
	}

	toolName := req.SchemaName
	if toolName == "" {
		toolName = "emit_result"
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: 4096,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserContent)),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        toolName,
					Description: anthropic.String("Emit the structured result conforming to the required schema."),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: schema["properties"],
					},
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == 429 || apiErr.StatusCode >= 500) {
			return nil, Incomplete, &TransientError{Err: err}
		}
		return nil, Incomplete, fmt.Errorf("anthropic: request: %w", err)
	}

	switch msg.StopReason {
	case anthropic.StopReasonRefusal:
		return classify(req.Model, Refused, "model declined to produce tool output", nil)
	case anthropic.StopReasonMaxTokens:
		return classify(req.Model, Incomplete, "max_tokens reached before tool output completed", nil)
	}

	for _, block := range msg.Content {
		if block.Type == "tool_use" && block.Name == toolName {
			return classify(req.Model, Completed, "", json.RawMessage(block.Input))
		}
	}

	return classify(req.Model, Incomplete, "no tool_use block in response", nil)
}
