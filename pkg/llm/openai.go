package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIClient calls the chat completions endpoint with a json_schema
// response_format, so the provider itself enforces shape and a malformed
// completion surfaces as a finish_reason rather than unparsable text.
type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string                    `json:"type"`
	JSONSchema openAIResponseFormatSpec  `json:"json_schema"`
}

type openAIResponseFormatSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat openAIResponseFormat  `json:"response_format"`
}

type openAIResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIClient) CallStructured(ctx context.Context, req CallRequest) (json.RawMessage, CompletionStatus, error) {
	body := openAIRequest{
		Model: req.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserContent},
		},
		Temperature: 0,
		ResponseFormat: openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIResponseFormatSpec{
				Name:   req.SchemaName,
				Strict: true,
				Schema: req.Schema,
			},
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, Incomplete, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, Incomplete, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, Incomplete, &TransientError{Err: fmt.Errorf("openai: request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var oaiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, Incomplete, fmt.Errorf("openai: decode response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if oaiResp.Error != nil {
			msg = oaiResp.Error.Message
		}
		return nil, Incomplete, &TransientError{Err: fmt.Errorf("openai: %s", msg)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if oaiResp.Error != nil {
			msg = oaiResp.Error.Message
		}
		return nil, Incomplete, fmt.Errorf("openai: %s", msg)
	}

	if len(oaiResp.Choices) == 0 {
		return nil, Incomplete, fmt.Errorf("openai: empty choices in response")
	}
	choice := oaiResp.Choices[0]

	if choice.Message.Refusal != "" {
		return classify(req.Model, Refused, choice.Message.Refusal, nil)
	}
	if choice.FinishReason == "length" || choice.FinishReason == "content_filter" {
		return classify(req.Model, Incomplete, fmt.Sprintf("finish_reason=%s", choice.FinishReason), nil)
	}
	if choice.Message.Content == "" {
		return classify(req.Model, Incomplete, "empty content", nil)
	}

	return classify(req.Model, Completed, "", json.RawMessage(choice.Message.Content))
}
