package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultCompatBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// OpenAIClient talks to Gemini's OpenAI-compatible endpoint. Only image media
// can be attached through this transport.
type OpenAIClient struct {
	opts Options
}

// NewOpenAIClient constructs an OpenAIClient.
func NewOpenAIClient(opts Options) *OpenAIClient {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultCompatBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &OpenAIClient{opts: opts}
}

// Generate implements Generator.
func (c *OpenAIClient) Generate(ctx context.Context, apiKey string, req Request) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	ctx, cancel := withTimeout(ctx, c.opts.Timeout)
	defer cancel()

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.opts.BaseURL
	if c.opts.HTTPClient != nil {
		cfg.HTTPClient = c.opts.HTTPClient
	}
	client := openai.NewClientWithConfig(cfg)

	messages, err := buildChatMessages(req)
	if err != nil {
		return "", err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    c.opts.Model,
		Messages: messages,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildChatMessages(req Request) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, msg := range req.History {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		if msg.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Text})
	}

	if len(req.Media) == 0 {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})
		return messages, nil
	}

	parts := make([]openai.ChatMessagePart, 0, len(req.Media)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: req.Prompt})
	for _, m := range req.Media {
		if !strings.HasPrefix(m.MIMEType, "image/") {
			return nil, fmt.Errorf("%w: %s", ErrMediaUnsupported, m.MIMEType)
		}
		dataURL := "data:" + m.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts})
	return messages, nil
}
