package providers

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxkit/flowsync/pkg/llm"
)

func init() {
	llm.RegisterProvider("openai", func(modelName string) (llm.Client, error) {
		return newOpenAIClient(modelName)
	})
}

type openaiClient struct {
	sdk       *openai.Client
	modelName string
}

func newOpenAIClient(modelName string) (*openaiClient, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY environment variable not set")
	}
	return &openaiClient{
		sdk:       openai.NewClient(key),
		modelName: modelName,
	}, nil
}

// Complete performs a blocking generation with automatic retry on transient errors.
func (c *openaiClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	var resp llm.Response
	err := llm.WithRetry(ctx, 4, func() error {
		var innerErr error
		resp, innerErr = c.doComplete(ctx, req)
		return innerErr
	})
	return resp, err
}

func (c *openaiClient) doComplete(ctx context.Context, req llm.Request) (llm.Response, error) {
	maxTokens := 4096
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.sdk.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.modelName,
		MaxTokens: maxTokens,
		Messages:  msgs,
	})
	if err != nil {
		return llm.Response{}, mapOpenAIError(err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	return llm.Response{
		Text:         text,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		base := llm.LLMError{
			Code:    apiErr.HTTPStatusCode,
			Message: apiErr.Message,
			Cause:   err,
		}
		switch apiErr.HTTPStatusCode {
		case 429:
			return &llm.RateLimitError{LLMError: base}
		case 401, 403:
			return &llm.AuthError{LLMError: base}
		case 400:
			return &llm.ContextLengthError{LLMError: base}
		case 500, 502, 503:
			return &llm.ServerError{LLMError: base}
		default:
			return &base
		}
	}
	return fmt.Errorf("openai: %w", err)
}
