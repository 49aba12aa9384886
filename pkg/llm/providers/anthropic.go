// Package providers registers LLM provider adapters.
// Import this package with a blank identifier to activate all providers:
//
//	import _ "github.com/voxkit/flowsync/pkg/llm/providers"
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/voxkit/flowsync/pkg/llm"
)

func init() {
	llm.RegisterProvider("anthropic", func(modelName string) (llm.Client, error) {
		return newAnthropicClient(modelName)
	})
}

type anthropicClient struct {
	sdk       anthropicsdk.Client
	modelName string
}

func newAnthropicClient(modelName string) (*anthropicClient, error) {
	sdk := anthropicsdk.NewClient(option.WithAPIKey("")) // reads ANTHROPIC_API_KEY automatically
	return &anthropicClient{sdk: sdk, modelName: modelName}, nil
}

// Complete performs a blocking generation with automatic retry on transient errors.
func (a *anthropicClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	var resp llm.Response
	err := llm.WithRetry(ctx, 4, func() error {
		var innerErr error
		resp, innerErr = a.doComplete(ctx, req)
		return innerErr
	})
	return resp, err
}

func (a *anthropicClient) doComplete(ctx context.Context, req llm.Request) (llm.Response, error) {
	maxTokens := int64(4096)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(a.modelName),
		MaxTokens: maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.sdk.Messages.New(ctx, params)
	if err != nil {
		return llm.Response{}, mapError(err)
	}

	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	return llm.Response{
		Text:         text.String(),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		base := llm.LLMError{Code: apiErr.StatusCode, Message: apiErr.Error(), Cause: err}
		switch apiErr.StatusCode {
		case 429:
			return &llm.RateLimitError{LLMError: base}
		case 401, 403:
			return &llm.AuthError{LLMError: base}
		case 400:
			return &llm.ContextLengthError{LLMError: base}
		case 500, 502, 503, 529:
			return &llm.ServerError{LLMError: base}
		}
	}
	return fmt.Errorf("anthropic: %w", err)
}
