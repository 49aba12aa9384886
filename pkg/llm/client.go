// Package llm provides a provider-agnostic text completion interface.
// Providers register themselves via RegisterProvider; import the
// providers package with a blank identifier to activate them.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request is a single-turn text completion request.
type Request struct {
	// System is the system prompt, empty for none.
	System string
	// Prompt is the user message.
	Prompt string
	// MaxTokens caps the response length; 0 means provider default.
	MaxTokens int
}

// Response is the completed text plus token accounting.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is the provider-agnostic LLM interface.
type Client interface {
	// Complete performs a blocking generation and returns the full response.
	Complete(ctx context.Context, req Request) (Response, error)
}

// ProviderFactory creates a Client for a given model name within a provider.
type ProviderFactory func(modelName string) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

// RegisterProvider registers a factory function for a named provider.
// Call this from init() in provider packages.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// ParseModelID splits a "provider:model-name" identifier. If no provider
// prefix is given, "anthropic" is assumed.
func ParseModelID(modelID string) (provider, modelName string, err error) {
	if modelID == "" {
		return "", "", fmt.Errorf("empty model ID")
	}
	provider, modelName, found := strings.Cut(modelID, ":")
	if !found {
		return "anthropic", modelID, nil
	}
	if provider == "" || modelName == "" {
		return "", "", fmt.Errorf("malformed model ID %q", modelID)
	}
	return provider, modelName, nil
}

// NewClient constructs a Client for the given model ID.
// Model IDs use the form "provider:model-name". If no provider prefix is given,
// "anthropic" is assumed.
func NewClient(modelID string) (Client, error) {
	provider, modelName, err := ParseModelID(modelID)
	if err != nil {
		return nil, fmt.Errorf("NewClient: %w", err)
	}
	registryMu.RLock()
	factory, ok := registry[provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no provider registered for %q (model ID %q) — did you import the provider package?", provider, modelID)
	}
	return factory(modelName)
}
