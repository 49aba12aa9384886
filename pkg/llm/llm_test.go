package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voxkit/flowsync/pkg/llm"
)

func TestParseModelID(t *testing.T) {
	cases := []struct {
		in             string
		provider, name string
		wantErr        bool
	}{
		{in: "anthropic:claude-sonnet-4-6", provider: "anthropic", name: "claude-sonnet-4-6"},
		{in: "openai:gpt-4o", provider: "openai", name: "gpt-4o"},
		{in: "claude-sonnet-4-6", provider: "anthropic", name: "claude-sonnet-4-6"},
		{in: "", wantErr: true},
		{in: ":model", wantErr: true},
		{in: "provider:", wantErr: true},
	}
	for _, tc := range cases {
		p, n, err := llm.ParseModelID(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseModelID(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseModelID(%q): %v", tc.in, err)
			continue
		}
		if p != tc.provider || n != tc.name {
			t.Errorf("ParseModelID(%q) = %q, %q", tc.in, p, n)
		}
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := llm.NewClient("nosuch:model"); err == nil {
		t.Error("expected error for unregistered provider")
	}
}

func TestRetryable(t *testing.T) {
	rl := &llm.RateLimitError{LLMError: llm.LLMError{Code: 429, Message: "slow down"}}
	if !llm.Retryable(rl) {
		t.Error("rate limit must be retryable")
	}
	auth := &llm.AuthError{LLMError: llm.LLMError{Code: 401, Message: "bad key"}}
	if llm.Retryable(auth) {
		t.Error("auth errors must not be retryable")
	}
	if llm.Retryable(errors.New("misc")) {
		t.Error("plain errors must not be retryable")
	}
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := llm.WithRetry(context.Background(), 4, func() error {
		calls++
		return &llm.AuthError{LLMError: llm.LLMError{Code: 401, Message: "bad key"}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := llm.WithRetry(context.Background(), 3, func() error {
		calls++
		if calls == 1 {
			return &llm.ServerError{LLMError: llm.LLMError{Code: 503, Message: "overloaded"}}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
