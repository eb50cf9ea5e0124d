package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a minimal Adapter used to exercise the Dispatcher without
// any real provider wire format involved.
type fakeAdapter struct {
	name       string
	tools      bool
	caching    bool
	structured bool
	execute    func(ctx context.Context, req Request) (Response, error)
}

func (f *fakeAdapter) Execute(ctx context.Context, req Request) (Response, error) {
	return f.execute(ctx, req)
}
func (f *fakeAdapter) ProviderName() string           { return f.name }
func (f *fakeAdapter) SupportsTools() bool            { return f.tools }
func (f *fakeAdapter) SupportsCaching() bool          { return f.caching }
func (f *fakeAdapter) SupportsStructuredOutput() bool { return f.structured }

func TestDispatcherExecuteDefaultUsesFirstRegistered(t *testing.T) {
	d := NewDispatcher()
	adapter := &fakeAdapter{name: "primary", execute: func(ctx context.Context, req Request) (Response, error) {
		return Response{Content: "hi"}, nil
	}}

	require.NoError(t, d.Register("primary", adapter, WithOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-4o"}), RequestConfig{}))

	resp, err := d.ExecuteDefault(context.Background(), Request{Messages: []Message{UserText("hi")}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
}

func TestDispatcherRejectsUnregisteredAdapter(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Execute(context.Background(), "missing", Request{Messages: []Message{UserText("hi")}}, nil)
	require.Error(t, err)
}

func TestDispatcherRejectsToolsWhenAdapterDoesNotSupportThem(t *testing.T) {
	d := NewDispatcher()
	adapter := &fakeAdapter{name: "ollama", tools: false, execute: func(ctx context.Context, req Request) (Response, error) {
		return Response{}, nil
	}}
	require.NoError(t, d.Register("ollama", adapter, WithOllama(OllamaConfig{Model: "m", BaseURL: "http://localhost:11434/v1"}), RequestConfig{}))

	cfg := RequestConfig{Tools: []Tool{{Name: "search"}}}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	_, err := d.Execute(context.Background(), "ollama", req, nil)
	require.Error(t, err)

	llmErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryValidation, llmErr.Category())
}

func TestDispatcherRejectsJSONSchemaWhenAdapterDoesNotSupportIt(t *testing.T) {
	d := NewDispatcher()
	adapter := &fakeAdapter{name: "ollama", structured: false, execute: func(ctx context.Context, req Request) (Response, error) {
		return Response{}, nil
	}}
	require.NoError(t, d.Register("ollama", adapter, WithOllama(OllamaConfig{Model: "m", BaseURL: "http://localhost:11434/v1"}), RequestConfig{}))

	cfg := RequestConfig{ResponseFormat: &ResponseFormat{Kind: ResponseFormatJSONSchema, Name: "out"}}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	_, err := d.Execute(context.Background(), "ollama", req, nil)
	require.Error(t, err)

	llmErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryValidation, llmErr.Category())
}

func TestDispatcherAllowsJSONSchemaWhenAdapterSupportsItViaFallback(t *testing.T) {
	d := NewDispatcher()
	var received *ResponseFormat
	adapter := &fakeAdapter{name: "anthropic", structured: true, execute: func(ctx context.Context, req Request) (Response, error) {
		received = req.Config.ResponseFormat
		return Response{Content: "{}"}, nil
	}}
	require.NoError(t, d.Register("anthropic", adapter, WithAnthropic(AnthropicConfig{APIKey: "k", Model: "m"}), RequestConfig{}))

	cfg := RequestConfig{ResponseFormat: &ResponseFormat{Kind: ResponseFormatJSONSchema, Name: "out"}}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	_, err := d.Execute(context.Background(), "anthropic", req, nil)
	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, ResponseFormatJSONSchema, received.Kind)
}

func TestDispatcherAppliesPerAttemptTimeout(t *testing.T) {
	d := NewDispatcher()
	adapter := &fakeAdapter{name: "anthropic", execute: func(ctx context.Context, req Request) (Response, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "expected the per-attempt context to carry a deadline")
		return Response{}, nil
	}}

	cfg := WithAnthropic(AnthropicConfig{APIKey: "k", Model: "m"})
	cfg.RequestTimeout = 5 * time.Second
	require.NoError(t, d.Register("anthropic", adapter, cfg, RequestConfig{}))

	_, err := d.Execute(context.Background(), "anthropic", Request{Messages: []Message{UserText("hi")}}, nil)
	require.NoError(t, err)
}

func TestDispatcherPropagatesAdapterFailureThroughBreaker(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	adapter := &fakeAdapter{name: "anthropic", execute: func(ctx context.Context, req Request) (Response, error) {
		calls++
		return Response{}, NewValidationError("nope")
	}}
	require.NoError(t, d.Register("anthropic", adapter, WithAnthropic(AnthropicConfig{APIKey: "k", Model: "m"}), RequestConfig{}))

	policy := RetryPolicy{MaxAttempts: 3}
	_, err := d.Execute(context.Background(), "anthropic", Request{Messages: []Message{UserText("hi")}}, &policy)
	require.Error(t, err)
	assert.Equal(t, 1, calls) // validation errors are not retryable
}

func TestDispatcherMergesRegisteredDefaultsUnderRequestOverrides(t *testing.T) {
	d := NewDispatcher()
	var seenTemp *float64
	adapter := &fakeAdapter{name: "openai", execute: func(ctx context.Context, req Request) (Response, error) {
		seenTemp = req.Config.Temperature
		return Response{}, nil
	}}

	defaultTemp := 0.2
	defaults := RequestConfig{Temperature: &defaultTemp}
	require.NoError(t, d.Register("openai", adapter, WithOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-4o"}), defaults))

	overrideTemp := 0.9
	cfg := RequestConfig{Temperature: &overrideTemp}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	_, err := d.Execute(context.Background(), "openai", req, nil)
	require.NoError(t, err)
	require.NotNil(t, seenTemp)
	assert.Equal(t, 0.9, *seenTemp)
}

func TestDispatcherProvidersIsSortedAndComplete(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, req Request) (Response, error) { return Response{}, nil }

	require.NoError(t, d.Register("zeta", &fakeAdapter{name: "zeta", execute: noop}, WithOllama(OllamaConfig{Model: "m", BaseURL: "http://localhost:11434/v1"}), RequestConfig{}))
	require.NoError(t, d.Register("alpha", &fakeAdapter{name: "alpha", execute: noop}, WithOllama(OllamaConfig{Model: "m", BaseURL: "http://localhost:11434/v1"}), RequestConfig{}))

	assert.Equal(t, []string{"alpha", "zeta"}, d.Providers())
}

func TestDispatcherRejectsDuplicateRegistration(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, req Request) (Response, error) { return Response{}, nil }
	cfg := WithOllama(OllamaConfig{Model: "m", BaseURL: "http://localhost:11434/v1"})

	require.NoError(t, d.Register("a", &fakeAdapter{name: "a", execute: noop}, cfg, RequestConfig{}))
	err := d.Register("a", &fakeAdapter{name: "a", execute: noop}, cfg, RequestConfig{})
	require.Error(t, err)
}
