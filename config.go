package llm

import (
	"net/url"
	"time"
)

// ProviderKind names which wire protocol an adapter speaks.
type ProviderKind string

const (
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOpenAI    ProviderKind = "openai"
	ProviderOllama    ProviderKind = "ollama"
	ProviderLMStudio  ProviderKind = "lmstudio"
)

// AnthropicConfig configures the Anthropic adapter.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional override, defaults to the vendor SDK's default
	// APIVersion is sent as the anthropic-version header.
	APIVersion string
	// EnableExtendedCache makes CacheExtended hints emit the one-hour
	// ttl field; without it, CacheExtended hints degrade to CacheEphemeral.
	// No anthropic-beta header is sent either way.
	EnableExtendedCache bool
}

func (c AnthropicConfig) validate() error {
	if c.APIKey == "" {
		return NewConfigurationError("anthropic: api key must not be empty")
	}
	if c.Model == "" {
		return NewConfigurationError("anthropic: model must not be empty")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return NewConfigurationError("anthropic: base_url is not a valid URL: " + err.Error())
		}
	}
	return nil
}

// OpenAIConfig configures the OpenAI adapter, and doubles as the shape for
// any OpenAI-compatible endpoint when BaseURL is set.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
}

func (c OpenAIConfig) validate() error {
	if c.APIKey == "" {
		return NewConfigurationError("openai: api key must not be empty")
	}
	if c.Model == "" {
		return NewConfigurationError("openai: model must not be empty")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return NewConfigurationError("openai: base_url is not a valid URL: " + err.Error())
		}
	}
	return nil
}

// OllamaConfig configures the Ollama adapter, which speaks the OpenAI-
// compatible surface against a local server and needs no API key.
type OllamaConfig struct {
	Model   string
	BaseURL string // e.g. "http://localhost:11434/v1"
}

func (c OllamaConfig) validate() error {
	if c.Model == "" {
		return NewConfigurationError("ollama: model must not be empty")
	}
	if c.BaseURL == "" {
		return NewConfigurationError("ollama: base_url must not be empty")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return NewConfigurationError("ollama: base_url is not a valid URL: " + err.Error())
	}
	return nil
}

// LMStudioConfig configures the LM Studio adapter, another local
// OpenAI-compatible server.
type LMStudioConfig struct {
	Model   string
	BaseURL string // e.g. "http://localhost:1234/v1"
}

func (c LMStudioConfig) validate() error {
	if c.Model == "" {
		return NewConfigurationError("lmstudio: model must not be empty")
	}
	if c.BaseURL == "" {
		return NewConfigurationError("lmstudio: base_url must not be empty")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return NewConfigurationError("lmstudio: base_url is not a valid URL: " + err.Error())
	}
	return nil
}

// ProviderConfig is a closed tagged union over the four supported provider
// configurations. Exactly one of the pointer fields should be set; use the
// With* constructors rather than the struct literal.
type ProviderConfig struct {
	Kind     ProviderKind
	Anthropic *AnthropicConfig
	OpenAI    *OpenAIConfig
	Ollama    *OllamaConfig
	LMStudio  *LMStudioConfig

	Retry          RetryPolicy
	CircuitBreaker CircuitBreakerConfig
	// RequestTimeout bounds a single HTTP call, independent of retries.
	RequestTimeout time.Duration
}

// WithAnthropic builds a ProviderConfig wrapping an AnthropicConfig, with
// default retry/circuit-breaker/timeout settings.
func WithAnthropic(c AnthropicConfig) ProviderConfig {
	return ProviderConfig{Kind: ProviderAnthropic, Anthropic: &c, Retry: DefaultRetryPolicy(), CircuitBreaker: DefaultCircuitBreakerConfig(), RequestTimeout: 60 * time.Second}
}

// WithOpenAI builds a ProviderConfig wrapping an OpenAIConfig.
func WithOpenAI(c OpenAIConfig) ProviderConfig {
	return ProviderConfig{Kind: ProviderOpenAI, OpenAI: &c, Retry: DefaultRetryPolicy(), CircuitBreaker: DefaultCircuitBreakerConfig(), RequestTimeout: 60 * time.Second}
}

// WithOllama builds a ProviderConfig wrapping an OllamaConfig.
func WithOllama(c OllamaConfig) ProviderConfig {
	return ProviderConfig{Kind: ProviderOllama, Ollama: &c, Retry: DefaultRetryPolicy(), CircuitBreaker: DefaultCircuitBreakerConfig(), RequestTimeout: 120 * time.Second}
}

// WithLMStudio builds a ProviderConfig wrapping an LMStudioConfig.
func WithLMStudio(c LMStudioConfig) ProviderConfig {
	return ProviderConfig{Kind: ProviderLMStudio, LMStudio: &c, Retry: DefaultRetryPolicy(), CircuitBreaker: DefaultCircuitBreakerConfig(), RequestTimeout: 120 * time.Second}
}

// validate checks the selected variant's own invariants, and that exactly
// one variant is populated.
func (c ProviderConfig) validate() error {
	set := 0
	if c.Anthropic != nil {
		set++
	}
	if c.OpenAI != nil {
		set++
	}
	if c.Ollama != nil {
		set++
	}
	if c.LMStudio != nil {
		set++
	}
	if set != 1 {
		return NewConfigurationError("provider config must set exactly one of Anthropic, OpenAI, Ollama, LMStudio")
	}

	mismatch := NewConfigurationError("provider config kind " + string(c.Kind) + " does not match the populated variant")
	switch c.Kind {
	case ProviderAnthropic:
		if c.Anthropic == nil {
			return mismatch
		}
		return c.Anthropic.validate()
	case ProviderOpenAI:
		if c.OpenAI == nil {
			return mismatch
		}
		return c.OpenAI.validate()
	case ProviderOllama:
		if c.Ollama == nil {
			return mismatch
		}
		return c.Ollama.validate()
	case ProviderLMStudio:
		if c.LMStudio == nil {
			return mismatch
		}
		return c.LMStudio.validate()
	default:
		return NewConfigurationError("provider config has unrecognized kind " + string(c.Kind))
	}
}
