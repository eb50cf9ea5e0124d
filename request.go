package llm

// ResponseFormatKind selects how the model's output should be shaped.
type ResponseFormatKind string

const (
	ResponseFormatText       ResponseFormatKind = "text"
	ResponseFormatJSONObject ResponseFormatKind = "json_object"
	ResponseFormatJSONSchema ResponseFormatKind = "json_schema"
)

// ResponseFormat constrains the model's output.
type ResponseFormat struct {
	Kind ResponseFormatKind
	// Name, Schema, and Strict apply only when Kind == ResponseFormatJSONSchema.
	Name   string
	Schema map[string]any
	Strict bool
}

// RequestConfig holds the options applications can set on a Request.
// Zero values mean "use the provider's default" except where noted.
type RequestConfig struct {
	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Tools            []Tool
	ToolChoice       *ToolChoice
	ResponseFormat   *ResponseFormat
	StopSequences    []string
	// Metadata is an escape hatch for vendor-specific overrides not yet
	// modeled as first-class options. Keys are provider-prefixed, e.g.
	// "anthropic:cache_ttl". Treat any real usage as a signal to promote
	// that option to a typed field instead.
	Metadata map[string]any
}

// Merge returns a copy of base with every non-nil/non-empty field of over
// applied on top. Field-by-field and explicit on purpose: reflection-based
// merging would hide exactly the provider-specific fields callers need to
// reason about when they set overrides.
func (base RequestConfig) Merge(over RequestConfig) RequestConfig {
	out := base
	if over.Temperature != nil {
		out.Temperature = over.Temperature
	}
	if over.MaxTokens != nil {
		out.MaxTokens = over.MaxTokens
	}
	if over.TopP != nil {
		out.TopP = over.TopP
	}
	if over.TopK != nil {
		out.TopK = over.TopK
	}
	if over.FrequencyPenalty != nil {
		out.FrequencyPenalty = over.FrequencyPenalty
	}
	if over.PresencePenalty != nil {
		out.PresencePenalty = over.PresencePenalty
	}
	if len(over.Tools) > 0 {
		out.Tools = over.Tools
	}
	if over.ToolChoice != nil {
		out.ToolChoice = over.ToolChoice
	}
	if over.ResponseFormat != nil {
		out.ResponseFormat = over.ResponseFormat
	}
	if len(over.StopSequences) > 0 {
		out.StopSequences = over.StopSequences
	}
	if len(over.Metadata) > 0 {
		merged := make(map[string]any, len(out.Metadata)+len(over.Metadata))
		for k, v := range out.Metadata {
			merged[k] = v
		}
		for k, v := range over.Metadata {
			merged[k] = v
		}
		out.Metadata = merged
	}
	return out
}

// Request is a single call to an LLM: a non-empty list of messages plus
// optional configuration.
type Request struct {
	Messages []Message
	Config   *RequestConfig
}

// config returns r.Config, or a zero-value RequestConfig if unset.
func (r Request) config() RequestConfig {
	if r.Config == nil {
		return RequestConfig{}
	}
	return *r.Config
}
