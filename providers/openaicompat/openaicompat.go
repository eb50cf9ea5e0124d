// Package openaicompat adapts the unified llm request/response model onto
// any OpenAI-compatible chat completions endpoint: OpenAI itself, Ollama,
// and LM Studio all speak this wire format, differing only in auth and base
// URL.
package openaicompat

import (
	"context"
	"encoding/json"
	"time"

	vendor "github.com/meguminnnnnnnnn/go-openai"

	llm "github.com/corvidai/llmbridge"
	"github.com/corvidai/llmbridge/providers/wireerr"
)

// Backend names which concrete provider this adapter instance is speaking
// to, purely for naming/capability purposes; the wire protocol is identical.
type Backend string

const (
	BackendOpenAI   Backend = "openai"
	BackendOllama   Backend = "ollama"
	BackendLMStudio Backend = "lmstudio"
)

// Adapter implements llm.Adapter against an OpenAI-compatible endpoint.
type Adapter struct {
	client  *vendor.Client
	model   string
	backend Backend

	// supportsTools is fail-closed: Ollama and LM Studio only expose tool
	// calling for specific models, and silently ignoring tools on a model
	// that can't honor them is worse than rejecting the request up front.
	supportsTools bool
}

// NewOpenAI builds an adapter against the real OpenAI API.
func NewOpenAI(cfg llm.OpenAIConfig) *Adapter {
	conf := vendor.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if cfg.Organization != "" {
		conf.OrgID = cfg.Organization
	}
	return &Adapter{client: vendor.NewClientWithConfig(conf), model: cfg.Model, backend: BackendOpenAI, supportsTools: true}
}

// NewOllama builds an adapter against a local Ollama server's OpenAI-
// compatible surface. Ollama requires no API key.
func NewOllama(cfg llm.OllamaConfig, toolCapableModels map[string]bool) *Adapter {
	conf := vendor.DefaultConfig("ollama")
	conf.BaseURL = cfg.BaseURL
	return &Adapter{
		client:        vendor.NewClientWithConfig(conf),
		model:         cfg.Model,
		backend:       BackendOllama,
		supportsTools: toolCapableModels[cfg.Model],
	}
}

// NewLMStudio builds an adapter against a local LM Studio server.
func NewLMStudio(cfg llm.LMStudioConfig, toolCapableModels map[string]bool) *Adapter {
	conf := vendor.DefaultConfig("lm-studio")
	conf.BaseURL = cfg.BaseURL
	return &Adapter{
		client:        vendor.NewClientWithConfig(conf),
		model:         cfg.Model,
		backend:       BackendLMStudio,
		supportsTools: toolCapableModels[cfg.Model],
	}
}

func (a *Adapter) ProviderName() string { return string(a.backend) }

func (a *Adapter) SupportsTools() bool { return a.supportsTools }

// SupportsCaching is false everywhere this adapter runs: OpenAI has no
// prompt-caching hint API, and Ollama/LM Studio are single-process local
// servers with no cross-request cache to opt into. CacheControl hints are
// accepted and silently dropped.
func (a *Adapter) SupportsCaching() bool { return false }

// SupportsStructuredOutput is true only for the hosted OpenAI backend,
// which has a native response_format: json_schema mode; Ollama/LM Studio
// compatibility layers vary too widely in schema enforcement to trust.
func (a *Adapter) SupportsStructuredOutput() bool { return a.backend == BackendOpenAI }

// Execute sends one request and returns the normalized Response.
func (a *Adapter) Execute(ctx context.Context, req llm.Request) (llm.Response, error) {
	start := time.Now()
	cfg := requestConfig(req)
	events := llm.NewEventsAccumulator(scopeUserFrom(cfg))

	messages := toWireMessages(req.Messages)

	wireReq := vendor.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	}

	if cfg.MaxTokens != nil {
		wireReq.MaxTokens = *cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		t := float32(*cfg.Temperature)
		wireReq.Temperature = t
	}
	if cfg.TopP != nil {
		wireReq.TopP = float32(*cfg.TopP)
	}
	if cfg.FrequencyPenalty != nil {
		wireReq.FrequencyPenalty = float32(*cfg.FrequencyPenalty)
	}
	if cfg.PresencePenalty != nil {
		wireReq.PresencePenalty = float32(*cfg.PresencePenalty)
	}
	if len(cfg.StopSequences) > 0 {
		wireReq.Stop = cfg.StopSequences
	}

	if len(cfg.Tools) > 0 {
		wireReq.Tools = toWireTools(cfg.Tools)
		wireReq.ToolChoice = toWireToolChoice(cfg.ToolChoice)
	}

	if cfg.ResponseFormat != nil && a.SupportsStructuredOutput() {
		wireReq.ResponseFormat = toWireResponseFormat(cfg.ResponseFormat)
	}

	events.RequestEvent(a.ProviderName(), a.model, len(req.Messages), len(cfg.Tools) > 0, 0)

	resp, err := a.client.CreateChatCompletion(ctx, wireReq)
	if err != nil {
		status, retryAfter := wireerr.ExtractMetadata(err)
		wrapped := wireerr.Wrap(a.ProviderName(), status, retryAfter, err)
		category := llm.CategoryNetwork
		if llmErr, ok := llm.AsError(wrapped); ok {
			category = llmErr.Category()
		}
		events.ErrorEvent(a.ProviderName(), category, status, time.Since(start).Milliseconds())
		out := llm.Response{}
		events.AttachTo(&out)
		return out, wrapped
	}

	if len(resp.Choices) == 0 {
		parseErr := llm.NewResponseParseError(a.ProviderName(), "provider returned no choices", nil)
		events.ErrorEvent(a.ProviderName(), parseErr.Category(), 0, time.Since(start).Milliseconds())
		out := llm.Response{}
		events.AttachTo(&out)
		return out, parseErr
	}

	result := fromWireResponse(resp)
	events.ResponseEvent(a.ProviderName(), a.model, result.Usage, time.Since(start).Milliseconds())
	events.AttachTo(&result)
	return result, nil
}

// scopeUserFrom pulls an optional event-attribution user id out of the
// request's metadata escape hatch (key "event_scope_user"); absent or
// non-string values attribute emitted events to System.
func scopeUserFrom(cfg llm.RequestConfig) string {
	if v, ok := cfg.Metadata["event_scope_user"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requestConfig(req llm.Request) llm.RequestConfig {
	if req.Config == nil {
		return llm.RequestConfig{}
	}
	return *req.Config
}

// toWireMessages flattens the unified Message slice into OpenAI's flat
// chat-message array. System messages are kept in place (OpenAI tolerates a
// system message anywhere, unlike Anthropic); tool_calls/tool results
// round-trip via ID the way the vendor SDK expects.
func toWireMessages(msgs []llm.Message) []vendor.ChatCompletionMessage {
	out := make([]vendor.ChatCompletionMessage, 0, len(msgs))
	prevAssistantHadToolCalls := false

	for i, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			text, _ := m.Content.(llm.Text)
			out = append(out, vendor.ChatCompletionMessage{Role: vendor.ChatMessageRoleSystem, Content: string(text)})
			prevAssistantHadToolCalls = false

		case llm.RoleUser:
			text, _ := m.Content.(llm.Text)
			out = append(out, vendor.ChatCompletionMessage{Role: vendor.ChatMessageRoleUser, Content: string(text)})
			prevAssistantHadToolCalls = false

		case llm.RoleAssistant:
			switch c := m.Content.(type) {
			case llm.ToolCallContent:
				out = append(out, vendor.ChatCompletionMessage{
					Role:    vendor.ChatMessageRoleAssistant,
					Content: " ",
					ToolCalls: []vendor.ToolCall{{
						ID:   c.ID,
						Type: vendor.ToolTypeFunction,
						Function: vendor.FunctionCall{
							Name:      c.Name,
							Arguments: string(c.Arguments),
						},
					}},
				})
				prevAssistantHadToolCalls = true
			default:
				text, _ := m.Content.(llm.Text)
				content := string(text)
				if content == "" {
					content = " "
				}
				out = append(out, vendor.ChatCompletionMessage{Role: vendor.ChatMessageRoleAssistant, Content: content})
				prevAssistantHadToolCalls = false
			}

		case llm.RoleTool:
			if !prevAssistantHadToolCalls {
				continue
			}
			c, ok := m.Content.(llm.ToolResultContent)
			if !ok {
				continue
			}
			content := c.Content
			if content == "" {
				content = "{}"
			}
			out = append(out, vendor.ChatCompletionMessage{
				Role:       vendor.ChatMessageRoleTool,
				ToolCallID: c.ToolCallID,
				Content:    content,
			})
			if i+1 < len(msgs) && msgs[i+1].Role == llm.RoleAssistant {
				prevAssistantHadToolCalls = false
			}
		}
	}

	return out
}

func toWireTools(tools []llm.Tool) []vendor.Tool {
	out := make([]vendor.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, vendor.Tool{
			Type: vendor.ToolTypeFunction,
			Function: &vendor.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func toWireToolChoice(tc *llm.ToolChoice) any {
	if tc == nil {
		return "auto"
	}
	switch tc.Kind {
	case llm.ToolChoiceNone:
		return "none"
	case llm.ToolChoiceRequired:
		return "required"
	case llm.ToolChoiceSpecific:
		return vendor.ToolChoice{Type: vendor.ToolTypeFunction, Function: vendor.ToolFunction{Name: tc.Name}}
	default:
		return "auto"
	}
}

func toWireResponseFormat(rf *llm.ResponseFormat) *vendor.ChatCompletionResponseFormat {
	switch rf.Kind {
	case llm.ResponseFormatJSONObject:
		return &vendor.ChatCompletionResponseFormat{Type: vendor.ChatCompletionResponseFormatTypeJSONObject}
	case llm.ResponseFormatJSONSchema:
		return &vendor.ChatCompletionResponseFormat{
			Type: vendor.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &vendor.ChatCompletionResponseFormatJSONSchema{
				Name:   rf.Name,
				Schema: rf.Schema,
				Strict: rf.Strict,
			},
		}
	default:
		return nil
	}
}

func fromWireResponse(resp vendor.ChatCompletionResponse) llm.Response {
	choice := resp.Choices[0]

	var toolCalls []llm.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	finish := mapFinishReason(choice.FinishReason, len(toolCalls) > 0)

	usage := llm.TokenUsage{
		Prompt:     resp.Usage.PromptTokens,
		Completion: resp.Usage.CompletionTokens,
		Total:      resp.Usage.TotalTokens,
	}

	var structured map[string]any
	if len(toolCalls) == 0 && choice.Message.Content != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(choice.Message.Content), &obj); err == nil {
			structured = obj
		}
	}

	return llm.Response{
		Content:            choice.Message.Content,
		Role:               llm.RoleAssistant,
		ToolCalls:          toolCalls,
		StructuredResponse: structured,
		Usage:              usage,
		FinishReason:       finish,
	}
}

func mapFinishReason(reason vendor.FinishReason, hasToolCalls bool) llm.FinishReason {
	if hasToolCalls {
		return llm.FinishToolCalls
	}
	switch reason {
	case vendor.FinishReasonStop:
		return llm.FinishStop
	case vendor.FinishReasonLength:
		return llm.FinishLength
	case vendor.FinishReasonContentFilter:
		return llm.FinishContentFilter
	case vendor.FinishReasonToolCalls, vendor.FinishReasonFunctionCall:
		return llm.FinishToolCalls
	case "":
		return llm.FinishStop
	default:
		return llm.OtherFinishReason(string(reason))
	}
}

