// Package anthropic adapts the unified llm request/response model onto
// Anthropic's Messages API via the go-anthropic/v2 SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	vendor "github.com/liushuangls/go-anthropic/v2"

	llm "github.com/corvidai/llmbridge"
	"github.com/corvidai/llmbridge/providers/wireerr"
)

const defaultMaxTokens = 4096

// Adapter implements llm.Adapter against the Anthropic Messages API.
type Adapter struct {
	client *vendor.Client
	model  string
	cfg    llm.AnthropicConfig
}

// New builds an Anthropic adapter from cfg. It does not itself validate cfg;
// callers register it through a Dispatcher, which validates on Register.
func New(cfg llm.AnthropicConfig) *Adapter {
	opts := []vendor.ClientOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, vendor.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, vendor.WithAPIVersion(vendor.APIVersion(cfg.APIVersion)))
	}

	client := vendor.NewClient(cfg.APIKey, opts...)

	return &Adapter{client: client, model: cfg.Model, cfg: cfg}
}

func (a *Adapter) ProviderName() string { return "anthropic" }

func (a *Adapter) SupportsTools() bool   { return true }
func (a *Adapter) SupportsCaching() bool { return true }

// SupportsStructuredOutput is true even though Anthropic has no native
// json_schema response mode: Execute honors ResponseFormatJSONSchema via a
// system-instruction fallback (jsonSchemaSystemPart) and an opportunistic
// parse of the reply, so the dispatcher's capability gate must let the
// request through rather than reject it before this adapter ever sees it.
func (a *Adapter) SupportsStructuredOutput() bool { return true }

// Execute sends one request to Anthropic and returns the normalized Response.
func (a *Adapter) Execute(ctx context.Context, req llm.Request) (llm.Response, error) {
	start := time.Now()
	cfg := requestConfig(req)
	events := llm.NewEventsAccumulator(scopeUserFrom(cfg))

	systemParts, messages, err := a.toWireMessages(req.Messages)
	if err != nil {
		return llm.Response{}, err
	}

	if cfg.ResponseFormat != nil && cfg.ResponseFormat.Kind == llm.ResponseFormatJSONSchema {
		systemParts = append(systemParts, jsonSchemaSystemPart(cfg.ResponseFormat))
	}

	wireReq := vendor.MessagesRequest{
		Model:     vendor.Model(a.model),
		Messages:  messages,
		MaxTokens: defaultMaxTokens,
	}
	if cfg.MaxTokens != nil {
		wireReq.MaxTokens = *cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		t := float32(*cfg.Temperature)
		wireReq.Temperature = &t
	}
	if cfg.TopP != nil {
		p := float32(*cfg.TopP)
		wireReq.TopP = &p
	}
	if cfg.TopK != nil {
		wireReq.TopK = cfg.TopK
	}
	if len(cfg.StopSequences) > 0 {
		wireReq.StopSequences = cfg.StopSequences
	}
	if len(systemParts) > 0 {
		wireReq.MultiSystem = systemParts
	}

	if len(cfg.Tools) > 0 && (cfg.ToolChoice == nil || cfg.ToolChoice.Kind != llm.ToolChoiceNone) {
		wireReq.Tools = toWireTools(cfg.Tools)
		wireReq.ToolChoice = toWireToolChoice(cfg.ToolChoice)
	}

	events.RequestEvent(a.ProviderName(), a.model, len(req.Messages), len(cfg.Tools) > 0, countCacheBreakpoints(req.Messages))

	resp, err := a.client.CreateMessages(ctx, wireReq)
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

	result := fromWireResponse(resp)
	events.ResponseEvent(a.ProviderName(), a.model, result.Usage, time.Since(start).Milliseconds())
	if result.Usage.CacheReadTokens != nil && *result.Usage.CacheReadTokens > 0 {
		cacheType := "ephemeral"
		if a.cfg.EnableExtendedCache {
			cacheType = "extended"
		}
		events.CacheHit(*result.Usage.CacheReadTokens, cacheType)
	}
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

// countCacheBreakpoints counts how many messages in msgs carry a cache
// control hint, for the llm_request event's cache_breakpoints field.
func countCacheBreakpoints(msgs []llm.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Attributes.CacheControl != nil {
			n++
		}
	}
	return n
}

func requestConfig(req llm.Request) llm.RequestConfig {
	if req.Config == nil {
		return llm.RequestConfig{}
	}
	return *req.Config
}

// toWireMessages converts the unified Message slice into Anthropic's system
// parts array plus turn-structured Message array. Adjacent system messages
// collapse into one array entry each (preserving any cache-control hint);
// assistant text/tool_use blocks and tool results round-trip through the
// content-block array the way Anthropic requires.
func (a *Adapter) toWireMessages(msgs []llm.Message) ([]vendor.MessageSystemPart, []vendor.Message, error) {
	var system []vendor.MessageSystemPart
	var out []vendor.Message
	prevAssistantHadToolCalls := false

	for i, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			text, _ := m.Content.(llm.Text)
			part := vendor.MessageSystemPart{Type: "text", Text: string(text)}
			if cc := a.cacheControlFor(m); cc != nil {
				part.CacheControl = cc
			}
			system = append(system, part)
			prevAssistantHadToolCalls = false

		case llm.RoleUser:
			switch c := m.Content.(type) {
			case llm.ToolResultContent:
				content := c.Content
				if content == "" {
					content = "{}"
				}
				block := vendor.NewToolResultMessageContent(c.ToolCallID, content, c.IsError)
				if cc := a.cacheControlFor(m); cc != nil {
					block.CacheControl = cc
				}
				out = append(out, vendor.Message{Role: vendor.RoleUser, Content: []vendor.MessageContent{block}})
			default:
				text, _ := m.Content.(llm.Text)
				block := vendor.NewTextMessageContent(string(text))
				if cc := a.cacheControlFor(m); cc != nil {
					block.CacheControl = cc
				}
				out = append(out, vendor.Message{Role: vendor.RoleUser, Content: []vendor.MessageContent{block}})
			}
			prevAssistantHadToolCalls = false

		case llm.RoleAssistant:
			var content []vendor.MessageContent
			switch c := m.Content.(type) {
			case llm.ToolCallContent:
				block := vendor.NewToolUseMessageContent(c.ID, c.Name, json.RawMessage(c.Arguments))
				content = append(content, block)
				prevAssistantHadToolCalls = true
			default:
				text, _ := m.Content.(llm.Text)
				if text != "" {
					content = append(content, vendor.NewTextMessageContent(string(text)))
				}
				prevAssistantHadToolCalls = false
			}
			if cc := a.cacheControlFor(m); cc != nil && len(content) > 0 {
				content[len(content)-1].CacheControl = cc
			}
			out = append(out, vendor.Message{Role: vendor.RoleAssistant, Content: content})

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
			block := vendor.NewToolResultMessageContent(c.ToolCallID, content, c.IsError)
			out = append(out, vendor.Message{Role: vendor.RoleUser, Content: []vendor.MessageContent{block}})
			if i+1 < len(msgs) && msgs[i+1].Role == llm.RoleAssistant {
				prevAssistantHadToolCalls = false
			}
		}
	}

	return system, out, nil
}

// cacheControlFor maps a Message's cache hint onto Anthropic's wire
// representation. Extended (one-hour) breakpoints only emit the ttl field
// when the adapter was configured with EnableExtendedCache; otherwise an
// extended hint degrades to the plain five-minute ephemeral tier, since the
// account may not have the long-lived cache feature enabled.
func (a *Adapter) cacheControlFor(m llm.Message) *vendor.MessageCacheControl {
	if m.Attributes.CacheControl == nil {
		return nil
	}
	switch m.Attributes.CacheControl.Type {
	case llm.CacheExtended:
		if a.cfg.EnableExtendedCache {
			return &vendor.MessageCacheControl{Type: vendor.CacheControlTypeEphemeral, TTL: "1h"}
		}
		return &vendor.MessageCacheControl{Type: vendor.CacheControlTypeEphemeral}
	default:
		return &vendor.MessageCacheControl{Type: vendor.CacheControlTypeEphemeral}
	}
}

func toWireTools(tools []llm.Tool) []vendor.ToolDefinition {
	defs := make([]vendor.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, vendor.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return defs
}

func toWireToolChoice(tc *llm.ToolChoice) *vendor.ToolChoice {
	if tc == nil {
		return nil
	}
	switch tc.Kind {
	case llm.ToolChoiceNone:
		return nil // Anthropic has no explicit "none"; omitting tools achieves it upstream
	case llm.ToolChoiceRequired:
		return &vendor.ToolChoice{Type: vendor.ToolChoiceTypeAny}
	case llm.ToolChoiceSpecific:
		return &vendor.ToolChoice{Type: vendor.ToolChoiceTypeTool, Name: tc.Name}
	default:
		return &vendor.ToolChoice{Type: vendor.ToolChoiceTypeAuto}
	}
}

// jsonSchemaSystemPart builds the fallback instruction used when the caller
// asks for structured output: Anthropic has no native json_schema response
// format, so we ask for compliant JSON via a system instruction and parse
// the first JSON object out of the reply.
func jsonSchemaSystemPart(rf *llm.ResponseFormat) vendor.MessageSystemPart {
	schemaJSON, _ := json.Marshal(rf.Schema)
	return vendor.MessageSystemPart{
		Type: "text",
		Text: "Respond with a single JSON object only, matching this JSON Schema exactly, with no surrounding prose: " + string(schemaJSON),
	}
}

func fromWireResponse(resp vendor.MessagesResponse) llm.Response {
	var text strings.Builder
	var toolCalls []llm.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case vendor.MessagesContentTypeText:
			if block.Text != nil {
				text.WriteString(*block.Text)
			}
		case "tool_use":
			if block.MessageContentToolUse != nil {
				toolCalls = append(toolCalls, llm.ToolCall{
					ID:        block.ID,
					Name:      block.Name,
					Arguments: block.Input,
				})
			}
		}
	}

	finish := llm.FinishStop
	switch {
	case len(toolCalls) > 0:
		finish = llm.FinishToolCalls
	case string(resp.StopReason) == "max_tokens":
		finish = llm.FinishLength
	case string(resp.StopReason) == "content_filtered":
		finish = llm.FinishContentFilter
	case resp.StopReason != "" && resp.StopReason != vendor.MessagesStopReasonEndTurn:
		finish = llm.OtherFinishReason(string(resp.StopReason))
	}

	usage := llm.TokenUsage{
		Prompt:     resp.Usage.InputTokens,
		Completion: resp.Usage.OutputTokens,
		Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
	if resp.Usage.CacheCreationInputTokens > 0 {
		v := resp.Usage.CacheCreationInputTokens
		usage.CacheCreationTokens = &v
	}
	if resp.Usage.CacheReadInputTokens > 0 {
		v := resp.Usage.CacheReadInputTokens
		usage.CacheReadTokens = &v
	}

	var structured map[string]any
	if len(toolCalls) == 0 {
		if obj, ok := tryParseJSONObject(text.String()); ok {
			structured = obj
		}
	}

	return llm.Response{
		Content:            text.String(),
		Role:               llm.RoleAssistant,
		ToolCalls:          toolCalls,
		StructuredResponse: structured,
		Usage:              usage,
		FinishReason:       finish,
	}
}

// tryParseJSONObject looks for the first top-level JSON object in s. Used
// only to opportunistically populate StructuredResponse; callers that care
// about structured output should validate the result themselves.
func tryParseJSONObject(s string) (map[string]any, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}
	var obj map[string]any
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}

