package llm

import "encoding/json"

// MessageRole identifies who produced a Message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// MessageContent is the sum type a Message carries: exactly one of Text,
// ToolCallContent, or ToolResultContent. The unexported method closes the
// set to this package so callers can't invent new content kinds that the
// provider conversions don't know how to translate.
type MessageContent interface {
	isMessageContent()
}

// Text is a plain text message body.
type Text string

func (Text) isMessageContent() {}

// ToolCallContent is an assistant-initiated function invocation.
type ToolCallContent struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

func (ToolCallContent) isMessageContent() {}

// ToolResultContent is the outcome of a prior ToolCallContent.
type ToolResultContent struct {
	ToolCallID string
	Content    string
	IsError    bool
}

func (ToolResultContent) isMessageContent() {}

// CacheType selects the TTL tier of a cache-control hint.
type CacheType string

const (
	// CacheEphemeral is Anthropic's short-lived (~5 minute) cache tier.
	CacheEphemeral CacheType = "ephemeral"
	// CacheExtended is Anthropic's long-lived (~1 hour) cache tier.
	CacheExtended CacheType = "extended"
)

// CacheControl marks a message as a caching breakpoint candidate. Providers
// that don't support prompt caching drop this hint silently.
type CacheControl struct {
	Type CacheType
}

// Attributes carries per-message metadata that isn't part of the content
// itself.
type Attributes struct {
	CacheControl *CacheControl
	Priority     int
	Metadata     map[string]any
}

// Message is a single conversational turn.
type Message struct {
	Role       MessageRole
	Content    MessageContent
	Attributes Attributes
}

// UserText builds a plain-text user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: Text(text)}
}

// SystemText builds a plain-text system message.
func SystemText(text string) Message {
	return Message{Role: RoleSystem, Content: Text(text)}
}

// AssistantText builds a plain-text assistant message.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: Text(text)}
}

// AssistantToolCall builds an assistant message that invoked a tool.
func AssistantToolCall(id, name string, args json.RawMessage) Message {
	return Message{
		Role:    RoleAssistant,
		Content: ToolCallContent{ID: id, Name: name, Arguments: args},
	}
}

// ToolResultMessage builds a tool-role message carrying the result of a prior
// ToolCallContent.
func ToolResultMessage(toolCallID, content string, isError bool) Message {
	return Message{
		Role:    RoleTool,
		Content: ToolResultContent{ToolCallID: toolCallID, Content: content, IsError: isError},
	}
}

// WithCacheControl returns a copy of m with a cache-control hint attached.
func (m Message) WithCacheControl(t CacheType) Message {
	m.Attributes.CacheControl = &CacheControl{Type: t}
	return m
}

// WithMetadata returns a copy of m with a metadata key set.
func (m Message) WithMetadata(key string, value any) Message {
	md := make(map[string]any, len(m.Attributes.Metadata)+1)
	for k, v := range m.Attributes.Metadata {
		md[k] = v
	}
	md[key] = value
	m.Attributes.Metadata = md
	return m
}

// validate enforces the role/content pairing invariant: a ToolCallContent
// message must be Assistant, and a ToolResultContent message must be Tool.
func (m Message) validate() error {
	switch m.Content.(type) {
	case ToolCallContent:
		if m.Role != RoleAssistant {
			return &Error{
				category: CategoryValidation,
				message:  "a ToolCallContent message must have role Assistant",
			}
		}
	case ToolResultContent:
		if m.Role != RoleTool {
			return &Error{
				category: CategoryValidation,
				message:  "a ToolResultContent message must have role Tool",
			}
		}
	case nil:
		return &Error{category: CategoryValidation, message: "message content must not be nil"}
	}
	return nil
}
