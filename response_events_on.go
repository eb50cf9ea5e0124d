//go:build events

package llm

import (
	"time"

	"github.com/google/uuid"
)

// EventScope identifies who an event is attributed to.
type EventScope struct {
	// User is set for caller-attributed events; when empty, the event is
	// attributed to System.
	User string
}

// SystemScope returns the System EventScope variant.
func SystemScope() EventScope { return EventScope{} }

// UserScope returns the User(id) EventScope variant.
func UserScope(id string) EventScope { return EventScope{User: id} }

// EventType is drawn from a closed vocabulary of business events this
// package can emit.
type EventType string

const (
	EventLLMRequest  EventType = "llm_request"
	EventLLMResponse EventType = "llm_response"
	EventLLMError    EventType = "llm_error"
	EventCacheHit    EventType = "cache_hit"
	EventCacheMiss   EventType = "cache_miss"
)

// BusinessEvent is a structured observability event emitted by a provider
// adapter. Only compiled in when the events build tag is set.
type BusinessEvent struct {
	ID        string
	Type      EventType
	Metadata  map[string]any
	CreatedAt time.Time
	Scope     EventScope
}

// Response is the normalized result of one call, with the optional Events
// field present because this build has the events feature enabled.
type Response struct {
	Content            string
	Role               MessageRole
	ToolCalls          []ToolCall
	StructuredResponse map[string]any
	Usage              TokenUsage
	FinishReason       FinishReason
	Events             []BusinessEvent
}

// EventsAccumulator collects the events one adapter call emits, at each of
// the four lifecycle positions, and attaches them to the Response at the end.
// On error there is no successful Response to own them, so the adapter
// attaches the accumulated events (usually just llm_request + llm_error) to
// the zero-value Response it returns alongside the error. Exported so
// provider adapters in their own packages can emit events through it.
type EventsAccumulator struct {
	scope  EventScope
	events []BusinessEvent
}

// NewEventsAccumulator starts a fresh accumulator scoped to scopeUser, or to
// System when scopeUser is empty.
func NewEventsAccumulator(scopeUser string) *EventsAccumulator {
	scope := EventScope{}
	if scopeUser != "" {
		scope = UserScope(scopeUser)
	}
	return &EventsAccumulator{scope: scope}
}

func (a *EventsAccumulator) append(typ EventType, metadata map[string]any) {
	a.events = append(a.events, BusinessEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Metadata:  metadata,
		CreatedAt: time.Now(),
		Scope:     a.scope,
	})
}

// RequestEvent records an llm_request event before the provider call.
func (a *EventsAccumulator) RequestEvent(provider, model string, messageCount int, hasTools bool, cacheBreakpoints int) {
	a.append(EventLLMRequest, map[string]any{
		"provider":          provider,
		"model":             model,
		"message_count":     messageCount,
		"has_tools":         hasTools,
		"cache_breakpoints": cacheBreakpoints,
	})
}

// ResponseEvent records an llm_response event after a successful call.
func (a *EventsAccumulator) ResponseEvent(provider, model string, usage TokenUsage, durationMs int64) {
	metadata := map[string]any{
		"provider":          provider,
		"model":             model,
		"prompt_tokens":     usage.Prompt,
		"completion_tokens": usage.Completion,
		"duration_ms":       durationMs,
	}
	if usage.CacheCreationTokens != nil {
		metadata["cache_creation_tokens"] = *usage.CacheCreationTokens
	}
	if usage.CacheReadTokens != nil {
		metadata["cache_read_tokens"] = *usage.CacheReadTokens
	}
	a.append(EventLLMResponse, metadata)
}

// CacheHit records a cache_hit event when a response reused cached input
// tokens.
func (a *EventsAccumulator) CacheHit(tokensSaved int, cacheType string) {
	a.append(EventCacheHit, map[string]any{
		"tokens_saved": tokensSaved,
		"cache_type":   cacheType,
	})
}

// ErrorEvent records an llm_error event after a failed call.
func (a *EventsAccumulator) ErrorEvent(provider string, category Category, statusCode int, durationMs int64) {
	a.append(EventLLMError, map[string]any{
		"provider":    provider,
		"category":    string(category),
		"status_code": statusCode,
		"duration_ms": durationMs,
	})
}

// AttachTo sets resp.Events to the events collected so far.
func (a *EventsAccumulator) AttachTo(resp *Response) {
	resp.Events = a.events
}
