//go:build !events

package llm

// Response is the normalized result of one call. Built without the events
// feature: no Events field exists on this struct at all, and this build
// carries no dependency on time/uuid for event stamping.
type Response struct {
	Content            string
	Role               MessageRole
	ToolCalls          []ToolCall
	StructuredResponse map[string]any
	Usage              TokenUsage
	FinishReason       FinishReason
}

// EventsAccumulator collects the events an adapter call would emit. In
// builds without the events feature it does nothing and costs nothing.
type EventsAccumulator struct{}

// NewEventsAccumulator returns a no-op accumulator; scopeUser is ignored.
func NewEventsAccumulator(scopeUser string) *EventsAccumulator { return &EventsAccumulator{} }

func (a *EventsAccumulator) RequestEvent(provider, model string, messageCount int, hasTools bool, cacheBreakpoints int) {
}

func (a *EventsAccumulator) ResponseEvent(provider, model string, usage TokenUsage, durationMs int64) {
}

func (a *EventsAccumulator) CacheHit(tokensSaved int, cacheType string) {}

func (a *EventsAccumulator) ErrorEvent(provider string, category Category, statusCode int, durationMs int64) {
}

// AttachTo is a no-op: there is no Events field to populate.
func (a *EventsAccumulator) AttachTo(resp *Response) {}
