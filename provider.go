package llm

import "context"

// Adapter is the interface a provider package implements to plug into a
// Dispatcher. Each adapter owns the wire-format conversion for exactly one
// provider family; retry and circuit-breaking are applied by the dispatcher
// around Execute, not by the adapter itself.
type Adapter interface {
	// Execute sends one request and returns the normalized Response.
	Execute(ctx context.Context, req Request) (Response, error)

	// ProviderName identifies the adapter for error/event attribution.
	ProviderName() string

	// SupportsTools reports whether this adapter can honor Tools/ToolChoice.
	SupportsTools() bool
	// SupportsCaching reports whether this adapter honors CacheControl hints.
	SupportsCaching() bool
	// SupportsStructuredOutput reports whether this adapter honors a JSON
	// Schema ResponseFormat, either natively or via a fallback prompt
	// strategy.
	SupportsStructuredOutput() bool
}

// Capabilities snapshots an Adapter's feature flags for callers who want to
// branch without holding a reference to the adapter itself.
type Capabilities struct {
	Tools             bool
	Caching           bool
	StructuredOutput  bool
}

// CapabilitiesOf reads a's three capability flags into a Capabilities value.
func CapabilitiesOf(a Adapter) Capabilities {
	return Capabilities{
		Tools:            a.SupportsTools(),
		Caching:          a.SupportsCaching(),
		StructuredOutput: a.SupportsStructuredOutput(),
	}
}
