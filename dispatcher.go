package llm

import (
	"context"
	"sort"
	"time"
)

// registeredAdapter pairs an Adapter with the circuit breaker that guards
// it. Each named adapter gets its own breaker: a failing Anthropic instance
// should not throttle calls to a healthy OpenAI one.
type registeredAdapter struct {
	adapter Adapter
	breaker *circuitBreaker
	config  RequestConfig // default overrides applied under this name
	retry   RetryPolicy
	timeout time.Duration // bounds each individual attempt; 0 means no bound
}

// Dispatcher is the façade applications hold: a named registry of adapters,
// each independently retried and circuit-broken.
type Dispatcher struct {
	adapters    map[string]*registeredAdapter
	defaultName string
}

// NewDispatcher returns an empty Dispatcher. Use Register to add adapters.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{adapters: make(map[string]*registeredAdapter)}
}

// Register adds an adapter under name, with its own circuit breaker built
// from cfg. The first adapter registered becomes the default used by
// ExecuteDefault.
func (d *Dispatcher) Register(name string, adapter Adapter, cfg ProviderConfig, defaults RequestConfig) error {
	if name == "" {
		return NewConfigurationError("adapter name must not be empty")
	}
	if _, exists := d.adapters[name]; exists {
		return NewConfigurationError("adapter already registered under name " + name)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	d.adapters[name] = &registeredAdapter{
		adapter: adapter,
		breaker: newCircuitBreaker(cfg.CircuitBreaker),
		config:  defaults,
		retry:   cfg.Retry,
		timeout: cfg.RequestTimeout,
	}
	if d.defaultName == "" {
		d.defaultName = name
	}
	return nil
}

// Providers lists the registered adapter names, sorted for deterministic
// iteration.
func (d *Dispatcher) Providers() []string {
	names := make([]string, 0, len(d.adapters))
	for name := range d.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Capabilities returns the named adapter's capability flags.
func (d *Dispatcher) Capabilities(name string) (Capabilities, error) {
	ra, ok := d.adapters[name]
	if !ok {
		return Capabilities{}, NewConfigurationError("no adapter registered under name " + name)
	}
	return CapabilitiesOf(ra.adapter), nil
}

// Execute validates req, merges in the named adapter's registered default
// RequestConfig (req's own config wins field-by-field), and runs it through
// that adapter's circuit breaker and retry policy.
func (d *Dispatcher) Execute(ctx context.Context, name string, req Request, retry *RetryPolicy) (Response, error) {
	ra, ok := d.adapters[name]
	if !ok {
		return Response{}, NewConfigurationError("no adapter registered under name " + name)
	}

	merged := ra.config.Merge(req.config())
	effective := Request{Messages: req.Messages, Config: &merged}

	if err := ValidateRequest(effective); err != nil {
		return Response{}, err
	}

	if len(merged.Tools) > 0 && !ra.adapter.SupportsTools() {
		return Response{}, NewValidationError("tools not supported by this model")
	}
	if merged.ResponseFormat != nil && merged.ResponseFormat.Kind == ResponseFormatJSONSchema && !ra.adapter.SupportsStructuredOutput() {
		return Response{}, NewValidationError(ra.adapter.ProviderName() + " does not support structured output")
	}

	policy := ra.retry
	if retry != nil {
		policy = *retry
	}

	return runGuarded(ra.breaker, ra.adapter.ProviderName(), func() (Response, error) {
		return runWithRetry(ctx, policy, func(ctx context.Context) (Response, error) {
			attemptCtx := ctx
			if ra.timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, ra.timeout)
				defer cancel()
			}
			return ra.adapter.Execute(attemptCtx, effective)
		}, nil)
	})
}

// ExecuteDefault runs req against the first-registered adapter.
func (d *Dispatcher) ExecuteDefault(ctx context.Context, req Request, retry *RetryPolicy) (Response, error) {
	if d.defaultName == "" {
		return Response{}, NewConfigurationError("no adapters registered")
	}
	return d.Execute(ctx, d.defaultName, req, retry)
}
