// Package llm is a provider-agnostic client for chat-style LLM backends.
//
// Callers build a Request once from unified Message values and dispatch it
// to any configured provider (OpenAI, Anthropic, Ollama, LM Studio) through a
// Dispatcher. Each provider's adapter translates to and from that vendor's
// wire format and returns a unified Response; the Dispatcher runs each call
// through a classified retry and circuit-breaker wrapper.
//
// Streaming, rate limiting, response caching, and prompt templating are not
// part of this package; callers that need them own those concerns
// themselves.
package llm
