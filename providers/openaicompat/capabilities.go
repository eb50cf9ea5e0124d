package openaicompat

// DefaultOllamaToolModels lists the model families Ollama is known to expose
// function-calling support for, as of this package's writing. Ollama's tool
// support is a property of the model, not the server, so this is a
// best-effort allowlist rather than something the server can report; pass a
// custom map to NewOllama to override it for models not listed here.
// NewOllama looks the configured model name up by exact match, so a tagged
// name such as "llama3.1:8b" is not covered by its family's entry.
func DefaultOllamaToolModels() map[string]bool {
	return map[string]bool{
		"llama3.1":    true,
		"llama3.2":    true,
		"llama3.3":    true,
		"mistral":     true,
		"mistral-nemo": true,
		"qwen2.5":     true,
		"qwen2.5-coder": true,
		"firefunction-v2": true,
		"command-r":   true,
		"command-r-plus": true,
	}
}

// DefaultLMStudioToolModels lists model identifiers LM Studio's local
// OpenAI-compatible server is known to support tool calling for. LM Studio
// proxies whatever model the user has loaded, so this allowlist is
// necessarily incomplete; pass a custom map to NewLMStudio to extend it.
// NewLMStudio looks the configured model name up by exact match.
func DefaultLMStudioToolModels() map[string]bool {
	return map[string]bool{
		"qwen2.5-instruct":     true,
		"qwen2.5-coder-instruct": true,
		"llama-3.1-instruct":   true,
		"llama-3.2-instruct":   true,
		"hermes-3-llama-3.1":   true,
	}
}
