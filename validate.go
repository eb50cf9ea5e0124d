package llm

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateRequest checks the structural invariants required of every
// Request before it reaches a provider adapter: non-empty messages,
// per-message role/content validity, System messages preceding any
// non-System message, tool-call/tool-result referential integrity, unique
// tool names, and a resolvable ToolChoice target.
func ValidateRequest(req Request) error {
	if len(req.Messages) == 0 {
		return NewValidationError("request must contain at least one message")
	}

	sawNonSystem := false
	toolCallIDs := make(map[string]bool)

	for i, m := range req.Messages {
		if err := m.validate(); err != nil {
			return err
		}

		if m.Role == RoleSystem {
			if sawNonSystem {
				return NewValidationError(fmt.Sprintf("message %d: system messages must precede all other messages", i))
			}
		} else {
			sawNonSystem = true
		}

		switch c := m.Content.(type) {
		case ToolCallContent:
			toolCallIDs[c.ID] = true
		case ToolResultContent:
			if !toolCallIDs[c.ToolCallID] {
				return NewValidationError(fmt.Sprintf("message %d: tool result references unknown tool_call_id %q", i, c.ToolCallID))
			}
		}
	}

	cfg := req.config()

	if err := validateTools(cfg.Tools); err != nil {
		return err
	}

	if cfg.ToolChoice != nil && cfg.ToolChoice.Kind != ToolChoiceNone && len(cfg.Tools) == 0 {
		return NewValidationError(fmt.Sprintf("tool_choice %q requires at least one tool, but the request's tool list is empty", cfg.ToolChoice.Kind))
	}

	if cfg.ToolChoice != nil && cfg.ToolChoice.Kind == ToolChoiceSpecific {
		found := false
		for _, t := range cfg.Tools {
			if t.Name == cfg.ToolChoice.Name {
				found = true
				break
			}
		}
		if !found {
			return NewValidationError(fmt.Sprintf("tool_choice names %q, which is not among the request's tools", cfg.ToolChoice.Name))
		}
	}

	return nil
}

// validateTools checks tool-name uniqueness and that each tool's Parameters
// is a well-formed JSON Schema object.
func validateTools(tools []Tool) error {
	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			return NewValidationError("tool name must not be empty")
		}
		if seen[t.Name] {
			return NewValidationError(fmt.Sprintf("duplicate tool name %q", t.Name))
		}
		seen[t.Name] = true

		if t.Parameters == nil {
			continue
		}
		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Parameters)); err != nil {
			return NewValidationError(fmt.Sprintf("tool %q: parameters is not a valid JSON Schema: %v", t.Name, err))
		}
	}
	return nil
}

// ValidateToolArguments checks that a tool call's arguments satisfy the
// named tool's declared JSON Schema, reporting a mismatch as a ResponseParse
// error. No adapter calls it: tool calls in a Response carry the arguments
// exactly as the provider returned them, and callers validate them with this
// function when they need to.
func ValidateToolArguments(tool Tool, arguments json.RawMessage) error {
	if tool.Parameters == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(tool.Parameters)
	docLoader := gojsonschema.NewBytesLoader(arguments)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return NewResponseParseError("", fmt.Sprintf("tool %q: arguments could not be validated against schema: %v", tool.Name, err), err)
	}
	if !result.Valid() {
		return NewResponseParseError("", fmt.Sprintf("tool %q: arguments do not satisfy declared schema: %v", tool.Name, result.Errors()), nil)
	}
	return nil
}
