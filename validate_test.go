package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequestRejectsEmptyMessages(t *testing.T) {
	err := ValidateRequest(Request{})
	require.Error(t, err)
}

func TestValidateRequestRejectsSystemAfterNonSystem(t *testing.T) {
	req := Request{Messages: []Message{
		UserText("hi"),
		SystemText("you are a helper"),
	}}
	err := ValidateRequest(req)
	require.Error(t, err)
}

func TestValidateRequestAllowsLeadingSystemMessages(t *testing.T) {
	req := Request{Messages: []Message{
		SystemText("you are a helper"),
		SystemText("be terse"),
		UserText("hi"),
	}}
	require.NoError(t, ValidateRequest(req))
}

func TestValidateRequestRejectsUnknownToolResultReference(t *testing.T) {
	req := Request{Messages: []Message{
		UserText("hi"),
		ToolResultMessage("call_missing", "42", false),
	}}
	err := ValidateRequest(req)
	require.Error(t, err)
}

func TestValidateRequestAcceptsMatchingToolCallAndResult(t *testing.T) {
	req := Request{Messages: []Message{
		UserText("what's the weather"),
		AssistantToolCall("call_1", "weather", []byte(`{"city":"nyc"}`)),
		ToolResultMessage("call_1", "72F", false),
	}}
	require.NoError(t, ValidateRequest(req))
}

func TestValidateRequestRejectsDuplicateToolNames(t *testing.T) {
	tool := Tool{Name: "search", Parameters: map[string]any{"type": "object"}}
	cfg := RequestConfig{Tools: []Tool{tool, tool}}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	err := ValidateRequest(req)
	require.Error(t, err)
}

func TestValidateRequestRejectsUnresolvableToolChoice(t *testing.T) {
	cfg := RequestConfig{
		Tools:      []Tool{{Name: "search"}},
		ToolChoice: &ToolChoice{Kind: ToolChoiceSpecific, Name: "does-not-exist"},
	}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	err := ValidateRequest(req)
	require.Error(t, err)
}

func TestValidateRequestRejectsRequiredToolChoiceWithNoTools(t *testing.T) {
	cfg := RequestConfig{ToolChoice: &ToolChoice{Kind: ToolChoiceRequired}}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	err := ValidateRequest(req)
	require.Error(t, err)
}

func TestValidateRequestRejectsAutoToolChoiceWithNoTools(t *testing.T) {
	cfg := RequestConfig{ToolChoice: &ToolChoice{Kind: ToolChoiceAuto}}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	err := ValidateRequest(req)
	require.Error(t, err)
}

func TestValidateRequestAllowsNoneToolChoiceWithNoTools(t *testing.T) {
	cfg := RequestConfig{ToolChoice: &ToolChoice{Kind: ToolChoiceNone}}
	req := Request{Messages: []Message{UserText("hi")}, Config: &cfg}

	require.NoError(t, ValidateRequest(req))
}

func TestValidateRequestAllowsNilToolChoiceWithNoTools(t *testing.T) {
	req := Request{Messages: []Message{UserText("hi")}}
	require.NoError(t, ValidateRequest(req))
}

func TestValidateToolArgumentsAgainstSchema(t *testing.T) {
	tool := Tool{
		Name: "weather",
		Parameters: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"city": map[string]any{"type": "string"}},
			"required":             []any{"city"},
			"additionalProperties": false,
		},
	}

	assert.NoError(t, ValidateToolArguments(tool, []byte(`{"city":"nyc"}`)))
	assert.Error(t, ValidateToolArguments(tool, []byte(`{}`)))
	assert.Error(t, ValidateToolArguments(tool, []byte(`{"city":"nyc","extra":true}`)))
}
