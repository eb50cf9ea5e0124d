package llm

// Tool is a function the model may call.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the tool's arguments.
	Parameters map[string]any
}

// ToolChoiceKind selects how a provider should use the tools on a request.
type ToolChoiceKind string

const (
	ToolChoiceAuto     ToolChoiceKind = "auto"
	ToolChoiceNone     ToolChoiceKind = "none"
	ToolChoiceRequired ToolChoiceKind = "required"
	ToolChoiceSpecific ToolChoiceKind = "specific"
)

// ToolChoice controls tool-use behavior for a request.
type ToolChoice struct {
	Kind ToolChoiceKind
	// Name is set only when Kind == ToolChoiceSpecific.
	Name string
}

// Auto, NoTools, RequireTool, and SpecificTool construct the four
// ToolChoice variants.
func Auto() ToolChoice        { return ToolChoice{Kind: ToolChoiceAuto} }
func NoTools() ToolChoice     { return ToolChoice{Kind: ToolChoiceNone} }
func RequireTool() ToolChoice { return ToolChoice{Kind: ToolChoiceRequired} }
func SpecificTool(name string) ToolChoice {
	return ToolChoice{Kind: ToolChoiceSpecific, Name: name}
}
