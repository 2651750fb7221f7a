package claude

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/ohblue/craft-agents-oss/normalize"
)

// ToolDescriptor declares one tool an MCP source offers, with a JSON schema
// for its input.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Source is an MCP tool source registered on a session. Tool names the
// upstream reports are canonicalized against the source name.
type Source struct {
	Name  string
	Tools []ToolDescriptor
}

// AddTool registers a tool whose input schema is derived from T's struct
// tags.
//
//	type grepParams struct {
//	    Pattern string `json:"pattern" jsonschema:"required,description=Regexp to search for"`
//	}
//	AddTool[grepParams](src, "grep", "Search the workspace")
func AddTool[T any](src *Source, name, description string) *Source {
	src.Tools = append(src.Tools, ToolDescriptor{
		Name:        name,
		Description: description,
		InputSchema: schemaFor[T](),
	})
	return src
}

// CanonicalToolNames returns the source's tool names in mcp__<source>__<tool>
// form.
func (s *Source) CanonicalToolNames() []string {
	names := make([]string, len(s.Tools))
	for i, tool := range s.Tools {
		names[i] = normalize.CanonicalToolName(tool.Name, s.Name)
	}
	return names
}

// schemaFor reflects T into an inlined JSON schema.
func schemaFor[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	var zero T
	schema := reflector.Reflect(zero)
	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("schema generation for %T: %v", zero, err))
	}
	return json.RawMessage(data)
}

// mcpConfig renders the --mcp-config payload declaring each source as an
// sdk-type server with its tool schemas.
func mcpConfig(sources []Source) (string, error) {
	if len(sources) == 0 {
		return "", nil
	}
	servers := make(map[string]interface{}, len(sources))
	for _, src := range sources {
		servers[src.Name] = map[string]interface{}{
			"type":  "sdk",
			"name":  src.Name,
			"tools": src.Tools,
		}
	}
	data, err := json.Marshal(map[string]interface{}{"mcpServers": servers})
	if err != nil {
		return "", fmt.Errorf("encode mcp config: %w", err)
	}
	return string(data), nil
}
