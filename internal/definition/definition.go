// Package definition loads declarative build definitions from YAML and
// materializes them into templates. Decoding walks yaml.Node trees instead
// of plain maps so the document order of variables and agent fields survives
// into the serialized template.
//
// Scalar values may carry a reference tag that expands to packer template
// syntax: !user NAME (checked against the definition's variables),
// !env NAME, and !builtin NAME.
package definition

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forgelab/packforge/internal/errors"
	"github.com/forgelab/packforge/internal/template"
)

// Variable is one named template variable.
type Variable struct {
	Name  string
	Value string
}

// Field is one agent field in document order.
type Field struct {
	Key   string
	Value any
}

// Agent is one builder, provisioner, or post-processor entry.
type Agent struct {
	Type   string
	Fields []Field
}

// Definition mirrors the YAML build-definition document.
type Definition struct {
	Output         string
	Variables      []Variable
	Builders       []Agent
	Provisioners   []Agent
	PostProcessors []Agent
}

// Reference placeholders produced by the !user/!env/!builtin tags; they are
// resolved to packer tokens when the definition is materialized.
type (
	userRef    string
	envRef     string
	builtinRef string
)

// Load reads and parses a build definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.DefinitionNotFound(path)
		}
		return nil, errors.DefinitionInvalid(path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, errors.DefinitionInvalid(path, err)
	}
	return def, nil
}

// Parse parses a build definition document.
func Parse(data []byte) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("definition is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("definition must be a mapping, got %s", nodeKind(root))
	}

	def := &Definition{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		value := root.Content[i+1]

		var err error
		switch key {
		case "output":
			def.Output = value.Value
		case "variables":
			def.Variables, err = parseVariables(value)
		case "builders":
			def.Builders, err = parseAgents(key, value)
		case "provisioners":
			def.Provisioners, err = parseAgents(key, value)
		case "post-processors":
			def.PostProcessors, err = parseAgents(key, value)
		default:
			err = fmt.Errorf("unknown definition key %q (line %d)", key, root.Content[i].Line)
		}
		if err != nil {
			return nil, err
		}
	}
	return def, nil
}

func parseVariables(node *yaml.Node) ([]Variable, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("variables must be a mapping, got %s", nodeKind(node))
	}
	vars := make([]Variable, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		value := node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("variable %q must be a string (line %d)", node.Content[i].Value, value.Line)
		}
		vars = append(vars, Variable{Name: node.Content[i].Value, Value: value.Value})
	}
	return vars, nil
}

func parseAgents(section string, node *yaml.Node) ([]Agent, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s must be a sequence, got %s", section, nodeKind(node))
	}
	agents := make([]Agent, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s entry must be a mapping (line %d)", section, item.Line)
		}
		var agent Agent
		for i := 0; i+1 < len(item.Content); i += 2 {
			key := item.Content[i].Value
			value := item.Content[i+1]
			if key == "type" {
				agent.Type = value.Value
				continue
			}
			v, err := decodeValue(value)
			if err != nil {
				return nil, err
			}
			agent.Fields = append(agent.Fields, Field{Key: key, Value: v})
		}
		if agent.Type == "" {
			return nil, fmt.Errorf("%s entry is missing its type (line %d)", section, item.Line)
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

func decodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	case yaml.ScalarNode:
		switch node.Tag {
		case "!user":
			return userRef(node.Value), nil
		case "!env":
			return envRef(node.Value), nil
		case "!builtin":
			return builtinRef(node.Value), nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode scalar (line %d): %w", node.Line, err)
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := decodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[node.Content[i].Value] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected yaml node (line %d)", node.Line)
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// Template materializes the definition. outputPath overrides the
// definition's own output path when non-empty; with neither set the
// template lands in ./template.json.
func (d *Definition) Template(outputPath string) (*template.Template, error) {
	path := outputPath
	if path == "" {
		path = d.Output
	}
	if path == "" {
		path = "template.json"
	}

	tpl := template.New(path)
	for _, v := range d.Variables {
		tpl.AddVariable(v.Name, v.Value)
	}
	if err := addAgents(tpl, d.Builders, tpl.AddBuilder); err != nil {
		return nil, err
	}
	if err := addAgents(tpl, d.Provisioners, tpl.AddProvisioner); err != nil {
		return nil, err
	}
	if err := addAgents(tpl, d.PostProcessors, tpl.AddPostProcessor); err != nil {
		return nil, err
	}
	return tpl, nil
}

func addAgents(tpl *template.Template, agents []Agent, add func(string) (*template.Record, error)) error {
	for _, agent := range agents {
		rec, err := add(agent.Type)
		if err != nil {
			return err
		}
		for _, field := range agent.Fields {
			v, err := resolveValue(tpl, field.Value)
			if err != nil {
				return err
			}
			rec.Set(field.Key, v)
		}
	}
	return nil
}

// resolveValue expands reference placeholders into packer tokens, walking
// nested sequences and mappings. !user references fail when the definition
// never declared the variable.
func resolveValue(tpl *template.Template, v any) (any, error) {
	switch rv := v.(type) {
	case userRef:
		return tpl.Variable(string(rv))
	case envRef:
		return template.EnvVariable(string(rv)), nil
	case builtinRef:
		return template.Builtin(string(rv)), nil
	case []any:
		out := make([]any, len(rv))
		for i, item := range rv {
			resolved, err := resolveValue(tpl, item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(rv))
		for key, item := range rv {
			resolved, err := resolveValue(tpl, item)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	}
	return v, nil
}
