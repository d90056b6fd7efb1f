// Package model loads simulation model files: YAML documents that declare,
// per agent, the functions of a simulation step together with the queries
// each function consumes and produces.
package model

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/nanosim/queries"
)

// Field names of a function entry.
const (
	FieldName     = "name"
	FieldConsumed = "consumed"
	FieldProduced = "produced"
)

// Model is a parsed model file.
type Model struct {
	// Path is the file the model was read from. May be empty.
	Path string

	// Agents in ascending name order.
	Agents []*Agent
}

// Agent groups the functions declared for one agent.
type Agent struct {
	Name string

	// Functions in declaration order.
	Functions []*Function
}

// Function is one step function with its parsed queries.
type Function struct {
	Agent string
	Name  string

	Consumed queries.Query
	Produced queries.Query

	// ConsumedText and ProducedText hold the source text as written.
	ConsumedText string
	ProducedText string
}

// Agent returns the agent with the given name, or nil.
func (m *Model) Agent(name string) *Agent {
	i, found := slices.BinarySearchFunc(m.Agents, name, func(a *Agent, name string) int {
		return strings.Compare(a.Name, name)
	})
	if !found {
		return nil
	}

	return m.Agents[i]
}

// Functions returns all functions ordered by agent name, then declaration.
func (m *Model) Functions() []*Function {
	var fns []*Function
	for _, a := range m.Agents {
		fns = append(fns, a.Functions...)
	}

	return fns
}

// Queries returns the sorted set of distinct queries used by the model.
func (m *Model) Queries() []queries.Query {
	var qs []queries.Query
	for _, fn := range m.Functions() {
		qs = append(qs, fn.Consumed, fn.Produced)
	}

	return queries.Unique(qs)
}

// Parse decodes a model document. path is used in error messages only.
//
// Structural problems abort decoding. Query texts are all parsed, and every
// failure is reported as a *QueryError; the returned error then combines
// them and multierr.Errors recovers the list.
func Parse(data []byte, path string) (*Model, error) {
	var doc yaml.Node

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, errors.WithHint(errors.Mark(errors.Wrapf(err, "decoding %s", path), ErrInvalidModel), shapeHint)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, shapeError(path, 1, 1, "empty document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, shapeError(path, root.Line, root.Column, "top level must be a mapping")
	}

	var agentsNode *yaml.Node

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if key.Value != "agents" {
			return nil, shapeError(path, key.Line, key.Column, "unknown top-level key %q", key.Value)
		}

		agentsNode = root.Content[i+1]
	}

	if agentsNode == nil {
		return nil, shapeError(path, root.Line, root.Column, "missing 'agents'")
	}

	d := &decoder{path: path}

	m, err := d.decodeAgents(agentsNode)
	if err != nil {
		return nil, err
	}

	if d.errs != nil {
		return nil, d.errs
	}

	return m, nil
}

type decoder struct {
	path string
	errs error
}

func (d *decoder) decodeAgents(node *yaml.Node) (*Model, error) {
	if node.Kind != yaml.MappingNode {
		return nil, shapeError(d.path, node.Line, node.Column, "'agents' must be a mapping")
	}

	m := &Model{Path: d.path}
	seen := make(map[string]bool)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if key.Kind != yaml.ScalarNode {
			return nil, shapeError(d.path, key.Line, key.Column, "agent name must be a string")
		}

		if seen[key.Value] {
			return nil, shapeError(d.path, key.Line, key.Column, "duplicate agent %q", key.Value)
		}

		seen[key.Value] = true

		agent, err := d.decodeAgent(key.Value, value)
		if err != nil {
			return nil, err
		}

		m.Agents = append(m.Agents, agent)
	}

	slices.SortFunc(m.Agents, func(a, b *Agent) int {
		return strings.Compare(a.Name, b.Name)
	})

	return m, nil
}

func (d *decoder) decodeAgent(name string, node *yaml.Node) (*Agent, error) {
	agent := &Agent{Name: name}

	// An agent with no functions may be written as "Body1:" or "Body1: []".
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return agent, nil
	}

	if node.Kind != yaml.SequenceNode {
		return nil, shapeError(d.path, node.Line, node.Column, "functions of agent %q must be a list", name)
	}

	for _, item := range node.Content {
		fn, err := d.decodeFunction(name, item)
		if err != nil {
			return nil, err
		}

		agent.Functions = append(agent.Functions, fn)
	}

	return agent, nil
}

func (d *decoder) decodeFunction(agent string, node *yaml.Node) (*Function, error) {
	if node.Kind != yaml.MappingNode {
		return nil, shapeError(d.path, node.Line, node.Column, "function of agent %q must be a mapping", agent)
	}

	fields := make(map[string]*yaml.Node, 3) //nolint:mnd

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		switch key.Value {
		case FieldName, FieldConsumed, FieldProduced:
		default:
			return nil, shapeError(d.path, key.Line, key.Column, "unknown function key %q", key.Value)
		}

		if value.Kind != yaml.ScalarNode {
			return nil, shapeError(d.path, value.Line, value.Column, "%q must be a string", key.Value)
		}

		fields[key.Value] = value
	}

	for _, required := range []string{FieldName, FieldConsumed, FieldProduced} {
		if fields[required] == nil {
			return nil, shapeError(d.path, node.Line, node.Column, "function of agent %q is missing %q", agent, required)
		}
	}

	fn := &Function{
		Agent:        agent,
		Name:         fields[FieldName].Value,
		ConsumedText: fields[FieldConsumed].Value,
		ProducedText: fields[FieldProduced].Value,
	}

	fn.Consumed = d.parseQuery(fn, FieldConsumed, fields[FieldConsumed])
	fn.Produced = d.parseQuery(fn, FieldProduced, fields[FieldProduced])

	return fn, nil
}

// parseQuery parses a query scalar, recording any failure.
func (d *decoder) parseQuery(fn *Function, field string, node *yaml.Node) queries.Query { //nolint:ireturn
	q, err := queries.Parse(node.Value)
	if err != nil {
		d.errs = multierr.Append(d.errs, &QueryError{
			Path:     d.path,
			Line:     node.Line,
			Column:   node.Column,
			Agent:    fn.Agent,
			Function: fn.Name,
			Field:    field,
			Text:     node.Value,
			Err:      err,
		})
	}

	return q
}
