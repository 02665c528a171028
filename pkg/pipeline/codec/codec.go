// Package codec reads and writes pipeline configurations as YAML.
//
//	stages:
//	  - name: A
//	    type: brighten
//	    parameters:
//	      amount: 10
//
// Deserialize checks the whole document before building anything: it either
// returns a complete pipeline or a *ConfigParsingError listing every problem.
package codec

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/operator"
	"github.com/askiada/go-cvpipe/pkg/pipeline/registry"
)

const (
	keyStages     = "stages"
	keyName       = "name"
	keyType       = "type"
	keyParameters = "parameters"
)

// Serialize writes p to w. Stages are written in execution order and
// parameters in declaration order.
func Serialize(w io.Writer, p *pipeline.Pipeline) error {
	if p == nil {
		return pipeline.ErrPipelineMustBeSet
	}

	stages := &yaml.Node{Kind: yaml.SequenceNode}

	for _, stage := range p.Operators() {
		node := mapping()
		appendPair(node, keyName, scalar(stage.Name))
		appendPair(node, keyType, scalar(stage.Operator.Type()))

		values := stage.Operator.Parameters()
		if len(values) > 0 {
			params := mapping()

			for _, v := range values {
				valueNode := &yaml.Node{}

				err := valueNode.Encode(v.Value)
				if err != nil {
					return errors.Wrapf(err, "unable to encode parameter %s of stage %s", v.Spec.Key(), stage.Name)
				}

				appendPair(params, v.Spec.Key(), valueNode)
			}

			appendPair(node, keyParameters, params)
		}

		stages.Content = append(stages.Content, node)
	}

	root := mapping()
	appendPair(root, keyStages, stages)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(root)
	if err != nil {
		return errors.Wrap(err, "unable to write configuration")
	}

	return errors.Wrap(enc.Close(), "unable to write configuration")
}

type stageConfig struct {
	op   operator.Operator
	name string
}

// Deserialize reads a configuration from r and builds a pipeline out of the
// operator types of reg. opts are applied to the returned pipeline.
func Deserialize(r io.Reader, reg *registry.Registry, opts ...pipeline.PipelineOption) (*pipeline.Pipeline, error) {
	if reg == nil {
		return nil, errors.New("registry must be set")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read configuration")
	}

	var doc yaml.Node

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, &ConfigParsingError{Reasons: []string{strings.TrimPrefix(err.Error(), "yaml: ")}}
	}

	var problems reasons

	stages := decodeDocument(&doc, reg, &problems)

	err = problems.err()
	if err != nil {
		return nil, err
	}

	pipe := pipeline.New(opts...)

	for _, stage := range stages {
		_, err := pipe.Add(stage.name, stage.op)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %s", stage.name)
		}
	}

	return pipe, nil
}

func decodeDocument(doc *yaml.Node, reg *registry.Registry, problems *reasons) []stageConfig {
	if doc.Kind == 0 || len(doc.Content) == 0 {
		problems.add(0, "document is empty")
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		problems.add(root.Line, "top level must be a mapping with a %q key", keyStages)
		return nil
	}

	var stagesNode *yaml.Node

	seen := make(map[string]int)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		if prev, ok := seen[key.Value]; ok {
			problems.add(key.Line, "duplicate key %q, first defined at line %d", key.Value, prev)
			continue
		}

		seen[key.Value] = key.Line

		if key.Value != keyStages {
			problems.add(key.Line, "unknown key %q", key.Value)
			continue
		}

		stagesNode = value
	}

	if stagesNode == nil {
		problems.add(root.Line, "missing key %q", keyStages)
		return nil
	}

	if stagesNode.Kind != yaml.SequenceNode {
		problems.add(stagesNode.Line, "%q must be a sequence", keyStages)
		return nil
	}

	stages := make([]stageConfig, 0, len(stagesNode.Content))
	names := make(map[string]int)

	for _, node := range stagesNode.Content {
		stage, ok := decodeStage(node, reg, problems)
		if !ok {
			continue
		}

		if prev, dup := names[stage.name]; dup {
			problems.add(node.Line, "duplicate stage name %q, first used at line %d", stage.name, prev)
			continue
		}

		names[stage.name] = node.Line
		stages = append(stages, stage)
	}

	return stages
}

func decodeStage(node *yaml.Node, reg *registry.Registry, problems *reasons) (stageConfig, bool) {
	if node.Kind != yaml.MappingNode {
		problems.add(node.Line, "stage must be a mapping")
		return stageConfig{}, false
	}

	var name, typeID string

	var params *yaml.Node

	valid := true
	seen := make(map[string]int)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if prev, ok := seen[key.Value]; ok {
			problems.add(key.Line, "duplicate key %q, first defined at line %d", key.Value, prev)

			valid = false

			continue
		}

		seen[key.Value] = key.Line

		var ok bool

		switch key.Value {
		case keyName:
			name, ok = scalarValue(value, keyName, problems)
			valid = valid && ok
		case keyType:
			typeID, ok = scalarValue(value, keyType, problems)
			valid = valid && ok
		case keyParameters:
			params = value
		default:
			problems.add(key.Line, "unknown key %q", key.Value)

			valid = false
		}
	}

	if _, ok := seen[keyName]; !ok {
		problems.add(node.Line, "stage is missing %q", keyName)

		valid = false
	}

	if _, ok := seen[keyType]; !ok {
		problems.add(node.Line, "stage is missing %q", keyType)

		valid = false
	}

	if typeID == "" {
		return stageConfig{}, false
	}

	op, err := reg.Instantiate(typeID)
	if err != nil {
		problems.add(node.Line, "%s", err.Error())
		return stageConfig{}, false
	}

	if params != nil && !decodeParameters(params, op, problems) {
		valid = false
	}

	return stageConfig{name: name, op: op}, valid
}

func scalarValue(value *yaml.Node, key string, problems *reasons) (string, bool) {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" || value.Value == "" {
		problems.add(value.Line, "%q must be a non empty string", key)
		return "", false
	}

	return value.Value, true
}

func decodeParameters(node *yaml.Node, op operator.Operator, problems *reasons) bool {
	if node.Kind != yaml.MappingNode {
		if node.Tag == "!!null" {
			return true
		}

		problems.add(node.Line, "%q must be a mapping", keyParameters)

		return false
	}

	valid := true
	seen := make(map[string]int)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if prev, ok := seen[key.Value]; ok {
			problems.add(key.Line, "duplicate parameter %q, first defined at line %d", key.Value, prev)

			valid = false

			continue
		}

		seen[key.Value] = key.Line

		var v any

		err := value.Decode(&v)
		if err == nil {
			err = op.SetParameter(key.Value, v)
		}

		if err != nil {
			problems.add(value.Line, "%s", err.Error())

			valid = false
		}
	}

	return valid
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func appendPair(node *yaml.Node, key string, value *yaml.Node) {
	node.Content = append(node.Content, scalar(key), value)
}
