// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fixture loads a YAML host-graph description into a
// graph.Memory, the way tools/vcli/bw/run.go reads a BQL script from disk
// for the CLI to execute against a storage.Store. A fixture stands in for
// a real host-graph backend (spec §1 "explicitly out of scope: the
// host-graph library") when demoing or testing the engine from the
// command line or the MCP surface.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/value"
)

// Doc is the YAML shape a fixture file must follow:
//
//	directed: true
//	multigraph: false
//	nodes:
//	  - id: a
//	    labels: [Person]
//	    props: {name: Alice, age: 31}
//	edges:
//	  - from: a
//	    to: b
//	    key: 0
//	    labels: [friends]
//	    props: {since: 2019}
type Doc struct {
	Directed   bool      `yaml:"directed"`
	Multigraph bool      `yaml:"multigraph"`
	Nodes      []NodeDoc `yaml:"nodes"`
	Edges      []EdgeDoc `yaml:"edges"`
	Index      []string  `yaml:"index"`
}

// NodeDoc is one YAML node entry.
type NodeDoc struct {
	ID     string                 `yaml:"id"`
	Labels []string               `yaml:"labels"`
	Props  map[string]interface{} `yaml:"props"`
}

// EdgeDoc is one YAML edge entry.
type EdgeDoc struct {
	From   string                 `yaml:"from"`
	To     string                 `yaml:"to"`
	Key    *int                   `yaml:"key"`
	Labels []string               `yaml:"labels"`
	Props  map[string]interface{} `yaml:"props"`
}

// Load reads and parses a fixture file at path into a new graph.Memory.
func Load(path string) (*graph.Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture.Load(%q): %w", path, err)
	}
	return Parse(data)
}

// Parse builds a graph.Memory from raw fixture YAML.
func Parse(data []byte) (*graph.Memory, error) {
	var doc Doc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture.Parse: %w", err)
	}
	m := graph.NewMemory(doc.Directed, doc.Multigraph)
	for _, n := range doc.Nodes {
		attrs := attrsOf(n.Props)
		if len(n.Labels) > 0 {
			attrs[graph.LabelsAttr] = labelList(n.Labels)
		}
		m.AddNode(n.ID, attrs)
	}
	for _, e := range doc.Edges {
		attrs := attrsOf(e.Props)
		if len(e.Labels) > 0 {
			attrs[graph.LabelsAttr] = labelList(e.Labels)
		}
		var key *graph.EdgeKey
		if e.Key != nil {
			k := graph.EdgeKey(*e.Key)
			key = &k
		}
		m.AddEdge(e.From, e.To, key, attrs)
	}
	if len(doc.Index) > 0 {
		m.BuildIndex(doc.Index...)
	}
	return m, nil
}

func labelList(labels []string) value.Value {
	vs := make([]value.Value, len(labels))
	for i, l := range labels {
		vs[i] = value.Str(l)
	}
	return value.List(vs)
}

func attrsOf(props map[string]interface{}) map[string]value.Value {
	out := make(map[string]value.Value, len(props))
	for k, raw := range props {
		out[k] = toValue(raw)
	}
	return out
}

// toValue converts a value decoded by yaml.v3 (int, float64, bool, string,
// []interface{}, nil) into a value.Value.
func toValue(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null
	case int:
		return value.Int(int64(v))
	case int64:
		return value.Int(v)
	case float64:
		return value.Float(v)
	case bool:
		return value.Bool(v)
	case string:
		return value.Str(v)
	case []interface{}:
		vs := make([]value.Value, len(v))
		for i, e := range v {
			vs[i] = toValue(e)
		}
		return value.List(vs)
	default:
		return value.Str(fmt.Sprint(v))
	}
}
