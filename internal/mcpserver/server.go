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

// Package mcpserver exposes the engine as a single read-only MCP tool,
// grounded directly in mkd-neo4j-neo4j-mcp-fraud's internal/tools/cypher/read
// (the tool spec shape) and internal/server (the registration pattern),
// minus everything that talks to a live Neo4j backend: here the tool runs
// against one preloaded graph.Host instead of a driver-backed session.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	grandcypher "github.com/aplbrain/grand-cypher"
	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/internal/version"
	"github.com/aplbrain/grand-cypher/table"
)

// RunCypherInput is the argument shape for the run-cypher tool, mirroring
// read.ReadCypherInput's query field plus grandcypher's OR-of-hint-maps
// binding (spec §6.1).
type RunCypherInput struct {
	Query string                       `json:"query" jsonschema:"description=The Cypher query to run against the preloaded host graph"`
	Hints []map[string]json.RawMessage `json:"hints,omitempty" jsonschema:"description=Optional list of partial variable-to-node-id bindings; a row must satisfy at least one"`
}

// RunCypherSpec declares the run-cypher tool: read-only, idempotent, and
// safe to call repeatedly against the fixed host graph (spec §1
// Non-goals: "no CREATE/MERGE/DELETE/SET").
func RunCypherSpec() mcp.Tool {
	return mcp.NewTool("run-cypher",
		mcp.WithDescription("run-cypher evaluates a read-only Cypher query (MATCH/WHERE/RETURN, with ORDER BY, SKIP, LIMIT, DISTINCT, and aggregates) against the server's preloaded host graph and returns the result as columnar JSON."),
		mcp.WithInputSchema[RunCypherInput](),
		mcp.WithTitleAnnotation("Run Cypher"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// RunCypherHandler binds a run-cypher call to engine and serializes the
// resulting table to JSON (spec §6.3 "columnar result").
func RunCypherHandler(engine *grandcypher.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args RunCypherInput
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if args.Query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		hints, err := decodeHints(args.Hints)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		cols, err := engine.Run(args.Query, hints...)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		body, err := json.Marshal(toJSON(cols))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// decodeHints turns the wire-level raw-JSON hint maps into node-id
// bindings. Only string node ids are supported: each hint value must
// decode as a JSON string.
func decodeHints(raw []map[string]json.RawMessage) ([]grandcypher.Hint, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]grandcypher.Hint, len(raw))
	for i, h := range raw {
		hint := grandcypher.Hint{}
		for name, v := range h {
			var id string
			if err := json.Unmarshal(v, &id); err != nil {
				return nil, fmt.Errorf("hint %q: %w", name, err)
			}
			hint[name] = graph.NodeID(id)
		}
		out[i] = hint
	}
	return out, nil
}

// resultDoc is the JSON shape returned to MCP clients: parallel column
// names and rows, native-typed rather than the engine's internal
// value.Value boxes.
type resultDoc struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

func toJSON(cols *table.Columnar) resultDoc {
	n := 0
	if len(cols.Columns) > 0 {
		n = len(cols.Values[cols.Columns[0]])
	}
	rows := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		row := make(map[string]interface{}, len(cols.Columns))
		for _, c := range cols.Columns {
			row[c] = cols.Values[c][i].Native()
		}
		rows[i] = row
	}
	return resultDoc{Columns: cols.Columns, Rows: rows}
}

// New builds an MCP server exposing run-cypher over host, in the shape of
// tools_register.go's Neo4jMCPServer.registerTools but with exactly one
// tool and no read/write split, since the engine has no write operations
// to filter out.
func New(host graph.Host) *server.MCPServer {
	s := server.NewMCPServer("grandcypher", fmt.Sprintf("%d.%d.%d-%s", version.Major, version.Minor, version.Patch, version.Release))
	engine := grandcypher.New(host)
	s.AddTools(server.ServerTool{
		Tool:    RunCypherSpec(),
		Handler: RunCypherHandler(engine),
	})
	return s
}

// ServeStdio runs the MCP server over stdio, the transport mcp-go's
// examples use for local tool servers.
func ServeStdio(host graph.Host) error {
	return server.ServeStdio(New(host))
}
